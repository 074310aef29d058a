package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"repeat-purchase-lab/internal/domain"
	"repeat-purchase-lab/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

var transactionColumns = []string{
	"data_version", "line_no", "customer_id", "order_id", "order_date",
	"quantity", "unit_price", "discount_rate", "is_return", "channel", "category",
}

// InsertBulk stores a transaction set atomically. Returns ErrDuplicateKey if dataVersion exists.
func (s *TransactionStore) InsertBulk(ctx context.Context, dataVersion string, txs []domain.Transaction) error {
	if dataVersion == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// The version row guards the whole set, including empty ones
	_, err = tx.Exec(ctx, `INSERT INTO transaction_sets (data_version, line_count) VALUES ($1, $2)`,
		dataVersion, len(txs))
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert transaction set: %w", err)
	}

	rows := make([][]any, len(txs))
	for i, t := range txs {
		rows[i] = []any{
			dataVersion, i, t.CustomerID, t.OrderID, t.OrderDate,
			t.Quantity, t.UnitPrice, t.DiscountRate, t.IsReturn, t.Channel, t.Category,
		}
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"transactions"}, transactionColumns, pgx.CopyFromRows(rows)); err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("copy transactions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByVersion retrieves a transaction set in its original line order.
func (s *TransactionStore) GetByVersion(ctx context.Context, dataVersion string) ([]domain.Transaction, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT line_count FROM transaction_sets WHERE data_version = $1`, dataVersion).Scan(&count)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get transaction set: %w", err)
	}

	query := `
		SELECT customer_id, order_id, order_date, quantity, unit_price, discount_rate, is_return, channel, category
		FROM transactions
		WHERE data_version = $1
		ORDER BY line_no ASC
	`

	rows, err := s.pool.Query(ctx, query, dataVersion)
	if err != nil {
		return nil, fmt.Errorf("get transactions by version: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows, count)
}

// GetByCustomer retrieves a customer's lines within a version, in original line order.
func (s *TransactionStore) GetByCustomer(ctx context.Context, dataVersion, customerID string) ([]domain.Transaction, error) {
	query := `
		SELECT customer_id, order_id, order_date, quantity, unit_price, discount_rate, is_return, channel, category
		FROM transactions
		WHERE data_version = $1 AND customer_id = $2
		ORDER BY line_no ASC
	`

	rows, err := s.pool.Query(ctx, query, dataVersion, customerID)
	if err != nil {
		return nil, fmt.Errorf("get transactions by customer: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows, 0)
}

// scanTransactions scans multiple rows into a slice of Transaction.
func scanTransactions(rows pgx.Rows, sizeHint int) ([]domain.Transaction, error) {
	txs := make([]domain.Transaction, 0, sizeHint)

	for rows.Next() {
		var t domain.Transaction

		err := rows.Scan(
			&t.CustomerID,
			&t.OrderID,
			&t.OrderDate,
			&t.Quantity,
			&t.UnitPrice,
			&t.DiscountRate,
			&t.IsReturn,
			&t.Channel,
			&t.Category,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}

		txs = append(txs, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return txs, nil
}
