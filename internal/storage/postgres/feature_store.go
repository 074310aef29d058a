package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"repeat-purchase-lab/internal/domain"
	"repeat-purchase-lab/internal/storage"
)

// FeatureStore implements storage.FeatureStore using PostgreSQL.
type FeatureStore struct {
	pool *Pool
}

// NewFeatureStore creates a new FeatureStore.
func NewFeatureStore(pool *Pool) *FeatureStore {
	return &FeatureStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FeatureStore = (*FeatureStore)(nil)

const selectFeatures = `
	SELECT customer_id, last_order_date, first_order_date, order_count, monetary_total,
		avg_discount_rate, return_rate, category_diversity, recency_days, tenure_days
	FROM customer_features
`

// InsertBulk adds the feature table of a run. Fails entire batch on any duplicate.
func (s *FeatureStore) InsertBulk(ctx context.Context, runID string, feats []domain.CustomerFeatures) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(feats) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO customer_features (
			run_id, customer_id, last_order_date, first_order_date, order_count, monetary_total,
			avg_discount_rate, return_rate, category_diversity, recency_days, tenure_days
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, f := range feats {
		if f.CustomerID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			runID,
			f.CustomerID,
			f.LastOrderDate,
			f.FirstOrderDate,
			f.OrderCount,
			f.MonetaryTotal,
			f.AvgDiscountRate,
			f.ReturnRate,
			f.CategoryDiversity,
			f.RecencyDays,
			f.TenureDays,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert features in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRun retrieves a run's feature table, ordered by customer_id ASC in byte order.
func (s *FeatureStore) GetByRun(ctx context.Context, runID string) ([]domain.CustomerFeatures, error) {
	rows, err := s.pool.Query(ctx, selectFeatures+` WHERE run_id = $1 ORDER BY customer_id COLLATE "C" ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("get features by run: %w", err)
	}
	defer rows.Close()

	var feats []domain.CustomerFeatures
	for rows.Next() {
		f, err := scanFeatures(rows)
		if err != nil {
			return nil, err
		}
		feats = append(feats, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature rows: %w", err)
	}
	return feats, nil
}

// GetByCustomer retrieves one customer's features. Returns ErrNotFound if not exists.
func (s *FeatureStore) GetByCustomer(ctx context.Context, runID, customerID string) (*domain.CustomerFeatures, error) {
	row := s.pool.QueryRow(ctx, selectFeatures+` WHERE run_id = $1 AND customer_id = $2`, runID, customerID)

	f, err := scanFeatures(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func scanFeatures(row pgx.Row) (*domain.CustomerFeatures, error) {
	var f domain.CustomerFeatures
	err := row.Scan(
		&f.CustomerID,
		&f.LastOrderDate,
		&f.FirstOrderDate,
		&f.OrderCount,
		&f.MonetaryTotal,
		&f.AvgDiscountRate,
		&f.ReturnRate,
		&f.CategoryDiversity,
		&f.RecencyDays,
		&f.TenureDays,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("scan feature row: %w", err)
	}
	return &f, nil
}
