package postgres

import (
	"context"
	"fmt"

	"repeat-purchase-lab/internal/domain"
	"repeat-purchase-lab/internal/storage"
)

// LabelStore implements storage.LabelStore using PostgreSQL.
type LabelStore struct {
	pool *Pool
}

// NewLabelStore creates a new LabelStore.
func NewLabelStore(pool *Pool) *LabelStore {
	return &LabelStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LabelStore = (*LabelStore)(nil)

// InsertBulk adds the label table of a run. Fails entire batch on any duplicate.
func (s *LabelStore) InsertBulk(ctx context.Context, runID string, labels []domain.LabelRecord) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(labels) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO customer_labels (run_id, customer_id, label) VALUES ($1, $2, $3)`

	for _, l := range labels {
		if l.CustomerID == "" || (l.Label != 0 && l.Label != 1) {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, query, runID, l.CustomerID, l.Label); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert labels in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRun retrieves a run's labels, ordered by customer_id ASC in byte order.
func (s *LabelStore) GetByRun(ctx context.Context, runID string) ([]domain.LabelRecord, error) {
	query := `
		SELECT customer_id, label
		FROM customer_labels
		WHERE run_id = $1
		ORDER BY customer_id COLLATE "C" ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get labels by run: %w", err)
	}
	defer rows.Close()

	var labels []domain.LabelRecord
	for rows.Next() {
		var l domain.LabelRecord
		if err := rows.Scan(&l.CustomerID, &l.Label); err != nil {
			return nil, fmt.Errorf("scan label row: %w", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate label rows: %w", err)
	}
	return labels, nil
}
