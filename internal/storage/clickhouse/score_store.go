package clickhouse

import (
	"context"
	"fmt"

	"repeat-purchase-lab/internal/domain"
	"repeat-purchase-lab/internal/scoring"
	"repeat-purchase-lab/internal/storage"
)

// ScoreStore implements storage.ScoreStore using ClickHouse.
type ScoreStore struct {
	conn *Conn
}

// NewScoreStore creates a new ScoreStore.
func NewScoreStore(conn *Conn) *ScoreStore {
	return &ScoreStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ScoreStore = (*ScoreStore)(nil)

// InsertBulk adds the scored customers of a run. Returns ErrDuplicateKey if the run already has scores.
func (s *ScoreStore) InsertBulk(ctx context.Context, runID string, scored []domain.ScoredCustomer) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	for _, sc := range scored {
		if sc.CustomerID == "" || sc.Decile < 1 || sc.Decile > scoring.NumDeciles || sc.Rank < 1 {
			return storage.ErrInvalidInput
		}
	}
	if len(scored) == 0 {
		return nil
	}

	// MergeTree does not enforce keys, append-only semantics are checked here
	exists, err := s.exists(ctx, runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO scored_customers (run_id, customer_id, probability, decile, score_rank)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, sc := range scored {
		err = batch.Append(runID, sc.CustomerID, sc.Probability, uint8(sc.Decile), uint32(sc.Rank))
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRun retrieves a run's scores, ordered by rank ASC.
func (s *ScoreStore) GetByRun(ctx context.Context, runID string) ([]domain.ScoredCustomer, error) {
	query := `
		SELECT customer_id, probability, decile, score_rank
		FROM scored_customers
		WHERE run_id = ?
		ORDER BY score_rank ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run: %w", err)
	}
	defer rows.Close()

	return scanScores(rows)
}

// GetByDecile retrieves a run's scores within one decile, ordered by rank ASC.
func (s *ScoreStore) GetByDecile(ctx context.Context, runID string, decile int) ([]domain.ScoredCustomer, error) {
	if decile < 1 || decile > scoring.NumDeciles {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT customer_id, probability, decile, score_rank
		FROM scored_customers
		WHERE run_id = ? AND decile = ?
		ORDER BY score_rank ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, uint8(decile))
	if err != nil {
		return nil, fmt.Errorf("query by decile: %w", err)
	}
	defer rows.Close()

	return scanScores(rows)
}

// exists checks if any score rows exist for the run.
func (s *ScoreStore) exists(ctx context.Context, runID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM scored_customers WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanScores scans multiple rows into a slice.
func scanScores(rows chRows) ([]domain.ScoredCustomer, error) {
	var scores []domain.ScoredCustomer

	for rows.Next() {
		var (
			sc     domain.ScoredCustomer
			decile uint8
			rank   uint32
		)
		if err := rows.Scan(&sc.CustomerID, &sc.Probability, &decile, &rank); err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		sc.Decile = int(decile)
		sc.Rank = int(rank)
		scores = append(scores, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate score rows: %w", err)
	}

	return scores, nil
}
