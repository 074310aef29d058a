package memory

import (
	"context"
	"sync"

	"repeat-purchase-lab/internal/domain"
	"repeat-purchase-lab/internal/scoring"
	"repeat-purchase-lab/internal/storage"
)

// ScoreStore is an in-memory implementation of storage.ScoreStore.
type ScoreStore struct {
	mu   sync.RWMutex
	data map[string][]domain.ScoredCustomer // run_id -> scores ordered by rank
}

// NewScoreStore creates a new in-memory score store.
func NewScoreStore() *ScoreStore {
	return &ScoreStore{
		data: make(map[string][]domain.ScoredCustomer),
	}
}

// InsertBulk adds the scored customers of a run. Returns ErrDuplicateKey if the run already has scores.
func (s *ScoreStore) InsertBulk(_ context.Context, runID string, scored []domain.ScoredCustomer) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	for _, sc := range scored {
		if sc.CustomerID == "" || sc.Decile < 1 || sc.Decile > scoring.NumDeciles {
			return storage.ErrInvalidInput
		}
	}
	if len(scored) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[runID] = scoring.SortByRank(scored)
	return nil
}

// GetByRun retrieves a run's scores, ordered by rank ASC.
func (s *ScoreStore) GetByRun(_ context.Context, runID string) ([]domain.ScoredCustomer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.ScoredCustomer(nil), s.data[runID]...), nil
}

// GetByDecile retrieves a run's scores within one decile, ordered by rank ASC.
func (s *ScoreStore) GetByDecile(_ context.Context, runID string, decile int) ([]domain.ScoredCustomer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.ScoredCustomer
	for _, sc := range s.data[runID] {
		if sc.Decile == decile {
			result = append(result, sc)
		}
	}
	return result, nil
}

var _ storage.ScoreStore = (*ScoreStore)(nil)
