package memory

import (
	"context"
	"sort"
	"sync"

	"repeat-purchase-lab/internal/domain"
	"repeat-purchase-lab/internal/storage"
)

// FeatureStore is an in-memory implementation of storage.FeatureStore.
type FeatureStore struct {
	mu   sync.RWMutex
	data map[string]map[string]domain.CustomerFeatures // run_id -> customer_id -> features
}

// NewFeatureStore creates a new in-memory feature store.
func NewFeatureStore() *FeatureStore {
	return &FeatureStore{
		data: make(map[string]map[string]domain.CustomerFeatures),
	}
}

// InsertBulk adds the feature table of a run. Fails entire batch on any duplicate.
func (s *FeatureStore) InsertBulk(_ context.Context, runID string, feats []domain.CustomerFeatures) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(feats) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[runID]

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(feats))
	for _, f := range feats {
		if f.CustomerID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := existing[f.CustomerID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[f.CustomerID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[f.CustomerID] = struct{}{}
	}

	// Second pass: insert all
	if existing == nil {
		existing = make(map[string]domain.CustomerFeatures, len(feats))
		s.data[runID] = existing
	}
	for _, f := range feats {
		existing[f.CustomerID] = f
	}
	return nil
}

// GetByRun retrieves a run's feature table, ordered by customer_id ASC.
func (s *FeatureStore) GetByRun(_ context.Context, runID string) ([]domain.CustomerFeatures, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.CustomerFeatures, 0, len(s.data[runID]))
	for _, f := range s.data[runID] {
		result = append(result, f)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CustomerID < result[j].CustomerID
	})
	return result, nil
}

// GetByCustomer retrieves one customer's features. Returns ErrNotFound if not exists.
func (s *FeatureStore) GetByCustomer(_ context.Context, runID, customerID string) (*domain.CustomerFeatures, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.data[runID][customerID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &f, nil
}

var _ storage.FeatureStore = (*FeatureStore)(nil)
