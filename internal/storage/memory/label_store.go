package memory

import (
	"context"
	"sort"
	"sync"

	"repeat-purchase-lab/internal/domain"
	"repeat-purchase-lab/internal/storage"
)

// LabelStore is an in-memory implementation of storage.LabelStore.
type LabelStore struct {
	mu   sync.RWMutex
	data map[string]map[string]int // run_id -> customer_id -> label
}

// NewLabelStore creates a new in-memory label store.
func NewLabelStore() *LabelStore {
	return &LabelStore{
		data: make(map[string]map[string]int),
	}
}

// InsertBulk adds the label table of a run. Fails entire batch on any duplicate.
func (s *LabelStore) InsertBulk(_ context.Context, runID string, labels []domain.LabelRecord) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(labels) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[runID]
	batchKeys := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if l.CustomerID == "" || (l.Label != 0 && l.Label != 1) {
			return storage.ErrInvalidInput
		}
		if _, exists := existing[l.CustomerID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[l.CustomerID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[l.CustomerID] = struct{}{}
	}

	if existing == nil {
		existing = make(map[string]int, len(labels))
		s.data[runID] = existing
	}
	for _, l := range labels {
		existing[l.CustomerID] = l.Label
	}
	return nil
}

// GetByRun retrieves a run's labels, ordered by customer_id ASC.
func (s *LabelStore) GetByRun(_ context.Context, runID string) ([]domain.LabelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.LabelRecord, 0, len(s.data[runID]))
	for id, label := range s.data[runID] {
		result = append(result, domain.LabelRecord{CustomerID: id, Label: label})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CustomerID < result[j].CustomerID
	})
	return result, nil
}

var _ storage.LabelStore = (*LabelStore)(nil)
