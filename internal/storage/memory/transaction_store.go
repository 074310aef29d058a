package memory

import (
	"context"
	"sync"

	"repeat-purchase-lab/internal/domain"
	"repeat-purchase-lab/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu   sync.RWMutex
	data map[string][]domain.Transaction // keyed by data version
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		data: make(map[string][]domain.Transaction),
	}
}

// InsertBulk stores a transaction set atomically. Returns ErrDuplicateKey if dataVersion exists.
func (s *TransactionStore) InsertBulk(_ context.Context, dataVersion string, txs []domain.Transaction) error {
	if dataVersion == "" {
		return storage.ErrInvalidInput
	}
	for _, t := range txs {
		if t.CustomerID == "" || t.OrderID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[dataVersion]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[dataVersion] = append([]domain.Transaction(nil), txs...)
	return nil
}

// GetByVersion retrieves a transaction set in its original line order.
func (s *TransactionStore) GetByVersion(_ context.Context, dataVersion string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txs, ok := s.data[dataVersion]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]domain.Transaction(nil), txs...), nil
}

// GetByCustomer retrieves a customer's lines within a version, in original line order.
func (s *TransactionStore) GetByCustomer(_ context.Context, dataVersion, customerID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Transaction
	for _, t := range s.data[dataVersion] {
		if t.CustomerID == customerID {
			result = append(result, t)
		}
	}
	return result, nil
}

var _ storage.TransactionStore = (*TransactionStore)(nil)
