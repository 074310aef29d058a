package pipeline

import (
	"context"
	"time"

	"repeat-purchase-lab/internal/domain"
	"repeat-purchase-lab/internal/observability"
	"repeat-purchase-lab/internal/storage"
)

// Store names used in database metrics.
const (
	storeTransactions = "transactions"
	storeFeatures     = "features"
	storeLabels       = "labels"
	storeScores       = "scores"
)

// Instrument wraps every store so each call records its duration and errors.
func (s *Stores) Instrument(m *observability.Metrics) *Stores {
	return &Stores{
		Transactions: &instrumentedTransactions{next: s.Transactions, m: m},
		Features:     &instrumentedFeatures{next: s.Features, m: m},
		Labels:       &instrumentedLabels{next: s.Labels, m: m},
		Scores:       &instrumentedScores{next: s.Scores, m: m},
	}
}

type instrumentedTransactions struct {
	next storage.TransactionStore
	m    *observability.Metrics
}

var _ storage.TransactionStore = (*instrumentedTransactions)(nil)

func (s *instrumentedTransactions) InsertBulk(ctx context.Context, dataVersion string, txs []domain.Transaction) error {
	start := time.Now()
	err := s.next.InsertBulk(ctx, dataVersion, txs)
	s.m.RecordDBQuery(storeTransactions, "insert_bulk", start, err)
	return err
}

func (s *instrumentedTransactions) GetByVersion(ctx context.Context, dataVersion string) ([]domain.Transaction, error) {
	start := time.Now()
	txs, err := s.next.GetByVersion(ctx, dataVersion)
	s.m.RecordDBQuery(storeTransactions, "get_by_version", start, err)
	return txs, err
}

func (s *instrumentedTransactions) GetByCustomer(ctx context.Context, dataVersion, customerID string) ([]domain.Transaction, error) {
	start := time.Now()
	txs, err := s.next.GetByCustomer(ctx, dataVersion, customerID)
	s.m.RecordDBQuery(storeTransactions, "get_by_customer", start, err)
	return txs, err
}

type instrumentedFeatures struct {
	next storage.FeatureStore
	m    *observability.Metrics
}

var _ storage.FeatureStore = (*instrumentedFeatures)(nil)

func (s *instrumentedFeatures) InsertBulk(ctx context.Context, runID string, feats []domain.CustomerFeatures) error {
	start := time.Now()
	err := s.next.InsertBulk(ctx, runID, feats)
	s.m.RecordDBQuery(storeFeatures, "insert_bulk", start, err)
	return err
}

func (s *instrumentedFeatures) GetByRun(ctx context.Context, runID string) ([]domain.CustomerFeatures, error) {
	start := time.Now()
	feats, err := s.next.GetByRun(ctx, runID)
	s.m.RecordDBQuery(storeFeatures, "get_by_run", start, err)
	return feats, err
}

func (s *instrumentedFeatures) GetByCustomer(ctx context.Context, runID, customerID string) (*domain.CustomerFeatures, error) {
	start := time.Now()
	f, err := s.next.GetByCustomer(ctx, runID, customerID)
	s.m.RecordDBQuery(storeFeatures, "get_by_customer", start, err)
	return f, err
}

type instrumentedLabels struct {
	next storage.LabelStore
	m    *observability.Metrics
}

var _ storage.LabelStore = (*instrumentedLabels)(nil)

func (s *instrumentedLabels) InsertBulk(ctx context.Context, runID string, labels []domain.LabelRecord) error {
	start := time.Now()
	err := s.next.InsertBulk(ctx, runID, labels)
	s.m.RecordDBQuery(storeLabels, "insert_bulk", start, err)
	return err
}

func (s *instrumentedLabels) GetByRun(ctx context.Context, runID string) ([]domain.LabelRecord, error) {
	start := time.Now()
	labels, err := s.next.GetByRun(ctx, runID)
	s.m.RecordDBQuery(storeLabels, "get_by_run", start, err)
	return labels, err
}

type instrumentedScores struct {
	next storage.ScoreStore
	m    *observability.Metrics
}

var _ storage.ScoreStore = (*instrumentedScores)(nil)

func (s *instrumentedScores) InsertBulk(ctx context.Context, runID string, scored []domain.ScoredCustomer) error {
	start := time.Now()
	err := s.next.InsertBulk(ctx, runID, scored)
	s.m.RecordDBQuery(storeScores, "insert_bulk", start, err)
	return err
}

func (s *instrumentedScores) GetByRun(ctx context.Context, runID string) ([]domain.ScoredCustomer, error) {
	start := time.Now()
	scored, err := s.next.GetByRun(ctx, runID)
	s.m.RecordDBQuery(storeScores, "get_by_run", start, err)
	return scored, err
}

func (s *instrumentedScores) GetByDecile(ctx context.Context, runID string, decile int) ([]domain.ScoredCustomer, error) {
	start := time.Now()
	scored, err := s.next.GetByDecile(ctx, runID, decile)
	s.m.RecordDBQuery(storeScores, "get_by_decile", start, err)
	return scored, err
}
