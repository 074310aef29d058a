package storage

import (
	"context"

	"repeat-purchase-lab/internal/domain"
)

// TransactionStore provides access to transactions storage.
// A transaction set is identified by its data version fingerprint.
type TransactionStore interface {
	// InsertBulk stores a transaction set atomically. Returns ErrDuplicateKey if dataVersion exists.
	InsertBulk(ctx context.Context, dataVersion string, txs []domain.Transaction) error

	// GetByVersion retrieves a transaction set in its original line order.
	// Returns ErrNotFound if the version does not exist.
	GetByVersion(ctx context.Context, dataVersion string) ([]domain.Transaction, error)

	// GetByCustomer retrieves a customer's lines within a version, in original line order.
	GetByCustomer(ctx context.Context, dataVersion, customerID string) ([]domain.Transaction, error)
}

// FeatureStore provides access to customer_features storage.
type FeatureStore interface {
	// InsertBulk adds the feature table of a run. Fails entire batch on any duplicate (run_id, customer_id).
	InsertBulk(ctx context.Context, runID string, feats []domain.CustomerFeatures) error

	// GetByRun retrieves a run's feature table, ordered by customer_id ASC in byte order.
	GetByRun(ctx context.Context, runID string) ([]domain.CustomerFeatures, error)

	// GetByCustomer retrieves one customer's features. Returns ErrNotFound if not exists.
	GetByCustomer(ctx context.Context, runID, customerID string) (*domain.CustomerFeatures, error)
}

// LabelStore provides access to customer_labels storage.
type LabelStore interface {
	// InsertBulk adds the label table of a run. Fails entire batch on any duplicate (run_id, customer_id).
	InsertBulk(ctx context.Context, runID string, labels []domain.LabelRecord) error

	// GetByRun retrieves a run's labels, ordered by customer_id ASC in byte order.
	GetByRun(ctx context.Context, runID string) ([]domain.LabelRecord, error)
}

// ScoreStore provides access to scored_customers snapshots.
type ScoreStore interface {
	// InsertBulk adds the scored customers of a run. Returns ErrDuplicateKey if the run already has scores.
	InsertBulk(ctx context.Context, runID string, scored []domain.ScoredCustomer) error

	// GetByRun retrieves a run's scores, ordered by rank ASC.
	GetByRun(ctx context.Context, runID string) ([]domain.ScoredCustomer, error)

	// GetByDecile retrieves a run's scores within one decile, ordered by rank ASC.
	GetByDecile(ctx context.Context, runID string, decile int) ([]domain.ScoredCustomer, error)
}
