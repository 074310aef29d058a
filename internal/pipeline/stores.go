package pipeline

import (
	"context"
	"fmt"

	"repeat-purchase-lab/internal/config"
	"repeat-purchase-lab/internal/logger"
	"repeat-purchase-lab/internal/storage"
	chstore "repeat-purchase-lab/internal/storage/clickhouse"
	"repeat-purchase-lab/internal/storage/memory"
	"repeat-purchase-lab/internal/storage/migrations"
	pgstore "repeat-purchase-lab/internal/storage/postgres"
)

// Stores holds the persistence targets of a run.
type Stores struct {
	Transactions storage.TransactionStore
	Features     storage.FeatureStore
	Labels       storage.LabelStore
	Scores       storage.ScoreStore
}

// MemoryStores creates in-memory implementations of every store.
func MemoryStores() *Stores {
	return &Stores{
		Transactions: memory.NewTransactionStore(),
		Features:     memory.NewFeatureStore(),
		Labels:       memory.NewLabelStore(),
		Scores:       memory.NewScoreStore(),
	}
}

// OpenStores connects the stores named by cfg. Tables without a DSN fall back
// to memory: Postgres backs transactions, features and labels; ClickHouse backs scores.
// The returned cleanup closes every connection that was opened.
func OpenStores(ctx context.Context, cfg config.Storage, log *logger.Logger) (*Stores, func(), error) {
	stores := MemoryStores()
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// PostgreSQL
	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)

		if cfg.RunMigrations {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("postgres migrations: %w", err)
			}
		}

		stores.Transactions = pgstore.NewTransactionStore(pool)
		stores.Features = pgstore.NewFeatureStore(pool)
		stores.Labels = pgstore.NewLabelStore(pool)
		log.Info("using postgres stores", "tables", "transactions,customer_features,customer_labels")
	}

	// ClickHouse
	if cfg.ClickhouseDSN != "" {
		var (
			conn *chstore.Conn
			err  error
		)
		if cfg.RunMigrations {
			conn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		} else {
			conn, err = chstore.NewConn(ctx, cfg.ClickhouseDSN)
		}
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		closers = append(closers, func() { conn.Close() })

		stores.Scores = chstore.NewScoreStore(conn)
		log.Info("using clickhouse score store", "table", "scored_customers")
	}

	return stores, cleanup, nil
}
