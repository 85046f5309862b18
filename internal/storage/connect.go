package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/user/friction-ultimate/config"
)

// Connect opens the configured durable store, retrying a bounded number of
// times with a fixed delay. It returns nil, nil when no DSN is configured.
// After the last failed attempt the caller is expected to run memory-only.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DSN == "" {
		logger.Info("No database configured, using in-memory storage")
		return nil, nil
	}

	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		store, err := open(ctx, cfg)
		if err == nil {
			logger.Info("Connected to database",
				zap.String("driver", cfg.Driver),
				zap.Int("attempt", attempt))
			return store, nil
		}

		lastErr = err
		logger.Warn("Database connection attempt failed",
			zap.String("driver", cfg.Driver),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err))

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.RetryDelay()):
		}
	}

	return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempts, lastErr)
}

func open(ctx context.Context, cfg config.DatabaseConfig) (*SQLStore, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.Driver == DriverSQLite {
		// single writer, and :memory: databases live per connection
		db.SetMaxOpenConns(1)
	}

	store := NewSQLStore(db, cfg.Driver)
	if err := store.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
