package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	"github.com/vncsmyrnk/voteportal/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/voteportal/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/voteportal/internal/adapters/repository/sqlite"
	"github.com/vncsmyrnk/voteportal/internal/config"
	"github.com/vncsmyrnk/voteportal/internal/core/ports"
)

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (ports.KVBackend, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewKVRepository(nil), nil

	case config.DriverSQLite:
		return sqlite.NewKVRepository(cfg.DSN, cfg.PollInterval, logger)

	case config.DriverPostgres:
		db, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to reach database: %w", err)
		}
		return postgres.NewKVRepository(db, cfg.DSN, logger), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
