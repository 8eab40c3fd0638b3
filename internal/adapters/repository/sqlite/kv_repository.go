package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/voteportal/internal/core/ports"
	_ "modernc.org/sqlite"
)

const DefaultPollInterval = 500 * time.Millisecond

const schema = `
	CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value BLOB,
		writer TEXT NOT NULL,
		rev INTEGER NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_kv_store_rev ON kv_store(rev);
`

// kvRepository keeps every key in one row. Deleted keys stay behind as rows
// with a NULL value so that other processes can observe the deletion.
type kvRepository struct {
	db           *sql.DB
	writer       string
	pollInterval time.Duration
	logger       *slog.Logger
	// baseline is the highest rev at open time. Watch reports everything
	// newer, so writes landing before it starts are not lost.
	baseline int64
}

// NewKVRepository opens (and creates if needed) the database file at path.
func NewKVRepository(path string, pollInterval time.Duration, logger *slog.Logger) (ports.KVBackend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "sqlite")
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	var baseline int64
	if err := db.QueryRow(`SELECT COALESCE(MAX(rev), 0) FROM kv_store`).Scan(&baseline); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read current revision: %w", err)
	}

	logger.Info("sqlite store initialized", "path", path)
	return &kvRepository{
		db:           db,
		writer:       uuid.NewString(),
		pollInterval: pollInterval,
		logger:       logger,
		baseline:     baseline,
	}, nil
}

func (r *kvRepository) Read(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	if value == nil {
		return nil, false, nil
	}
	return value, true, nil
}

func (r *kvRepository) upsert(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_store (key, value, writer, rev, updated_at)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(rev), 0) + 1 FROM kv_store), CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			writer = excluded.writer,
			rev = excluded.rev,
			updated_at = excluded.updated_at
	`
	var stored any
	if value != nil {
		stored = value
	}
	_, err := r.db.ExecContext(ctx, query, key, stored, r.writer)
	return err
}

func (r *kvRepository) Write(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	if err := r.upsert(ctx, key, value); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (r *kvRepository) Delete(ctx context.Context, key string) error {
	if err := r.upsert(ctx, key, nil); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// Watch polls PRAGMA data_version on a dedicated connection. When another
// connection has committed, rows with a newer rev written by someone else
// are reported. Changes committed since the repository was opened are
// reported first.
func (r *kvRepository) Watch(ctx context.Context, fn func(ports.Change)) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to open watch connection: %w", err)
	}
	defer conn.Close()

	version, err := dataVersion(ctx, conn)
	if err != nil {
		return err
	}
	lastRev, err := r.emitSince(ctx, conn, r.baseline, fn)
	if err != nil {
		return fmt.Errorf("failed to read changes since open: %w", err)
	}

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		current, err := dataVersion(ctx, conn)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Error("failed to poll data version", "error", err)
			continue
		}
		if current == version {
			continue
		}
		version = current

		lastRev, err = r.emitSince(ctx, conn, lastRev, fn)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Error("failed to read changes", "error", err)
		}
	}
}

func dataVersion(ctx context.Context, conn *sql.Conn) (int64, error) {
	var v int64
	if err := conn.QueryRowContext(ctx, `PRAGMA data_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read data version: %w", err)
	}
	return v, nil
}

func (r *kvRepository) emitSince(ctx context.Context, conn *sql.Conn, since int64, fn func(ports.Change)) (int64, error) {
	rows, err := conn.QueryContext(ctx,
		`SELECT key, value, writer, rev FROM kv_store WHERE rev > ? ORDER BY rev`, since)
	if err != nil {
		return since, err
	}

	var changes []ports.Change
	last := since
	for rows.Next() {
		var (
			key, writer string
			value       []byte
			rev         int64
		)
		if err := rows.Scan(&key, &value, &writer, &rev); err != nil {
			rows.Close()
			return last, err
		}
		last = rev
		if writer == r.writer {
			continue
		}
		changes = append(changes, ports.Change{Key: key, Value: value, Deleted: value == nil})
	}
	if err := rows.Close(); err != nil {
		return last, err
	}
	if err := rows.Err(); err != nil {
		return last, err
	}

	for _, c := range changes {
		fn(c)
	}
	return last, nil
}

func (r *kvRepository) Close() error {
	return r.db.Close()
}
