package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vncsmyrnk/voteportal/internal/core/ports"
)

const changeChannel = "kv_changes"

// notification is the payload sent on the change channel. Values are not
// included because NOTIFY payloads are size limited.
type notification struct {
	Key     string `json:"key"`
	Writer  string `json:"writer"`
	Deleted bool   `json:"deleted"`
}

type kvRepository struct {
	db     *sql.DB
	dsn    string
	writer string
	logger *slog.Logger
}

// NewKVRepository uses db for reads and writes and opens its own listener
// connection on dsn for Watch.
func NewKVRepository(db *sql.DB, dsn string, logger *slog.Logger) ports.KVBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &kvRepository{
		db:     db,
		dsn:    dsn,
		writer: uuid.NewString(),
		logger: logger.With("component", "postgres"),
	}
}

func (r *kvRepository) Read(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
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

func (r *kvRepository) save(ctx context.Context, key string, value []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO kv_store (key, value, writer, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			writer = EXCLUDED.writer,
			updated_at = EXCLUDED.updated_at
	`
	var stored any
	if value != nil {
		stored = value
	}
	if _, err := tx.ExecContext(ctx, query, key, stored, r.writer); err != nil {
		return fmt.Errorf("failed to upsert key %q: %w", key, err)
	}

	payload, err := json.Marshal(notification{Key: key, Writer: r.writer, Deleted: value == nil})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, changeChannel, string(payload)); err != nil {
		return fmt.Errorf("failed to notify change: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *kvRepository) Write(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	return r.save(ctx, key, value)
}

// Delete keeps a row with a NULL value so the key reads as missing.
func (r *kvRepository) Delete(ctx context.Context, key string) error {
	return r.save(ctx, key, nil)
}

// Watch listens on the change channel until ctx is done. Notifications sent
// by this backend are ignored; for the others the current value is re-read.
func (r *kvRepository) Watch(ctx context.Context, fn func(ports.Change)) error {
	listener := pq.NewListener(r.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			r.logger.Error("listener event", "event", ev, "error", err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(changeChannel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", changeChannel, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			if n == nil {
				// reconnected; notifications sent meanwhile are lost
				r.logger.Warn("listener reconnected")
				continue
			}
			r.handle(ctx, n.Extra, fn)
		case <-time.After(90 * time.Second):
			if err := listener.Ping(); err != nil {
				r.logger.Error("listener ping failed", "error", err)
			}
		}
	}
}

func (r *kvRepository) handle(ctx context.Context, payload string, fn func(ports.Change)) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		r.logger.Error("failed to decode notification", "payload", payload, "error", err)
		return
	}
	if n.Writer == r.writer {
		return
	}

	value, found, err := r.Read(ctx, n.Key)
	if err != nil {
		r.logger.Error("failed to read changed key", "key", n.Key, "error", err)
		return
	}
	fn(ports.Change{Key: n.Key, Value: value, Deleted: !found})
}

func (r *kvRepository) Close() error {
	return r.db.Close()
}
