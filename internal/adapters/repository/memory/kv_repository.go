package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/voteportal/internal/core/ports"
)

// Hub is shared durable storage for several backends in one process, the
// way browser tabs of one profile share localStorage. A write through one
// backend is reported as an external change to every other backend.
type Hub struct {
	mu       sync.RWMutex
	values   map[string][]byte
	watchers map[string]func(ports.Change)
}

func NewHub() *Hub {
	return &Hub{
		values:   make(map[string][]byte),
		watchers: make(map[string]func(ports.Change)),
	}
}

func (h *Hub) notify(from string, change ports.Change) {
	h.mu.RLock()
	targets := make([]func(ports.Change), 0, len(h.watchers))
	for id, fn := range h.watchers {
		if id != from {
			targets = append(targets, fn)
		}
	}
	h.mu.RUnlock()

	for _, fn := range targets {
		fn(change)
	}
}

type kvRepository struct {
	id  string
	hub *Hub
}

// NewKVRepository returns a backend over hub. Pass nil for a private store.
func NewKVRepository(hub *Hub) ports.KVBackend {
	if hub == nil {
		hub = NewHub()
	}
	return &kvRepository{id: uuid.NewString(), hub: hub}
}

func (r *kvRepository) Read(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	r.hub.mu.RLock()
	defer r.hub.mu.RUnlock()
	v, ok := r.hub.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (r *kvRepository) Write(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := append([]byte(nil), value...)
	r.hub.mu.Lock()
	r.hub.values[key] = stored
	r.hub.mu.Unlock()

	r.hub.notify(r.id, ports.Change{Key: key, Value: stored})
	return nil
}

func (r *kvRepository) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.hub.mu.Lock()
	delete(r.hub.values, key)
	r.hub.mu.Unlock()

	r.hub.notify(r.id, ports.Change{Key: key, Deleted: true})
	return nil
}

// Watch delivers changes synchronously on the writer's goroutine.
func (r *kvRepository) Watch(ctx context.Context, fn func(ports.Change)) error {
	r.hub.mu.Lock()
	r.hub.watchers[r.id] = fn
	r.hub.mu.Unlock()

	<-ctx.Done()

	r.hub.mu.Lock()
	delete(r.hub.watchers, r.id)
	r.hub.mu.Unlock()
	return nil
}

func (r *kvRepository) Close() error {
	return nil
}

// Watching reports how many backends currently watch the hub.
func (h *Hub) Watching() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers)
}
