package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/voteportal/internal/core/ports"
)

type cachedValue struct {
	raw   []byte
	found bool
}

// Store is the JSON key/value layer every component reads and writes records
// through. Values are cached in memory, written through to the backend, and
// published to subscribers both on local writes and on external changes
// reported by the backend. Storage failures are logged and never returned.
type Store struct {
	backend ports.KVBackend
	logger  *slog.Logger

	mu    sync.RWMutex
	cache map[string]cachedValue

	subMu sync.RWMutex
	subs  map[string]map[string]func(raw []byte, found bool)
}

func NewStore(backend ports.KVBackend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend: backend,
		logger:  logger.With("component", "store"),
		cache:   make(map[string]cachedValue),
		subs:    make(map[string]map[string]func([]byte, bool)),
	}
}

// Run watches the backend for external changes until ctx is done.
func (s *Store) Run(ctx context.Context) error {
	return s.backend.Watch(ctx, s.applyExternal)
}

func (s *Store) applyExternal(change ports.Change) {
	s.mu.Lock()
	if change.Deleted {
		s.cache[change.Key] = cachedValue{}
	} else {
		s.cache[change.Key] = cachedValue{raw: change.Value, found: true}
	}
	s.mu.Unlock()

	s.logger.Debug("external change", "key", change.Key, "deleted", change.Deleted)
	s.publish(change.Key, change.Value, !change.Deleted)
}

func (s *Store) load(ctx context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	c, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return c.raw, c.found
	}

	raw, found, err := s.backend.Read(ctx, key)
	if err != nil {
		s.logger.Error("failed to read stored value", "key", key, "error", err)
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.cache[key]; ok {
		return c.raw, c.found
	}
	s.cache[key] = cachedValue{raw: raw, found: found}
	return raw, found
}

func (s *Store) put(ctx context.Context, key string, raw []byte) {
	s.mu.Lock()
	s.cache[key] = cachedValue{raw: raw, found: true}
	s.mu.Unlock()

	if err := s.backend.Write(ctx, key, raw); err != nil {
		s.logger.Error("failed to persist value", "key", key, "error", err)
	}
	s.publish(key, raw, true)
}

// Remove clears a key.
func (s *Store) Remove(ctx context.Context, key string) {
	s.mu.Lock()
	s.cache[key] = cachedValue{}
	s.mu.Unlock()

	if err := s.backend.Delete(ctx, key); err != nil {
		s.logger.Error("failed to delete value", "key", key, "error", err)
	}
	s.publish(key, nil, false)
}

func (s *Store) subscribe(key string, fn func([]byte, bool)) func() {
	id := uuid.NewString()

	s.subMu.Lock()
	if _, ok := s.subs[key]; !ok {
		s.subs[key] = make(map[string]func([]byte, bool))
	}
	s.subs[key][id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs[key], id)
		if len(s.subs[key]) == 0 {
			delete(s.subs, key)
		}
	}
}

func (s *Store) publish(key string, raw []byte, found bool) {
	s.subMu.RLock()
	targets := make([]func([]byte, bool), 0, len(s.subs[key]))
	for _, fn := range s.subs[key] {
		targets = append(targets, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range targets {
		fn(raw, found)
	}
}

func decode[T any](s *Store, key string, raw []byte, found bool, def T) T {
	if !found || len(raw) == 0 {
		return def
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.logger.Error("failed to decode stored value", "key", key, "error", err)
		return def
	}
	return v
}

// Get returns the decoded value stored under key, or def when the key is
// missing, unreadable or not valid JSON for T.
func Get[T any](ctx context.Context, s *Store, key string, def T) T {
	raw, found := s.load(ctx, key)
	return decode(s, key, raw, found, def)
}

// Set encodes v and writes it through to the backend. The new value is
// visible to Get immediately even if the backend write fails.
func Set[T any](ctx context.Context, s *Store, key string, v T) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode value", "key", key, "error", err)
		return
	}
	s.put(ctx, key, raw)
}

// Subscribe calls fn with the decoded value every time key changes, locally
// or externally. A cleared key is delivered as def. Delivery is synchronous
// on the writer's goroutine. The returned func cancels the subscription.
func Subscribe[T any](s *Store, key string, def T, fn func(T)) func() {
	return s.subscribe(key, func(raw []byte, found bool) {
		fn(decode(s, key, raw, found, def))
	})
}
