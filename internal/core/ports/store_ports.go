package ports

import "context"

// Change describes a write to the durable store made by someone else
// (another process, another browser profile). Deleted is set when the key
// was cleared.
type Change struct {
	Key     string
	Value   []byte
	Deleted bool
}

type KVBackend interface {
	Read(ctx context.Context, key string) (value []byte, found bool, err error)
	Write(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Watch blocks until ctx is done, invoking fn for every external change.
	Watch(ctx context.Context, fn func(Change)) error
	Close() error
}

// SessionStorage is the tab-scoped string store (the browser's sessionStorage).
type SessionStorage interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
	Keys() []string
}
