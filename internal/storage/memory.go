package storage

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// MemoryStore keeps the configuration area in process memory. Nothing
// survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	notify *notifier
}

func NewMemory(log zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		data:   map[string][]byte{},
		notify: newNotifier(log.With().Str("component", "store").Logger()),
	}
}

func (m *MemoryStore) Migrate(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Subscribe(fn Listener) func() {
	return m.notify.subscribe(fn)
}

func (m *MemoryStore) Get(ctx context.Context, keys ...string) (Values, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := Values{}
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

func (m *MemoryStore) Set(ctx context.Context, values map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	encoded, err := encodeValues(values)
	if err != nil {
		return err
	}

	m.mu.Lock()
	before := make(map[string][]byte, len(encoded))
	for k := range encoded {
		if v, ok := m.data[k]; ok {
			before[k] = v
		}
	}
	for k, v := range encoded {
		m.data[k] = v
	}
	m.mu.Unlock()

	m.notify.publish(diff(before, encoded))
	return nil
}
