package certstore_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/efi-fiscal/internal/domain"
)

// memoryStore SecretStore en memoria que cuenta las lecturas.
type memoryStore struct {
	mu    sync.Mutex
	data  map[string]map[string]string
	reads atomic.Int32
	delay time.Duration
	err   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]map[string]string{}}
}

func (m *memoryStore) Read(_ context.Context, path string) (map[string]string, error) {
	m.reads.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[path]
	if !ok {
		return nil, domain.ErrSecretNotFound
	}
	out := make(map[string]string, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out, nil
}

func (m *memoryStore) Write(_ context.Context, path string, data map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[path] = data
	return nil
}

// fakeClock reloj manual para las expiraciones.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
