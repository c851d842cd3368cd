package certstore

import (
	"crypto/tls"
	"sync"
	"time"
)

// Expiraciones de la caché de certificados.
const (
	DefaultSlidingTTL  = 5 * time.Minute
	DefaultAbsoluteTTL = 10 * time.Minute
)

type cacheEntry struct {
	cert       tls.Certificate
	createdAt  time.Time
	lastAccess time.Time
}

// Cache caché por tenant con expiración deslizante (desde el último acceso)
// y absoluta (desde la carga). Segura para uso concurrente.
type Cache struct {
	mu       sync.Mutex
	items    map[string]*cacheEntry
	sliding  time.Duration
	absolute time.Duration
	now      func() time.Time
}

// NewCache crea la caché. now nil usa time.Now.
func NewCache(sliding, absolute time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		items:    make(map[string]*cacheEntry),
		sliding:  sliding,
		absolute: absolute,
		now:      now,
	}
}

// Get devuelve el certificado si sigue vigente y renueva la expiración deslizante.
func (c *Cache) Get(key string) (tls.Certificate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return tls.Certificate{}, false
	}
	now := c.now()
	if now.Sub(e.lastAccess) >= c.sliding || now.Sub(e.createdAt) >= c.absolute {
		delete(c.items, key)
		return tls.Certificate{}, false
	}
	e.lastAccess = now
	return e.cert, true
}

// Set guarda (o reemplaza) el certificado del tenant.
func (c *Cache) Set(key string, cert tls.Certificate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.items[key] = &cacheEntry{cert: cert, createdAt: now, lastAccess: now}
}

// Delete invalida la entrada del tenant.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len número de entradas (vigentes o no) en memoria.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
