package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/noisefield/internal/logging"
)

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache реализует CacheRepo в памяти процесса.
// Используется без Redis: один экземпляр сервиса или тесты.
type MemoryCache struct {
	config      *CacheConfig
	coldStorage ColdStorage
	writeBehind *writeBehind

	mu      sync.RWMutex
	entries map[string]memoryEntry
	closed  bool

	now func() time.Time
	stats
}

var _ CacheRepo = (*MemoryCache)(nil)

// NewMemoryCache создаёт кеш с опциональным Cold Storage (может быть nil).
func NewMemoryCache(config *CacheConfig, coldStorage ColdStorage) *MemoryCache {
	if config == nil {
		config = &CacheConfig{}
	}
	config.applyDefaults()

	c := &MemoryCache{
		config:      config,
		coldStorage: coldStorage,
		entries:     make(map[string]memoryEntry),
		now:         time.Now,
	}
	if config.WriteBehindEnabled && coldStorage != nil {
		c.writeBehind = newWriteBehind(coldStorage, config.WriteBehindInterval, config.WriteBehindBatchSize)
	}
	logging.GetCacheLogger().Info("Memory cache initialized (Write-Behind: %v)", c.writeBehind != nil)
	return c
}

// lookup возвращает живую запись, удаляя просроченную.
func (c *MemoryCache) lookup(key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expires) {
		c.mu.Lock()
		if current, ok := c.entries[key]; ok && current.expires.Equal(entry.expires) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

func (c *MemoryCache) put(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.config.MaxEntries > 0 && len(c.entries) >= c.config.MaxEntries {
		c.evictLocked()
	}
	c.entries[key] = memoryEntry{value: value, expires: c.now().Add(ttl)}
}

// evictLocked освобождает место: сначала просроченные, затем произвольная запись.
func (c *MemoryCache) evictLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, key)
		}
	}
	for key := range c.entries {
		if len(c.entries) < c.config.MaxEntries {
			return
		}
		delete(c.entries, key)
	}
}

func (c *MemoryCache) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Get получает значение по ключу. При промахе читает Cold Storage (Read-Through).
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	defer c.recordLatency(start)

	if key == "" {
		return nil, ErrInvalidKey
	}
	if c.isClosed() {
		return nil, ErrCacheClosed
	}
	c.request(1)

	if value, ok := c.lookup(key); ok {
		c.hit(1)
		return value, nil
	}
	c.miss(1)

	// Read-Through: пытаемся загрузить из Cold Storage
	if c.coldStorage != nil {
		value, err := c.coldStorage.Load(ctx, key)
		if err == nil {
			c.coldHit()
			c.put(key, value, c.config.DefaultTTL)
			return value, nil
		}
		logging.GetCacheLogger().Debug("Cold storage miss for key %s: %v", key, err)
	}
	return nil, ErrCacheMiss
}

// Set сохраняет значение в памяти и передаёт его в Cold Storage.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	defer c.recordLatency(start)

	if key == "" {
		return ErrInvalidKey
	}
	if c.isClosed() {
		return ErrCacheClosed
	}
	c.put(key, value, c.config.clampTTL(ttl))
	if err := persist(ctx, c.coldStorage, c.writeBehind, key, value); err != nil {
		return fmt.Errorf("cold storage write error: %w", err)
	}
	return nil
}

// Delete удаляет ключ из памяти. Cold Storage не затрагивается.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	delete(c.entries, key)
	return nil
}

// Purge удаляет ключ из памяти и из Cold Storage.
func (c *MemoryCache) Purge(ctx context.Context, key string) error {
	if err := c.Delete(ctx, key); err != nil {
		return err
	}
	return purge(ctx, c.coldStorage, c.writeBehind, key)
}

// Exists проверяет наличие живой записи в памяти.
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	if c.isClosed() {
		return false, ErrCacheClosed
	}
	_, ok := c.lookup(key)
	return ok, nil
}

// BatchGet получает несколько значений; промахи добираются из Cold Storage.
func (c *MemoryCache) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	start := time.Now()
	defer c.recordLatency(start)

	if c.isClosed() {
		return nil, ErrCacheClosed
	}
	c.request(int64(len(keys)))

	result := make(map[string][]byte, len(keys))
	var missing []string
	for _, key := range keys {
		if value, ok := c.lookup(key); ok {
			result[key] = value
		} else {
			missing = append(missing, key)
		}
	}
	c.hit(int64(len(result)))
	c.miss(int64(len(missing)))

	if len(missing) > 0 && c.coldStorage != nil {
		loaded, err := c.coldStorage.BatchLoad(ctx, missing)
		if err != nil {
			logging.GetCacheLogger().Warn("Cold storage batch load failed: %v", err)
			return result, nil
		}
		for key, value := range loaded {
			c.coldHit()
			c.put(key, value, c.config.DefaultTTL)
			result[key] = value
		}
	}
	return result, nil
}

// BatchSet сохраняет несколько значений.
func (c *MemoryCache) BatchSet(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	for key, value := range items {
		if err := c.Set(ctx, key, value, ttl); err != nil {
			return err
		}
	}
	return nil
}

// Close останавливает Write-Behind, дописав очередь. Cold Storage
// закрывает его владелец.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()

	if c.writeBehind != nil {
		c.writeBehind.close()
	}
	logging.GetCacheLogger().Info("Memory cache closed")
	return nil
}

// GetMetrics возвращает текущие метрики кеша.
func (c *MemoryCache) GetMetrics() *CacheMetrics {
	metrics := c.snapshot()
	c.mu.RLock()
	metrics.TotalKeys = int64(len(c.entries))
	c.mu.RUnlock()
	if c.writeBehind != nil {
		metrics.PendingWrites = c.writeBehind.pending()
	}
	return metrics
}
