package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/noisefield/internal/logging"
)

// RedisCache реализует CacheRepo используя Redis как Hot Cache.
// Поддерживает Write-Behind паттерн для асинхронной записи в Cold Storage.
//
// Особенности:
// - Автоматические метрики (hit ratio, latency)
// - Read-Through из Cold Storage при промахе
// - Batch операции через pipeline
// - Graceful shutdown с дозаписью очереди
type RedisCache struct {
	client      *redis.Client
	config      *CacheConfig
	coldStorage ColdStorage
	writeBehind *writeBehind
	keyPrefix   string
	stats
}

var _ CacheRepo = (*RedisCache)(nil)

// NewRedisCache создаёт новый Redis кеш с опциональным Cold Storage.
//
// Параметры:
//
//	config - конфигурация Redis и Write-Behind
//	coldStorage - опциональное постоянное хранилище (может быть nil)
//
// Возвращает:
//
//	*RedisCache - готовый к использованию кеш
//	error - ошибка подключения или конфигурации
func NewRedisCache(config *CacheConfig, coldStorage ColdStorage) (*RedisCache, error) {
	config.applyDefaults()

	// Создаём Redis клиент
	rdb := redis.NewClient(&redis.Options{
		Addr:         config.RedisURL,
		Password:     config.RedisPassword,
		DB:           config.RedisDB,
		PoolSize:     config.MaxConnections,
		PoolTimeout:  config.PoolTimeout,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	// Проверяем соединение
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := &RedisCache{
		client:      rdb,
		config:      config,
		coldStorage: coldStorage,
		keyPrefix:   "noisefield:",
	}

	// Запускаем Write-Behind если включён
	if config.WriteBehindEnabled && coldStorage != nil {
		cache.writeBehind = newWriteBehind(coldStorage, config.WriteBehindInterval, config.WriteBehindBatchSize)
	}

	logging.GetCacheLogger().Info("Redis cache initialized: %s (Write-Behind: %v)", config.RedisURL, config.WriteBehindEnabled)
	return cache, nil
}

func (r *RedisCache) redisKey(key string) string {
	return r.keyPrefix + key
}

// Get получает значение по ключу из Redis кеша.
// При промахе пытается загрузить из Cold Storage (Read-Through).
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	defer r.recordLatency(start)

	if key == "" {
		return nil, ErrInvalidKey
	}
	r.request(1)

	// Попытка получить из Redis
	val, err := r.client.Get(ctx, r.redisKey(key)).Bytes()
	if err == nil {
		r.hit(1)
		return val, nil
	}

	// Промах в Redis
	r.miss(1)

	if !errors.Is(err, redis.Nil) {
		logging.GetCacheLogger().Error("Redis Get error for key %s: %v", key, err)
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	// Read-Through: пытаемся загрузить из Cold Storage
	if r.coldStorage != nil {
		val, err := r.coldStorage.Load(ctx, key)
		if err == nil {
			r.coldHit()
			// Загружаем в кеш для следующих запросов
			if err := r.client.Set(ctx, r.redisKey(key), val, r.config.DefaultTTL).Err(); err != nil {
				logging.GetCacheLogger().Warn("Redis warm-up failed for key %s: %v", key, err)
			}
			return val, nil
		}
		logging.GetCacheLogger().Debug("Cold storage miss for key %s: %v", key, err)
	}

	return nil, ErrCacheMiss
}

// Set сохраняет значение в Redis кеше и передаёт его в Cold Storage.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	defer r.recordLatency(start)

	if key == "" {
		return ErrInvalidKey
	}

	// Записываем в Redis
	err := r.client.Set(ctx, r.redisKey(key), value, r.config.clampTTL(ttl)).Err()
	if err != nil {
		logging.GetCacheLogger().Error("Redis Set error for key %s: %v", key, err)
		return fmt.Errorf("redis set error: %w", err)
	}

	if err := persist(ctx, r.coldStorage, r.writeBehind, key, value); err != nil {
		return fmt.Errorf("cold storage write error: %w", err)
	}
	return nil
}

// Delete удаляет ключ из кеша.
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	start := time.Now()
	defer r.recordLatency(start)

	err := r.client.Del(ctx, r.redisKey(key)).Err()
	if err != nil {
		logging.GetCacheLogger().Error("Redis Delete error for key %s: %v", key, err)
		return fmt.Errorf("redis delete error: %w", err)
	}
	return nil
}

// Purge удаляет ключ из Redis и из Cold Storage.
func (r *RedisCache) Purge(ctx context.Context, key string) error {
	if err := r.Delete(ctx, key); err != nil {
		return err
	}
	return purge(ctx, r.coldStorage, r.writeBehind, key)
}

// Exists проверяет существование ключа в кеше.
func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	defer r.recordLatency(start)

	count, err := r.client.Exists(ctx, r.redisKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists error: %w", err)
	}

	return count > 0, nil
}

// BatchGet получает несколько значений за один запрос.
func (r *RedisCache) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	start := time.Now()
	defer r.recordLatency(start)

	if len(keys) == 0 {
		return make(map[string][]byte), nil
	}

	r.request(int64(len(keys)))

	pipe := r.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd)

	for _, key := range keys {
		cmds[key] = pipe.Get(ctx, r.redisKey(key))
	}

	_, err := pipe.Exec(ctx)
	if err != nil && !errors.Is(err, redis.Nil) {
		logging.GetCacheLogger().Error("Redis BatchGet pipeline error: %v", err)
		return nil, fmt.Errorf("redis batch get error: %w", err)
	}

	result := make(map[string][]byte)
	var missing []string

	for key, cmd := range cmds {
		val, err := cmd.Bytes()
		if err == nil {
			result[key] = val
			continue
		}
		if !errors.Is(err, redis.Nil) {
			logging.GetCacheLogger().Error("Redis BatchGet error for key %s: %v", key, err)
		}
		missing = append(missing, key)
	}

	r.hit(int64(len(result)))
	r.miss(int64(len(missing)))

	if len(missing) > 0 && r.coldStorage != nil {
		loaded, err := r.coldStorage.BatchLoad(ctx, missing)
		if err != nil {
			logging.GetCacheLogger().Warn("Cold storage batch load failed: %v", err)
			return result, nil
		}
		for key, value := range loaded {
			r.coldHit()
			result[key] = value
		}
	}

	return result, nil
}

// BatchSet сохраняет несколько значений за один запрос.
func (r *RedisCache) BatchSet(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	start := time.Now()
	defer r.recordLatency(start)

	if len(items) == 0 {
		return nil
	}

	ttl = r.config.clampTTL(ttl)
	pipe := r.client.Pipeline()

	for key, value := range items {
		pipe.Set(ctx, r.redisKey(key), value, ttl)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		logging.GetCacheLogger().Error("Redis BatchSet pipeline error: %v", err)
		return fmt.Errorf("redis batch set error: %w", err)
	}

	if r.coldStorage == nil {
		return nil
	}
	if r.writeBehind != nil {
		for key, value := range items {
			r.writeBehind.enqueue(key, value)
		}
		return nil
	}
	return r.coldStorage.BatchStore(ctx, items)
}

// Close закрывает соединение с Redis и останавливает Write-Behind.
func (r *RedisCache) Close() error {
	// Останавливаем Write-Behind
	if r.writeBehind != nil {
		r.writeBehind.close()
	}

	// Закрываем Redis соединение
	err := r.client.Close()
	if err != nil {
		logging.GetCacheLogger().Error("Error closing Redis connection: %v", err)
		return err
	}

	logging.GetCacheLogger().Info("Redis cache closed")
	return nil
}

// GetMetrics возвращает текущие метрики кеша.
func (r *RedisCache) GetMetrics() *CacheMetrics {
	metrics := r.snapshot()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if size, err := r.client.DBSize(ctx).Result(); err == nil {
		metrics.TotalKeys = size
	}

	if r.writeBehind != nil {
		metrics.PendingWrites = r.writeBehind.pending()
	}
	return metrics
}
