package cache

import (
	"sync/atomic"
	"time"
)

// stats — общие счётчики и latency для реализаций CacheRepo.
type stats struct {
	metrics CacheMetrics

	// Статистика latency
	latencySum   int64 // в наносекундах
	latencyCount int64
	maxLatency   int64
}

func (s *stats) request(n int64) { atomic.AddInt64(&s.metrics.TotalRequests, n) }
func (s *stats) hit(n int64)     { atomic.AddInt64(&s.metrics.CacheHits, n) }
func (s *stats) miss(n int64)    { atomic.AddInt64(&s.metrics.CacheMisses, n) }
func (s *stats) coldHit()        { atomic.AddInt64(&s.metrics.ColdHits, 1) }

// recordLatency записывает latency метрику.
func (s *stats) recordLatency(start time.Time) {
	latency := time.Since(start).Nanoseconds()

	atomic.AddInt64(&s.latencySum, latency)
	atomic.AddInt64(&s.latencyCount, 1)

	// Обновляем максимальную latency
	for {
		current := atomic.LoadInt64(&s.maxLatency)
		if latency <= current || atomic.CompareAndSwapInt64(&s.maxLatency, current, latency) {
			break
		}
	}
}

// snapshot возвращает копию метрик с пересчитанными полями.
func (s *stats) snapshot() *CacheMetrics {
	m := CacheMetrics{
		TotalRequests: atomic.LoadInt64(&s.metrics.TotalRequests),
		CacheHits:     atomic.LoadInt64(&s.metrics.CacheHits),
		CacheMisses:   atomic.LoadInt64(&s.metrics.CacheMisses),
		ColdHits:      atomic.LoadInt64(&s.metrics.ColdHits),
		LastUpdate:    time.Now(),
	}
	if total := m.CacheHits + m.CacheMisses; total > 0 {
		m.HitRatio = float64(m.CacheHits) / float64(total)
	}
	if count := atomic.LoadInt64(&s.latencyCount); count > 0 {
		m.AvgLatencyMs = float64(atomic.LoadInt64(&s.latencySum)) / float64(count) / 1e6 // нс в мс
		m.MaxLatencyMs = float64(atomic.LoadInt64(&s.maxLatency)) / 1e6
	}
	return &m
}
