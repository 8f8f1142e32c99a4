package sampler

import "github.com/prometheus/client_golang/prometheus"

// Metrics — Prometheus-метрики сервиса сэмплирования.
type Metrics struct {
	samples       *prometheus.CounterVec
	fieldDuration *prometheus.HistogramVec
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	failures      *prometheus.CounterVec
}

// NewMetrics создаёт метрики и регистрирует их в reg
// (nil — глобальный регистр Prometheus).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "noisefield",
			Name:      "samples_total",
			Help:      "Общее число вычисленных сэмплов шума.",
		}, []string{"kind"}),
		fieldDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "noisefield",
			Name:      "field_generation_seconds",
			Help:      "Время генерации поля без учёта попаданий в кеш.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"kind", "shape"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "noisefield",
			Name:      "field_cache_hits_total",
			Help:      "Поля, отданные из кеша.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "noisefield",
			Name:      "field_cache_misses_total",
			Help:      "Поля, которые пришлось генерировать.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "noisefield",
			Name:      "sampler_errors_total",
			Help:      "Ошибки сервиса по операциям.",
		}, []string{"op"}),
	}

	reg.MustRegister(m.samples, m.fieldDuration, m.cacheHits, m.cacheMisses, m.failures)
	return m
}
