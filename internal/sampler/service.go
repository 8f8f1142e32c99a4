package sampler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/annel0/noisefield/internal/cache"
	"github.com/annel0/noisefield/internal/logging"
	"github.com/annel0/noisefield/internal/noise"
	"github.com/annel0/noisefield/internal/shape"
	"github.com/annel0/noisefield/internal/storage"
	"github.com/annel0/noisefield/internal/util"
)

// Field — вычисленное поле resolution×resolution в порядке строк.
type Field struct {
	Key        string    `json:"key"`
	Resolution int       `json:"resolution"`
	Values     []float32 `json:"values"`
	Cached     bool      `json:"cached"`
}

// Invalidator рассылает ключи удалённых полей другим экземплярам сервиса.
type Invalidator interface {
	PublishInvalidation(ctx context.Context, key string) error
}

// Options настраивает Service.
type Options struct {
	Cache       cache.CacheRepo // nil — без кеша
	TTL         time.Duration
	Workers     int // 0 — runtime.GOMAXPROCS(0)
	Limits      Limits
	Metrics     *Metrics    // nil — метрики не пишутся
	Invalidator Invalidator // nil — инвалидации не рассылаются
}

// Service вычисляет поля и точки, кешируя поля по Request.Key.
type Service struct {
	cache   cache.CacheRepo
	ttl     time.Duration
	workers int
	limits  Limits
	metrics *Metrics
	peers   Invalidator
	log     *logging.Logger
	flight  singleflight.Group
}

// NewService создаёт сервис.
func NewService(opts Options) *Service {
	if opts.Limits == (Limits{}) {
		opts.Limits = DefaultLimits()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Service{
		cache:   opts.Cache,
		ttl:     opts.TTL,
		workers: opts.Workers,
		limits:  opts.Limits,
		metrics: opts.Metrics,
		peers:   opts.Invalidator,
		log:     logging.GetSamplerLogger(),
	}
}

// Workers возвращает число горутин на одно поле.
func (s *Service) Workers() int {
	return s.workers
}

// Limits возвращает ограничения сервиса.
func (s *Service) Limits() Limits {
	return s.limits
}

// KindNames возвращает имена всех поддерживаемых типов шума.
func KindNames() []string {
	names := []string{util.ClassicPerlinKind}
	for _, k := range noise.Kinds() {
		names = append(names, k.String())
	}
	sort.Strings(names)
	return names
}

// NewEvaluator строит вычислитель для запроса.
func NewEvaluator(req Request) (noise.Evaluator, error) {
	if req.Kind == util.ClassicPerlinKind {
		return util.NewClassicPerlin(req.Dimensions, req.Settings, req.Domain)
	}
	kind, err := noise.ParseKind(req.Kind)
	if err != nil {
		return nil, err
	}
	return noise.NewEvaluator(kind, req.Dimensions, req.Tiling, req.Settings, req.Domain)
}

func (s *Service) fail(op string, err error) error {
	if s.metrics != nil {
		s.metrics.failures.WithLabelValues(op).Inc()
	}
	return err
}

// Field возвращает поле из кеша или генерирует его. Одновременные
// запросы с одинаковым ключом генерируют поле один раз. Генерация не
// зависит от отмены ctx отдельного вызывающего: отменённый вызов
// возвращает ctx.Err(), остальные получают поле.
func (s *Service) Field(ctx context.Context, req Request) (*Field, error) {
	req = req.Normalize()
	if err := req.Validate(s.limits); err != nil {
		return nil, s.fail("field", err)
	}
	key := req.Key()

	if field, ok := s.fromCache(ctx, key); ok {
		return field, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, s.fail("field", err)
	}
	genCtx := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(key, func() (interface{}, error) {
		return s.generate(genCtx, req, key)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, s.fail("field", ctx.Err())
	}
	if res.Err != nil {
		return nil, s.fail("field", res.Err)
	}
	field := *res.Val.(*Field)
	field.Values = append([]float32(nil), field.Values...)
	return &field, nil
}

func (s *Service) fromCache(ctx context.Context, key string) (*Field, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !cache.IsCacheMiss(err) {
			s.log.Warn("Ошибка чтения кеша %s: %v", key, err)
		}
		if s.metrics != nil {
			s.metrics.cacheMisses.Inc()
		}
		return nil, false
	}

	resolution, values, err := storage.DecodeField(data)
	if err != nil {
		logging.LogPayloadError(key, err, data)
		if s.metrics != nil {
			s.metrics.cacheMisses.Inc()
		}
		return nil, false
	}
	if s.metrics != nil {
		s.metrics.cacheHits.Inc()
	}
	s.log.Debug("Поле %s отдано из кеша", key)
	return &Field{Key: key, Resolution: resolution, Values: values, Cached: true}, true
}

var tracer = otel.Tracer("noisefield/sampler")

func (s *Service) generate(ctx context.Context, req Request, key string) (field *Field, err error) {
	ctx, span := tracer.Start(ctx, "sampler.generate")
	span.SetAttributes(
		attribute.String("noise.kind", req.Kind),
		attribute.Int("noise.dimensions", req.Dimensions),
		attribute.String("noise.shape", req.Shape),
		attribute.Int("noise.resolution", req.Resolution),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	start := time.Now()

	ev, err := NewEvaluator(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	sh, err := shape.ByName(req.Shape)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	positions, _, err := shape.Generate(sh, req.Resolution, mgl32.Ident4())
	if err != nil {
		return nil, err
	}

	out := make([]noise.Float4, len(positions))
	if err := noise.ScheduleParallel(ctx, ev, positions, out, s.workers); err != nil {
		return nil, err
	}
	count := req.Resolution * req.Resolution
	values := flatten(out, count)

	if s.metrics != nil {
		s.metrics.samples.WithLabelValues(req.Kind).Add(float64(count))
		s.metrics.fieldDuration.WithLabelValues(req.Kind, req.Shape).Observe(time.Since(start).Seconds())
	}
	s.log.Info("Поле %s сгенерировано: %s %dD %s %d×%d за %v",
		key, req.Kind, req.Dimensions, req.Shape, req.Resolution, req.Resolution, time.Since(start))

	if s.cache != nil {
		data, err := storage.EncodeField(req.Resolution, values)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.log.Warn("Не удалось сохранить поле %s в кеш: %v", key, err)
		}
	}
	return &Field{Key: key, Resolution: req.Resolution, Values: values}, nil
}

// Sample вычисляет шум в произвольных точках. Последний пакет
// дополняется копиями последней точки, лишние значения отбрасываются.
func (s *Service) Sample(ctx context.Context, req Request, points []mgl32.Vec3) ([]float32, error) {
	req = req.Normalize()
	if err := req.validateNoise(); err != nil {
		return nil, s.fail("sample", err)
	}
	if len(points) == 0 {
		return []float32{}, nil
	}
	if len(points) > s.limits.MaxPoints {
		return nil, s.fail("sample", fmt.Errorf("%w: %d points exceeds limit %d", ErrInvalidRequest, len(points), s.limits.MaxPoints))
	}

	ev, err := NewEvaluator(req)
	if err != nil {
		return nil, s.fail("sample", fmt.Errorf("%w: %w", ErrInvalidRequest, err))
	}

	batches := make([]noise.Batch, (len(points)+noise.LaneWidth-1)/noise.LaneWidth)
	for i := range batches {
		for l := 0; l < noise.LaneWidth; l++ {
			idx := min(i*noise.LaneWidth+l, len(points)-1)
			batches[i][l] = points[idx]
		}
	}
	out := make([]noise.Float4, len(batches))
	if err := noise.ScheduleParallel(ctx, ev, batches, out, s.workers); err != nil {
		return nil, s.fail("sample", err)
	}

	if s.metrics != nil {
		s.metrics.samples.WithLabelValues(req.Kind).Add(float64(len(points)))
	}
	return flatten(out, len(points)), nil
}

// Invalidate удаляет поле из кеша и холодного хранилища и сообщает
// об этом остальным экземплярам.
func (s *Service) Invalidate(ctx context.Context, req Request) error {
	key := req.Normalize().Key()
	if err := s.Forget(ctx, key); err != nil {
		return err
	}
	if s.peers != nil {
		if err := s.peers.PublishInvalidation(ctx, key); err != nil {
			s.log.Warn("Инвалидация поля %s не разослана: %v", key, err)
			return s.fail("invalidate", err)
		}
	}
	return nil
}

// Forget удаляет поле по ключу только локально. Обработчик
// инвалидаций, пришедших от других экземпляров.
func (s *Service) Forget(ctx context.Context, key string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Purge(ctx, key); err != nil {
		return s.fail("invalidate", err)
	}
	s.log.Debug("Поле %s удалено из кеша", key)
	return nil
}

func flatten(out []noise.Float4, count int) []float32 {
	values := make([]float32, 0, len(out)*noise.LaneWidth)
	for _, v := range out {
		values = append(values, v[:]...)
	}
	return values[:count]
}

// IsInvalidRequest сообщает, вызвана ли ошибка некорректным запросом.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, noise.ErrUnknownKind) ||
		errors.Is(err, noise.ErrInvalidDimensions) ||
		errors.Is(err, noise.ErrInvalidSettings)
}
