package sampler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/annel0/noisefield/internal/noise"
	"github.com/annel0/noisefield/internal/shape"
)

// HashKind — имя типа в метриках для полей хешей.
const HashKind = "hash"

// HashRequest описывает поле хешей ячеек решётки на поверхности формы.
type HashRequest struct {
	Seed       int32          `json:"seed"`
	Salt       uint8          `json:"salt,omitempty"`
	Domain     noise.SpaceTRS `json:"domain"`
	Shape      string         `json:"shape,omitempty"`
	Resolution int            `json:"resolution"`
}

// Normalize приводит форму к нижнему регистру (по умолчанию plane)
// и заменяет нулевой масштаб по оси на 1.
func (r HashRequest) Normalize() HashRequest {
	r.Shape = strings.ToLower(strings.TrimSpace(r.Shape))
	if r.Shape == "" {
		r.Shape = "plane"
	}
	r.Domain = normalizeDomain(r.Domain)
	return r
}

// Validate проверяет форму и разрешение.
func (r HashRequest) Validate(limits Limits) error {
	if _, err := shape.ByName(r.Shape); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if r.Resolution < 1 || r.Resolution > limits.MaxResolution {
		return fmt.Errorf("%w: resolution %d not in [1, %d]", ErrInvalidRequest, r.Resolution, limits.MaxResolution)
	}
	return nil
}

// HashField — хеши ячеек и производные от них цвета в порядке строк.
// Offsets — канал D в [0, 1], смещение точки вдоль нормали.
type HashField struct {
	Resolution int          `json:"resolution"`
	Hashes     []uint32     `json:"hashes"`
	Colors     []mgl32.Vec3 `json:"colors"`
	Offsets    []float32    `json:"offsets"`
}

// HashField хеширует ячейки, в которые попадают точки формы. Поля хешей
// дешевле декодирования из кеша и не кешируются.
func (s *Service) HashField(ctx context.Context, req HashRequest) (field *HashField, err error) {
	req = req.Normalize()
	if err := req.Validate(s.limits); err != nil {
		return nil, s.fail("hash", err)
	}

	ctx, span := tracer.Start(ctx, "sampler.hash")
	span.SetAttributes(
		attribute.Int("noise.seed", int(req.Seed)),
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
	sh, err := shape.ByName(req.Shape)
	if err != nil {
		return nil, s.fail("hash", fmt.Errorf("%w: %w", ErrInvalidRequest, err))
	}
	positions, _, err := shape.Generate(sh, req.Resolution, mgl32.Ident4())
	if err != nil {
		return nil, s.fail("hash", err)
	}

	job := noise.NewHashJob(req.Seed, req.Salt, req.Domain)
	out := make([]noise.Uint4, len(positions))
	if err := noise.ScheduleHashes(ctx, job, positions, out, s.workers); err != nil {
		return nil, s.fail("hash", err)
	}

	count := req.Resolution * req.Resolution
	field = &HashField{
		Resolution: req.Resolution,
		Hashes:     make([]uint32, 0, count),
		Colors:     make([]mgl32.Vec3, 0, count),
		Offsets:    make([]float32, 0, count),
	}
	for i, batch := range positions {
		colors := job.Colors(batch)
		for l := 0; l < noise.LaneWidth && len(field.Hashes) < count; l++ {
			field.Hashes = append(field.Hashes, out[i][l])
			field.Colors = append(field.Colors, mgl32.Vec3{colors.R[l], colors.G[l], colors.B[l]})
			field.Offsets = append(field.Offsets, colors.Offset[l])
		}
	}

	if s.metrics != nil {
		s.metrics.samples.WithLabelValues(HashKind).Add(float64(count))
		s.metrics.fieldDuration.WithLabelValues(HashKind, req.Shape).Observe(time.Since(start).Seconds())
	}
	s.log.Debug("Поле хешей seed=%d %s %d×%d за %v", req.Seed, req.Shape, req.Resolution, req.Resolution, time.Since(start))
	return field, nil
}
