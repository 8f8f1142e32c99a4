package sampler

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/noisefield/internal/noise"
	"github.com/annel0/noisefield/internal/shape"
	"github.com/annel0/noisefield/internal/util"
)

// ErrInvalidRequest оборачивает все ошибки проверки запроса.
var ErrInvalidRequest = errors.New("invalid sampling request")

// Request описывает поле или набор точек для вычисления.
type Request struct {
	Kind       string         `json:"kind"`
	Dimensions int            `json:"dimensions"`
	Tiling     bool           `json:"tiling"`
	Settings   noise.Settings `json:"settings"`
	Domain     noise.SpaceTRS `json:"domain"`
	Shape      string         `json:"shape,omitempty"`
	Resolution int            `json:"resolution,omitempty"`
}

// Limits ограничивает размер одного запроса.
type Limits struct {
	MaxResolution int
	MaxPoints     int
}

// DefaultLimits — 512×512 для полей и 65536 точек для Sample.
func DefaultLimits() Limits {
	return Limits{MaxResolution: 512, MaxPoints: 1 << 16}
}

// Normalize приводит запрос к канонической форме: имя типа в нижнем
// регистре без пробелов, тайлинг сброшен у типов без периодической решётки,
// форма по умолчанию plane, нулевой масштаб по любой оси равен 1.
func (r Request) Normalize() Request {
	r.Kind = canonicalKind(r.Kind)
	if !tileable(r.Kind) {
		r.Tiling = false
	}
	r.Shape = strings.ToLower(strings.TrimSpace(r.Shape))
	if r.Shape == "" {
		r.Shape = "plane"
	}
	r.Domain = normalizeDomain(r.Domain)
	return r
}

func canonicalKind(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if k, err := noise.ParseKind(name); err == nil {
		return k.String()
	}
	return name
}

func tileable(kind string) bool {
	k, err := noise.ParseKind(kind)
	return err == nil && k.Tileable()
}

func normalizeDomain(d noise.SpaceTRS) noise.SpaceTRS {
	for i, v := range d.Scale {
		if v == 0 {
			d.Scale[i] = 1
		}
	}
	return d
}

// validateNoise проверяет тип, размерность и настройки.
func (r Request) validateNoise() error {
	if r.Kind != util.ClassicPerlinKind {
		if _, err := noise.ParseKind(r.Kind); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	if r.Dimensions < 1 || r.Dimensions > 3 {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, noise.ErrInvalidDimensions)
	}
	if err := r.Settings.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// Validate проверяет запрос поля.
func (r Request) Validate(limits Limits) error {
	if err := r.validateNoise(); err != nil {
		return err
	}
	if _, err := shape.ByName(r.Shape); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if r.Resolution < 1 || r.Resolution > limits.MaxResolution {
		return fmt.Errorf("%w: resolution %d not in [1, %d]", ErrInvalidRequest, r.Resolution, limits.MaxResolution)
	}
	return nil
}

// Key возвращает ключ кеша: xxhash от двоичной записи нормализованного
// запроса. Запросы, отличающиеся регистром имени или неиспользуемыми
// полями, дают один ключ.
func (r Request) Key() string {
	r = r.Normalize()
	d := xxhash.New()
	var buf [8]byte
	writeInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = d.Write(buf[:])
	}
	writeFloat := func(v float32) {
		binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(v))
		_, _ = d.Write(buf[:4])
	}

	_, _ = d.WriteString("v1|")
	_, _ = d.WriteString(r.Kind)
	_, _ = d.WriteString("|")
	writeInt(int64(r.Dimensions))
	if r.Tiling {
		writeInt(1)
	} else {
		writeInt(0)
	}
	writeInt(int64(r.Settings.Seed))
	writeInt(int64(r.Settings.Frequency))
	writeInt(int64(r.Settings.Octaves))
	writeInt(int64(r.Settings.Lacunarity))
	writeFloat(r.Settings.Persistence)
	for _, v := range [...]mgl32.Vec3{r.Domain.Translation, r.Domain.Rotation, r.Domain.Scale} {
		for _, c := range v {
			writeFloat(c)
		}
	}
	_, _ = d.WriteString(r.Shape)
	_, _ = d.WriteString("|")
	writeInt(int64(r.Resolution))

	return fmt.Sprintf("%016x", d.Sum64())
}
