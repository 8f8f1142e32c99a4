package util

import (
	"fmt"

	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/noisefield/internal/noise"
)

// ClassicPerlinKind — имя классического шума Перлина в API.
const ClassicPerlinKind = "legacy-perlin"

// ClassicPerlin — классический шум Перлина (go-perlin) за интерфейсом
// noise.Evaluator. Хеш решётки у него свой, поэтому значения не совпадают
// с KindPerlin; используется для сравнения и обратной совместимости.
type ClassicPerlin struct {
	generator  *perlin.Perlin
	dimensions int
	frequency  float64
	domain     mgl32.Mat4
}

var _ noise.Evaluator = (*ClassicPerlin)(nil)

// NewClassicPerlin инициализирует генератор: alpha = 1/persistence
// (сглаживание), beta = lacunarity (рост частоты), n = octaves.
func NewClassicPerlin(dimensions int, settings noise.Settings, domain noise.SpaceTRS) (*ClassicPerlin, error) {
	if dimensions < 1 || dimensions > 3 {
		return nil, fmt.Errorf("%w: got %d", noise.ErrInvalidDimensions, dimensions)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	alpha := 1 / float64(settings.Persistence) // Сглаживание шума
	beta := float64(settings.Lacunarity)       // Частота шума
	n := int32(settings.Octaves)               // Количество октав
	return &ClassicPerlin{
		generator:  perlin.NewPerlin(alpha, beta, n, int64(settings.Seed)),
		dimensions: dimensions,
		frequency:  float64(settings.Frequency),
		domain:     domain.Matrix(),
	}, nil
}

// Sample возвращает значение шума примерно в [-1, 1].
func (c *ClassicPerlin) Sample(p mgl32.Vec3) float32 {
	p = noise.TransformPoint(c.domain, p)
	x := float64(p[0]) * c.frequency
	y := float64(p[1]) * c.frequency
	z := float64(p[2]) * c.frequency
	switch c.dimensions {
	case 1:
		return float32(c.generator.Noise1D(x))
	case 2:
		return float32(c.generator.Noise2D(x, z))
	default:
		return float32(c.generator.Noise3D(x, y, z))
	}
}

// Execute вычисляет пакет по одной точке.
func (c *ClassicPerlin) Execute(positions noise.Batch) noise.Float4 {
	var out noise.Float4
	for i, p := range positions {
		out[i] = c.Sample(p)
	}
	return out
}

// Normalize01 переводит значение из [-1, 1] в [0, 1].
func Normalize01(v float32) float32 {
	return (v + 1) / 2
}
