package sampler

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/annel0/noisefield/internal/noise"
)

func TestRequest_Normalize(t *testing.T) {
	r := Request{Kind: "value"}.Normalize()
	assert.Equal(t, "plane", r.Shape)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, r.Domain.Scale)

	r = Request{Shape: "torus", Domain: noise.UniformTRS(3)}.Normalize()
	assert.Equal(t, "torus", r.Shape)
	assert.Equal(t, mgl32.Vec3{3, 3, 3}, r.Domain.Scale)
}

func TestRequest_Key(t *testing.T) {
	base := testRequest()
	assert.Equal(t, base.Key(), testRequest().Key(), "ключ детерминирован")
	assert.Len(t, base.Key(), 16)

	changes := []func(*Request){
		func(r *Request) { r.Kind = "value" },
		func(r *Request) { r.Dimensions = 2 },
		func(r *Request) { r.Tiling = true },
		func(r *Request) { r.Settings.Seed = 1 },
		func(r *Request) { r.Settings.Persistence = 0.25 },
		func(r *Request) { r.Domain.Rotation[1] = 45 },
		func(r *Request) { r.Shape = "torus" },
		func(r *Request) { r.Resolution = 9 },
	}
	for i, change := range changes {
		r := testRequest()
		change(&r)
		assert.NotEqual(t, base.Key(), r.Key(), "изменение %d должно менять ключ", i)
	}

	// У симплекса тайлинг не влияет на результат, а значит и на ключ
	a, b := testRequest(), testRequest()
	a.Kind, b.Kind = "simplex", "simplex"
	b.Tiling = true
	assert.Equal(t, a.Key(), b.Key())
}

func TestRequest_Validate(t *testing.T) {
	limits := DefaultLimits()
	assert.NoError(t, testRequest().Validate(limits))

	r := testRequest()
	r.Dimensions = 5
	err := r.Validate(limits)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.True(t, errors.Is(err, noise.ErrInvalidDimensions))

	r = testRequest()
	r.Kind = "legacy-perlin"
	assert.NoError(t, r.Validate(limits))
}

func TestRequest_NormalizeCanonicalKind(t *testing.T) {
	r := Request{Kind: " PERLIN ", Shape: " Sphere"}.Normalize()
	assert.Equal(t, "perlin", r.Kind)
	assert.Equal(t, "sphere", r.Shape)

	r = Request{Kind: "Legacy-Perlin", Tiling: true}.Normalize()
	assert.Equal(t, "legacy-perlin", r.Kind)
	assert.False(t, r.Tiling, "классический Перлин не тайлится")

	r = Request{Kind: "perlin", Tiling: true}.Normalize()
	assert.True(t, r.Tiling)
}

func TestRequest_NormalizeScalePerAxis(t *testing.T) {
	r := Request{Kind: "value", Domain: noise.SpaceTRS{Scale: mgl32.Vec3{2, 0, 2}}}.Normalize()
	assert.Equal(t, mgl32.Vec3{2, 1, 2}, r.Domain.Scale)
}

func TestRequest_KeyIgnoresCaseAndUnusedTiling(t *testing.T) {
	a, b := testRequest(), testRequest()
	b.Kind = " PERLIN "
	assert.NoError(t, b.Normalize().Validate(DefaultLimits()))
	assert.Equal(t, a.Key(), b.Key(), "регистр и пробелы не меняют ключ")

	a.Kind, b.Kind = "legacy-perlin", "LEGACY-PERLIN"
	b.Tiling = true
	assert.Equal(t, a.Key(), b.Key(), "тайлинг не влияет на ключ legacy-perlin")

	a, b = testRequest(), testRequest()
	b.Domain.Scale = mgl32.Vec3{2, 0, 2}
	a.Domain.Scale = mgl32.Vec3{2, 1, 2}
	assert.Equal(t, a.Key(), b.Key())
}
