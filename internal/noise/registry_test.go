package noise

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_ParseRoundTrip(t *testing.T) {
	kinds := Kinds()
	require.Len(t, kinds, int(kindCount))
	for _, k := range kinds {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)

		text, err := k.MarshalText()
		require.NoError(t, err)
		var back Kind
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, k, back)
	}

	k, err := ParseKind("  Perlin-Turbulence ")
	require.NoError(t, err)
	assert.Equal(t, KindPerlinTurbulence, k)

	_, err = ParseKind("fbm")
	assert.True(t, errors.Is(err, ErrUnknownKind))
	assert.Equal(t, "Kind(99)", Kind(99).String())
}

func TestKind_Tileable(t *testing.T) {
	assert.True(t, KindValue.Tileable())
	assert.True(t, KindVoronoiChebyshevF2MinusF1.Tileable())
	assert.False(t, KindSimplex.Tileable())
	assert.False(t, Kind(-1).Tileable())
}

func TestNewEvaluator_AllKinds(t *testing.T) {
	// Каждая комбинация строится и даёт конечные значения
	positions := Batch{{0.1, 0.2, 0.3}, {0.7, -0.4, 0.2}, {1.5, 0.5, -2}, {0, 0, 0}}
	for _, kind := range Kinds() {
		for dims := 1; dims <= 3; dims++ {
			for _, tiling := range []bool{false, true} {
				ev, err := NewEvaluator(kind, dims, tiling, DefaultSettings(), IdentityTRS())
				require.NoError(t, err, "%s %dD tiling=%v", kind, dims, tiling)
				out := ev.Execute(positions)
				for i, v := range out {
					assert.False(t, math32.IsNaN(v) || math32.IsInf(v, 0), "%s %dD лейн %d", kind, dims, i)
				}
			}
		}
	}
}

func TestNewEvaluator_Dispatch(t *testing.T) {
	p := mgl32.Vec3{0.3, 0.4, 0.5}
	s := DefaultSettings()

	ev, err := NewEvaluator(KindPerlin, 2, true, s, IdentityTRS())
	require.NoError(t, err)
	assert.Equal(t, NewJob[Lattice2D[LatticeTiling, Perlin]](s, IdentityTRS()).Sample(p), ev.Sample(p))

	ev, err = NewEvaluator(KindVoronoiChebyshevF2, 3, false, s, IdentityTRS())
	require.NoError(t, err)
	assert.Equal(t, NewJob[Voronoi3D[LatticeNormal, Chebyshev, F2]](s, IdentityTRS()).Sample(p), ev.Sample(p))

	// Симплекс игнорирует тайлинг
	a, err := NewEvaluator(KindSimplexTurbulence, 2, false, s, IdentityTRS())
	require.NoError(t, err)
	b, err := NewEvaluator(KindSimplexTurbulence, 2, true, s, IdentityTRS())
	require.NoError(t, err)
	assert.Equal(t, a.Sample(p), b.Sample(p))
}

func TestNewEvaluator_Errors(t *testing.T) {
	_, err := NewEvaluator(Kind(100), 2, false, DefaultSettings(), IdentityTRS())
	assert.True(t, errors.Is(err, ErrUnknownKind))

	for _, dims := range []int{0, 4, -1} {
		_, err = NewEvaluator(KindValue, dims, false, DefaultSettings(), IdentityTRS())
		assert.True(t, errors.Is(err, ErrInvalidDimensions), "dims=%d", dims)
	}

	bad := DefaultSettings()
	bad.Frequency = 0
	_, err = NewEvaluator(KindValue, 2, false, bad, IdentityTRS())
	assert.True(t, errors.Is(err, ErrInvalidSettings))
}

func TestSettings_Validate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())

	cases := map[string]func(*Settings){
		"частота":         func(s *Settings) { s.Frequency = 0 },
		"мало октав":      func(s *Settings) { s.Octaves = 0 },
		"много октав":     func(s *Settings) { s.Octaves = 7 },
		"лакунарность":    func(s *Settings) { s.Lacunarity = 5 },
		"persistence 0":   func(s *Settings) { s.Persistence = 0 },
		"persistence > 1": func(s *Settings) { s.Persistence = 1.5 },
		"persistence NaN": func(s *Settings) { s.Persistence = math32.NaN() },
	}
	for name, mutate := range cases {
		s := DefaultSettings()
		mutate(&s)
		assert.True(t, errors.Is(s.Validate(), ErrInvalidSettings), name)
	}
}
