package noise

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestMinima_Update(t *testing.T) {
	m := initialMinima
	m = m.Update(0.5)
	assert.Equal(t, Minima{F1: 0.5, F2: 2}, m)
	m = m.Update(0.3)
	assert.Equal(t, Minima{F1: 0.3, F2: 0.5}, m, "новый минимум сдвигает F1 в F2")
	m = m.Update(0.4)
	assert.Equal(t, Minima{F1: 0.3, F2: 0.4}, m)
	m = m.Update(0.9)
	assert.Equal(t, Minima{F1: 0.3, F2: 0.4}, m, "большее значение игнорируется")
}

func TestVoronoi_RankOrdering(t *testing.T) {
	h := SeedHash(7)
	for i := 0; i < 150; i++ {
		p := mgl32.Vec3{float32(i) * 0.031, float32(i) * 0.017, float32(i) * -0.023}

		f1 := Voronoi2D[LatticeNormal, Worley, F1]{}.Sample(p, h, 4)
		f2 := Voronoi2D[LatticeNormal, Worley, F2]{}.Sample(p, h, 4)
		assert.GreaterOrEqual(t, f2, f1)
		assert.GreaterOrEqual(t, Voronoi2D[LatticeNormal, Worley, F2MinusF1]{}.Sample(p, h, 4), float32(0))
		assert.LessOrEqual(t, f2, float32(1), "Worley ограничен единицей")

		c1 := Voronoi3D[LatticeTiling, Chebyshev, F1]{}.Sample(p, h, 3)
		c2 := Voronoi3D[LatticeTiling, Chebyshev, F2]{}.Sample(p, h, 3)
		assert.GreaterOrEqual(t, c2, c1)
		assert.GreaterOrEqual(t, c1, float32(0))

		w1 := Voronoi3D[LatticeNormal, Worley, F1]{}.Sample(p, h, 2)
		w2 := Voronoi3D[LatticeNormal, Worley, F2]{}.Sample(p, h, 2)
		assert.GreaterOrEqual(t, w2, w1)
	}
}

func TestVoronoi1D_ChebyshevEqualsWorley(t *testing.T) {
	h := SeedHash(8)
	for i := 0; i < 50; i++ {
		p := mgl32.Vec3{float32(i) * 0.113, 0, 0}
		assert.Equal(t,
			Voronoi1D[LatticeNormal, Worley, F1]{}.Sample(p, h, 5),
			Voronoi1D[LatticeNormal, Chebyshev, F1]{}.Sample(p, h, 5))
	}
}

func TestVoronoi_TilingRepeats(t *testing.T) {
	h := SeedHash(9)
	a := mgl32.Vec3{0.25, 0, 0.5}
	b := mgl32.Vec3{1.25, 0, 1.5}
	assert.InDelta(t,
		Voronoi2D[LatticeTiling, Worley, F1]{}.Sample(a, h, 4),
		Voronoi2D[LatticeTiling, Worley, F1]{}.Sample(b, h, 4), 1e-5)
}

func TestDistances(t *testing.T) {
	assert.Equal(t, float32(25), Worley{}.Distance2D(3, -4))
	assert.Equal(t, float32(4), Chebyshev{}.Distance2D(3, -4))
	assert.Equal(t, float32(5), Chebyshev{}.Distance3D(1, -5, 2))
	assert.Equal(t, Minima{F1: 0.5, F2: 1}, Worley{}.Finalize2D(Minima{F1: 0.25, F2: 1.5}))
}
