package noise

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestLatticeNormal_Span(t *testing.T) {
	s := LatticeNormal{}.Span(0.125, 4)
	assert.Equal(t, int32(0), s.P0)
	assert.Equal(t, int32(1), s.P1)
	assert.Equal(t, float32(0.5), s.G0)
	assert.Equal(t, float32(-0.5), s.G1)
	assert.Equal(t, float32(0.5), s.T, "smootherstep(0.5) = 0.5")

	neg := LatticeNormal{}.Span(-0.1, 4)
	assert.Equal(t, int32(-1), neg.P0)
	assert.Equal(t, int32(0), neg.P1)
	assert.InDelta(t, 0.6, neg.G0, 1e-6)
}

func TestLattice_SmootherstepBoundary(t *testing.T) {
	// На целой координате t строго 0
	for _, l := range []Lattice{LatticeNormal{}, LatticeTiling{}} {
		s := l.Span(2.0, 1)
		assert.Equal(t, float32(0), s.T)
		assert.Equal(t, float32(0), s.G0)
	}
	s := LatticeTiling{}.Span(2.0, 1)
	assert.Equal(t, int32(0), s.P0, "индекс свёрнут по модулю частоты")
	assert.Equal(t, int32(0), s.P1, "P1 == частота сворачивается в 0")

	assert.Equal(t, float32(0), smootherstep(0))
	assert.Equal(t, float32(1), smootherstep(1))
}

func TestLatticeTiling_Fold(t *testing.T) {
	cases := []struct {
		coordinate float32
		p0, p1     int32
	}{
		{0.1, 0, 1},
		{0.8, 3, 0},
		{1.3, 1, 2},
		{-0.1, 3, 0},
		{-1.6, 1, 2},
	}
	for _, c := range cases {
		s := LatticeTiling{}.Span(c.coordinate, 4)
		assert.Equal(t, c.p0, s.P0, "P0 для %v", c.coordinate)
		assert.Equal(t, c.p1, s.P1, "P1 для %v", c.coordinate)
	}
}

func TestLattice_ValidateSingleStep(t *testing.T) {
	assert.Equal(t, int32(4), LatticeNormal{}.ValidateSingleStep(4, 4))
	assert.Equal(t, int32(-1), LatticeNormal{}.ValidateSingleStep(-1, 4))

	assert.Equal(t, int32(0), LatticeTiling{}.ValidateSingleStep(4, 4))
	assert.Equal(t, int32(3), LatticeTiling{}.ValidateSingleStep(-1, 4))
	assert.Equal(t, int32(2), LatticeTiling{}.ValidateSingleStep(2, 4))
}

func TestSpanLanes_MatchesScalar(t *testing.T) {
	coords := Float4{0.1, -2.3, 7.75, 0}
	s4 := SpanLanes[LatticeTiling](coords, 3)
	for i, c := range coords {
		s := LatticeTiling{}.Span(c, 3)
		assert.Equal(t, s.P0, s4.P0[i])
		assert.Equal(t, s.P1, s4.P1[i])
		assert.Equal(t, s.G0, s4.G0[i])
		assert.Equal(t, s.T, s4.T[i])
	}
}

func TestLatticeNoise_TilingContinuity(t *testing.T) {
	// Тайлящийся шум повторяется с периодом 1
	h := SeedHash(11)
	for _, x := range []float32{0, 0.3, 0.55} {
		a := mgl32.Vec3{x, 0.2, 0.7}
		b := mgl32.Vec3{x + 1, 0.2, 1.7}
		assert.InDelta(t, Lattice2D[LatticeTiling, Perlin]{}.Sample(a, h, 4),
			Lattice2D[LatticeTiling, Perlin]{}.Sample(b, h, 4), 1e-4, "x=%v", x)
		assert.InDelta(t, Lattice1D[LatticeTiling, Value]{}.Sample(a, h, 4),
			Lattice1D[LatticeTiling, Value]{}.Sample(b, h, 4), 1e-4, "x=%v", x)
	}

	p := mgl32.Vec3{0, 0, 0}
	q := mgl32.Vec3{1, 1, 1}
	assert.Equal(t, Lattice3D[LatticeTiling, Value]{}.Sample(p, h, 2),
		Lattice3D[LatticeTiling, Value]{}.Sample(q, h, 2), "на узлах совпадение точное")
}

func TestLatticeNoise_ValueAtNodeIsCornerValue(t *testing.T) {
	h := SeedHash(0)
	v := Lattice1D[LatticeNormal, Value]{}.Sample(mgl32.Vec3{0, 0, 0}, h, 4)
	assert.Equal(t, h.Eat(0).Floats01A()*2-1, v)
}

func TestSample4_MatchesScalar(t *testing.T) {
	positions := Batch{{0.1, 0.2, 0.3}, {-1, 2, 0.5}, {3.3, -0.7, 9}, {0, 0, 0}}
	h := SeedLanes(Int4{1, 2, 3, 4})

	out := Sample4[Lattice3D[LatticeNormal, Perlin]](positions, h, 5)
	for i := range positions {
		expected := Lattice3D[LatticeNormal, Perlin]{}.Sample(positions[i], h.Lane(i), 5)
		assert.Equal(t, expected, out[i], "лейн %d", i)
	}
}
