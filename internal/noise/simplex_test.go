package noise

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestSimplex1D_ZeroAtNodes(t *testing.T) {
	var n Simplex1D[Simplex]
	h := SeedHash(11)
	for _, x := range []float32{0, 1, 2, -3, 7} {
		assert.InDelta(t, 0, n.Sample(mgl32.Vec3{x, 0.3, 0.7}, h, 1), 1e-6, "x=%v", x)
	}
}

func TestSimplex_ZeroAtOrigin(t *testing.T) {
	// В начале координат все соседние вершины вне радиуса ядра,
	// а собственная вершина даёт нулевой градиентный вклад
	h := SeedHash(3)
	assert.InDelta(t, 0, Simplex2D[Simplex]{}.Sample(mgl32.Vec3{}, h, 4), 1e-6)
	assert.InDelta(t, 0, Simplex3D[Simplex]{}.Sample(mgl32.Vec3{}, h, 4), 1e-6)
}

func TestSimplex_Continuous(t *testing.T) {
	h := SeedHash(8)
	const step = 1e-4
	for i := 0; i < 200; i++ {
		p := mgl32.Vec3{float32(i) * 0.0371, float32(i%13) * 0.113, float32(i) * 0.0593}
		q := p.Add(mgl32.Vec3{step, step, step})
		assert.InDelta(t, Simplex2D[Simplex]{}.Sample(p, h, 4), Simplex2D[Simplex]{}.Sample(q, h, 4), 0.05)
		assert.InDelta(t, Simplex3D[Simplex]{}.Sample(p, h, 4), Simplex3D[Simplex]{}.Sample(q, h, 4), 0.05)
	}
}

func TestSimplex_TurbulenceIsAbs(t *testing.T) {
	h := SeedHash(21)
	for i := 0; i < 64; i++ {
		p := mgl32.Vec3{float32(i) * 0.17, float32(i) * 0.05, float32(i) * 0.29}
		plain := Simplex3D[Simplex]{}.Sample(p, h, 2)
		turb := Simplex3D[Turbulence[Simplex]]{}.Sample(p, h, 2)
		assert.Equal(t, math32.Abs(plain), turb)
		assert.False(t, math32.IsNaN(plain))
	}
}
