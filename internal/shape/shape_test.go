package shape

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexTo4UV(t *testing.T) {
	// Сетка 4×4: пакет 1 — вторая строка
	u, v := IndexTo4UV(1, 4, 0.25)
	assert.InDeltaSlice(t, []float32{0.125, 0.375, 0.625, 0.875}, u[:], 1e-6)
	assert.InDeltaSlice(t, []float32{0.375, 0.375, 0.375, 0.375}, v[:], 1e-6)

	// Сетка 2×2 — один пакет на все четыре ячейки
	u, v = IndexTo4UV(0, 2, 0.5)
	assert.InDeltaSlice(t, []float32{0.25, 0.75, 0.25, 0.75}, u[:], 1e-6)
	assert.InDeltaSlice(t, []float32{0.25, 0.25, 0.75, 0.75}, v[:], 1e-6)
}

func TestSphere_RadiusAndNormals(t *testing.T) {
	positions, normals, err := Generate(Sphere{}, 16, mgl32.Ident4())
	require.NoError(t, err)
	require.Len(t, positions, 64)

	for i := range positions {
		for l := range positions[i] {
			assert.InDelta(t, 0.5, positions[i][l].Len(), 1e-5, "точка на сфере")
			assert.InDelta(t, 1, normals[i][l].Len(), 1e-5, "нормаль единичная")
			assert.InDelta(t, 1, normals[i][l].Dot(positions[i][l].Normalize()), 1e-5, "нормаль радиальна")
		}
	}
}

func TestTorus_Normals(t *testing.T) {
	positions, normals, err := Generate(Torus{}, 8, mgl32.Ident4())
	require.NoError(t, err)
	for i := range positions {
		for l := range positions[i] {
			p := positions[i][l]
			// Расстояние до центральной окружности равно малому радиусу
			ring := mgl32.Vec3{p[0], 0, p[2]}
			center := ring.Normalize().Mul(torusMajor)
			assert.InDelta(t, torusMinor, p.Sub(center).Len(), 1e-5)
			assert.InDelta(t, 1, normals[i][l].Len(), 1e-5)
		}
	}
}

func TestGenerate_Transform(t *testing.T) {
	trs := mgl32.Translate3D(0, 5, 0).Mul4(mgl32.Scale3D(2, 1, 4))
	positions, normals, err := Generate(Plane{}, 2, trs)
	require.NoError(t, err)
	require.Len(t, positions, 1)

	assert.InDelta(t, -0.5, positions[0][0][0], 1e-6)
	assert.InDelta(t, 5, positions[0][0][1], 1e-6)
	assert.InDelta(t, -1, positions[0][0][2], 1e-6)
	assert.InDeltaSlice(t, []float32{0, 1, 0}, normals[0][3][:], 1e-6, "нормаль плоскости не меняется от масштаба по XZ")

	_, _, err = Generate(Plane{}, 0, trs)
	assert.Error(t, err)
	_, _, err = Generate(Plane{}, 4, mgl32.Mat4{})
	assert.Error(t, err, "вырожденная матрица")
}

func TestByName(t *testing.T) {
	s, err := ByName(" Torus ")
	require.NoError(t, err)
	assert.Equal(t, Torus{}, s)

	_, err = ByName("cube")
	assert.Error(t, err)
	assert.Equal(t, []string{"plane", "sphere", "torus"}, Names())
	assert.Equal(t, 3, BatchCount(3), "9 точек дают 3 пакета")
}
