package noise

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func assertVec(t *testing.T, expected, actual mgl32.Vec3, msg string) {
	t.Helper()
	for i := range expected {
		assert.InDelta(t, expected[i], actual[i], 1e-5, "%s: компонента %d", msg, i)
	}
}

func TestSpaceTRS_Identity(t *testing.T) {
	p := mgl32.Vec3{0.125, -3, 7}
	assert.Equal(t, p, TransformPoint(IdentityTRS().Matrix(), p), "единичное преобразование не меняет точку")
}

func TestSpaceTRS_Components(t *testing.T) {
	p := mgl32.Vec3{1, 0, 0}

	moved := SpaceTRS{Translation: mgl32.Vec3{1, 2, 3}, Scale: mgl32.Vec3{1, 1, 1}}
	assertVec(t, mgl32.Vec3{2, 2, 3}, TransformPoint(moved.Matrix(), p), "перенос")

	assertVec(t, mgl32.Vec3{3, 0, 0}, TransformPoint(UniformTRS(3).Matrix(), p), "масштаб")

	rotY := SpaceTRS{Rotation: mgl32.Vec3{0, 90, 0}, Scale: mgl32.Vec3{1, 1, 1}}
	assertVec(t, mgl32.Vec3{0, 0, -1}, TransformPoint(rotY.Matrix(), p), "поворот вокруг Y")

	rotZ := SpaceTRS{Rotation: mgl32.Vec3{0, 0, 90}, Scale: mgl32.Vec3{1, 1, 1}}
	assertVec(t, mgl32.Vec3{0, 1, 0}, TransformPoint(rotZ.Matrix(), p), "поворот вокруг Z")
}

func TestSpaceTRS_Order(t *testing.T) {
	// Сначала масштаб, потом поворот, потом перенос
	trs := SpaceTRS{
		Translation: mgl32.Vec3{10, 0, 0},
		Rotation:    mgl32.Vec3{0, 0, 90},
		Scale:       mgl32.Vec3{2, 1, 1},
	}
	assertVec(t, mgl32.Vec3{10, 2, 0}, TransformPoint(trs.Matrix(), mgl32.Vec3{1, 0, 0}), "T·R·S")

	// Z применяется раньше X: (0,1,0) -Z90-> (-1,0,0) -X90-> (-1,0,0)
	zx := SpaceTRS{Rotation: mgl32.Vec3{90, 0, 90}, Scale: mgl32.Vec3{1, 1, 1}}
	assertVec(t, mgl32.Vec3{-1, 0, 0}, TransformPoint(zx.Matrix(), mgl32.Vec3{0, 1, 0}), "порядок ZXY")
}

func TestTransformBatch(t *testing.T) {
	m := UniformTRS(2).Matrix()
	b := TransformBatch(m, Batch{{1, 1, 1}, {0, 0, 0}, {-1, 2, 3}, {0.5, 0, 0}})
	assert.Equal(t, Batch{{2, 2, 2}, {0, 0, 0}, {-2, 4, 6}, {1, 0, 0}}, b)
}
