package noise

import "github.com/go-gl/mathgl/mgl32"

// SpaceTRS — аффинное преобразование области шума: масштаб, поворот
// (углы Эйлера в градусах, порядок ZXY) и перенос.
type SpaceTRS struct {
	Translation mgl32.Vec3 `json:"translation" yaml:"translation"`
	Rotation    mgl32.Vec3 `json:"rotation" yaml:"rotation"`
	Scale       mgl32.Vec3 `json:"scale" yaml:"scale"`
}

// IdentityTRS не меняет позиции.
func IdentityTRS() SpaceTRS {
	return SpaceTRS{Scale: mgl32.Vec3{1, 1, 1}}
}

// UniformTRS масштабирует область одинаково по всем осям.
func UniformTRS(scale float32) SpaceTRS {
	return SpaceTRS{Scale: mgl32.Vec3{scale, scale, scale}}
}

// Matrix возвращает T·R·S. Поворот применяется по Z, затем X, затем Y.
func (t SpaceTRS) Matrix() mgl32.Mat4 {
	rotation := mgl32.HomogRotate3DY(mgl32.DegToRad(t.Rotation[1])).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(t.Rotation[0]))).
		Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(t.Rotation[2])))
	return mgl32.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2]).
		Mul4(rotation).
		Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// TransformPoint применяет матрицу к точке.
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformCoordinate(p, m)
}

// TransformBatch применяет матрицу ко всем позициям пакета.
func TransformBatch(m mgl32.Mat4, b Batch) Batch {
	for i := range b {
		b[i] = TransformPoint(m, b[i])
	}
	return b
}
