// Package shape генерирует позиции сэмплов на поверхностях (плоскость,
// сфера, тор) пакетами по четыре точки.
package shape

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/noisefield/internal/noise"
)

// Point4 — четыре позиции и их нормали.
type Point4 struct {
	Positions noise.Batch
	Normals   noise.Batch
}

// Shape вычисляет пакет i сетки resolution×resolution.
type Shape interface {
	Point4(i int, resolution, invResolution float32) Point4
}

// IndexTo4UV переводит номер пакета в UV-координаты центров четырёх ячеек.
func IndexTo4UV(i int, resolution, invResolution float32) (u, v noise.Float4) {
	for l := range u {
		i4 := float32(4*i + l)
		row := math32.Floor(invResolution*i4 + 0.00001)
		u[l] = invResolution * (i4 - resolution*row + 0.5)
		v[l] = invResolution * (row + 0.5)
	}
	return u, v
}

// Plane — квадрат 1×1 в плоскости XZ с центром в начале координат.
type Plane struct{}

func (Plane) Point4(i int, resolution, invResolution float32) Point4 {
	u, v := IndexTo4UV(i, resolution, invResolution)
	var p Point4
	for l := range u {
		p.Positions[l] = mgl32.Vec3{u[l] - 0.5, 0, v[l] - 0.5}
		p.Normals[l] = mgl32.Vec3{0, 1, 0}
	}
	return p
}

// Sphere — октаэдрическая сфера радиуса 0.5.
type Sphere struct{}

func (Sphere) Point4(i int, resolution, invResolution float32) Point4 {
	u, v := IndexTo4UV(i, resolution, invResolution)
	var p Point4
	for l := range u {
		x, y := u[l]-0.5, v[l]-0.5
		z := 0.5 - math32.Abs(x) - math32.Abs(y)
		offset := math32.Max(-z, 0)
		if x < 0 {
			x += offset
		} else {
			x -= offset
		}
		if y < 0 {
			y += offset
		} else {
			y -= offset
		}
		scale := 0.5 / math32.Sqrt(x*x+y*y+z*z)
		p.Positions[l] = mgl32.Vec3{x * scale, y * scale, z * scale}
		p.Normals[l] = p.Positions[l]
	}
	return p
}

// Torus — тор с большим радиусом 0.375 и малым 0.125.
type Torus struct{}

const (
	torusMajor float32 = 0.375
	torusMinor float32 = 0.125
)

func (Torus) Point4(i int, resolution, invResolution float32) Point4 {
	u, v := IndexTo4UV(i, resolution, invResolution)
	var p Point4
	for l := range u {
		su, cu := math32.Sincos(2 * math32.Pi * u[l])
		sv, cv := math32.Sincos(2 * math32.Pi * v[l])
		s := torusMajor + torusMinor*cv
		p.Positions[l] = mgl32.Vec3{s * su, torusMinor * sv, s * cu}
		p.Normals[l] = mgl32.Vec3{
			p.Positions[l][0] - torusMajor*su,
			p.Positions[l][1],
			p.Positions[l][2] - torusMajor*cu,
		}
	}
	return p
}

var shapes = map[string]Shape{
	"plane":  Plane{},
	"sphere": Sphere{},
	"torus":  Torus{},
}

// ByName возвращает форму по имени.
func ByName(name string) (Shape, error) {
	s, ok := shapes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown shape %q", name)
	}
	return s, nil
}

// Names возвращает имена всех форм.
func Names() []string {
	names := make([]string, 0, len(shapes))
	for name := range shapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BatchCount — число пакетов для сетки resolution×resolution.
func BatchCount(resolution int) int {
	return (resolution*resolution + noise.LaneWidth - 1) / noise.LaneWidth
}

// Generate строит позиции и нормали для всей сетки. Позиции преобразуются
// матрицей trs, нормали — обратной транспонированной и нормализуются.
// Хвост последнего пакета (если resolution² не кратно четырём) содержит
// точки за пределами сетки; вызывающая сторона отбрасывает их.
func Generate(s Shape, resolution int, trs mgl32.Mat4) (positions, normals []noise.Batch, err error) {
	if resolution < 1 {
		return nil, nil, fmt.Errorf("resolution must be positive, got %d", resolution)
	}
	normalTRS := trs.Inv().Transpose()
	if normalTRS == (mgl32.Mat4{}) {
		return nil, nil, fmt.Errorf("shape transform is not invertible")
	}

	count := BatchCount(resolution)
	positions = make([]noise.Batch, count)
	normals = make([]noise.Batch, count)
	r := float32(resolution)
	inv := 1 / r
	for i := 0; i < count; i++ {
		p := s.Point4(i, r, inv)
		for l := range p.Positions {
			positions[i][l] = noise.TransformPoint(trs, p.Positions[l])
			n := normalTRS.Mul4x1(p.Normals[l].Vec4(0)).Vec3()
			if n.Len() > 0 {
				n = n.Normalize()
			}
			normals[i][l] = n
		}
	}
	return positions, normals, nil
}
