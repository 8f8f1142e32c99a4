package noise

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Minima — два текущих минимума расстояния, F1 <= F2.
type Minima struct {
	F1, F2 float32
}

// initialMinima больше любого расстояния внутри окрестности 3^N.
var initialMinima = Minima{F1: 2, F2: 2}

// Update учитывает очередного кандидата. Новый минимум сдвигает
// прежний F1 в F2; иначе кандидат может заменить только F2.
func (m Minima) Update(distance float32) Minima {
	if distance < m.F1 {
		m.F2 = m.F1
		m.F1 = distance
	} else if distance < m.F2 {
		m.F2 = distance
	}
	return m
}

// VoronoiDistance — метрика расстояния до точки-признака ячейки.
type VoronoiDistance interface {
	Distance1D(x float32) float32
	Distance2D(x, y float32) float32
	Distance3D(x, y, z float32) float32
	Finalize1D(m Minima) Minima
	Finalize2D(m Minima) Minima
	Finalize3D(m Minima) Minima
}

// Worley — евклидова метрика. Во время сканирования хранится квадрат
// расстояния, корень и ограничение единицей берутся в Finalize.
type Worley struct{}

func (Worley) Distance1D(x float32) float32       { return math32.Abs(x) }
func (Worley) Distance2D(x, y float32) float32    { return x*x + y*y }
func (Worley) Distance3D(x, y, z float32) float32 { return x*x + y*y + z*z }
func (Worley) Finalize1D(m Minima) Minima         { return m }

func (Worley) Finalize2D(m Minima) Minima {
	m.F1 = math32.Sqrt(math32.Min(m.F1, 1))
	m.F2 = math32.Sqrt(math32.Min(m.F2, 1))
	return m
}

func (w Worley) Finalize3D(m Minima) Minima { return w.Finalize2D(m) }

// Chebyshev — максимум модулей по осям.
type Chebyshev struct{}

func (Chebyshev) Distance1D(x float32) float32 { return math32.Abs(x) }

func (Chebyshev) Distance2D(x, y float32) float32 {
	return math32.Max(math32.Abs(x), math32.Abs(y))
}

func (Chebyshev) Distance3D(x, y, z float32) float32 {
	return math32.Max(math32.Max(math32.Abs(x), math32.Abs(y)), math32.Abs(z))
}

func (Chebyshev) Finalize1D(m Minima) Minima { return m }
func (Chebyshev) Finalize2D(m Minima) Minima { return m }
func (Chebyshev) Finalize3D(m Minima) Minima { return m }

// VoronoiFunction выбирает итоговое значение по паре минимумов.
type VoronoiFunction interface {
	Evaluate(m Minima) float32
}

// F1 — расстояние до ближайшей точки.
type F1 struct{}

func (F1) Evaluate(m Minima) float32 { return m.F1 }

// F2 — расстояние до второй по близости точки.
type F2 struct{}

func (F2) Evaluate(m Minima) float32 { return m.F2 }

// F2MinusF1 подчёркивает границы ячеек.
type F2MinusF1 struct{}

func (F2MinusF1) Evaluate(m Minima) float32 { return m.F2 - m.F1 }

// Voronoi1D — клеточный шум вдоль X, одна точка на ячейку.
type Voronoi1D[L Lattice, D VoronoiDistance, F VoronoiFunction] struct{}

func (Voronoi1D[L, D, F]) Sample(p mgl32.Vec3, h Hash, frequency int) float32 {
	var l L
	var d D
	var f F
	x := l.Span(p[0], frequency)

	minima := initialMinima
	for u := int32(-1); u <= 1; u++ {
		hx := h.Eat(l.ValidateSingleStep(x.P0+u, frequency))
		minima = minima.Update(d.Distance1D(hx.Floats01A() + float32(u) - x.G0))
	}
	return f.Evaluate(d.Finalize1D(minima))
}

// Voronoi2D — клеточный шум в плоскости XZ, две точки на ячейку.
type Voronoi2D[L Lattice, D VoronoiDistance, F VoronoiFunction] struct{}

func (Voronoi2D[L, D, F]) Sample(p mgl32.Vec3, h Hash, frequency int) float32 {
	var l L
	var d D
	var f F
	x := l.Span(p[0], frequency)
	z := l.Span(p[2], frequency)

	minima := initialMinima
	for u := int32(-1); u <= 1; u++ {
		hx := h.Eat(l.ValidateSingleStep(x.P0+u, frequency))
		xOffset := float32(u) - x.G0
		for v := int32(-1); v <= 1; v++ {
			hz := hx.Eat(l.ValidateSingleStep(z.P0+v, frequency))
			zOffset := float32(v) - z.G0
			minima = minima.Update(d.Distance2D(hz.Floats01A()+xOffset, hz.Floats01B()+zOffset))
			minima = minima.Update(d.Distance2D(hz.Floats01C()+xOffset, hz.Floats01D()+zOffset))
		}
	}
	return f.Evaluate(d.Finalize2D(minima))
}

// Voronoi3D — объёмный клеточный шум. Две точки на ячейку упакованы
// в один хеш по 5 бит на компоненту.
type Voronoi3D[L Lattice, D VoronoiDistance, F VoronoiFunction] struct{}

func (Voronoi3D[L, D, F]) Sample(p mgl32.Vec3, h Hash, frequency int) float32 {
	var l L
	var d D
	var f F
	x := l.Span(p[0], frequency)
	y := l.Span(p[1], frequency)
	z := l.Span(p[2], frequency)

	minima := initialMinima
	for u := int32(-1); u <= 1; u++ {
		hx := h.Eat(l.ValidateSingleStep(x.P0+u, frequency))
		xOffset := float32(u) - x.G0
		for v := int32(-1); v <= 1; v++ {
			hy := hx.Eat(l.ValidateSingleStep(y.P0+v, frequency))
			yOffset := float32(v) - y.G0
			for w := int32(-1); w <= 1; w++ {
				hz := hy.Eat(l.ValidateSingleStep(z.P0+w, frequency))
				zOffset := float32(w) - z.G0
				minima = minima.Update(d.Distance3D(
					hz.BitsAsFloats01(5, 0)+xOffset,
					hz.BitsAsFloats01(5, 5)+yOffset,
					hz.BitsAsFloats01(5, 10)+zOffset,
				))
				minima = minima.Update(d.Distance3D(
					hz.BitsAsFloats01(5, 15)+xOffset,
					hz.BitsAsFloats01(5, 20)+yOffset,
					hz.BitsAsFloats01(5, 25)+zOffset,
				))
			}
		}
	}
	return f.Evaluate(d.Finalize3D(minima))
}
