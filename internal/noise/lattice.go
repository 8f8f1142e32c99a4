package noise

import "github.com/chewxy/math32"

// Span описывает положение координаты внутри ячейки решётки по одной оси.
type Span struct {
	P0, P1 int32   // индексы граничных узлов
	G0, G1 float32 // смещения от узлов до координаты
	T      float32 // сглаженный коэффициент интерполяции в [0, 1]
}

// Span4 — Span для четырёх лейнов.
type Span4 struct {
	P0, P1 Int4
	G0, G1 Float4
	T      Float4
}

// Lattice отображает непрерывную координату на пару узлов решётки.
type Lattice interface {
	// Span вычисляет ячейку для координаты при заданной частоте.
	// frequency должна быть положительной.
	Span(coordinate float32, frequency int) Span
	// ValidateSingleStep возвращает соседний индекс в допустимый диапазон.
	ValidateSingleStep(point int32, frequency int) int32
}

// LatticeNormal — неограниченная решётка.
type LatticeNormal struct{}

func (LatticeNormal) Span(coordinate float32, frequency int) Span {
	coordinate *= float32(frequency)
	points := math32.Floor(coordinate)
	var s Span
	s.P0 = int32(points)
	s.P1 = s.P0 + 1
	s.G0 = coordinate - float32(s.P0)
	s.G1 = s.G0 - 1
	s.T = smootherstep(coordinate - points)
	return s
}

func (LatticeNormal) ValidateSingleStep(point int32, frequency int) int32 {
	return point
}

// LatticeTiling сворачивает индексы по модулю частоты, чтобы шум
// бесшовно повторялся с периодом 1 в исходных координатах.
type LatticeTiling struct{}

func (LatticeTiling) Span(coordinate float32, frequency int) Span {
	f := int32(frequency)
	coordinate *= float32(frequency)
	points := math32.Floor(coordinate)
	var s Span
	s.P0 = int32(points)
	s.G0 = coordinate - float32(s.P0)
	s.G1 = s.G0 - 1
	s.P0 -= int32(math32.Floor(points/float32(frequency))) * f
	if s.P0 < 0 {
		s.P0 += f
	}
	s.P1 = s.P0 + 1
	if s.P1 == f {
		s.P1 = 0
	}
	s.T = smootherstep(coordinate - points)
	return s
}

func (LatticeTiling) ValidateSingleStep(point int32, frequency int) int32 {
	f := int32(frequency)
	switch point {
	case f:
		return 0
	case -1:
		return f - 1
	}
	return point
}

// SpanLanes вычисляет Span4 для четырёх координат.
func SpanLanes[L Lattice](coordinates Float4, frequency int) Span4 {
	var l L
	var s4 Span4
	for i, c := range coordinates {
		s := l.Span(c, frequency)
		s4.P0[i], s4.P1[i] = s.P0, s.P1
		s4.G0[i], s4.G1[i] = s.G0, s.G1
		s4.T[i] = s.T
	}
	return s4
}

// smootherstep — квинтическая кривая t³(t(6t−15)+10).
func smootherstep(t float32) float32 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float32) float32 {
	return a + t*(b-a)
}
