package noise

import "github.com/go-gl/mathgl/mgl32"

// Noise — сборщик шума: один сэмпл на координату.
// Реализации — пустые структуры, параметризованные решёткой и градиентом,
// поэтому нулевое значение типа полностью работоспособно.
type Noise interface {
	Sample(p mgl32.Vec3, h Hash, frequency int) float32
}

// Sample4 прогоняет скалярный сборщик по четырём лейнам пакета.
// Лейн i использует позицию positions[i] и хеш h.Lane(i).
func Sample4[N Noise](positions Batch, h LaneHash, frequency int) Float4 {
	var n N
	var out Float4
	for i := range out {
		out[i] = n.Sample(positions[i], h[i], frequency)
	}
	return out
}

// Lattice1D — шум вдоль оси X.
type Lattice1D[L Lattice, G Gradient] struct{}

func (Lattice1D[L, G]) Sample(p mgl32.Vec3, h Hash, frequency int) float32 {
	var l L
	var g G
	x := l.Span(p[0], frequency)
	return g.EvaluateAfterInterpolation(lerp(
		g.Evaluate1D(h.Eat(x.P0), x.G0),
		g.Evaluate1D(h.Eat(x.P1), x.G1),
		x.T,
	))
}

// Lattice2D — шум в плоскости XZ.
type Lattice2D[L Lattice, G Gradient] struct{}

func (Lattice2D[L, G]) Sample(p mgl32.Vec3, h Hash, frequency int) float32 {
	var l L
	var g G
	x := l.Span(p[0], frequency)
	z := l.Span(p[2], frequency)
	h0, h1 := h.Eat(x.P0), h.Eat(x.P1)
	return g.EvaluateAfterInterpolation(lerp(
		lerp(
			g.Evaluate2D(h0.Eat(z.P0), x.G0, z.G0),
			g.Evaluate2D(h0.Eat(z.P1), x.G0, z.G1),
			z.T,
		),
		lerp(
			g.Evaluate2D(h1.Eat(z.P0), x.G1, z.G0),
			g.Evaluate2D(h1.Eat(z.P1), x.G1, z.G1),
			z.T,
		),
		x.T,
	))
}

// Lattice3D — объёмный шум. Интерполяция идёт сначала по Z,
// затем по Y и в конце по X.
type Lattice3D[L Lattice, G Gradient] struct{}

func (Lattice3D[L, G]) Sample(p mgl32.Vec3, h Hash, frequency int) float32 {
	var l L
	var g G
	x := l.Span(p[0], frequency)
	y := l.Span(p[1], frequency)
	z := l.Span(p[2], frequency)

	h0, h1 := h.Eat(x.P0), h.Eat(x.P1)
	h00, h01 := h0.Eat(y.P0), h0.Eat(y.P1)
	h10, h11 := h1.Eat(y.P0), h1.Eat(y.P1)

	return g.EvaluateAfterInterpolation(lerp(
		lerp(
			lerp(
				g.Evaluate3D(h00.Eat(z.P0), x.G0, y.G0, z.G0),
				g.Evaluate3D(h00.Eat(z.P1), x.G0, y.G0, z.G1),
				z.T,
			),
			lerp(
				g.Evaluate3D(h01.Eat(z.P0), x.G0, y.G1, z.G0),
				g.Evaluate3D(h01.Eat(z.P1), x.G0, y.G1, z.G1),
				z.T,
			),
			y.T,
		),
		lerp(
			lerp(
				g.Evaluate3D(h10.Eat(z.P0), x.G1, y.G0, z.G0),
				g.Evaluate3D(h10.Eat(z.P1), x.G1, y.G0, z.G1),
				z.T,
			),
			lerp(
				g.Evaluate3D(h11.Eat(z.P0), x.G1, y.G1, z.G0),
				g.Evaluate3D(h11.Eat(z.P1), x.G1, y.G1, z.G1),
				z.T,
			),
			y.T,
		),
		x.T,
	))
}
