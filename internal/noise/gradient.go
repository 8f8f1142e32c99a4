package noise

import "github.com/chewxy/math32"

// Gradient — функция вклада одного угла ячейки решётки.
// Один и тот же сборщик (Lattice1D/2D/3D, Simplex1D/2D/3D) работает с любым
// градиентом; градиент задаётся параметром типа, а не ветвлением.
type Gradient interface {
	Evaluate1D(h Hash, x float32) float32
	Evaluate2D(h Hash, x, y float32) float32
	Evaluate3D(h Hash, x, y, z float32) float32
	// EvaluateAfterInterpolation применяется один раз к итоговому значению.
	EvaluateAfterInterpolation(value float32) float32
}

// Нормировочные множители подобраны эмпирически так, чтобы фрактальная сумма
// оставалась примерно в [-1, 1]. Значения фиксированы.
var (
	perlin2DScale  = 2 / float32(0.53528)
	perlin3DScale  = 1 / float32(0.56290)
	simplex1DScale = float32(32) / float32(27)
	simplex2DScale = float32(5.832) / math32.Sqrt(2)
	simplex3DScale = float32(1024) / (float32(125) * math32.Sqrt(3))
)

// Value — значение угла не зависит от смещения: псевдослучайный скаляр в [-1, 1].
type Value struct{}

func (Value) Evaluate1D(h Hash, x float32) float32       { return h.Floats01A()*2 - 1 }
func (Value) Evaluate2D(h Hash, x, y float32) float32    { return h.Floats01A()*2 - 1 }
func (Value) Evaluate3D(h Hash, x, y, z float32) float32 { return h.Floats01A()*2 - 1 }
func (Value) EvaluateAfterInterpolation(v float32) float32 {
	return v
}

// Perlin — скалярное произведение псевдослучайного направления угла на смещение.
type Perlin struct{}

func (Perlin) Evaluate1D(h Hash, x float32) float32 {
	return Line(h, x)
}

func (Perlin) Evaluate2D(h Hash, x, y float32) float32 {
	return Square(h, x, y) * perlin2DScale
}

func (Perlin) Evaluate3D(h Hash, x, y, z float32) float32 {
	return Octahedron(h, x, y, z) * perlin3DScale
}

func (Perlin) EvaluateAfterInterpolation(v float32) float32 {
	return v
}

// Simplex — градиенты для симплексных сборщиков: нормализованные
// направления с радиальной нормировкой ядра.
type Simplex struct{}

func (Simplex) Evaluate1D(h Hash, x float32) float32 {
	return Line(h, x) * simplex1DScale
}

func (Simplex) Evaluate2D(h Hash, x, y float32) float32 {
	return Circle(h, x, y) * simplex2DScale
}

func (Simplex) Evaluate3D(h Hash, x, y, z float32) float32 {
	return Sphere(h, x, y, z) * simplex3DScale
}

func (Simplex) EvaluateAfterInterpolation(v float32) float32 {
	return v
}

// Turbulence оборачивает любой градиент и берёт модуль после интерполяции,
// давая острые гребни вместо плавных волн.
type Turbulence[G Gradient] struct{}

func (Turbulence[G]) Evaluate1D(h Hash, x float32) float32 {
	var g G
	return g.Evaluate1D(h, x)
}

func (Turbulence[G]) Evaluate2D(h Hash, x, y float32) float32 {
	var g G
	return g.Evaluate2D(h, x, y)
}

func (Turbulence[G]) Evaluate3D(h Hash, x, y, z float32) float32 {
	var g G
	return g.Evaluate3D(h, x, y, z)
}

func (Turbulence[G]) EvaluateAfterInterpolation(v float32) float32 {
	var g G
	return math32.Abs(g.EvaluateAfterInterpolation(v))
}

// Line — одномерный градиент: величина 1+A, знак выбирается битом 8.
func Line(h Hash, x float32) float32 {
	if h.Uint32()&(1<<8) != 0 {
		x = -x
	}
	return (1 + h.Floats01A()) * x
}

// squareVectors строит направление на ромбе без тригонометрии.
func squareVectors(h Hash) (x, y float32) {
	x = h.Floats01A()*2 - 1
	y = 0.5 - math32.Abs(x)
	x -= math32.Floor(x + 0.5)
	return x, y
}

// octahedronVectors строит направление на октаэдре из каналов A и D.
func octahedronVectors(h Hash) (x, y, z float32) {
	x = h.Floats01A()*2 - 1
	y = h.Floats01D()*2 - 1
	z = 1 - math32.Abs(x) - math32.Abs(y)
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
	return x, y, z
}

// Square — двумерный градиент по ромбовидному направлению.
func Square(h Hash, x, y float32) float32 {
	gx, gy := squareVectors(h)
	return gx*x + gy*y
}

// Circle — Square с нормализованным направлением.
func Circle(h Hash, x, y float32) float32 {
	gx, gy := squareVectors(h)
	return (gx*x + gy*y) * rsqrt(gx*gx+gy*gy)
}

// Octahedron — трёхмерный градиент по октаэдрическому направлению.
func Octahedron(h Hash, x, y, z float32) float32 {
	gx, gy, gz := octahedronVectors(h)
	return gx*x + gy*y + gz*z
}

// Sphere — Octahedron с нормализованным направлением.
func Sphere(h Hash, x, y, z float32) float32 {
	gx, gy, gz := octahedronVectors(h)
	return (gx*x + gy*y + gz*z) * rsqrt(gx*gx+gy*gy+gz*gz)
}

func rsqrt(v float32) float32 {
	return 1 / math32.Sqrt(v)
}
