package noise

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Simplex1D — сумма радиальных ядер двух ближайших узлов вдоль X.
type Simplex1D[G Gradient] struct{}

func (Simplex1D[G]) Sample(p mgl32.Vec3, h Hash, frequency int) float32 {
	var g G
	px := p[0] * float32(frequency)
	x0 := int32(math32.Floor(px))
	x1 := x0 + 1
	return g.EvaluateAfterInterpolation(
		simplexKernel1D[G](h.Eat(x0), x0, px) + simplexKernel1D[G](h.Eat(x1), x1, px),
	)
}

func simplexKernel1D[G Gradient](h Hash, lx int32, px float32) float32 {
	var g G
	x := px - float32(lx)
	f := 1 - x*x
	f = f * f * f
	return f * g.Evaluate1D(h, x)
}

var (
	sqrt3           = math32.Sqrt(3)
	simplex2DSize   = 1 / sqrt3
	simplex2DSkew   = (sqrt3 - 1) / 2
	simplex2DUnskew = (3 - sqrt3) / 6
)

// Simplex2D — шум на треугольной сетке в плоскости XZ.
type Simplex2D[G Gradient] struct{}

func (Simplex2D[G]) Sample(p mgl32.Vec3, h Hash, frequency int) float32 {
	var g G
	scale := float32(frequency) * simplex2DSize
	px, pz := p[0]*scale, p[2]*scale
	skew := (px + pz) * simplex2DSkew
	sx, sz := px+skew, pz+skew

	x0 := int32(math32.Floor(sx))
	x1 := x0 + 1
	z0 := int32(math32.Floor(sz))
	z1 := z0 + 1

	// Третий угол треугольника зависит от того, какая дробная часть больше.
	xGz := sx-float32(x0) > sz-float32(z0)
	xC, zC := x0, z1
	if xGz {
		xC, zC = x1, z0
	}

	h0, h1 := h.Eat(x0), h.Eat(x1)
	hC := h0
	if xGz {
		hC = h1
	}

	return g.EvaluateAfterInterpolation(
		simplexKernel2D[G](h0.Eat(z0), x0, z0, px, pz) +
			simplexKernel2D[G](h1.Eat(z1), x1, z1, px, pz) +
			simplexKernel2D[G](hC.Eat(zC), xC, zC, px, pz),
	)
}

func simplexKernel2D[G Gradient](h Hash, lx, lz int32, px, pz float32) float32 {
	var g G
	fx, fz := float32(lx), float32(lz)
	unskew := (fx + fz) * simplex2DUnskew
	x := px - fx + unskew
	z := pz - fz + unskew
	f := 0.5 - x*x - z*z
	f = f * f * f * 8
	return math32.Max(0, f) * g.Evaluate2D(h, x, z)
}

// Simplex3D — шум на тетраэдрической сетке.
type Simplex3D[G Gradient] struct{}

func (Simplex3D[G]) Sample(p mgl32.Vec3, h Hash, frequency int) float32 {
	var g G
	scale := float32(frequency) * 0.6
	px, py, pz := p[0]*scale, p[1]*scale, p[2]*scale
	skew := (px + py + pz) * (1.0 / 3.0)
	sx, sy, sz := px+skew, py+skew, pz+skew

	x0 := int32(math32.Floor(sx))
	y0 := int32(math32.Floor(sy))
	z0 := int32(math32.Floor(sz))
	x1, y1, z1 := x0+1, y0+1, z0+1

	fx, fy, fz := sx-float32(x0), sy-float32(y0), sz-float32(z0)
	xGy, xGz, yGz := fx > fy, fx > fz, fy > fz

	// Два промежуточных угла тетраэдра.
	xA := xGy && xGz
	xB := xGy || (xGz && yGz)
	yA := !xGy && yGz
	yB := !xGy || (xGz && yGz)
	zA := (xGy && !xGz) || (!xGy && !yGz)
	zB := !(xGz && yGz)

	xCA, xCB := pick(x0, x1, xA), pick(x0, x1, xB)
	yCA, yCB := pick(y0, y1, yA), pick(y0, y1, yB)
	zCA, zCB := pick(z0, z1, zA), pick(z0, z1, zB)

	h0, h1 := h.Eat(x0), h.Eat(x1)
	hA, hB := h0, h0
	if xA {
		hA = h1
	}
	if xB {
		hB = h1
	}

	return g.EvaluateAfterInterpolation(
		simplexKernel3D[G](h0.Eat(y0).Eat(z0), x0, y0, z0, px, py, pz) +
			simplexKernel3D[G](h1.Eat(y1).Eat(z1), x1, y1, z1, px, py, pz) +
			simplexKernel3D[G](hA.Eat(yCA).Eat(zCA), xCA, yCA, zCA, px, py, pz) +
			simplexKernel3D[G](hB.Eat(yCB).Eat(zCB), xCB, yCB, zCB, px, py, pz),
	)
}

func simplexKernel3D[G Gradient](h Hash, lx, ly, lz int32, px, py, pz float32) float32 {
	var g G
	fx, fy, fz := float32(lx), float32(ly), float32(lz)
	unskew := (fx + fy + fz) * (1.0 / 6.0)
	x := px - fx + unskew
	y := py - fy + unskew
	z := pz - fz + unskew
	f := 0.5 - x*x - y*y - z*z
	f = f * f * f * 8
	return math32.Max(0, f) * g.Evaluate3D(h, x, y, z)
}

func pick(a, b int32, useB bool) int32 {
	if useB {
		return b
	}
	return a
}
