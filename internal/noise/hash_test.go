package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash_KnownValues(t *testing.T) {
	// Опорные значения SmallXXHash для нулевого сида
	h := SeedHash(0)
	assert.Equal(t, uint32(0x165667b1), h.accumulator, "сид складывается с primeE")
	assert.Equal(t, uint32(0x02cc5d05), h.Uint32(), "avalanche от сида")
	assert.Equal(t, uint32(0x34560f83), h.Eat(0).Uint32())
	assert.Equal(t, uint32(0x8287b9f0), h.Eat(1).Uint32())
}

func TestHash_Determinism(t *testing.T) {
	// Два независимо созданных хеша с одинаковым сидом совпадают побитово
	for _, seed := range []int32{0, 1, -1, 42, 1 << 30} {
		a := SeedHash(seed).Eat(-7).Eat(3).EatByte(200)
		b := SeedHash(seed).Eat(-7).Eat(3).EatByte(200)
		assert.Equal(t, a.Uint32(), b.Uint32(), "сид %d", seed)
	}
	assert.NotEqual(t, SeedHash(1).Eat(5).Uint32(), SeedHash(2).Eat(5).Uint32(), "разные сиды должны давать разные хеши")
}

func TestHash_Channels(t *testing.T) {
	h := SeedHash(0).Eat(0)
	v := h.Uint32()

	assert.Equal(t, v&255, h.BytesA())
	assert.Equal(t, (v>>8)&255, h.BytesB())
	assert.Equal(t, (v>>16)&255, h.BytesC())
	assert.Equal(t, v>>24, h.BytesD())
	assert.InDelta(t, float32(0x83)/255, h.Floats01A(), 1e-6)

	for i := int32(0); i < 64; i++ {
		g := SeedHash(9).Eat(i)
		for _, f := range []float32{g.Floats01A(), g.Floats01B(), g.Floats01C(), g.Floats01D()} {
			assert.GreaterOrEqual(t, f, float32(0))
			assert.LessOrEqual(t, f, float32(1))
		}
		b := g.BitsAsFloats01(5, 10)
		assert.GreaterOrEqual(t, b, float32(0))
		assert.LessOrEqual(t, b, float32(1))
		assert.Equal(t, float32(g.GetBits(5, 10))/31, b)
	}
}

func TestHash_AddIsPlainOffset(t *testing.T) {
	h := SeedHash(3)
	assert.Equal(t, h.accumulator+5, h.Add(5).accumulator)
	assert.Equal(t, h, h.Add(0), "нулевая октава не меняет хеш")
}

func TestLaneHash_MatchesScalar(t *testing.T) {
	// Лейн i равен скалярному хешу со входами лейна i
	seeds := Int4{0, 1, -5, 77}
	xs := Int4{10, -3, 0, 1 << 20}
	zs := Int4{4, 4, -4, 9}

	lanes := SeedLanes(seeds).Eat(xs).Eat(zs).EatBytes([4]byte{1, 2, 3, 255}).Add(2)
	u := lanes.Uint4()
	ba, bc := lanes.BytesA(), lanes.BytesC()
	fa, fb, fd := lanes.Floats01A(), lanes.Floats01B(), lanes.Floats01D()
	for i := 0; i < LaneWidth; i++ {
		scalar := SeedHash(seeds[i]).Eat(xs[i]).Eat(zs[i]).EatByte([4]byte{1, 2, 3, 255}[i]).Add(2)
		assert.Equal(t, scalar, lanes.Lane(i), "лейн %d", i)
		assert.Equal(t, scalar.Uint32(), u[i])
		assert.Equal(t, scalar.BytesA(), ba[i])
		assert.Equal(t, scalar.BytesC(), bc[i])
		assert.Equal(t, scalar.Floats01A(), fa[i])
		assert.Equal(t, scalar.Floats01B(), fb[i])
		assert.Equal(t, scalar.Floats01D(), fd[i])
	}
}

func TestLaneHash_Broadcast(t *testing.T) {
	a := BroadcastSeed(1)
	for i := 0; i < LaneWidth; i++ {
		assert.Equal(t, SeedHash(1), a.Lane(i))
	}
	assert.Equal(t, SeedLanes(Int4{-7, -7, -7, -7}), BroadcastSeed(-7))
}

func TestFloor4(t *testing.T) {
	assert.Equal(t, Int4{0, -1, 2, -3}, Floor4(Float4{0.5, -0.5, 2, -2.01}))
}
