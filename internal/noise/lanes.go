package noise

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// LaneWidth — количество лейнов в одном пакете сэмплов.
const LaneWidth = 4

// Float4, Int4 и Uint4 — четырёхлейновые векторы.
type (
	Float4 [LaneWidth]float32
	Int4   [LaneWidth]int32
	Uint4  [LaneWidth]uint32
)

// Batch — пакет из четырёх позиций, единица работы для всех стадий конвейера.
// Пакет никогда не разбивается между лейнами посреди вычисления.
type Batch [LaneWidth]mgl32.Vec3

// Column возвращает компоненту axis (0=x, 1=y, 2=z) всех четырёх позиций.
func (b Batch) Column(axis int) Float4 {
	return Float4{b[0][axis], b[1][axis], b[2][axis], b[3][axis]}
}

// Splat4 заполняет все лейны одним значением.
func Splat4(v float32) Float4 {
	return Float4{v, v, v, v}
}

// Floor4 округляет все лейны вниз до целого.
func Floor4(v Float4) Int4 {
	var out Int4
	for i := range v {
		out[i] = int32(math32.Floor(v[i]))
	}
	return out
}

// LaneHash — четыре независимых Hash, по одному на лейн.
// Лейны логически независимы: лейн i всегда равен скалярному Hash,
// которому скормили входные данные лейна i.
type LaneHash [LaneWidth]Hash

// SeedLanes создаёт хеш с отдельным сидом для каждого лейна.
func SeedLanes(seed Int4) LaneHash {
	var h LaneHash
	for i := range h {
		h[i] = SeedHash(seed[i])
	}
	return h
}

// BroadcastSeed создаёт хеш с одинаковым сидом во всех лейнах.
func BroadcastSeed(seed int32) LaneHash {
	return SeedLanes(Int4{seed, seed, seed, seed})
}

// Eat подмешивает по одному целому в каждый лейн.
func (h LaneHash) Eat(data Int4) LaneHash {
	for i := range h {
		h[i] = h[i].Eat(data[i])
	}
	return h
}

// EatBytes подмешивает по одному байту в каждый лейн.
func (h LaneHash) EatBytes(data [LaneWidth]byte) LaneHash {
	for i := range h {
		h[i] = h[i].EatByte(data[i])
	}
	return h
}

// Add сдвигает аккумуляторы всех лейнов на v.
func (h LaneHash) Add(v int32) LaneHash {
	for i := range h {
		h[i] = h[i].Add(v)
	}
	return h
}

// Lane возвращает скалярный хеш лейна i.
func (h LaneHash) Lane(i int) Hash {
	return h[i]
}

// Uint4 возвращает финальные значения всех лейнов.
func (h LaneHash) Uint4() Uint4 {
	var out Uint4
	for i := range h {
		out[i] = h[i].Uint32()
	}
	return out
}

func (h LaneHash) bytes(fn func(Hash) uint32) Uint4 {
	var out Uint4
	for i := range h {
		out[i] = fn(h[i])
	}
	return out
}

// BytesA..BytesD — байтовые каналы всех лейнов.
func (h LaneHash) BytesA() Uint4 { return h.bytes(Hash.BytesA) }
func (h LaneHash) BytesB() Uint4 { return h.bytes(Hash.BytesB) }
func (h LaneHash) BytesC() Uint4 { return h.bytes(Hash.BytesC) }
func (h LaneHash) BytesD() Uint4 { return h.bytes(Hash.BytesD) }

// Floats01A..Floats01D отображают байтовые каналы всех лейнов в [0, 1].
func (h LaneHash) Floats01A() Float4 { return bytesToFloats01(h.BytesA()) }
func (h LaneHash) Floats01B() Float4 { return bytesToFloats01(h.BytesB()) }
func (h LaneHash) Floats01C() Float4 { return bytesToFloats01(h.BytesC()) }
func (h LaneHash) Floats01D() Float4 { return bytesToFloats01(h.BytesD()) }

func bytesToFloats01(b Uint4) Float4 {
	var out Float4
	for i := range b {
		out[i] = float32(b[i]) * inv255
	}
	return out
}
