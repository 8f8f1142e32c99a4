package noise

import "math/bits"

// Константы SmallXXHash (нечётные 32-битные простые числа из xxHash32).
const (
	primeA uint32 = 0b10011110001101110111100110110001
	primeB uint32 = 0b10000101111010111100101001110111
	primeC uint32 = 0b11000010101100101010111000111101
	primeD uint32 = 0b00100111110101001110101100101111
	primeE uint32 = 0b00010110010101100110011110110001
)

// Hash — компактный вариант xxHash32 для целочисленных координат решётки.
//
// Значение неизменяемо: каждый вызов Eat возвращает новый Hash.
// В аккумуляторе хранится «сырое» состояние, финальное перемешивание
// (avalanche) выполняется только при чтении через Uint32 и производные.
//
//	h := noise.SeedHash(seed).Eat(x).Eat(z)
//	v := h.Floats01A()
type Hash struct {
	accumulator uint32
}

// SeedHash создаёт хеш из сида.
func SeedHash(seed int32) Hash {
	return Hash{accumulator: uint32(seed) + primeE}
}

// Eat подмешивает целое число (координату решётки).
func (h Hash) Eat(data int32) Hash {
	return Hash{accumulator: bits.RotateLeft32(h.accumulator+uint32(data)*primeC, 17) * primeD}
}

// EatByte подмешивает один байт.
func (h Hash) EatByte(data byte) Hash {
	return Hash{accumulator: bits.RotateLeft32(h.accumulator+uint32(data)*primeE, 11) * primeA}
}

// Add сдвигает аккумулятор на v без перемешивания.
// Используется для дешёвой декорреляции октав: hash.Add(octave).
func (h Hash) Add(v int32) Hash {
	return Hash{accumulator: h.accumulator + uint32(v)}
}

// Uint32 возвращает финальное значение хеша после avalanche.
func (h Hash) Uint32() uint32 {
	avalanche := h.accumulator
	avalanche ^= avalanche >> 15
	avalanche *= primeB
	avalanche ^= avalanche >> 13
	avalanche *= primeC
	avalanche ^= avalanche >> 16
	return avalanche
}

// BytesA..BytesD режут финальное значение на четыре байтовых канала.
func (h Hash) BytesA() uint32 { return h.Uint32() & 255 }
func (h Hash) BytesB() uint32 { return (h.Uint32() >> 8) & 255 }
func (h Hash) BytesC() uint32 { return (h.Uint32() >> 16) & 255 }
func (h Hash) BytesD() uint32 { return h.Uint32() >> 24 }

const inv255 float32 = 1.0 / 255.0

// Floats01A..Floats01D отображают байтовые каналы в [0, 1].
func (h Hash) Floats01A() float32 { return float32(h.BytesA()) * inv255 }
func (h Hash) Floats01B() float32 { return float32(h.BytesB()) * inv255 }
func (h Hash) Floats01C() float32 { return float32(h.BytesC()) * inv255 }
func (h Hash) Floats01D() float32 { return float32(h.BytesD()) * inv255 }

// GetBits извлекает count бит начиная с позиции shift.
func (h Hash) GetBits(count, shift uint) uint32 {
	return (h.Uint32() >> shift) & (1<<count - 1)
}

// BitsAsFloats01 возвращает count бит со сдвигом shift, отображённые в [0, 1].
func (h Hash) BitsAsFloats01(count, shift uint) float32 {
	return float32(h.GetBits(count, shift)) * (1 / float32(uint32(1)<<count-1))
}

