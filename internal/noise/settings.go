package noise

import (
	"errors"
	"fmt"
)

// Ошибки валидации входных параметров ядра.
var (
	ErrInvalidSettings   = errors.New("invalid noise settings")
	ErrUnknownKind       = errors.New("unknown noise kind")
	ErrInvalidDimensions = errors.New("dimensions must be 1, 2 or 3")
)

// Допустимые диапазоны параметров фрактала.
const (
	MinOctaves    = 1
	MaxOctaves    = 6
	MinLacunarity = 2
	MaxLacunarity = 4
)

// Settings — параметры фрактальной суммы. Значение копируется свободно
// и не меняется во время одного вычисления.
type Settings struct {
	Seed        int32   `json:"seed" yaml:"seed"`
	Frequency   int     `json:"frequency" yaml:"frequency"`
	Octaves     int     `json:"octaves" yaml:"octaves"`
	Lacunarity  int     `json:"lacunarity" yaml:"lacunarity"`
	Persistence float32 `json:"persistence" yaml:"persistence"`
}

// DefaultSettings возвращает частоту 4, одну октаву, лакунарность 2
// и персистентность 0.5.
func DefaultSettings() Settings {
	return Settings{
		Frequency:   4,
		Octaves:     1,
		Lacunarity:  2,
		Persistence: 0.5,
	}
}

// Validate проверяет контракт вызывающей стороны. Ядро само ничего
// не проверяет: нулевая частота или нулевая сумма амплитуд дают NaN/Inf.
func (s Settings) Validate() error {
	switch {
	case s.Frequency < 1:
		return fmt.Errorf("%w: frequency %d < 1", ErrInvalidSettings, s.Frequency)
	case s.Octaves < MinOctaves || s.Octaves > MaxOctaves:
		return fmt.Errorf("%w: octaves %d not in [%d, %d]", ErrInvalidSettings, s.Octaves, MinOctaves, MaxOctaves)
	case s.Lacunarity < MinLacunarity || s.Lacunarity > MaxLacunarity:
		return fmt.Errorf("%w: lacunarity %d not in [%d, %d]", ErrInvalidSettings, s.Lacunarity, MinLacunarity, MaxLacunarity)
	case !(s.Persistence > 0 && s.Persistence <= 1):
		// Сумма амплитуд накапливается после умножения на persistence,
		// поэтому ноль даёт деление на ноль.
		return fmt.Errorf("%w: persistence %v not in (0, 1]", ErrInvalidSettings, s.Persistence)
	}
	return nil
}
