package noise

import (
	"fmt"
	"strings"
)

// Kind — тип шума, выбираемый во время выполнения.
type Kind int

const (
	KindValue Kind = iota
	KindValueTurbulence
	KindPerlin
	KindPerlinTurbulence
	KindVoronoiWorleyF1
	KindVoronoiWorleyF2
	KindVoronoiWorleyF2MinusF1
	KindVoronoiChebyshevF1
	KindVoronoiChebyshevF2
	KindVoronoiChebyshevF2MinusF1
	KindSimplexValue
	KindSimplexValueTurbulence
	KindSimplex
	KindSimplexTurbulence
	kindCount
)

var kindNames = [kindCount]string{
	KindValue:                     "value",
	KindValueTurbulence:           "value-turbulence",
	KindPerlin:                    "perlin",
	KindPerlinTurbulence:          "perlin-turbulence",
	KindVoronoiWorleyF1:           "voronoi-worley-f1",
	KindVoronoiWorleyF2:           "voronoi-worley-f2",
	KindVoronoiWorleyF2MinusF1:    "voronoi-worley-f2-minus-f1",
	KindVoronoiChebyshevF1:        "voronoi-chebyshev-f1",
	KindVoronoiChebyshevF2:        "voronoi-chebyshev-f2",
	KindVoronoiChebyshevF2MinusF1: "voronoi-chebyshev-f2-minus-f1",
	KindSimplexValue:              "simplex-value",
	KindSimplexValueTurbulence:    "simplex-value-turbulence",
	KindSimplex:                   "simplex",
	KindSimplexTurbulence:         "simplex-turbulence",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid сообщает, известен ли тип.
func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

// Tileable сообщает, есть ли у типа тайлящийся вариант.
// Симплексные типы всегда строятся на нетайлящейся сетке.
func (k Kind) Tileable() bool {
	return k.Valid() && k < KindSimplexValue
}

// MarshalText кодирует тип его именем (JSON, YAML).
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText разбирает имя типа.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind находит тип по имени без учёта регистра.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Kinds возвращает все известные типы в порядке объявления.
func Kinds() []Kind {
	kinds := make([]Kind, kindCount)
	for i := range kinds {
		kinds[i] = Kind(i)
	}
	return kinds
}

type jobFactory func(Settings, SpaceTRS) Evaluator

func newJob[N Noise](s Settings, d SpaceTRS) Evaluator {
	return NewJob[N](s, d)
}

// dimensionFactories — конструкторы для 1D, 2D и 3D.
type dimensionFactories [3]jobFactory

func latticeFactories[L Lattice, G Gradient]() dimensionFactories {
	return dimensionFactories{
		newJob[Lattice1D[L, G]],
		newJob[Lattice2D[L, G]],
		newJob[Lattice3D[L, G]],
	}
}

func voronoiFactories[L Lattice, D VoronoiDistance, F VoronoiFunction]() dimensionFactories {
	return dimensionFactories{
		newJob[Voronoi1D[L, D, F]],
		newJob[Voronoi2D[L, D, F]],
		newJob[Voronoi3D[L, D, F]],
	}
}

func simplexFactories[G Gradient]() dimensionFactories {
	return dimensionFactories{
		newJob[Simplex1D[G]],
		newJob[Simplex2D[G]],
		newJob[Simplex3D[G]],
	}
}

// kindTable[kind][tiling] — закрытая таблица инстанцирований.
var kindTable = [kindCount][2]dimensionFactories{
	KindValue: {
		latticeFactories[LatticeNormal, Value](),
		latticeFactories[LatticeTiling, Value](),
	},
	KindValueTurbulence: {
		latticeFactories[LatticeNormal, Turbulence[Value]](),
		latticeFactories[LatticeTiling, Turbulence[Value]](),
	},
	KindPerlin: {
		latticeFactories[LatticeNormal, Perlin](),
		latticeFactories[LatticeTiling, Perlin](),
	},
	KindPerlinTurbulence: {
		latticeFactories[LatticeNormal, Turbulence[Perlin]](),
		latticeFactories[LatticeTiling, Turbulence[Perlin]](),
	},
	KindVoronoiWorleyF1: {
		voronoiFactories[LatticeNormal, Worley, F1](),
		voronoiFactories[LatticeTiling, Worley, F1](),
	},
	KindVoronoiWorleyF2: {
		voronoiFactories[LatticeNormal, Worley, F2](),
		voronoiFactories[LatticeTiling, Worley, F2](),
	},
	KindVoronoiWorleyF2MinusF1: {
		voronoiFactories[LatticeNormal, Worley, F2MinusF1](),
		voronoiFactories[LatticeTiling, Worley, F2MinusF1](),
	},
	KindVoronoiChebyshevF1: {
		voronoiFactories[LatticeNormal, Chebyshev, F1](),
		voronoiFactories[LatticeTiling, Chebyshev, F1](),
	},
	KindVoronoiChebyshevF2: {
		voronoiFactories[LatticeNormal, Chebyshev, F2](),
		voronoiFactories[LatticeTiling, Chebyshev, F2](),
	},
	KindVoronoiChebyshevF2MinusF1: {
		voronoiFactories[LatticeNormal, Chebyshev, F2MinusF1](),
		voronoiFactories[LatticeTiling, Chebyshev, F2MinusF1](),
	},
	KindSimplexValue: {
		simplexFactories[Value](),
		simplexFactories[Value](),
	},
	KindSimplexValueTurbulence: {
		simplexFactories[Turbulence[Value]](),
		simplexFactories[Turbulence[Value]](),
	},
	KindSimplex: {
		simplexFactories[Simplex](),
		simplexFactories[Simplex](),
	},
	KindSimplexTurbulence: {
		simplexFactories[Turbulence[Simplex]](),
		simplexFactories[Turbulence[Simplex]](),
	},
}

// NewEvaluator собирает фрактальный драйвер для типа, размерности (1–3)
// и режима тайлинга. Настройки проверяются здесь, дальше ядро их не проверяет.
func NewEvaluator(kind Kind, dimensions int, tiling bool, settings Settings, domain SpaceTRS) (Evaluator, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	if dimensions < 1 || dimensions > 3 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDimensions, dimensions)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	t := 0
	if tiling {
		t = 1
	}
	return kindTable[kind][t][dimensions-1](settings, domain), nil
}
