package noise

import (
	"context"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// HashJob хеширует целочисленную ячейку, в которую попадает каждая
// позиция после преобразования области: floor по осям x, y, z.
// Соседние позиции одной ячейки получают одинаковый хеш.
type HashJob struct {
	seed   int32
	salt   byte
	domain mgl32.Mat4
}

// NewHashJob создаёт хешер ячеек. Ненулевой salt подмешивается после
// координат и даёт независимый набор хешей при том же сиде.
func NewHashJob(seed int32, salt byte, domain SpaceTRS) HashJob {
	return HashJob{seed: seed, salt: salt, domain: domain.Matrix()}
}

func (j HashJob) lanes(positions Batch) LaneHash {
	positions = TransformBatch(j.domain, positions)
	h := BroadcastSeed(j.seed).
		Eat(Floor4(positions.Column(0))).
		Eat(Floor4(positions.Column(1))).
		Eat(Floor4(positions.Column(2)))
	if j.salt != 0 {
		h = h.EatBytes([LaneWidth]byte{j.salt, j.salt, j.salt, j.salt})
	}
	return h
}

// Execute возвращает хеши четырёх позиций пакета.
func (j HashJob) Execute(positions Batch) Uint4 {
	return j.lanes(positions).Uint4()
}

// Sample хеширует одну точку. Результат совпадает с лейном Execute.
func (j HashJob) Sample(p mgl32.Vec3) uint32 {
	p = TransformPoint(j.domain, p)
	h := SeedHash(j.seed).
		Eat(int32(math32.Floor(p[0]))).
		Eat(int32(math32.Floor(p[1]))).
		Eat(int32(math32.Floor(p[2])))
	if j.salt != 0 {
		h = h.EatByte(j.salt)
	}
	return h.Uint32()
}

// CellColors — цвет ячеек пакета из байтовых каналов A, B, C
// и смещение вдоль нормали из канала D, все в [0, 1].
type CellColors struct {
	R, G, B, Offset Float4
}

// Colors раскладывает хеши пакета на цветовые каналы.
func (j HashJob) Colors(positions Batch) CellColors {
	h := j.lanes(positions)
	return CellColors{R: h.Floats01A(), G: h.Floats01B(), B: h.Floats01C(), Offset: h.Floats01D()}
}

// ScheduleHashes вычисляет out[i] = job.Execute(positions[i]) на workers горутинах.
func ScheduleHashes(ctx context.Context, job HashJob, positions []Batch, out []Uint4, workers int) error {
	return schedule(ctx, len(positions), out, workers, func(i int) Uint4 {
		return job.Execute(positions[i])
	})
}
