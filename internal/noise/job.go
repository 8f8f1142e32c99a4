package noise

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"
)

// Evaluator вычисляет фрактальный шум для пакета и для одиночной точки.
// Реализуется Job[N] и внешними источниками шума.
type Evaluator interface {
	Execute(positions Batch) Float4
	Sample(p mgl32.Vec3) float32
}

// Job — фрактальный драйвер поверх сборщика N: суммирует октавы с растущей
// частотой и убывающей амплитудой и нормирует сумму.
type Job[N Noise] struct {
	settings Settings
	domain   mgl32.Mat4
}

// NewJob создаёт драйвер. Настройки должны быть проверены заранее
// (Settings.Validate); сам драйвер их не проверяет.
func NewJob[N Noise](settings Settings, domain SpaceTRS) Job[N] {
	return Job[N]{settings: settings, domain: domain.Matrix()}
}

// Settings возвращает параметры драйвера.
func (j Job[N]) Settings() Settings {
	return j.settings
}

// Execute вычисляет четыре сэмпла пакета.
func (j Job[N]) Execute(positions Batch) Float4 {
	positions = TransformBatch(j.domain, positions)
	hash := BroadcastSeed(j.settings.Seed)
	frequency := j.settings.Frequency
	amplitude, amplitudeSum := float32(1), float32(0)
	var sum Float4
	for o := 0; o < j.settings.Octaves; o++ {
		octave := Sample4[N](positions, hash.Add(int32(o)), frequency)
		for i := range sum {
			sum[i] += amplitude * octave[i]
		}
		frequency *= j.settings.Lacunarity
		amplitude *= j.settings.Persistence
		amplitudeSum += amplitude
	}
	for i := range sum {
		sum[i] /= amplitudeSum
	}
	return sum
}

// Sample вычисляет один сэмпл. Результат совпадает с соответствующим
// лейном Execute.
func (j Job[N]) Sample(p mgl32.Vec3) float32 {
	return fractal[N](TransformPoint(j.domain, p), SeedHash(j.settings.Seed), j.settings)
}

// fractal — сумма октав для уже преобразованной позиции.
// Сумма амплитуд накапливается после обновления амплитуды.
func fractal[N Noise](p mgl32.Vec3, hash Hash, s Settings) float32 {
	var n N
	frequency := s.Frequency
	amplitude, amplitudeSum := float32(1), float32(0)
	var sum float32
	for o := 0; o < s.Octaves; o++ {
		sum += amplitude * n.Sample(p, hash.Add(int32(o)), frequency)
		frequency *= s.Lacunarity
		amplitude *= s.Persistence
		amplitudeSum += amplitude
	}
	return sum / amplitudeSum
}

// ScheduleParallel вычисляет out[i] = ev.Execute(positions[i]) на workers
// горутинах. Пакеты независимы, порядок обработки на результат не влияет.
// workers <= 0 означает один поток.
func ScheduleParallel(ctx context.Context, ev Evaluator, positions []Batch, out []Float4, workers int) error {
	return schedule(ctx, len(positions), out, workers, func(i int) Float4 {
		return ev.Execute(positions[i])
	})
}

// schedule делит n пакетов на workers непрерывных диапазонов и
// заполняет out[i] = fn(i). Отмена ctx проверяется каждые 256 пакетов.
func schedule[T any](ctx context.Context, n int, out []T, workers int, fn func(i int) T) error {
	if len(out) < n {
		return fmt.Errorf("output has %d batches, need %d", len(out), n)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	chunk := (n + workers - 1) / max(workers, 1)
	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunk {
		start, end := start, min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if (i-start)%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				out[i] = fn(i)
			}
			return nil
		})
	}
	return g.Wait()
}
