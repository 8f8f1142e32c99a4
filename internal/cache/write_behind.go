package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/noisefield/internal/logging"
)

// writeItem представляет элемент в очереди Write-Behind.
// seq растёт в порядке постановки в очередь.
type writeItem struct {
	Key   string
	Value []byte
	seq   uint64
}

// writeBehind асинхронно переносит записи в Cold Storage пакетами:
// по заполнению пакета, по таймеру и при остановке.
type writeBehind struct {
	cold      ColdStorage
	interval  time.Duration
	batchSize int

	queue chan writeItem
	stop  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once

	// mu защищает closed, seq и purged. Отправка в очередь идёт под mu,
	// поэтому порядок в очереди совпадает с порядком seq.
	mu     sync.Mutex
	closed bool
	seq    uint64
	purged map[string]uint64
	// drained — seq последней записи, забранной из очереди. Только для горутины start.
	drained uint64
}

func newWriteBehind(cold ColdStorage, interval time.Duration, batchSize int) *writeBehind {
	w := &writeBehind{
		cold:      cold,
		interval:  interval,
		batchSize: batchSize,
		queue:     make(chan writeItem, batchSize*2),
		stop:      make(chan struct{}),
		purged:    make(map[string]uint64),
	}
	w.start()
	return w
}

// enqueue ставит запись в очередь. Если очередь полна или Write-Behind
// уже остановлен, пишет синхронно.
func (w *writeBehind) enqueue(key string, value []byte) {
	w.mu.Lock()
	if !w.closed {
		w.seq++
		select {
		case w.queue <- writeItem{Key: key, Value: value, seq: w.seq}:
			w.mu.Unlock()
			return
		default:
		}
	}
	closed := w.closed
	w.mu.Unlock()

	if closed {
		logging.GetCacheLogger().Debug("Write-behind stopped, writing synchronously: %s", key)
	} else {
		logging.GetCacheLogger().Warn("Write-behind queue full, writing synchronously: %s", key)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.cold.Store(ctx, key, value); err != nil {
		logging.GetCacheLogger().Error("Failed to write to cold storage: %v", err)
	}
}

// forget отменяет запись ключа, уже стоящую в очереди. Записи,
// поставленные после вызова, сохраняются как обычно.
func (w *writeBehind) forget(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.purged[key] = w.seq
}

func (w *writeBehind) pending() int64 {
	return int64(len(w.queue))
}

// close дожидается записи всего, что уже в очереди.
func (w *writeBehind) close() {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()

		close(w.stop)
		w.wg.Wait()
	})
}

// start запускает горутину для асинхронной записи в Cold Storage.
func (w *writeBehind) start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		batch := make(map[string]writeItem)
		take := func(item writeItem) {
			batch[item.Key] = item
			w.drained = item.seq
		}

		for {
			select {
			case item := <-w.queue:
				take(item)
				if len(batch) >= w.batchSize {
					w.flush(batch)
					batch = make(map[string]writeItem)
				}

			case <-ticker.C:
				w.flush(batch)
				batch = make(map[string]writeItem)

			case <-w.stop:
				// Забираем остаток очереди и записываем перед выходом
				for {
					select {
					case item := <-w.queue:
						take(item)
						continue
					default:
					}
					break
				}
				w.flush(batch)
				return
			}
		}
	}()

	logging.GetCacheLogger().Info("Write-Behind started (interval: %v, batch size: %d)", w.interval, w.batchSize)
}

// filter убирает из пакета отменённые записи и забывает отмены,
// которые больше не могут встретиться в очереди.
func (w *writeBehind) filter(batch map[string]writeItem) map[string][]byte {
	w.mu.Lock()
	defer w.mu.Unlock()

	items := make(map[string][]byte, len(batch))
	for key, item := range batch {
		if seq, ok := w.purged[key]; ok && item.seq <= seq {
			continue
		}
		items[key] = item.Value
	}
	for key, seq := range w.purged {
		if seq <= w.drained {
			delete(w.purged, key)
		}
	}
	return items
}

// flush записывает batch в Cold Storage.
func (w *writeBehind) flush(batch map[string]writeItem) {
	items := w.filter(batch)
	if len(items) == 0 {
		return
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := w.cold.BatchStore(ctx, items); err != nil {
		logging.GetCacheLogger().Error("Write-Behind batch store failed (%d items): %v", len(items), err)
	} else {
		logging.GetCacheLogger().Debug("Write-Behind batch stored: %d items in %v", len(items), time.Since(start))
	}
}

// persist отправляет запись в Cold Storage: через очередь, если
// Write-Behind включён, иначе синхронно.
func persist(ctx context.Context, cold ColdStorage, wb *writeBehind, key string, value []byte) error {
	if cold == nil {
		return nil
	}
	if wb != nil {
		wb.enqueue(key, value)
		return nil
	}
	return cold.Store(ctx, key, value)
}

// purge удаляет ключ из Cold Storage и отменяет его запись в очереди.
func purge(ctx context.Context, cold ColdStorage, wb *writeBehind, key string) error {
	if cold == nil {
		return nil
	}
	if wb != nil {
		wb.forget(key)
	}
	if err := cold.Delete(ctx, key); err != nil {
		return fmt.Errorf("cold storage delete error: %w", err)
	}
	return nil
}
