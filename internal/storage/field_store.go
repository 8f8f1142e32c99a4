package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"

	"github.com/annel0/noisefield/internal/logging"
)

// ErrNotFound возвращается, если поле с таким ключом не сохранено.
var ErrNotFound = errors.New("field not found")

const keyPrefix = "field:"

// FieldStore — постоянное хранилище сгенерированных полей на BadgerDB.
// Значения хранятся как есть (обычно результат EncodeField).
type FieldStore struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
}

// NewFieldStore открывает хранилище в dataPath/fields.
func NewFieldStore(dataPath string) (*FieldStore, error) {
	dbPath := filepath.Join(dataPath, "fields")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB
	return openFieldStore(opts, dbPath)
}

// NewInMemoryFieldStore создаёт хранилище без файлов на диске.
func NewInMemoryFieldStore() (*FieldStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openFieldStore(opts, "")
}

func openFieldStore(opts badger.Options, dbPath string) (*FieldStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}
	logging.GetStorageLogger().Info("Хранилище полей открыто: %q", dbPath)
	return &FieldStore{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
	}, nil
}

// Close закрывает хранилище данных
func (fs *FieldStore) Close() error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	if !fs.isReady {
		return nil
	}

	fs.isReady = false
	return fs.db.Close()
}

func storeKey(key string) []byte {
	return []byte(keyPrefix + key)
}

// Load читает поле по ключу.
func (fs *FieldStore) Load(ctx context.Context, key string) ([]byte, error) {
	fs.mutex.RLock()
	defer fs.mutex.RUnlock()

	if !fs.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := fs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storeKey(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return data, nil
}

// Store сохраняет поле по ключу.
func (fs *FieldStore) Store(ctx context.Context, key string, value []byte) error {
	return fs.BatchStore(ctx, map[string][]byte{key: value})
}

// BatchLoad читает несколько полей в одной транзакции.
// Отсутствующие ключи в результат не попадают.
func (fs *FieldStore) BatchLoad(ctx context.Context, keys []string) (map[string][]byte, error) {
	fs.mutex.RLock()
	defer fs.mutex.RUnlock()

	if !fs.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make(map[string][]byte, len(keys))
	err := fs.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			item, err := txn.Get(storeKey(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[key] = value
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка пакетного чтения из BadgerDB: %w", err)
	}
	return result, nil
}

// BatchStore сохраняет несколько полей в одной транзакции.
func (fs *FieldStore) BatchStore(ctx context.Context, items map[string][]byte) error {
	fs.mutex.RLock()
	defer fs.mutex.RUnlock()

	if !fs.isReady {
		return fmt.Errorf("хранилище не готово")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := fs.db.Update(func(txn *badger.Txn) error {
		for key, value := range items {
			if err := txn.Set(storeKey(key), value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// Delete удаляет поле. Удаление отсутствующего ключа не ошибка.
func (fs *FieldStore) Delete(ctx context.Context, key string) error {
	fs.mutex.RLock()
	defer fs.mutex.RUnlock()

	if !fs.isReady {
		return fmt.Errorf("хранилище не готово")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := fs.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(storeKey(key))
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления из BadgerDB: %w", err)
	}
	return nil
}

// Count возвращает число сохранённых полей.
func (fs *FieldStore) Count() (int, error) {
	fs.mutex.RLock()
	defer fs.mutex.RUnlock()

	if !fs.isReady {
		return 0, fmt.Errorf("хранилище не готово")
	}

	count := 0
	err := fs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}
