package storage

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/annel0/chunk-mesher/internal/logging"
	"github.com/annel0/chunk-mesher/internal/vec"
	"github.com/annel0/chunk-mesher/internal/voxel"
	"github.com/annel0/chunk-mesher/internal/world"
	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

// ErrChunkNotFound чанк не сохранён в хранилище
var ErrChunkNotFound = errors.New("chunk not found")

const keyPrefix = "chunk:"

// WorldStorage хранит воксели чанков в BadgerDB.
// Значение: образ voxel.Store, сжатый zstd. Меши не сохраняются:
// после загрузки чанк грязный и перестраивается планировщиком.
type WorldStorage struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool

	enc *zstd.Encoder
	dec *zstd.Decoder

	logger *logging.Logger
}

// Open открывает хранилище в каталоге path; пустой path: BadgerDB в памяти
func Open(path string) (*WorldStorage, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Отключаем логирование BadgerDB
	logger := logging.GetStorageLogger()

	db, err := badger.Open(opts)
	if err != nil {
		logger.Warn("⚠️ Не удалось открыть BadgerDB в %q: %v", path, err)
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка создания zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("ошибка создания zstd decoder: %w", err)
	}

	return &WorldStorage{
		db:      db,
		dbPath:  path,
		isReady: true,
		enc:     enc,
		dec:     dec,
		logger:  logger,
	}, nil
}

// SetLogger заменяет логгер хранилища
func (ws *WorldStorage) SetLogger(l *logging.Logger) {
	ws.mutex.Lock()
	ws.logger = l
	ws.mutex.Unlock()
}

// Close закрывает хранилище данных
func (ws *WorldStorage) Close() error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return nil
	}

	ws.isReady = false
	ws.dec.Close()
	if err := ws.enc.Close(); err != nil {
		ws.logger.Warn("⚠️ Ошибка закрытия zstd encoder: %v", err)
		ws.db.Close()
		return fmt.Errorf("ошибка закрытия zstd encoder: %w", err)
	}
	if err := ws.db.Close(); err != nil {
		ws.logger.Warn("⚠️ Ошибка закрытия BadgerDB %q: %v", ws.dbPath, err)
		return fmt.Errorf("ошибка закрытия BadgerDB: %w", err)
	}
	return nil
}

func chunkKey(coords vec.Vec3) []byte {
	return []byte(fmt.Sprintf("%s%d:%d:%d", keyPrefix, coords.X, coords.Y, coords.Z))
}

func parseChunkKey(key []byte) (vec.Vec3, error) {
	var c vec.Vec3
	rest := strings.TrimPrefix(string(key), keyPrefix)
	if _, err := fmt.Sscanf(rest, "%d:%d:%d", &c.X, &c.Y, &c.Z); err != nil {
		return c, fmt.Errorf("некорректный ключ чанка %q: %w", key, err)
	}
	return c, nil
}

// SaveStore сохраняет воксели по координатам чанка
func (ws *WorldStorage) SaveStore(coords vec.Vec3, store *voxel.Store) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	raw, err := store.MarshalBinary()
	if err != nil {
		return fmt.Errorf("ошибка сериализации чанка %v: %w", coords, err)
	}
	data := ws.enc.EncodeAll(raw, make([]byte, 0, len(raw)/8))

	err = ws.db.Update(func(txn *badger.Txn) error {
		return txn.Set(chunkKey(coords), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// SaveChunk сохраняет воксели сгенерированного чанка
func (ws *WorldStorage) SaveChunk(chunk *world.Chunk) error {
	if !chunk.Generated() {
		return fmt.Errorf("чанк %v не сгенерирован", chunk.Coords)
	}

	chunk.Mu.RLock()
	snapshot := *chunk.Blocks
	chunk.Mu.RUnlock()

	return ws.SaveStore(chunk.Coords, &snapshot)
}

// LoadChunk загружает воксели чанка. Возвращает ErrChunkNotFound, если чанка нет.
func (ws *WorldStorage) LoadChunk(coords vec.Vec3) (*voxel.Store, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var data []byte
	err := ws.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chunkKey(coords))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrChunkNotFound, coords)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	raw, err := ws.dec.DecodeAll(data, make([]byte, 0, voxel.EncodedSize))
	if err != nil {
		ws.logger.Warn("⚠️ Повреждённая запись чанка %v: %v", coords, err)
		return nil, fmt.Errorf("ошибка распаковки чанка %v: %w", coords, err)
	}

	store := voxel.NewStore()
	if err := store.UnmarshalBinary(raw); err != nil {
		ws.logger.Warn("⚠️ Некорректный образ чанка %v: %v", coords, err)
		return nil, fmt.Errorf("ошибка десериализации чанка %v: %w", coords, err)
	}
	return store, nil
}

// RestoreChunk загружает воксели в несгенерированный чанк и помечает его
// грязным. Вызывается до регистрации чанка в world.Registry.
func (ws *WorldStorage) RestoreChunk(chunk *world.Chunk) error {
	store, err := ws.LoadChunk(chunk.Coords)
	if err != nil {
		return err
	}

	chunk.Mu.Lock()
	*chunk.Blocks = *store
	chunk.Mu.Unlock()

	chunk.MarkGenerated()
	chunk.MarkDirty()
	return nil
}

// DeleteChunk удаляет чанк; отсутствие чанка не ошибка
func (ws *WorldStorage) DeleteChunk(coords vec.Vec3) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	err := ws.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(chunkKey(coords))
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления из BadgerDB: %w", err)
	}
	return nil
}

// ChunkCoords перечисляет координаты всех сохранённых чанков
func (ws *WorldStorage) ChunkCoords() ([]vec.Vec3, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var res []vec.Vec3
	err := ws.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			c, err := parseChunkKey(it.Item().Key())
			if err != nil {
				return err
			}
			res = append(res, c)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка перебора чанков: %w", err)
	}
	return res, nil
}
