package world

import (
	"sync"

	"github.com/annel0/chunk-mesher/internal/mesh"
	"github.com/annel0/chunk-mesher/internal/vec"
	"github.com/annel0/chunk-mesher/internal/voxel"
)

// ChunkState состояние чанка с точки зрения генерации и мешинга
type ChunkState uint8

const (
	StateUngenerated ChunkState = iota // воксели ещё не сгенерированы
	StateClean                         // меш соответствует вокселям
	StateDirty                         // воксели изменились, меш устарел
)

// String возвращает имя состояния для логов
func (s ChunkState) String() string {
	switch s {
	case StateUngenerated:
		return "ungenerated"
	case StateClean:
		return "clean"
	case StateDirty:
		return "dirty"
	default:
		return "unknown"
	}
}

// Chunk представляет участок мира 16x16x16 вокселей
type Chunk struct {
	Coords vec.Vec3     // Координаты чанка в сетке чанков
	Blocks *voxel.Store // Воксели в порядке Morton

	// Mesh принадлежит чанку; во время прохода мешинга его пишет только
	// задача этого чанка, хост читает после применения результатов тика.
	Mesh *mesh.Buffers

	state       ChunkState
	upToDate    bool
	meshVersion uint64
	editSeq     uint64 // растёт при каждой пометке Dirty

	Mu sync.RWMutex // Мьютекс для безопасного доступа к состоянию и вокселям
}

// NewChunk создаёт несгенерированный чанк из воздуха
func NewChunk(coords vec.Vec3) *Chunk {
	return &Chunk{
		Coords: coords,
		Blocks: voxel.NewStore(),
		Mesh:   mesh.NewBuffers(0),
		state:  StateUngenerated,
	}
}

// State возвращает текущее состояние
func (c *Chunk) State() ChunkState {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.state
}

// Generated true, если воксели чанка уже сгенерированы
func (c *Chunk) Generated() bool {
	return c.State() != StateUngenerated
}

// NeedsMesh true для сгенерированного чанка с устаревшим мешем
func (c *Chunk) NeedsMesh() bool {
	return c.State() == StateDirty
}

// UpToDate true, если после последнего изменения меш был перестроен
func (c *Chunk) UpToDate() bool {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.upToDate
}

// MeshVersion количество перестроений меша
func (c *Chunk) MeshVersion() uint64 {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.meshVersion
}

// MarkGenerated переводит чанк из Ungenerated в Clean.
// Возвращает false, если чанк уже был сгенерирован.
func (c *Chunk) MarkGenerated() bool {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	if c.state != StateUngenerated {
		return false
	}
	c.state = StateClean
	return true
}

// MarkDirty помечает меш устаревшим. Несгенерированные чанки игнорируются.
func (c *Chunk) MarkDirty() bool {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	return c.markDirtyLocked()
}

func (c *Chunk) markDirtyLocked() bool {
	if c.state == StateUngenerated {
		return false
	}
	c.state = StateDirty
	c.upToDate = false
	c.editSeq++
	return true
}

// EditSeq номер последнего изменения; снимается перед сборкой меша
func (c *Chunk) EditSeq() uint64 {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.editSeq
}

// MarkMeshed фиксирует свежий меш: Dirty -> Clean.
// Возвращает новую версию меша и false, если чанк не был грязным.
func (c *Chunk) MarkMeshed() (uint64, bool) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	return c.markMeshedLocked(c.editSeq)
}

// MarkMeshedAt как MarkMeshed, но только если с момента seq чанк не менялся.
// Меш, собранный до новой правки, не снимает пометку Dirty.
func (c *Chunk) MarkMeshedAt(seq uint64) (uint64, bool) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	return c.markMeshedLocked(seq)
}

func (c *Chunk) markMeshedLocked(seq uint64) (uint64, bool) {
	if c.state != StateDirty || seq != c.editSeq {
		return c.meshVersion, false
	}
	c.state = StateClean
	c.upToDate = true
	c.meshVersion++
	return c.meshVersion, true
}

// GetBlock возвращает код вокселя по локальным координатам
func (c *Chunk) GetBlock(local vec.Vec3) voxel.Code {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Blocks.At(local.X, local.Y, local.Z)
}

// SetBlock устанавливает воксель по локальным координатам и помечает чанк грязным.
// Нельзя вызывать во время прохода мешинга; используйте Registry.SetBlock.
func (c *Chunk) SetBlock(local vec.Vec3, code voxel.Code) {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	if c.Blocks.At(local.X, local.Y, local.Z) == code {
		return
	}
	c.Blocks.SetAt(local.X, local.Y, local.Z, code)
	c.markDirtyLocked()
}
