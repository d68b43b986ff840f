package world

import (
	"sort"
	"sync"

	"github.com/annel0/chunk-mesher/internal/logging"
	"github.com/annel0/chunk-mesher/internal/vec"
	"github.com/annel0/chunk-mesher/internal/voxel"
)

// Registry карта загруженных чанков по координатам.
// Изменения карты и вокселей через Registry блокируются на время прохода
// мешинга (см. BeginPass).
type Registry struct {
	mu     sync.RWMutex
	chunks map[vec.Vec3]*Chunk
	logger *logging.Logger
}

// NewRegistry создаёт пустой регистр чанков
func NewRegistry() *Registry {
	return &Registry{
		chunks: make(map[vec.Vec3]*Chunk),
		logger: logging.GetWorldLogger(),
	}
}

// SetLogger заменяет логгер регистра
func (r *Registry) SetLogger(l *logging.Logger) {
	r.mu.Lock()
	r.logger = l
	r.mu.Unlock()
}

// Register добавляет чанк, заменяя ранее зарегистрированный с теми же координатами.
// Соседи нового чанка помечаются грязными: их граничные грани могли скрыться.
func (r *Registry) Register(c *Chunk) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, replaced := r.chunks[c.Coords]
	r.chunks[c.Coords] = c
	touched := r.touchNeighborsLocked(c.Coords)
	r.logger.Debug("чанк %v зарегистрирован (замена: %t), соседей помечено грязными: %d", c.Coords, replaced, touched)
}

// Unregister выгружает чанк. Соседи помечаются грязными: грани к пустоте снова видны.
func (r *Registry) Unregister(coords vec.Vec3) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.chunks[coords]; !ok {
		return false
	}
	delete(r.chunks, coords)
	touched := r.touchNeighborsLocked(coords)
	r.logger.Debug("чанк %v выгружен, соседей помечено грязными: %d", coords, touched)
	return true
}

// touchNeighborsLocked помечает грязными загруженных соседей coords, возвращает их число
func (r *Registry) touchNeighborsLocked(coords vec.Vec3) int {
	touched := 0
	for _, d := range vec.Directions {
		if n, ok := r.chunks[coords.Add(d.Offset())]; ok {
			n.MarkDirty()
			touched++
		}
	}
	return touched
}

// Get возвращает чанк по координатам
func (r *Registry) Get(coords vec.Vec3) (*Chunk, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chunks[coords]
	return c, ok
}

// Len количество загруженных чанков
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chunks)
}

// Chunks возвращает все чанки в детерминированном порядке
func (r *Registry) Chunks() []*Chunk {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]*Chunk, 0, len(r.chunks))
	for _, c := range r.chunks {
		res = append(res, c)
	}
	sortChunks(res)
	return res
}

// DirtyChunks возвращает сгенерированные чанки с устаревшим мешем
func (r *Registry) DirtyChunks() []*Chunk {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var res []*Chunk
	for _, c := range r.chunks {
		if c.NeedsMesh() {
			res = append(res, c)
		}
	}
	sortChunks(res)
	return res
}

func sortChunks(cs []*Chunk) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Coords.Less(cs[j].Coords) })
}

// GetBlock возвращает воксель по мировой позиции
func (r *Registry) GetBlock(pos vec.Vec3) (voxel.Code, bool) {
	c, ok := r.Get(pos.ToChunkCoords())
	if !ok {
		return voxel.Air, false
	}
	return c.GetBlock(pos.LocalInChunk()), true
}

// SetBlock меняет воксель по мировой позиции. Если воксель лежит на границе
// чанка, соседний чанк по этой границе тоже помечается грязным.
// Возвращает false, если чанк не загружен.
func (r *Registry) SetBlock(pos vec.Vec3, code voxel.Code) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	coords := pos.ToChunkCoords()
	c, ok := r.chunks[coords]
	if !ok {
		return false
	}
	local := pos.LocalInChunk()
	c.SetBlock(local, code)

	for _, d := range boundaryDirections(local) {
		if n, ok := r.chunks[coords.Add(d.Offset())]; ok {
			n.MarkDirty()
			r.logger.Debug("правка %v на границе %v: сосед %v помечен грязным", pos, d, n.Coords)
		}
	}
	return true
}

// boundaryDirections направления, в которых локальная позиция касается границы чанка
func boundaryDirections(local vec.Vec3) []vec.Direction {
	var dirs []vec.Direction
	if local.X == 0 {
		dirs = append(dirs, vec.Left)
	} else if local.X == 15 {
		dirs = append(dirs, vec.Right)
	}
	if local.Z == 0 {
		dirs = append(dirs, vec.Back)
	} else if local.Z == 15 {
		dirs = append(dirs, vec.Front)
	}
	if local.Y == 0 {
		dirs = append(dirs, vec.Below)
	} else if local.Y == 15 {
		dirs = append(dirs, vec.Above)
	}
	return dirs
}

// Snapshot возвращает неизменяемую копию карты сгенерированных чанков
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Registry) snapshotLocked() Snapshot {
	stores := make(map[vec.Vec3]*voxel.Store, len(r.chunks))
	for coords, c := range r.chunks {
		if c.Generated() {
			stores[coords] = c.Blocks
		}
	}
	return Snapshot{stores: stores}
}

// BeginPass начинает проход мешинга: возвращает снимок карты и удерживает
// регистр в режиме чтения до вызова release. Регистрация чанков и правки
// через Registry ждут окончания прохода.
func (r *Registry) BeginPass() (Snapshot, func()) {
	r.mu.RLock()
	return r.snapshotLocked(), sync.OnceFunc(r.mu.RUnlock)
}
