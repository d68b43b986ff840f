package world

import (
	"github.com/annel0/chunk-mesher/internal/vec"
	"github.com/annel0/chunk-mesher/internal/voxel"
)

// Snapshot только для чтения: координаты чанка -> хранилище вокселей.
// Передаётся каждой задаче мешинга явно и безопасен для параллельного чтения.
type Snapshot struct {
	stores map[vec.Vec3]*voxel.Store
}

// Lookup возвращает хранилище соседа origin в направлении dir
func (s Snapshot) Lookup(origin vec.Vec3, dir vec.Direction) (*voxel.Store, bool) {
	st, ok := s.stores[origin.Add(dir.Offset())]
	return st, ok
}

// Store возвращает хранилище чанка coords
func (s Snapshot) Store(coords vec.Vec3) (*voxel.Store, bool) {
	st, ok := s.stores[coords]
	return st, ok
}

// Len количество чанков в снимке
func (s Snapshot) Len() int {
	return len(s.stores)
}
