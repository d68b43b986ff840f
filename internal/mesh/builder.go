package mesh

import (
	"github.com/annel0/chunk-mesher/internal/morton"
	"github.com/annel0/chunk-mesher/internal/vec"
	"github.com/annel0/chunk-mesher/internal/voxel"
	"github.com/go-gl/mathgl/mgl32"
)

// NeighborResolver находит хранилище соседнего чанка.
// Возвращает false, если чанк по соседству не загружен или это край мира.
type NeighborResolver interface {
	Lookup(origin vec.Vec3, dir vec.Direction) (*voxel.Store, bool)
}

// Stats итоги одной сборки меша
type Stats struct {
	Voxels int // непустые воксели
	Quads  int // выпущенные грани
	Culled int // скрытые грани
}

// builder состояние одной сборки; живёт только внутри Build
type builder struct {
	store       *voxel.Store
	neighbors   [vec.DirectionCount]*voxel.Store
	floorCapped bool
	out         *Buffers
}

// Build перестраивает меш чанка в out. Буферы очищаются перед сборкой,
// поэтому повторный вызов на тех же данных даёт идентичный результат.
// store и соседние хранилища только читаются.
func Build(store *voxel.Store, coords vec.Vec3, nb NeighborResolver, out *Buffers) Stats {
	out.Reset()

	b := builder{
		store:       store,
		floorCapped: coords.Y == 0,
		out:         out,
	}
	if nb != nil {
		for _, d := range vec.Directions {
			// Дно мира закрыто, соседа снизу не ищем
			if d == vec.Below && b.floorCapped {
				continue
			}
			if n, ok := nb.Lookup(coords, d); ok {
				b.neighbors[d] = n
			}
		}
	}

	var st Stats
	for i := morton.Index(0); i < morton.Size; i++ {
		code := store.Get(i)
		if code.IsAir() {
			continue
		}
		st.Voxels++

		x, y, z := morton.Decode(i)
		id := code.ID()
		for fi := range faces {
			f := &faces[fi]
			if !b.visible(f.dir, x, y, z) {
				st.Culled++
				continue
			}
			b.emit(f, x, y, z, id)
			st.Quads++
		}
	}
	return st
}

// visible решает, видна ли грань dir вокселя (x, y, z)
func (b *builder) visible(dir vec.Direction, x, y, z int) bool {
	off := dir.Offset()
	nx, ny, nz := x+off.X, y+off.Y, z+off.Z

	if uint(nx)|uint(ny)|uint(nz) < morton.Dim {
		return b.store.At(nx, ny, nz).IsTransparent()
	}

	// Сосед за границей чанка
	if dir == vec.Below && b.floorCapped {
		return false
	}
	n := b.neighbors[dir]
	if n == nil {
		return true
	}
	// Зеркальный воксель: -1 -> 15, 16 -> 0
	return n.At(nx&0xF, ny&0xF, nz&0xF).IsTransparent()
}

// emit добавляет единичный квад грани f
func (b *builder) emit(f *face, x, y, z int, id uint16) {
	out := b.out
	base := uint32(len(out.Positions))
	origin := mgl32.Vec3{float32(x), float32(y), float32(z)}
	layer := textureLayer(id, f.layer)

	for k := 0; k < VerticesPerQuad; k++ {
		out.Positions = append(out.Positions, origin.Add(f.corners[k]))
		out.Normals = append(out.Normals, f.normal)
		out.UVs = append(out.UVs, mgl32.Vec3{f.uv[k].X(), f.uv[k].Y(), layer})
	}
	for _, w := range f.winding {
		out.Indices = append(out.Indices, base+w)
	}
}
