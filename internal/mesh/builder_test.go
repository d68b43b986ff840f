package mesh

import (
	"testing"

	"github.com/annel0/chunk-mesher/internal/vec"
	"github.com/annel0/chunk-mesher/internal/voxel"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	stone = voxel.NewCode(2, false)
	glass = voxel.NewCode(5, true)
)

// mapResolver простая карта соседей для тестов
type mapResolver map[vec.Vec3]*voxel.Store

func (m mapResolver) Lookup(origin vec.Vec3, dir vec.Direction) (*voxel.Store, bool) {
	s, ok := m[origin.Add(dir.Offset())]
	return s, ok
}

func buildOne(t *testing.T, s *voxel.Store, coords vec.Vec3, nb NeighborResolver) (*Buffers, Stats) {
	t.Helper()
	out := NewBuffers(0)
	st := Build(s, coords, nb, out)
	require.NoError(t, out.Validate())
	return out, st
}

// normalsOf собирает направления выпущенных граней
func normalsOf(b *Buffers) []mgl32.Vec3 {
	var res []mgl32.Vec3
	for i := 0; i < len(b.Normals); i += VerticesPerQuad {
		res = append(res, b.Normals[i])
	}
	return res
}

func TestBuild_AllAirIsEmpty(t *testing.T) {
	out, st := buildOne(t, voxel.NewStore(), vec.Vec3{Y: 1}, mapResolver{})
	assert.True(t, out.Empty())
	assert.Equal(t, 0, st.Voxels)
	assert.Equal(t, 0, st.Quads)

	legacy := &voxel.Store{}
	legacy.Fill(voxel.LegacyAir)
	out, _ = buildOne(t, legacy, vec.Vec3{Y: 1}, nil)
	assert.True(t, out.Empty(), "устаревшая кодировка воздуха не должна давать геометрию")
}

func TestBuild_SingleVoxelAllFacesExposed(t *testing.T) {
	s := voxel.NewStore()
	s.SetAt(0, 0, 0, stone)

	out, st := buildOne(t, s, vec.Vec3{Y: 1}, mapResolver{})
	assert.Equal(t, 6, st.Quads)
	assert.Len(t, out.Positions, 24)
	assert.Len(t, out.Normals, 24)
	assert.Len(t, out.UVs, 24)
	assert.Len(t, out.Indices, 36)
}

func TestBuild_WorldFloorIsCapped(t *testing.T) {
	s := voxel.NewStore()
	s.SetAt(0, 0, 0, stone)

	out, st := buildOne(t, s, vec.Vec3{Y: 0}, mapResolver{})
	assert.Equal(t, 5, st.Quads)
	assert.Len(t, out.Positions, 20)
	assert.Len(t, out.Normals, 20)
	assert.Len(t, out.UVs, 20)
	assert.Len(t, out.Indices, 30)
	assert.NotContains(t, normalsOf(out), mgl32.Vec3{0, -1, 0})

	// Даже зарегистрированный чанк под дном мира не открывает нижнюю грань
	below := voxel.NewStore()
	out, st = buildOne(t, s, vec.Vec3{Y: 0}, mapResolver{{Y: -1}: below})
	assert.Equal(t, 5, st.Quads)
	assert.NotContains(t, normalsOf(out), mgl32.Vec3{0, -1, 0})
}

func TestBuild_NilResolverTreatsNeighborsAsMissing(t *testing.T) {
	s := voxel.NewStore()
	s.SetAt(15, 15, 15, stone)

	_, st := buildOne(t, s, vec.Vec3{X: 3, Y: 2, Z: -4}, nil)
	assert.Equal(t, 6, st.Quads)
}

func TestBuild_AdjacentOpaqueVoxelsShareHiddenFace(t *testing.T) {
	s := voxel.NewStore()
	s.SetAt(4, 4, 4, stone)
	s.SetAt(5, 4, 4, stone)

	out, st := buildOne(t, s, vec.Vec3{Y: 1}, mapResolver{})
	assert.Equal(t, 10, st.Quads)
	assert.Equal(t, 2, st.Culled)
	assert.Equal(t, 2, st.Voxels)

	// Ни одна грань не лежит в плоскости x = 5
	for i := 0; i < len(out.Positions); i += VerticesPerQuad {
		n := out.Normals[i]
		if n.X() != 0 {
			assert.NotEqual(t, float32(5), out.Positions[i].X(), "общая грань не должна выпускаться")
		}
	}
}

func TestBuild_GlassNextToOpaque(t *testing.T) {
	s := voxel.NewStore()
	s.SetAt(4, 4, 4, stone)
	s.SetAt(5, 4, 4, glass)

	out, st := buildOne(t, s, vec.Vec3{Y: 1}, mapResolver{})
	// Камень видит сквозь стекло все 6 граней, стекло не рисует грань к камню
	assert.Equal(t, 11, st.Quads)

	var stoneRight, glassLeft int
	for i := 0; i < len(out.Positions); i += VerticesPerQuad {
		switch out.Normals[i] {
		case mgl32.Vec3{1, 0, 0}:
			if out.Positions[i].X() == 5 {
				stoneRight++
			}
		case mgl32.Vec3{-1, 0, 0}:
			if out.Positions[i].X() == 5 {
				glassLeft++
			}
		}
	}
	assert.Equal(t, 1, stoneRight, "камень рисует грань, обращённую к стеклу")
	assert.Equal(t, 0, glassLeft, "стекло не рисует грань, обращённую к камню")
}

func TestBuild_AdjacentGlassDrawsBothFaces(t *testing.T) {
	s := voxel.NewStore()
	s.SetAt(4, 4, 4, glass)
	s.SetAt(5, 4, 4, glass)

	_, st := buildOne(t, s, vec.Vec3{Y: 1}, mapResolver{})
	assert.Equal(t, 12, st.Quads)
}

func TestBuild_CrossChunkCulling(t *testing.T) {
	coords := vec.Vec3{X: 0, Y: 1, Z: 0}
	s := voxel.NewStore()
	s.SetAt(15, 4, 4, stone)

	neighbor := voxel.NewStore()
	neighbor.SetAt(0, 4, 4, stone)

	out, st := buildOne(t, s, coords, mapResolver{{X: 1, Y: 1}: neighbor})
	assert.Equal(t, 5, st.Quads)
	assert.NotContains(t, normalsOf(out), mgl32.Vec3{1, 0, 0})

	// Соседа нет: грань наружу рисуется
	out, st = buildOne(t, s, coords, mapResolver{})
	assert.Equal(t, 6, st.Quads)
	assert.Contains(t, normalsOf(out), mgl32.Vec3{1, 0, 0})

	// Сосед есть, но зеркальный воксель прозрачный
	neighbor.SetAt(0, 4, 4, glass)
	out, _ = buildOne(t, s, coords, mapResolver{{X: 1, Y: 1}: neighbor})
	assert.Contains(t, normalsOf(out), mgl32.Vec3{1, 0, 0})
}

func TestBuild_MirroredSamplingOnEveryBoundary(t *testing.T) {
	coords := vec.Vec3{X: 2, Y: 2, Z: 2}
	cases := []struct {
		dir      vec.Direction
		at       [3]int
		mirrored [3]int
	}{
		{vec.Left, [3]int{0, 7, 9}, [3]int{15, 7, 9}},
		{vec.Right, [3]int{15, 7, 9}, [3]int{0, 7, 9}},
		{vec.Back, [3]int{3, 7, 0}, [3]int{3, 7, 15}},
		{vec.Front, [3]int{3, 7, 15}, [3]int{3, 7, 0}},
		{vec.Below, [3]int{3, 0, 9}, [3]int{3, 15, 9}},
		{vec.Above, [3]int{3, 15, 9}, [3]int{3, 0, 9}},
	}

	for _, tc := range cases {
		t.Run(tc.dir.String(), func(t *testing.T) {
			s := voxel.NewStore()
			s.SetAt(tc.at[0], tc.at[1], tc.at[2], stone)

			n := voxel.NewStore()
			n.SetAt(tc.mirrored[0], tc.mirrored[1], tc.mirrored[2], stone)

			out, st := buildOne(t, s, coords, mapResolver{coords.Add(tc.dir.Offset()): n})
			assert.Equal(t, 5, st.Quads)
			assert.NotContains(t, normalsOf(out), faces[tc.dir].normal)
		})
	}
}

func TestBuild_IsIdempotent(t *testing.T) {
	s := voxel.NewStore()
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			h := (x*7 + z*3) % 16
			for y := 0; y <= h; y++ {
				s.SetAt(x, y, z, voxel.NewCode(uint16(1+(x+y+z)%4), false))
			}
			if h < 15 && (x+z)%5 == 0 {
				s.SetAt(x, h+1, z, glass)
			}
		}
	}
	nb := mapResolver{{X: -1}: voxel.NewStore()}

	first, st1 := buildOne(t, s, vec.Vec3{}, nb)
	snapshot := first.Clone()

	st2 := Build(s, vec.Vec3{}, nb, first)
	require.NoError(t, first.Validate())
	assert.Equal(t, st1, st2)
	assert.Equal(t, snapshot, first, "повторная сборка должна давать идентичные буферы")
	assert.Greater(t, st1.Quads, 0)
}

func TestBuild_ClearsPreviousMesh(t *testing.T) {
	out := NewBuffers(4)
	s := voxel.NewStore()
	s.SetAt(8, 8, 8, stone)
	Build(s, vec.Vec3{Y: 3}, nil, out)
	require.Equal(t, 6, out.QuadCount())

	s.SetAt(8, 8, 8, voxel.Air)
	Build(s, vec.Vec3{Y: 3}, nil, out)
	assert.True(t, out.Empty())
}

func TestBuild_GeometryAndTextureLayers(t *testing.T) {
	s := voxel.NewStore()
	s.SetAt(2, 3, 4, stone)

	out, _ := buildOne(t, s, vec.Vec3{Y: 1}, nil)
	origin := mgl32.Vec3{2, 3, 4}
	for i, p := range out.Positions {
		d := p.Sub(origin)
		for axis := 0; axis < 3; axis++ {
			assert.True(t, d[axis] == 0 || d[axis] == 1, "вершина %d вне единичного куба: %v", i, p)
		}
		assert.Equal(t, float32(2), out.UVs[i].Z(), "слой текстуры равен ID блока")
	}
	// Индексы каждой грани ссылаются только на её четыре вершины
	for q := 0; q < out.QuadCount(); q++ {
		for _, idx := range out.Indices[q*IndicesPerQuad : (q+1)*IndicesPerQuad] {
			assert.GreaterOrEqual(t, idx, uint32(q*VerticesPerQuad))
			assert.Less(t, idx, uint32((q+1)*VerticesPerQuad))
		}
	}
}

func TestFaces_WindingIsCounterClockwiseFromOutside(t *testing.T) {
	for _, f := range faces {
		for tri := 0; tri < 2; tri++ {
			a := f.corners[f.winding[tri*3]]
			b := f.corners[f.winding[tri*3+1]]
			c := f.corners[f.winding[tri*3+2]]
			n := b.Sub(a).Cross(c.Sub(a))
			assert.Greater(t, n.Dot(f.normal), float32(0), "грань %s, треугольник %d", f.dir, tri)
		}
		assert.Equal(t, f.dir.Offset(), vec.Vec3{X: int(f.normal.X()), Y: int(f.normal.Y()), Z: int(f.normal.Z())})
	}
}

func TestTextureLayer_ReservedLayerForIDZero(t *testing.T) {
	assert.Equal(t, float32(1), textureLayer(0, layerSide))
	assert.Equal(t, float32(2), textureLayer(0, layerBottom))
	assert.Equal(t, float32(0), textureLayer(0, layerTop))
	assert.Equal(t, float32(7), textureLayer(7, layerSide))
	assert.Equal(t, float32(7), textureLayer(7, layerBottom))
}

func TestBuffers_ValidateDetectsCorruption(t *testing.T) {
	b := NewBuffers(1)
	require.NoError(t, b.Validate())

	b.Positions = append(b.Positions, mgl32.Vec3{})
	assert.Error(t, b.Validate())

	b.Reset()
	b.Positions = make([]mgl32.Vec3, 4)
	b.Normals = make([]mgl32.Vec3, 4)
	b.UVs = make([]mgl32.Vec3, 4)
	b.Indices = []uint32{0, 1, 2, 0, 2, 9}
	assert.Error(t, b.Validate())
}
