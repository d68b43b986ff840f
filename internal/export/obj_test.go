package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/annel0/chunk-mesher/internal/mesh"
	"github.com/annel0/chunk-mesher/internal/vec"
	"github.com/annel0/chunk-mesher/internal/voxel"
	"github.com/annel0/chunk-mesher/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleVoxelMesh(t *testing.T, coords vec.Vec3) *mesh.Buffers {
	t.Helper()
	store := voxel.NewStore()
	store.SetAt(0, 0, 0, block.MustCode(block.StoneBlockID))

	out := mesh.NewBuffers(6)
	st := mesh.Build(store, coords, nil, out)
	require.Equal(t, 6, st.Quads)
	return out
}

func linesWithPrefix(text, prefix string) []string {
	var res []string
	for _, l := range strings.Split(text, "\n") {
		if strings.HasPrefix(l, prefix) {
			res = append(res, l)
		}
	}
	return res
}

func TestWriteOBJ_SingleVoxel(t *testing.T) {
	coords := vec.Vec3{X: 1, Y: 1, Z: 0}
	var buf bytes.Buffer
	require.NoError(t, WriteOBJ(&buf, ChunkName(coords), coords, singleVoxelMesh(t, coords)))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "o chunk_1_1_0\n"))
	assert.Len(t, linesWithPrefix(out, "v "), 24)
	assert.Len(t, linesWithPrefix(out, "vn "), 24)
	assert.Len(t, linesWithPrefix(out, "vt "), 24)

	faces := linesWithPrefix(out, "f ")
	require.Len(t, faces, 12)
	// Первая грань Left с обходом 0,2,1
	assert.Equal(t, "f 1/1/1 3/3/3 2/2/2", faces[0])

	// Вершины сдвинуты в мировые координаты чанка (16, 16, 0)
	assert.Equal(t, "v 16 16 0", linesWithPrefix(out, "v ")[0])
	assert.Equal(t, "vn -1 0 0", linesWithPrefix(out, "vn ")[0])
}

func TestOBJWriter_OffsetsIndicesAcrossChunks(t *testing.T) {
	var buf bytes.Buffer
	w := NewOBJWriter(&buf)

	a := vec.Vec3{X: 1, Y: 1}
	b := vec.Vec3{X: 2, Y: 1}
	require.NoError(t, w.WriteChunk(ChunkName(a), a, singleVoxelMesh(t, a)))
	require.NoError(t, w.WriteChunk(ChunkName(b), b, singleVoxelMesh(t, b)))
	require.NoError(t, w.Flush())
	assert.Equal(t, 48, w.Vertices())

	faces := linesWithPrefix(buf.String(), "f ")
	require.Len(t, faces, 24)
	assert.Equal(t, "f 25/25/25 27/27/27 26/26/26", faces[12])
	assert.Len(t, linesWithPrefix(buf.String(), "o "), 2)
}

func TestWriteOBJ_RejectsBrokenMesh(t *testing.T) {
	broken := mesh.NewBuffers(0)
	broken.Indices = append(broken.Indices, 0, 1, 2)

	var buf bytes.Buffer
	assert.Error(t, WriteOBJ(&buf, "broken", vec.Vec3{}, broken))
	assert.Zero(t, buf.Len())
}

func TestWriteOBJ_EmptyMesh(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOBJ(&buf, "empty", vec.Vec3{}, mesh.NewBuffers(0)))
	assert.Equal(t, "o empty\n", buf.String())
}
