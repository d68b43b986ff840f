package world

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/annel0/chunk-mesher/internal/logging"
	"github.com/annel0/chunk-mesher/internal/vec"
	"github.com/annel0/chunk-mesher/internal/voxel"
	"github.com/annel0/chunk-mesher/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generatedChunk(coords vec.Vec3) *Chunk {
	c := NewChunk(coords)
	c.MarkGenerated()
	return c
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	center := generatedChunk(vec.Vec3{X: 0, Y: 1, Z: 0})
	east := generatedChunk(vec.Vec3{X: 1, Y: 1, Z: 0})
	pending := NewChunk(vec.Vec3{X: 0, Y: 2, Z: 0})

	r.Register(center)
	r.Register(east)
	r.Register(pending)
	assert.Equal(t, 3, r.Len())

	snap := r.Snapshot()
	assert.Equal(t, 2, snap.Len(), "несгенерированные чанки не попадают в снимок")

	st, ok := snap.Lookup(center.Coords, vec.Right)
	require.True(t, ok)
	assert.Same(t, east.Blocks, st)

	_, ok = snap.Lookup(center.Coords, vec.Left)
	assert.False(t, ok, "край мира")

	_, ok = snap.Lookup(center.Coords, vec.Above)
	assert.False(t, ok, "несгенерированный сосед считается отсутствующим")
}

func TestRegistry_RegisterDirtiesNeighbors(t *testing.T) {
	r := NewRegistry()
	center := generatedChunk(vec.Vec3{Y: 1})
	r.Register(center)
	assert.False(t, center.NeedsMesh())

	r.Register(generatedChunk(vec.Vec3{X: 1, Y: 1}))
	assert.True(t, center.NeedsMesh(), "появление соседа меняет видимость граней")

	center.MarkMeshed()
	assert.True(t, r.Unregister(vec.Vec3{X: 1, Y: 1}))
	assert.True(t, center.NeedsMesh())
	assert.False(t, r.Unregister(vec.Vec3{X: 1, Y: 1}))
}

func TestRegistry_DirtyChunksSortedAndFiltered(t *testing.T) {
	r := NewRegistry()
	for _, c := range []vec.Vec3{{X: 2}, {X: 0, Y: 1}, {X: 1}, {Z: 5}} {
		ch := generatedChunk(c)
		r.Register(ch)
	}
	for _, ch := range r.Chunks() {
		ch.MarkDirty()
	}
	r.Register(NewChunk(vec.Vec3{X: 9}))

	dirty := r.DirtyChunks()
	require.Len(t, dirty, 4)
	var coords []vec.Vec3
	for _, c := range dirty {
		coords = append(coords, c.Coords)
	}
	assert.Equal(t, []vec.Vec3{{X: 1}, {X: 2}, {Z: 5}, {X: 0, Y: 1}}, coords)
}

func TestRegistry_SetBlockOnBoundaryDirtiesNeighbor(t *testing.T) {
	r := NewRegistry()
	a := generatedChunk(vec.Vec3{Y: 1})
	b := generatedChunk(vec.Vec3{X: 1, Y: 1})
	c := generatedChunk(vec.Vec3{Y: 2})
	r.Register(a)
	r.Register(b)
	r.Register(c)
	for _, ch := range r.Chunks() {
		ch.MarkMeshed()
	}

	stone := block.MustCode(block.StoneBlockID)

	// Внутренний воксель: грязным становится только свой чанк
	require.True(t, r.SetBlock(vec.Vec3{X: 5, Y: 20, Z: 5}, stone))
	assert.True(t, a.NeedsMesh())
	assert.False(t, b.NeedsMesh())
	assert.False(t, c.NeedsMesh())
	a.MarkMeshed()

	// x = 15, y = 31 локально (15, 15): задевает соседей справа и сверху
	require.True(t, r.SetBlock(vec.Vec3{X: 15, Y: 31, Z: 7}, stone))
	assert.True(t, a.NeedsMesh())
	assert.True(t, b.NeedsMesh())
	assert.True(t, c.NeedsMesh())

	code, ok := r.GetBlock(vec.Vec3{X: 15, Y: 31, Z: 7})
	require.True(t, ok)
	assert.Equal(t, stone, code)

	assert.False(t, r.SetBlock(vec.Vec3{X: 500}, stone), "чанк не загружен")
	code, ok = r.GetBlock(vec.Vec3{X: 500})
	assert.False(t, ok)
	assert.Equal(t, voxel.Air, code)
}

func TestRegistry_PassBlocksMutation(t *testing.T) {
	r := NewRegistry()
	r.Register(generatedChunk(vec.Vec3{Y: 1}))

	snap, release := r.BeginPass()
	assert.Equal(t, 1, snap.Len())

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.Register(generatedChunk(vec.Vec3{X: 1, Y: 1}))
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("регистрация не должна проходить во время прохода мешинга")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	release() // повторный вызов безопасен
	wg.Wait()

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 1, snap.Len(), "снимок не видит изменений после прохода")
}

func TestRegistry_LogsMembershipAndNeighbourDirtying(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry()
	r.SetLogger(logging.NewWriterLogger("world", &buf, logging.DEBUG))

	center := generatedChunk(vec.Vec3{X: 0, Y: 1, Z: 0})
	east := generatedChunk(vec.Vec3{X: 1, Y: 1, Z: 0})
	r.Register(center)
	r.Register(east)

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] [world]")
	assert.Contains(t, out, "соседей помечено грязными: 0")
	assert.Contains(t, out, "соседей помечено грязными: 1")

	buf.Reset()
	require.True(t, r.SetBlock(vec.Vec3{X: 15, Y: 20, Z: 3}, block.MustCode(block.StoneBlockID)))
	assert.Contains(t, buf.String(), "на границе right")

	buf.Reset()
	require.True(t, r.Unregister(east.Coords))
	assert.Contains(t, buf.String(), "выгружен, соседей помечено грязными: 1")

	buf.Reset()
	r.SetLogger(logging.NewWriterLogger("world", &buf, logging.INFO))
	r.Register(east)
	assert.Empty(t, buf.String(), "отладочные сообщения ниже уровня INFO")
}
