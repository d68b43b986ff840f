package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// VerticesPerQuad вершин на одну грань
	VerticesPerQuad = 4
	// IndicesPerQuad индексов на одну грань (два треугольника)
	IndicesPerQuad = 6
)

// Buffers выходные буферы меша чанка. Positions, Normals и UVs: параллельные
// последовательности, Indices ссылаются на них тройками.
// UVs хранит (u, v, слой текстурного массива).
type Buffers struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec3
	Indices   []uint32
}

// NewBuffers создаёт буферы с запасом под указанное число граней
func NewBuffers(quadHint int) *Buffers {
	return &Buffers{
		Positions: make([]mgl32.Vec3, 0, quadHint*VerticesPerQuad),
		Normals:   make([]mgl32.Vec3, 0, quadHint*VerticesPerQuad),
		UVs:       make([]mgl32.Vec3, 0, quadHint*VerticesPerQuad),
		Indices:   make([]uint32, 0, quadHint*IndicesPerQuad),
	}
}

// Reset очищает буферы, сохраняя выделенную память
func (b *Buffers) Reset() {
	b.Positions = b.Positions[:0]
	b.Normals = b.Normals[:0]
	b.UVs = b.UVs[:0]
	b.Indices = b.Indices[:0]
}

// VertexCount количество вершин
func (b *Buffers) VertexCount() int {
	return len(b.Positions)
}

// QuadCount количество выпущенных граней
func (b *Buffers) QuadCount() int {
	return len(b.Indices) / IndicesPerQuad
}

// Empty true, если меш пуст
func (b *Buffers) Empty() bool {
	return len(b.Positions) == 0 && len(b.Indices) == 0
}

// Validate проверяет инварианты буферов
func (b *Buffers) Validate() error {
	n := len(b.Positions)
	if len(b.Normals) != n || len(b.UVs) != n {
		return fmt.Errorf("mesh: рассинхрон буферов: positions=%d normals=%d uvs=%d", n, len(b.Normals), len(b.UVs))
	}
	if n%VerticesPerQuad != 0 {
		return fmt.Errorf("mesh: число вершин %d не кратно %d", n, VerticesPerQuad)
	}
	if len(b.Indices)%IndicesPerQuad != 0 {
		return fmt.Errorf("mesh: число индексов %d не кратно %d", len(b.Indices), IndicesPerQuad)
	}
	if len(b.Indices)/IndicesPerQuad != n/VerticesPerQuad {
		return fmt.Errorf("mesh: %d индексов не соответствуют %d вершинам", len(b.Indices), n)
	}
	for i, idx := range b.Indices {
		if int(idx) >= n {
			return fmt.Errorf("mesh: индекс %d (позиция %d) вне буфера вершин", idx, i)
		}
	}
	return nil
}

// Clone возвращает независимую копию буферов
func (b *Buffers) Clone() *Buffers {
	return &Buffers{
		Positions: append([]mgl32.Vec3(nil), b.Positions...),
		Normals:   append([]mgl32.Vec3(nil), b.Normals...),
		UVs:       append([]mgl32.Vec3(nil), b.UVs...),
		Indices:   append([]uint32(nil), b.Indices...),
	}
}
