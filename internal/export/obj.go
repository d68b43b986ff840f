package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/annel0/chunk-mesher/internal/mesh"
	"github.com/annel0/chunk-mesher/internal/vec"
)

// OBJWriter пишет меши чанков в Wavefront OBJ, каждый чанк отдельным объектом.
// Индексы вершин сквозные по всему файлу.
type OBJWriter struct {
	w        *bufio.Writer
	vertices int
	err      error
}

// NewOBJWriter создаёт писатель поверх w; после записи нужно вызвать Flush
func NewOBJWriter(w io.Writer) *OBJWriter {
	return &OBJWriter{w: bufio.NewWriter(w)}
}

func (o *OBJWriter) printf(format string, args ...interface{}) {
	if o.err != nil {
		return
	}
	_, o.err = fmt.Fprintf(o.w, format, args...)
}

// WriteChunk добавляет объект name. Позиции сдвигаются в мировые координаты
// по координатам чанка coords.
func (o *OBJWriter) WriteChunk(name string, coords vec.Vec3, b *mesh.Buffers) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("меш %s некорректен: %w", name, err)
	}

	origin := coords.ChunkOrigin()
	o.printf("o %s\n", name)
	for _, p := range b.Positions {
		o.printf("v %g %g %g\n", p.X()+float32(origin.X), p.Y()+float32(origin.Y), p.Z()+float32(origin.Z))
	}
	for _, n := range b.Normals {
		o.printf("vn %g %g %g\n", n.X(), n.Y(), n.Z())
	}
	for _, t := range b.UVs {
		o.printf("vt %g %g %g\n", t.X(), t.Y(), t.Z())
	}

	// Позиции, нормали и UV индексируются одинаково
	base := uint32(o.vertices) + 1
	for i := 0; i+2 < len(b.Indices); i += 3 {
		a, c, d := b.Indices[i]+base, b.Indices[i+1]+base, b.Indices[i+2]+base
		o.printf("f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, c, c, c, d, d, d)
	}
	o.vertices += len(b.Positions)

	if o.err != nil {
		return fmt.Errorf("ошибка записи OBJ: %w", o.err)
	}
	return nil
}

// Vertices количество записанных вершин
func (o *OBJWriter) Vertices() int {
	return o.vertices
}

// Flush сбрасывает буфер в нижележащий writer
func (o *OBJWriter) Flush() error {
	if o.err != nil {
		return fmt.Errorf("ошибка записи OBJ: %w", o.err)
	}
	return o.w.Flush()
}

// WriteOBJ записывает один меш чанка как отдельный OBJ файл
func WriteOBJ(w io.Writer, name string, coords vec.Vec3, b *mesh.Buffers) error {
	o := NewOBJWriter(w)
	if err := o.WriteChunk(name, coords, b); err != nil {
		return err
	}
	return o.Flush()
}

// ChunkName имя объекта чанка в OBJ
func ChunkName(coords vec.Vec3) string {
	return fmt.Sprintf("chunk_%d_%d_%d", coords.X, coords.Y, coords.Z)
}
