package mesh

import (
	"github.com/annel0/chunk-mesher/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// layerRule определяет слой текстурного массива для грани
type layerRule uint8

const (
	layerSide   layerRule = iota // ID 0 -> слой 1
	layerBottom                  // ID 0 -> слой 2
	layerTop                     // всегда ID
)

// face описание одной из шести граней вокселя
type face struct {
	dir     vec.Direction
	normal  mgl32.Vec3
	corners [VerticesPerQuad]mgl32.Vec3
	// winding индексы относительно первой вершины грани,
	// против часовой стрелки при взгляде снаружи
	winding [IndicesPerQuad]uint32
	uv      [VerticesPerQuad]mgl32.Vec2
	layer   layerRule
}

var (
	sideUV = [VerticesPerQuad]mgl32.Vec2{{1, 0}, {1, 1}, {0, 1}, {0, 0}}
	flatUV = [VerticesPerQuad]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
)

// faces таблица граней в порядке vec.Directions
var faces = [vec.DirectionCount]face{
	{
		dir:     vec.Left,
		normal:  mgl32.Vec3{-1, 0, 0},
		corners: [4]mgl32.Vec3{{0, 0, 0}, {0, 1, 0}, {0, 1, 1}, {0, 0, 1}},
		winding: [6]uint32{0, 2, 1, 0, 3, 2},
		uv:      sideUV,
		layer:   layerSide,
	},
	{
		dir:     vec.Right,
		normal:  mgl32.Vec3{1, 0, 0},
		corners: [4]mgl32.Vec3{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}},
		winding: [6]uint32{0, 1, 2, 0, 2, 3},
		uv:      sideUV,
		layer:   layerSide,
	},
	{
		dir:     vec.Back,
		normal:  mgl32.Vec3{0, 0, -1},
		corners: [4]mgl32.Vec3{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}},
		winding: [6]uint32{0, 1, 2, 0, 2, 3},
		uv:      sideUV,
		layer:   layerSide,
	},
	{
		dir:     vec.Front,
		normal:  mgl32.Vec3{0, 0, 1},
		corners: [4]mgl32.Vec3{{0, 0, 1}, {0, 1, 1}, {1, 1, 1}, {1, 0, 1}},
		winding: [6]uint32{2, 1, 0, 3, 2, 0},
		uv:      sideUV,
		layer:   layerSide,
	},
	{
		dir:     vec.Below,
		normal:  mgl32.Vec3{0, -1, 0},
		corners: [4]mgl32.Vec3{{0, 0, 0}, {0, 0, 1}, {1, 0, 1}, {1, 0, 0}},
		winding: [6]uint32{2, 1, 0, 3, 2, 0},
		uv:      flatUV,
		layer:   layerBottom,
	},
	{
		dir:     vec.Above,
		normal:  mgl32.Vec3{0, 1, 0},
		corners: [4]mgl32.Vec3{{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}},
		winding: [6]uint32{0, 1, 2, 0, 2, 3},
		uv:      flatUV,
		layer:   layerTop,
	},
}

// textureLayer возвращает слой текстуры для ID блока.
// Слой 0 занят текстурой-заглушкой, поэтому ID 0 сдвигается на боковых
// гранях на 1, на нижней на 2. Верхняя грань не сдвигается.
func textureLayer(id uint16, rule layerRule) float32 {
	if id == 0 {
		switch rule {
		case layerSide:
			return float32(id) + 1
		case layerBottom:
			return float32(id) + 2
		}
	}
	return float32(id)
}
