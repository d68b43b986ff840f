package world

import (
	"math/rand"

	"github.com/annel0/chunk-mesher/internal/util"
	"github.com/annel0/chunk-mesher/internal/vec"
	"github.com/annel0/chunk-mesher/internal/voxel"
	"github.com/annel0/chunk-mesher/internal/world/block"
)

// Generator генерирует ландшафт по карте высот из шума Перлина.
// Результат детерминирован для пары (Seed, координаты чанка).
type Generator struct {
	Seed        int64
	BaseHeight  int     // Минимальная высота поверхности в блоках
	Amplitude   int     // Разброс высот над BaseHeight
	WaterLevel  int     // Ниже уровня поверхность заливается водой
	GlassChance float64 // Шанс стеклянного столбика на суше (от 0 до 1)

	height *util.Noise

	stone, dirt, grass, sand, water, glass voxel.Code
}

// NewGenerator создаёт генератор с настройками по умолчанию
func NewGenerator(seed int64) *Generator {
	return &Generator{
		Seed:        seed,
		BaseHeight:  8,
		Amplitude:   24,
		WaterLevel:  14,
		GlassChance: 0.01,
		height:      util.NewNoise(seed, 0.02),
		stone:       block.MustCode(block.StoneBlockID),
		dirt:        block.MustCode(block.DirtBlockID),
		grass:       block.MustCode(block.GrassBlockID),
		sand:        block.MustCode(block.SandBlockID),
		water:       block.MustCode(block.WaterBlockID),
		glass:       block.MustCode(block.GlassBlockID),
	}
}

// SurfaceHeight возвращает мировую высоту поверхности в колонке (x, z)
func (g *Generator) SurfaceHeight(x, z int) int {
	return g.BaseHeight + int(g.height.At2D(x, z)*float64(g.Amplitude))
}

// GenerateChunk создаёт и заполняет чанк по его координатам
func (g *Generator) GenerateChunk(coords vec.Vec3) *Chunk {
	c := NewChunk(coords)
	g.Fill(c)
	return c
}

// Fill заполняет воксели чанка и переводит его в состояние Dirty
func (g *Generator) Fill(c *Chunk) {
	// Локальный генератор случайных чисел для детерминированности
	chunkSeed := g.Seed + int64(c.Coords.X*31) + int64(c.Coords.Y*131) + int64(c.Coords.Z*17)
	rng := rand.New(rand.NewSource(chunkSeed))

	origin := c.Coords.ChunkOrigin()

	c.Mu.Lock()
	for lz := 0; lz < 16; lz++ {
		for lx := 0; lx < 16; lx++ {
			wx, wz := origin.X+lx, origin.Z+lz
			surface := g.SurfaceHeight(wx, wz)
			pillar := surface >= g.WaterLevel && rng.Float64() < g.GlassChance

			for ly := 0; ly < 16; ly++ {
				wy := origin.Y + ly
				c.Blocks.SetAt(lx, ly, lz, g.blockAt(wy, surface, pillar))
			}
		}
	}
	c.Mu.Unlock()

	c.MarkGenerated()
	c.MarkDirty()
}

// blockAt выбирает блок для мировой высоты wy в колонке с поверхностью surface
func (g *Generator) blockAt(wy, surface int, pillar bool) voxel.Code {
	switch {
	case wy < surface-3:
		return g.stone
	case wy < surface:
		return g.dirt
	case wy == surface:
		if surface <= g.WaterLevel {
			return g.sand
		}
		return g.grass
	case wy <= g.WaterLevel:
		return g.water
	case pillar && wy <= surface+3:
		return g.glass
	default:
		return voxel.Air
	}
}
