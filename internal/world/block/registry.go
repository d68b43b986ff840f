package block

import (
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/chunk-mesher/internal/voxel"
)

// BlockID представляет идентификатор типа блока (15 бит кода вокселя)
type BlockID uint16

// Константы ID блоков
const (
	AirBlockID BlockID = 0 // Воздух
	// 1 занят устаревшей кодировкой воздуха (voxel.LegacyAir)
	StoneBlockID  BlockID = 2
	DirtBlockID   BlockID = 3
	GrassBlockID  BlockID = 4
	GlassBlockID  BlockID = 5
	WaterBlockID  BlockID = 6
	SandBlockID   BlockID = 7
	LeavesBlockID BlockID = 8
)

// Definition описывает тип блока для мешера
type Definition struct {
	ID          BlockID
	Name        string
	Transparent bool // сквозь блок видны грани соседей
}

// Code возвращает упакованный код вокселя для блока
func (d Definition) Code() voxel.Code {
	if d.ID == AirBlockID {
		return voxel.Air
	}
	return voxel.NewCode(uint16(d.ID), d.Transparent)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[BlockID]Definition)
)

func init() {
	RegisterDefaults()
}

// RegisterDefaults регистрирует базовые типы блоков
func RegisterDefaults() {
	Register(Definition{ID: AirBlockID, Name: "Air", Transparent: true})
	Register(Definition{ID: StoneBlockID, Name: "Stone"})
	Register(Definition{ID: DirtBlockID, Name: "Dirt"})
	Register(Definition{ID: GrassBlockID, Name: "Grass"})
	Register(Definition{ID: GlassBlockID, Name: "Glass", Transparent: true})
	Register(Definition{ID: WaterBlockID, Name: "Water", Transparent: true})
	Register(Definition{ID: SandBlockID, Name: "Sand"})
	Register(Definition{ID: LeavesBlockID, Name: "Leaves", Transparent: true})
}

// Register добавляет тип блока в регистр
func Register(def Definition) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[def.ID] = def
}

// Get возвращает описание для указанного ID
func Get(id BlockID) (Definition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	def, exists := registry[id]
	return def, exists
}

// Code возвращает код вокселя для зарегистрированного блока
func Code(id BlockID) (voxel.Code, error) {
	def, ok := Get(id)
	if !ok {
		return 0, fmt.Errorf("неизвестный тип блока %d", id)
	}
	return def.Code(), nil
}

// MustCode как Code, но паникует на неизвестном ID. Для констант палитры.
func MustCode(id BlockID) voxel.Code {
	c, err := Code(id)
	if err != nil {
		panic(err)
	}
	return c
}

// All возвращает все зарегистрированные типы, отсортированные по ID
func All() []Definition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	defs := make([]Definition, 0, len(registry))
	for _, d := range registry {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}
