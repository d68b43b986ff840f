package meshing

import (
	"sync"
	"time"

	"github.com/annel0/chunk-mesher/internal/mesh"
	"github.com/annel0/chunk-mesher/internal/world"
)

// Intent отложенное изменение, которое задача мешинга просит применить
// после завершения прохода.
type Intent struct {
	Chunk   *world.Chunk
	EditSeq uint64 // номер правки, с которой собран меш
	Stats   mesh.Stats
	Elapsed time.Duration
}

// CommandBuffer очередь намерений с конкурентным добавлением.
// Во время прохода в неё только дописывают; применяет координатор после Wait.
type CommandBuffer struct {
	mu      sync.Mutex
	intents []Intent
}

// Append добавляет намерение
func (cb *CommandBuffer) Append(in Intent) {
	cb.mu.Lock()
	cb.intents = append(cb.intents, in)
	cb.mu.Unlock()
}

// Len количество накопленных намерений
func (cb *CommandBuffer) Len() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return len(cb.intents)
}

// Drain забирает все намерения и очищает буфер
func (cb *CommandBuffer) Drain() []Intent {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	res := cb.intents
	cb.intents = nil
	return res
}
