package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventMeshRefreshed тип события «меш чанка перестроен»
const EventMeshRefreshed = "MeshRefreshed"

const (
	// PriorityHigh события с приоритетом не ниже не дропаются при заполненном буфере
	PriorityHigh = 5
	// PriorityMeshRefreshed MeshRefreshed не теряется при заполненном буфере
	PriorityMeshRefreshed = PriorityHigh
)

// Envelope описывает универсальный контейнер события.
type Envelope struct {
	ID        string            // Глобально уникальный идентификатор (UUID).
	Timestamp time.Time         // Время создания события (UTC).
	Source    string            // Имя сервиса-источника.
	EventType string            // Тип события.
	Priority  int               // 0=Low … 9=Critical (для backpressure).
	Payload   []byte            // Сериализованная полезная нагрузка (JSON).
	Metadata  map[string]string // Произвольные метаданные.
}

// Filter позволяет подписаться только на нужные события.
type Filter struct {
	Types   []string // Если пусто: все типы.
	Sources []string // Если пусто: все источники.
}

// Subscription возвращается при подписке; позволяет отписаться.
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события.
type Handler func(ctx context.Context, ev *Envelope)

// Stats агрегированные метрики шины.
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
	InFlight  int
}

// EventBus абстракция шины событий; реализации: in-memory и NATS JetStream.
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	Close() error
}

// MeshRefreshed полезная нагрузка события EventMeshRefreshed
type MeshRefreshed struct {
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Z       int    `json:"z"`
	Quads   int    `json:"quads"`
	Version uint64 `json:"version"`
	TickID  uint64 `json:"tick_id"`
}

// NewMeshRefreshed упаковывает событие в конверт
func NewMeshRefreshed(source string, ev MeshRefreshed) (*Envelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации MeshRefreshed: %w", err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: EventMeshRefreshed,
		Priority:  PriorityMeshRefreshed,
		Payload:   payload,
	}, nil
}

// DecodeMeshRefreshed извлекает полезную нагрузку из конверта
func DecodeMeshRefreshed(ev *Envelope) (MeshRefreshed, error) {
	var m MeshRefreshed
	if ev.EventType != EventMeshRefreshed {
		return m, fmt.Errorf("unexpected event type %q", ev.EventType)
	}
	if err := json.Unmarshal(ev.Payload, &m); err != nil {
		return m, fmt.Errorf("ошибка разбора MeshRefreshed: %w", err)
	}
	return m, nil
}

func matchFilter(ev *Envelope, f Filter) bool {
	match := func(val string, arr []string) bool {
		if len(arr) == 0 {
			return true
		}
		for _, v := range arr {
			if v == val {
				return true
			}
		}
		return false
	}
	return match(ev.EventType, f.Types) && match(ev.Source, f.Sources)
}
