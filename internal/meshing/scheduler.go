package meshing

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/annel0/chunk-mesher/internal/eventbus"
	"github.com/annel0/chunk-mesher/internal/logging"
	"github.com/annel0/chunk-mesher/internal/mesh"
	"github.com/annel0/chunk-mesher/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxChunksPerTick сколько чанков перестраивается за один тик
const DefaultMaxChunksPerTick = 8

// Config параметры планировщика
type Config struct {
	MaxChunksPerTick int // 0: DefaultMaxChunksPerTick
	Workers          int // 0: GOMAXPROCS
}

// Report итоги одного тика
type Report struct {
	TickID    uint64
	Processed int           // чанков перестроено и применено
	Deferred  int           // грязных чанков осталось на следующие тики
	Quads     int           // граней выпущено за тик
	Duration  time.Duration // от начала тика до применения результатов
}

// RefreshFunc вызывается для каждого чанка после применения нового меша.
// Вызывается последовательно, вне прохода мешинга: можно менять мир.
type RefreshFunc func(c *world.Chunk, version uint64)

// Option настраивает Scheduler
type Option func(*Scheduler)

// WithEventBus публикует MeshRefreshed в шину от имени source
func WithEventBus(bus eventbus.EventBus, source string) Option {
	return func(s *Scheduler) {
		s.bus = bus
		s.source = source
	}
}

// WithRegisterer регистрирует метрики планировщика в reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Scheduler) { s.registerer = reg }
}

// WithRefreshCallback задаёт обработчик обновлённых мешей
func WithRefreshCallback(fn RefreshFunc) Option {
	return func(s *Scheduler) { s.onRefresh = fn }
}

// WithTracerProvider задаёт источник спанов вместо глобального otel
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Scheduler) { s.tracer = tp.Tracer("meshing") }
}

// WithLogger заменяет логгер компонента
func WithLogger(l *logging.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// Scheduler раз в тик перестраивает меши грязных чанков параллельно
type Scheduler struct {
	registry *world.Registry
	cfg      Config

	bus        eventbus.EventBus
	source     string
	registerer prometheus.Registerer
	onRefresh  RefreshFunc
	logger     *logging.Logger

	metrics *metrics
	tracer  trace.Tracer
	tickID  atomic.Uint64
}

// Resolved подставляет значения по умолчанию вместо нулевых полей
func (c Config) Resolved() Config {
	if c.MaxChunksPerTick <= 0 {
		c.MaxChunksPerTick = DefaultMaxChunksPerTick
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// NewScheduler создаёт планировщик для регистра чанков
func NewScheduler(registry *world.Registry, cfg Config, opts ...Option) *Scheduler {
	s := &Scheduler{
		registry: registry,
		cfg:      cfg.Resolved(),
		source:   "mesher",
		tracer:   otel.Tracer("meshing"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.GetMeshingLogger()
	}
	s.metrics = newMetrics(s.registerer)
	return s
}

// Config возвращает действующие параметры
func (s *Scheduler) Config() Config {
	return s.cfg
}

// Tick выполняет один проход мешинга.
//
// Берёт не больше MaxChunksPerTick грязных чанков, собирает их меши
// параллельно по снимку соседей и только после завершения всех задач
// применяет результаты: чанк становится Clean, вызывается колбэк и
// публикуется MeshRefreshed. Отмена ctx прекращает запуск новых чанков;
// начатые доделываются и применяются, а Tick возвращает ctx.Err().
func (s *Scheduler) Tick(ctx context.Context) (Report, error) {
	start := time.Now()
	report := Report{TickID: s.tickID.Add(1)}

	ctx, span := s.tracer.Start(ctx, "meshing.tick",
		trace.WithAttributes(attribute.Int64("tick.id", int64(report.TickID))))
	defer span.End()
	s.metrics.ticks.Inc()

	dirty := s.registry.DirtyChunks()
	batch := dirty
	if len(batch) > s.cfg.MaxChunksPerTick {
		batch = batch[:s.cfg.MaxChunksPerTick]
	}

	var cmds CommandBuffer
	snapshotChunks := 0
	if len(batch) > 0 {
		snapshotChunks = s.runPass(ctx, batch, &cmds)
	}
	intents := cmds.Len()

	for _, in := range cmds.Drain() {
		if s.apply(ctx, report.TickID, in) {
			report.Processed++
			report.Quads += in.Stats.Quads
		}
	}

	report.Deferred = len(dirty) - report.Processed
	report.Duration = time.Since(start)
	s.metrics.dirtyBacklog.Set(float64(report.Deferred))

	span.SetAttributes(
		attribute.Int("snapshot.chunks", snapshotChunks),
		attribute.Int("intents", intents),
		attribute.Int("intents.stale", intents-report.Processed),
		attribute.Int("chunks.processed", report.Processed),
		attribute.Int("chunks.deferred", report.Deferred),
		attribute.Int("quads", report.Quads),
	)
	if report.Processed > 0 {
		s.logger.Debug("тик %d: перестроено %d чанков, %d граней, отложено %d за %v",
			report.TickID, report.Processed, report.Quads, report.Deferred, report.Duration)
	}
	return report, ctx.Err()
}

// runPass собирает меши batch. Регистр заблокирован для изменений, пока
// идут задачи; намерения копятся в cmds. Возвращает размер снимка.
func (s *Scheduler) runPass(ctx context.Context, batch []*world.Chunk, cmds *CommandBuffer) int {
	snap, release := s.registry.BeginPass()
	defer release()

	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)

	for _, c := range batch {
		c := c
		if ctx.Err() != nil {
			break
		}
		// Чанк могли выгрузить или заменить между выбором и началом прохода
		if st, ok := snap.Store(c.Coords); !ok || st != c.Blocks {
			continue
		}
		seq := c.EditSeq()

		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			_, span := s.tracer.Start(ctx, "meshing.chunk", trace.WithAttributes(
				attribute.Int("chunk.x", c.Coords.X),
				attribute.Int("chunk.y", c.Coords.Y),
				attribute.Int("chunk.z", c.Coords.Z),
			))
			defer span.End()

			began := time.Now()
			st := mesh.Build(c.Blocks, c.Coords, snap, c.Mesh)
			cmds.Append(Intent{Chunk: c, EditSeq: seq, Stats: st, Elapsed: time.Since(began)})

			span.SetAttributes(attribute.Int("quads", st.Quads))
			return nil
		})
	}

	_ = g.Wait()
	return snap.Len()
}

// apply фиксирует результат одной задачи. Возвращает false, если меш
// устарел из-за правки после его сборки.
func (s *Scheduler) apply(ctx context.Context, tickID uint64, in Intent) bool {
	c := in.Chunk
	version, ok := c.MarkMeshedAt(in.EditSeq)
	if !ok {
		s.logger.Debug("чанк %v изменился во время сборки, меш отложен", c.Coords)
		return false
	}
	s.metrics.observeIntent(in)

	if s.onRefresh != nil {
		s.onRefresh(c, version)
	}

	if s.bus != nil {
		ev, err := eventbus.NewMeshRefreshed(s.source, eventbus.MeshRefreshed{
			X:       c.Coords.X,
			Y:       c.Coords.Y,
			Z:       c.Coords.Z,
			Quads:   in.Stats.Quads,
			Version: version,
			TickID:  tickID,
		})
		if err == nil {
			// Результат уже применён, событие доставляем даже при отмене тика
			err = s.bus.Publish(context.WithoutCancel(ctx), ev)
		}
		if err != nil {
			s.logger.Warn("не удалось опубликовать MeshRefreshed для %v: %v", c.Coords, err)
		}
	}
	return true
}

// Run вызывает Tick каждые interval до отмены ctx
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("ошибка тика мешинга: %v", err)
			}
		}
	}
}

// Drain гоняет тики, пока не останется грязных чанков. Возвращает число тиков.
func (s *Scheduler) Drain(ctx context.Context) (int, error) {
	ticks := 0
	for {
		r, err := s.Tick(ctx)
		if err != nil {
			return ticks, err
		}
		ticks++
		if r.Deferred == 0 {
			return ticks, nil
		}
	}
}
