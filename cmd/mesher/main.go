package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/annel0/chunk-mesher/internal/config"
	"github.com/annel0/chunk-mesher/internal/eventbus"
	"github.com/annel0/chunk-mesher/internal/export"
	"github.com/annel0/chunk-mesher/internal/logging"
	"github.com/annel0/chunk-mesher/internal/meshing"
	"github.com/annel0/chunk-mesher/internal/observability"
	"github.com/annel0/chunk-mesher/internal/storage"
	"github.com/annel0/chunk-mesher/internal/vec"
	"github.com/annel0/chunk-mesher/internal/voxel"
	"github.com/annel0/chunk-mesher/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	var (
		configPath = flag.String("config", "", "Путь к YAML конфигурации (или ENV MESHER_CONFIG)")
		serve      = flag.Bool("serve", false, "Не выходить после сборки: тикать до сигнала")
		objDir     = flag.String("obj", "", "Каталог для OBJ экспорта (перекрывает export.obj_dir)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if *objDir != "" {
		cfg.Export.OBJDir = *objDir
	}

	// Инициализируем систему логирования
	logging.SetLogDir(cfg.Logging.Dir)
	if err := logging.InitDefaultLogger("mesher"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logging.Warn("⚠️ %v, используется INFO", err)
	}
	logging.SetDefaultLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *serve); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 Мешер успешно остановлен")
}

func run(ctx context.Context, cfg *config.Config, serve bool) error {
	logging.Info("🧱 Запуск мешера чанков: seed=%d radius=%d height=%d, до %d чанков за тик",
		cfg.World.Seed, cfg.World.Radius, cfg.World.Height, cfg.Mesher.MaxChunksPerTick)
	procMetrics := observability.NewProcessMetrics()
	meshCfg := meshing.Config{MaxChunksPerTick: cfg.Mesher.MaxChunksPerTick, Workers: cfg.Mesher.Workers}

	// === ТЕЛЕМЕТРИЯ ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, cfg.Telemetry, meshCfg)
		if err != nil {
			logging.Warn("⚠️ OpenTelemetry не инициализирован: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.Warn("⚠️ Ошибка остановки OpenTelemetry: %v", err)
				}
			}()
		}
	}

	// === ШИНА СОБЫТИЙ ===
	bus, err := newEventBus(cfg.EventBus)
	if err != nil {
		return err
	}
	defer bus.Close()
	if _, err := eventbus.StartLoggingListener(bus); err != nil {
		return fmt.Errorf("ошибка подписки на шину: %w", err)
	}

	// === МЕТРИКИ ===
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		eventbus.NewMetricsCollector(bus),
	)
	metricsSrv := startMetricsServer(cfg.Server.GetMetricsPort(), promReg)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	// === ХРАНИЛИЩЕ И МИР ===
	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	registry := world.NewRegistry()
	gen := world.NewGenerator(cfg.World.Seed)
	generated, restored, err := loadRegion(registry, gen, store, cfg.World)
	if err != nil {
		return err
	}
	logging.Info("🌍 Регион готов: %d чанков сгенерировано, %d загружено из хранилища, %d непустых вокселей",
		len(generated), restored, solidVoxels(registry))

	// === МЕШИНГ ===
	refreshed := 0
	sched := meshing.NewScheduler(registry, meshCfg,
		meshing.WithEventBus(bus, cfg.Telemetry.ServiceName),
		meshing.WithRegisterer(promReg),
		meshing.WithRefreshCallback(func(c *world.Chunk, version uint64) {
			refreshed++
			logging.Trace("меш чанка %v обновлён до версии %d (%d граней)", c.Coords, version, c.Mesh.QuadCount())
		}),
	)

	start := time.Now()
	ticks, err := sched.Drain(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("ошибка мешинга: %w", err)
	}
	logging.Info("✅ Меши построены: %d чанков за %d тиков (%v)", refreshed, ticks, time.Since(start))

	if serve && ctx.Err() == nil {
		interval := time.Duration(cfg.Mesher.TickIntervalMS) * time.Millisecond
		if interval <= 0 {
			interval = 16 * time.Millisecond
		}
		logging.Info("⏱️ Планировщик работает с интервалом %v, метрики на :%d/metrics", interval, cfg.Server.GetMetricsPort())
		if err := sched.Run(ctx, interval); err != nil {
			return err
		}
		logging.Info("📡 Получен сигнал завершения, завершение работы...")
	}

	// === СОХРАНЕНИЕ И ЭКСПОРТ ===
	for _, c := range generated {
		if err := store.SaveChunk(c); err != nil {
			logging.Error("❌ Ошибка сохранения чанка %v: %v", c.Coords, err)
		}
	}

	if cfg.Export.OBJDir != "" {
		path, err := exportRegion(cfg.Export.OBJDir, registry)
		if err != nil {
			return err
		}
		logging.Info("💾 OBJ экспорт: %s", path)
	}

	if stats, err := procMetrics.Snapshot(); err != nil {
		logging.Warn("⚠️ Не удалось получить статистику процесса: %v", err)
	} else {
		logging.Info("📊 Процесс: %s", stats)
	}
	return nil
}

func newEventBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	if cfg.URL == "" {
		logging.Info("🚌 In-memory шина событий (буфер %d)", cfg.Buffer)
		return eventbus.NewMemoryBus(cfg.Buffer), nil
	}

	bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к NATS %s: %w", cfg.URL, err)
	}
	logging.Info("🚌 NATS JetStream шина: %s, stream=%s", cfg.URL, cfg.Stream)
	return bus, nil
}

func startMetricsServer(port int, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("❌ Ошибка сервера метрик: %v", err)
		}
	}()
	return srv
}

// loadRegion регистрирует чанки региона: сохранённые загружаются из
// хранилища, остальные генерируются. Возвращает сгенерированные заново.
func loadRegion(registry *world.Registry, gen *world.Generator, store *storage.WorldStorage, cfg config.WorldConfig) ([]*world.Chunk, int, error) {
	var generated []*world.Chunk
	restored := 0

	for y := 0; y < cfg.Height; y++ {
		for z := -cfg.Radius; z <= cfg.Radius; z++ {
			for x := -cfg.Radius; x <= cfg.Radius; x++ {
				c := world.NewChunk(vec.Vec3{X: x, Y: y, Z: z})

				err := store.RestoreChunk(c)
				switch {
				case err == nil:
					restored++
				case errors.Is(err, storage.ErrChunkNotFound):
					gen.Fill(c)
					generated = append(generated, c)
				default:
					return nil, 0, err
				}
				registry.Register(c)
			}
		}
	}
	return generated, restored, nil
}

// solidVoxels считает непустые воксели во всех чанках регистра
func solidVoxels(registry *world.Registry) int {
	n := 0
	for _, c := range registry.Chunks() {
		c.Mu.RLock()
		n += c.Blocks.Count(func(v voxel.Code) bool { return !v.IsAir() })
		c.Mu.RUnlock()
	}
	return n
}

// exportRegion пишет меши всех чанков в один OBJ файл
func exportRegion(dir string, registry *world.Registry) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("ошибка создания директории %s: %w", dir, err)
	}
	path := filepath.Join(dir, "region.obj")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("ошибка создания файла %s: %w", path, err)
	}
	defer f.Close()

	w := export.NewOBJWriter(f)
	for _, c := range registry.Chunks() {
		if c.Mesh.Empty() {
			continue
		}
		if err := w.WriteChunk(export.ChunkName(c.Coords), c.Coords, c.Mesh); err != nil {
			return "", err
		}
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	return path, f.Close()
}
