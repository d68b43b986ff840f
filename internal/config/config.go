package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrInvalid конфигурация не прошла проверку
var ErrInvalid = errors.New("invalid config")

// Config корневая структура конфигурации мешера.
type Config struct {
	Mesher    MesherConfig    `yaml:"mesher"`
	World     WorldConfig     `yaml:"world"`
	Storage   StorageConfig   `yaml:"storage"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Server    ServerConfig    `yaml:"server"`
	Export    ExportConfig    `yaml:"export"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type MesherConfig struct {
	MaxChunksPerTick int `yaml:"max_chunks_per_tick"`
	Workers          int `yaml:"workers"` // 0: по числу CPU
	TickIntervalMS   int `yaml:"tick_interval_ms"`
}

type WorldConfig struct {
	Seed   int64 `yaml:"seed"`
	Radius int   `yaml:"radius"` // чанков по X и Z от начала координат
	Height int   `yaml:"height"` // чанков по Y, начиная с 0
}

type StorageConfig struct {
	Path string `yaml:"path"` // пусто: хранилище в памяти
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // пусто: in-memory шина
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"` // host:port OTLP HTTP коллектора
	Insecure    bool    `yaml:"insecure"` // без TLS
	SampleRatio float64 `yaml:"sample_ratio"`
}

type ServerConfig struct {
	MetricsPort int `yaml:"metrics_port"`
}

type ExportConfig struct {
	OBJDir string `yaml:"obj_dir"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Mesher: MesherConfig{
			MaxChunksPerTick: 8,
			TickIntervalMS:   16,
		},
		World: WorldConfig{
			Seed:   12345,
			Radius: 2,
			Height: 3,
		},
		EventBus: EventBusConfig{
			Stream:    "MESHER",
			Retention: 24,
			Buffer:    1024,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "chunk-mesher",
			Endpoint:    "localhost:4318",
			Insecure:    true,
			SampleRatio: 1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// GetMetricsPort возвращает Prometheus порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "MESHER_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	if c.Mesher.MaxChunksPerTick <= 0 {
		return fmt.Errorf("%w: mesher.max_chunks_per_tick must be positive", ErrInvalid)
	}
	if c.Mesher.Workers < 0 {
		return fmt.Errorf("%w: mesher.workers must not be negative", ErrInvalid)
	}
	if c.Mesher.TickIntervalMS < 0 {
		return fmt.Errorf("%w: mesher.tick_interval_ms must not be negative", ErrInvalid)
	}
	if c.World.Radius < 0 || c.World.Height <= 0 {
		return fmt.Errorf("%w: world.radius >= 0 and world.height > 0 required", ErrInvalid)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: telemetry.sample_ratio must be within [0, 1]", ErrInvalid)
	}
	return nil
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV MESHER_CONFIG;
// если и он не задан, возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("MESHER_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
