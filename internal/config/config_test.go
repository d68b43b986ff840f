package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mesher.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWithoutPath(t *testing.T) {
	t.Setenv("MESHER_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Mesher.MaxChunksPerTick)
	assert.Equal(t, "chunk-mesher", cfg.Telemetry.ServiceName)
	assert.Equal(t, "localhost:4318", cfg.Telemetry.Endpoint)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRatio)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
mesher:
  max_chunks_per_tick: 4
  workers: 2
world:
  seed: 99
  radius: 1
eventbus:
  url: nats://127.0.0.1:4222
export:
  obj_dir: out
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Mesher.MaxChunksPerTick)
	assert.Equal(t, 2, cfg.Mesher.Workers)
	assert.Equal(t, 16, cfg.Mesher.TickIntervalMS, "незаданные поля берутся из значений по умолчанию")
	assert.Equal(t, int64(99), cfg.World.Seed)
	assert.Equal(t, 3, cfg.World.Height)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.EventBus.URL)
	assert.Equal(t, "out", cfg.Export.OBJDir)
}

func TestLoad_FromEnv(t *testing.T) {
	path := writeConfig(t, "world:\n  seed: 7\n")
	t.Setenv("MESHER_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.World.Seed)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, "mesher:\n  max_chunks_per_tick: 0\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeConfig(t, "mesher: [oops"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_TelemetrySettings(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
telemetry:
  enabled: true
  endpoint: otel-collector:4318
  insecure: false
  sample_ratio: 0.25
`))
	require.NoError(t, err)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "otel-collector:4318", cfg.Telemetry.Endpoint)
	assert.False(t, cfg.Telemetry.Insecure)
	assert.Equal(t, 0.25, cfg.Telemetry.SampleRatio)
	assert.Equal(t, "chunk-mesher", cfg.Telemetry.ServiceName)

	_, err = Load(writeConfig(t, "telemetry:\n  sample_ratio: 1.5\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeConfig(t, "telemetry:\n  sample_ratio: -0.1\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestServerConfig_MetricsPortFallback(t *testing.T) {
	s := ServerConfig{}
	t.Setenv("MESHER_METRICS_PORT", "")
	assert.Equal(t, 2112, s.GetMetricsPort())

	t.Setenv("MESHER_METRICS_PORT", "9100")
	assert.Equal(t, 9100, s.GetMetricsPort())

	s.MetricsPort = 9200
	assert.Equal(t, 9200, s.GetMetricsPort())
}
