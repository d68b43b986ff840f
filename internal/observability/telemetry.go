package observability

import (
	"context"
	"time"

	"github.com/annel0/chunk-mesher/internal/config"
	"github.com/annel0/chunk-mesher/internal/logging"
	"github.com/annel0/chunk-mesher/internal/meshing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// InitTelemetry настраивает OTLP экспортер по cfg и устанавливает глобальный
// TracerProvider. Через него уходят спаны планировщика (meshing.tick, meshing.chunk);
// в ресурс попадают действующие параметры мешера.
// Возвращает функцию shutdown, которую нужно вызвать при завершении приложения.
func InitTelemetry(ctx context.Context, cfg config.TelemetryConfig, mesher meshing.Config) (func(context.Context) error, error) {
	tp, err := newTracerProvider(ctx, cfg, mesher)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp)
	logging.Info("📡 OpenTelemetry инициализирован (OTLP → %s, service=%s, sample=%.2f)",
		endpointOrDefault(cfg.Endpoint), cfg.ServiceName, cfg.SampleRatio)

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}
	return shutdown, nil
}

func newTracerProvider(ctx context.Context, cfg config.TelemetryConfig, mesher meshing.Config) (*trace.TracerProvider, error) {
	exp, err := otlptracehttp.New(ctx, exporterOptions(cfg)...)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(resourceAttributes(cfg, mesher)...))
	if err != nil {
		return nil, err
	}

	return trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
		trace.WithSampler(sampler(cfg.SampleRatio)),
	), nil
}

// exporterOptions без Endpoint экспортер берёт адрес из OTEL_EXPORTER_OTLP_* или localhost:4318
func exporterOptions(cfg config.TelemetryConfig) []otlptracehttp.Option {
	var opts []otlptracehttp.Option
	if cfg.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

// sampler: доля корневых трасс ratio, дочерние спаны следуют решению родителя
func sampler(ratio float64) trace.Sampler {
	return trace.ParentBased(trace.TraceIDRatioBased(ratio))
}

func resourceAttributes(cfg config.TelemetryConfig, mesher meshing.Config) []attribute.KeyValue {
	mesher = mesher.Resolved()
	return []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		attribute.Int("mesher.max_chunks_per_tick", mesher.MaxChunksPerTick),
		attribute.Int("mesher.workers", mesher.Workers),
	}
}

func endpointOrDefault(endpoint string) string {
	if endpoint == "" {
		return "localhost:4318"
	}
	return endpoint
}
