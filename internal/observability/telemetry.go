package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/annel0/noisefield/internal/logging"
)

// Options настраивает экспорт трасс.
type Options struct {
	ServiceName string
	Version     string
	// Endpoint — host:port OTLP HTTP приёмника, пусто — localhost:4318.
	Endpoint string
	// SampleRatio — доля трассируемых корневых запросов в [0, 1].
	// Дочерние span'ы следуют решению родителя.
	SampleRatio float64
}

func (o Options) sampler() (trace.Sampler, error) {
	if o.SampleRatio < 0 || o.SampleRatio > 1 {
		return nil, fmt.Errorf("telemetry sample ratio %v not in [0, 1]", o.SampleRatio)
	}
	return trace.ParentBased(trace.TraceIDRatioBased(o.SampleRatio)), nil
}

// InitTelemetry настраивает OTLP экспортер и устанавливает глобальный TracerProvider.
// Возвращает функцию shutdown, которая дописывает накопленные span'ы.
func InitTelemetry(ctx context.Context, opts Options) (func(context.Context) error, error) {
	sampler, err := opts.sampler()
	if err != nil {
		return nil, err
	}

	exportOpts := []otlptracehttp.Option{otlptracehttp.WithInsecure()}
	if opts.Endpoint != "" {
		exportOpts = append(exportOpts, otlptracehttp.WithEndpoint(opts.Endpoint))
	}
	exp, err := otlptracehttp.New(ctx, exportOpts...)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(opts.Version),
		),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
		trace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tp)
	logging.GetServerLogger().Info("📡 OpenTelemetry: OTLP → %s, service=%s, доля трасс %.2f",
		opts.Endpoint, opts.ServiceName, opts.SampleRatio)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}
