package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func restoreProvider(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })
}

func TestInitTelemetry_InstallsProvider(t *testing.T) {
	// Экспортер подключается лениво, поэтому приёмник для теста не нужен
	restoreProvider(t)

	shutdown, err := InitTelemetry(context.Background(), Options{
		ServiceName: "noisefield-test",
		Version:     "test",
		Endpoint:    "127.0.0.1:4318",
		SampleRatio: 1,
	})
	require.NoError(t, err)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok, "глобальный провайдер заменён на SDK")

	// Без span'ов экспортировать нечего
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTelemetry_SampleRatio(t *testing.T) {
	restoreProvider(t)
	ctx := context.Background()

	for ratio, sampled := range map[float64]bool{0: false, 1: true} {
		shutdown, err := InitTelemetry(ctx, Options{ServiceName: "noisefield-test", Endpoint: "127.0.0.1:4318", SampleRatio: ratio})
		require.NoError(t, err)

		// span не завершается и не уходит в экспортер
		_, span := otel.Tracer("test").Start(ctx, "root")
		assert.Equal(t, sampled, span.SpanContext().IsSampled(), "доля %v", ratio)
		assert.NoError(t, shutdown(ctx))
	}

	_, err := InitTelemetry(ctx, Options{ServiceName: "noisefield-test", SampleRatio: 1.5})
	assert.Error(t, err)
}
