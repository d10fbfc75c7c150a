package tracing

import (
	"bytes"
	"context"
	"testing"

	"weatherbot/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), config.TracingConfig{}, "test", nil)
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSetup_UnknownExporter(t *testing.T) {
	_, err := Setup(context.Background(), config.TracingConfig{Exporter: "zipkin"}, "test", nil)
	assert.Error(t, err)
}

func TestSetup_StdoutExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	var buf bytes.Buffer
	p, err := Setup(context.Background(), config.TracingConfig{Exporter: "stdout"}, "1.2.3", &buf)
	require.NoError(t, err)
	require.True(t, p.Enabled())

	_, span := otel.Tracer("test").Start(context.Background(), "lookup.weather")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), "lookup.weather")
	assert.Contains(t, buf.String(), "weatherbot")
}
