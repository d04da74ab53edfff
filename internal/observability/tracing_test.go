package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{ServiceName: "yatube"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_UnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{
		ServiceName: "yatube",
		Enabled:     true,
		Exporter:    "zipkin",
	})
	assert.ErrorContains(t, err, `unknown tracing exporter "zipkin"`)
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, newSampler(tt.ratio).Description())
	}
	assert.Contains(t, newSampler(0.25).Description(), "ParentBased")
}

func TestStartSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := Tracer
	Tracer = tp.Tracer("test")
	t.Cleanup(func() { Tracer = prev })

	_, finish := StartSpan(context.Background(), "PostService.CreatePost", attribute.Int64("author.id", 7))
	finish(nil)
	_, finish = StartSpan(context.Background(), "PostService.UpdatePost")
	finish(errors.New("db gone"))

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "PostService.CreatePost", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Int64("author.id", 7))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "db gone", spans[1].Status().Description)
}
