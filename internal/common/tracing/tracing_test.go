package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dumeirei/inventory-backend/internal/common/config"
)

func TestInit_Disabled(t *testing.T) {
	tr, err := Init(&config.TracingConfig{Enabled: false}, "test")
	require.NoError(t, err)
	assert.Nil(t, tr.provider)
	assert.NoError(t, tr.Shutdown(context.Background()))

	tr, err = Init(nil, "test")
	require.NoError(t, err)
	assert.NotNil(t, tr)
}

func TestInit_StdoutExporter(t *testing.T) {
	tr, err := Init(&config.TracingConfig{
		Enabled:     true,
		ServiceName: "inventory-test",
		SampleRate:  0.5,
	}, "test")
	require.NoError(t, err)
	require.NotNil(t, tr.provider)
	assert.NoError(t, tr.Shutdown(context.Background()))
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestStartAndEnd(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := Start(context.Background(), "purchase.create", AttrOrderNo.String("PO20250214001"))
	End(span, nil)

	_, span = Start(context.Background(), "purchase.delete", AttrPurchaseID.Int64(9))
	End(span, errors.New("boom"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "purchase.create", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, "purchase.delete", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
