package tracer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"vitrine/internal/platform/tracer"
)

func TestNoopTracer(t *testing.T) {
	tr := tracer.NewNoop()
	ctx := context.Background()

	newCtx, span := tr.Start(ctx, tracer.SpanIdentityVerify, tracer.String("k", "v"))
	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)

	span.SetAttributes(tracer.Bool(tracer.AttrJoined, true))
	span.AddEvent(tracer.EventDiscarded)
	span.End(errors.New("boom"))
}

func TestOTelTracer_WithInjectedTracer(t *testing.T) {
	tr := tracer.NewOTel(tracer.WithOTelTracer(noop.NewTracerProvider().Tracer("test")))
	_, span := tr.Start(context.Background(), tracer.SpanRegistryCall,
		tracer.String(tracer.AttrTaxIDHash, tracer.HashTaxID("12345678909")),
		tracer.Int64("attempt", 1),
		tracer.Duration("latency", 150*time.Millisecond),
	)
	require.NotNil(t, span)
	span.AddEvent(tracer.EventCircuitOpen, tracer.String(tracer.AttrCircuitState, "open"))
	span.End(nil)
}

func TestHashTaxID(t *testing.T) {
	assert.Empty(t, tracer.HashTaxID(""))
	assert.Len(t, tracer.HashTaxID("123"), 16)
	assert.Equal(t, tracer.HashTaxID("12345678909"), tracer.HashTaxID("12345678909"))
	assert.NotEqual(t, tracer.HashTaxID("12345678909"), tracer.HashTaxID("98765432100"))
	assert.NotContains(t, tracer.HashTaxID("12345678909"), "12345678909")
}

func TestDurationAttribute(t *testing.T) {
	attr := tracer.Duration("latency", 150*time.Millisecond)
	assert.Equal(t, int64(150), attr.Value)
}
