package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/condominio/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func setupTestTracer(t *testing.T) (*tracetest.SpanRecorder, func()) {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	originalProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	cleanup := func() {
		otel.SetTracerProvider(originalProvider)
		_ = tp.Shutdown(context.Background())
	}

	return sr, cleanup
}

func spanAttrMap(span sdktrace.ReadOnlySpan) map[string]interface{} {
	m := make(map[string]interface{})
	for _, attr := range span.Attributes() {
		m[string(attr.Key)] = attr.Value.AsInterface()
	}
	return m
}

func TestStartSpan(t *testing.T) {
	sr, cleanup := setupTestTracer(t)
	defer cleanup()

	t.Run("defaults to an internal span", func(t *testing.T) {
		_, span := telemetry.StartSpan(context.Background(), "billing.generate_invoices")
		span.End()

		spans := sr.Ended()
		require.NotEmpty(t, spans)
		last := spans[len(spans)-1]
		assert.Equal(t, "billing.generate_invoices", last.Name())
		assert.Equal(t, trace.SpanKindInternal, last.SpanKind())
	})

	t.Run("applies options", func(t *testing.T) {
		_, span := telemetry.StartSpan(context.Background(), "redis.idempotency_check",
			telemetry.WithAttribute("idempotency_key", "idem-1"),
			telemetry.WithSpanKind(trace.SpanKindClient),
		)
		span.End()

		spans := sr.Ended()
		last := spans[len(spans)-1]
		assert.Equal(t, trace.SpanKindClient, last.SpanKind())
		assert.Equal(t, "idem-1", spanAttrMap(last)["idempotency_key"])
	})
}

func TestStartServiceSpan(t *testing.T) {
	sr, cleanup := setupTestTracer(t)
	defer cleanup()

	_, span := telemetry.StartServiceSpan(context.Background(), "payment", "approve")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "payment.approve", spans[0].Name())
}

func TestSetAttributes(t *testing.T) {
	sr, cleanup := setupTestTracer(t)
	defer cleanup()

	t.Run("typed values land on the span", func(t *testing.T) {
		_, span := telemetry.StartSpan(context.Background(), "billing.allocate")
		telemetry.SetAttributes(span,
			"unit_label", "4-B",
			"allocation_count", 42,
			"fully_allocated", true,
			"periods", []string{"2024-01", "2024-02"},
		)
		span.End()

		spans := sr.Ended()
		attrs := spanAttrMap(spans[len(spans)-1])
		assert.Equal(t, "4-B", attrs["unit_label"])
		assert.Equal(t, int64(42), attrs["allocation_count"])
		assert.Equal(t, true, attrs["fully_allocated"])
	})

	t.Run("odd trailing key is dropped", func(t *testing.T) {
		_, span := telemetry.StartSpan(context.Background(), "billing.allocate")
		telemetry.SetAttributes(span, "key1", "value1", "key2", "value2", "orphan_key")
		span.End()

		spans := sr.Ended()
		assert.Len(t, spans[len(spans)-1].Attributes(), 2)
	})

	t.Run("non-string key is skipped", func(t *testing.T) {
		_, span := telemetry.StartSpan(context.Background(), "billing.allocate")
		telemetry.SetAttributes(span, "valid_key", "value", 123, "dangling")
		span.End()

		spans := sr.Ended()
		assert.Len(t, spans[len(spans)-1].Attributes(), 1)
	})
}

func TestSetAttribute(t *testing.T) {
	sr, cleanup := setupTestTracer(t)
	defer cleanup()

	// Stringer values such as uuid.UUID come through as their string form.
	paymentID := uuid.New()
	_, span := telemetry.StartSpan(context.Background(), "payment.submit")
	telemetry.SetAttribute(span, "payment_id", paymentID)
	telemetry.SetAttribute(span, "payment_method", "TRANSFER")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	attrs := spanAttrMap(spans[0])
	assert.Equal(t, paymentID.String(), attrs["payment_id"])
	assert.Equal(t, "TRANSFER", attrs["payment_method"])
}

func TestRecordError(t *testing.T) {
	sr, cleanup := setupTestTracer(t)
	defer cleanup()

	t.Run("marks the span and records an exception event", func(t *testing.T) {
		_, span := telemetry.StartSpan(context.Background(), "payment.approve")
		telemetry.RecordError(span, errors.New("payment already approved"))
		span.End()

		spans := sr.Ended()
		last := spans[len(spans)-1]
		assert.Equal(t, codes.Error, last.Status().Code)
		assert.Equal(t, "payment already approved", last.Status().Description)

		events := last.Events()
		require.GreaterOrEqual(t, len(events), 1)
		assert.Equal(t, "exception", events[0].Name)
	})

	t.Run("nil error is a no-op", func(t *testing.T) {
		_, span := telemetry.StartSpan(context.Background(), "payment.approve")
		telemetry.RecordError(span, nil)
		span.End()

		spans := sr.Ended()
		assert.NotEqual(t, codes.Error, spans[len(spans)-1].Status().Code)
	})
}

func TestSetOK(t *testing.T) {
	sr, cleanup := setupTestTracer(t)
	defer cleanup()

	_, span := telemetry.StartSpan(context.Background(), "payment.approve")
	telemetry.SetOK(span)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestAddEvent(t *testing.T) {
	sr, cleanup := setupTestTracer(t)
	defer cleanup()

	_, span := telemetry.StartSpan(context.Background(), "payment.approve")
	telemetry.AddEvent(span, "allocation_applied",
		"invoice_id", "inv-123",
		"applied", 10,
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	events := spans[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "allocation_applied", events[0].Name)

	attrMap := make(map[string]interface{})
	for _, attr := range events[0].Attributes {
		attrMap[string(attr.Key)] = attr.Value.AsInterface()
	}
	assert.Equal(t, "inv-123", attrMap["invoice_id"])
	assert.Equal(t, int64(10), attrMap["applied"])
}

func TestNilSpanHelpersDoNotPanic(t *testing.T) {
	telemetry.RecordError(nil, errors.New("boom"))
	telemetry.SetAttributes(nil, "key", "value")
	telemetry.SetAttribute(nil, "key", "value")
	telemetry.SetOK(nil)
	telemetry.AddEvent(nil, "event_name", "key", "value")
}

func TestSpanContextHelpers(t *testing.T) {
	_, cleanup := setupTestTracer(t)
	defer cleanup()

	ctx := context.Background()

	// Without a span: no-op span, empty IDs.
	assert.NotNil(t, telemetry.SpanFromContext(ctx))
	assert.Empty(t, telemetry.GetTraceID(ctx))
	assert.Empty(t, telemetry.GetSpanID(ctx))

	ctx, span := telemetry.StartSpan(ctx, "billing.generate_invoices")
	defer span.End()

	retrieved := telemetry.SpanFromContext(ctx)
	assert.Equal(t, span.SpanContext().SpanID(), retrieved.SpanContext().SpanID())

	assert.Len(t, telemetry.GetTraceID(ctx), 32)
	assert.Len(t, telemetry.GetSpanID(ctx), 16)

	reattached := telemetry.ContextWithSpan(context.Background(), span)
	assert.Equal(t, span.SpanContext().SpanID(), telemetry.SpanFromContext(reattached).SpanContext().SpanID())
}

func TestNestedSpans(t *testing.T) {
	sr, cleanup := setupTestTracer(t)
	defer cleanup()

	ctx, parentSpan := telemetry.StartSpan(context.Background(), "billing.approve_payment")
	_, childSpan := telemetry.StartSpan(ctx, "billing.save_invoices")
	childSpan.End()
	parentSpan.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)

	var parent, child sdktrace.ReadOnlySpan
	for _, s := range spans {
		switch s.Name() {
		case "billing.approve_payment":
			parent = s
		case "billing.save_invoices":
			child = s
		}
	}
	require.NotNil(t, parent)
	require.NotNil(t, child)

	assert.Equal(t, parent.SpanContext().TraceID(), child.SpanContext().TraceID())
	assert.Equal(t, parent.SpanContext().SpanID(), child.Parent().SpanID())
}
