package secretstore

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/rbaliyan/secretstore"

// Operation names used for spans and the operation attribute.
const (
	opLength    = "length"
	opReveal    = "reveal"
	opRevealBuf = "reveal_buffer"
	opVerify    = "verify"
	opVerifyAll = "verify_all"
)

// Result values of the result attribute.
const (
	resultOK             = "ok"
	resultMismatch       = "mismatch"
	resultNotFound       = "not_found"
	resultBufferTooSmall = "buffer_too_small"
	resultAllocation     = "allocation"
	resultError          = "error"
)

// telemetry carries the instruments of one Store. Attributes are limited
// to operation names, results and secret IDs; no secret bytes or lengths
// of candidates are ever recorded.
type telemetry struct {
	tracer       trace.Tracer
	operations   metric.Int64Counter
	lockFailures metric.Int64Counter
}

func newTelemetry(mp metric.MeterProvider, tp trace.TracerProvider) (*telemetry, error) {
	meter := mp.Meter(instrumentationName)

	operations, err := meter.Int64Counter("secretstore.operations",
		metric.WithDescription("Secret store operations by operation and result."),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}
	lockFailures, err := meter.Int64Counter("secretstore.buffer.lock_failures",
		metric.WithDescription("Secure buffers that could not be locked against swap."),
		metric.WithUnit("{buffer}"),
	)
	if err != nil {
		return nil, err
	}

	return &telemetry{
		tracer:       tp.Tracer(instrumentationName),
		operations:   operations,
		lockFailures: lockFailures,
	}, nil
}

func (t *telemetry) start(ctx context.Context, op, id string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("secretstore.operation", op)}
	if id != "" {
		attrs = append(attrs, attribute.String("secretstore.secret_id", id))
	}
	return t.tracer.Start(ctx, "secretstore."+op, trace.WithAttributes(attrs...))
}

func (t *telemetry) finish(ctx context.Context, span trace.Span, op, result string, err error) {
	if err != nil {
		// The error text carries IDs and lengths only.
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("secretstore.result", result))
	span.End()
	t.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("result", result),
	))
}

func (t *telemetry) lockFailed(ctx context.Context) {
	t.lockFailures.Add(ctx, 1)
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, ErrNotFound):
		return resultNotFound
	case errors.Is(err, ErrBufferTooSmall):
		return resultBufferTooSmall
	case errors.Is(err, ErrAllocation):
		return resultAllocation
	default:
		return resultError
	}
}
