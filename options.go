package secretstore

import (
	"fmt"

	"github.com/rbaliyan/config/codec"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Store.
type Option func(*options)

type options struct {
	entries        []entry
	algorithm      Algorithm
	alloc          Allocator
	logger         zerolog.Logger
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	err            error // deferred validation error from options
}

// entry is a secret registered through an option, either already sealed
// or still to be sealed by New.
type entry struct {
	id        string
	sealed    []byte
	plaintext []byte
	plain     bool
}

func defaultOptions() options {
	return options{
		algorithm:      AES256GCM,
		alloc:          DefaultAllocator(),
		logger:         zerolog.Nop(),
		meterProvider:  otel.GetMeterProvider(),
		tracerProvider: otel.GetTracerProvider(),
	}
}

// WithSecret registers a secret already sealed with Seal. The sealed bytes
// are copied.
func WithSecret(id string, sealed []byte) Option {
	return func(o *options) {
		o.entries = append(o.entries, entry{id: id, sealed: append([]byte(nil), sealed...)})
	}
}

// WithPlaintextSecret registers a secret that New seals with the
// provider's current key. The caller's plaintext slice is zeroed by New,
// whether or not construction succeeds.
func WithPlaintextSecret(id string, plaintext []byte) Option {
	return func(o *options) {
		o.entries = append(o.entries, entry{id: id, plaintext: plaintext, plain: true})
	}
}

// WithTable registers every secret of a sealed table.
func WithTable(t *Table) Option {
	return func(o *options) {
		if t == nil {
			return
		}
		for _, id := range t.IDs() {
			o.entries = append(o.entries, entry{id: id, sealed: append([]byte(nil), t.Secrets[id]...)})
		}
	}
}

// WithEncodedTable decodes a sealed table with c (JSON when nil) and
// registers its secrets.
func WithEncodedTable(data []byte, c codec.Codec) Option {
	return func(o *options) {
		if o.err != nil {
			return
		}
		t, err := DecodeTable(data, c)
		if err != nil {
			o.err = err
			return
		}
		WithTable(t)(o)
	}
}

// WithAlgorithm selects the AEAD used to seal WithPlaintextSecret entries.
func WithAlgorithm(alg Algorithm) Option {
	return func(o *options) {
		if o.err != nil {
			return
		}
		if !alg.valid() {
			o.err = fmt.Errorf("%w: unsupported algorithm %d", ErrInvalidFormat, byte(alg))
			return
		}
		o.algorithm = alg
	}
}

// WithAllocator sets the allocator behind every SecureBuffer the store
// acquires. The default maps memory outside the Go heap where possible.
func WithAllocator(a Allocator) Option {
	return func(o *options) {
		if a != nil {
			o.alloc = a
		}
	}
}

// WithLogger sets the logger. The store logs secret IDs and outcomes only.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider.
// Defaults to the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}
