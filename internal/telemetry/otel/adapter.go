package otel

import (
	"context"
	"sort"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// EventEmitter sends one structured event as an OTel log record.
type EventEmitter interface {
	Emit(ctx context.Context, ts time.Time, body []byte, attrs map[string]string)
}

// NewEventEmitter returns an EventEmitter that writes through the given LoggerProvider under scope.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider, scope string) EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return NewEventEmitterWithLogger(provider.Logger(scope))
}

// NewEventEmitterWithLogger wraps an existing otellog.Logger; used by tests to capture records.
func NewEventEmitterWithLogger(logger otellog.Logger) EventEmitter {
	if logger == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, time.Time, []byte, map[string]string) {}

type otelEmitter struct {
	logger otellog.Logger
}

// Emit maps body to the record body and attrs to string attributes (sorted, empty values dropped).
// A zero ts is replaced with the current time.
func (e *otelEmitter) Emit(ctx context.Context, ts time.Time, body []byte, attrs map[string]string) {
	rec := otellog.Record{}
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetSeverity(otellog.SeverityInfo)
	if len(body) > 0 {
		rec.SetBody(otellog.BytesValue(body))
	}
	keys := make([]string, 0, len(attrs))
	for k, v := range attrs {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		rec.AddAttributes(otellog.String(k, attrs[k]))
	}
	e.logger.Emit(ctx, rec)
}
