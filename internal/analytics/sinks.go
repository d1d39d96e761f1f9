package analytics

import (
	"context"

	"github.com/goccy/go-json"

	"portfolio-cms/backend/internal/analytics/domain"
	"portfolio-cms/backend/internal/telemetry/loki"
	"portfolio-cms/backend/internal/telemetry/otel"
)

// LokiSink pushes each visit as a JSON line labelled with event and country.
type LokiSink struct {
	client *loki.Client
}

// NewLokiSink returns nil when client is nil so callers can pass it straight to NewRecorder.
func NewLokiSink(client *loki.Client) Sink {
	if client == nil {
		return nil
	}
	return &LokiSink{client: client}
}

func (s *LokiSink) Publish(ctx context.Context, v *domain.Visit) error {
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Push(ctx, v.CreatedAt, string(line), map[string]string{
		"event":   "visit",
		"country": v.Geo.Country,
	})
}

// OTelSink emits each visit as an OTel log record.
type OTelSink struct {
	emitter otel.EventEmitter
}

// NewOTelSink returns nil when emitter is nil.
func NewOTelSink(emitter otel.EventEmitter) Sink {
	if emitter == nil {
		return nil
	}
	return &OTelSink{emitter: emitter}
}

func (s *OTelSink) Publish(ctx context.Context, v *domain.Visit) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.emitter.Emit(ctx, v.CreatedAt, body, map[string]string{
		"event":   "visit",
		"path":    v.Path,
		"country": v.Geo.Country,
		"city":    v.Geo.City,
	})
	return nil
}
