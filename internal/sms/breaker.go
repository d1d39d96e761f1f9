package sms

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"portfolio-cms/backend/internal/logging"
	"portfolio-cms/backend/internal/metrics"
)

// BreakerConfig configures the circuit breaker in front of a Sender.
type BreakerConfig struct {
	// Name identifies the breaker in logs and metrics.
	Name string
	// MaxRequests is the number of requests allowed in half-open state.
	MaxRequests uint32
	// Interval is the cyclic reset period for counts while closed.
	Interval time.Duration
	// Timeout is the duration in open state before transitioning to half-open.
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures before opening.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns production defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "sms-gateway",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 3,
	}
}

var errSendFailed = errors.New("sms: send failed")

// BreakerSender stops calling an unhealthy gateway for a while after repeated failures.
// Simulated sends never count as failures.
type BreakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker[Result]
}

// NewBreakerSender wraps next with a circuit breaker.
func NewBreakerSender(next Sender, cfg BreakerConfig) *BreakerSender {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			metrics.SetCircuitBreakerState(name, int(to))
		},
	}
	metrics.SetCircuitBreakerState(cfg.Name, int(gobreaker.StateClosed))
	return &BreakerSender{next: next, cb: gobreaker.NewCircuitBreaker[Result](settings)}
}

// Send forwards to the wrapped Sender unless the breaker is open.
func (b *BreakerSender) Send(ctx context.Context, to, text string) Result {
	r, err := b.cb.Execute(func() (Result, error) {
		r := b.next.Send(ctx, to, text)
		if r.Status == StatusFailed {
			return r, errSendFailed
		}
		return r, nil
	})
	if err == nil || errors.Is(err, errSendFailed) {
		return r
	}
	// gobreaker.ErrOpenState or ErrTooManyRequests
	metrics.RecordSMSSend(string(StatusFailed))
	return Failed("gateway unavailable: " + err.Error())
}

// State returns the current breaker state.
func (b *BreakerSender) State() gobreaker.State {
	return b.cb.State()
}
