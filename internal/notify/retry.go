package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/outage-notifier/internal/observability"
)

const (
	defaultMaxAttempts = 3
	defaultBackoff     = time.Second
	maxRetryBackoff    = 30 * time.Second
)

// Retrying retries a Sender a bounded number of times with exponential
// backoff. Permanent errors and context cancellation stop it early.
type Retrying struct {
	inner       Sender
	maxAttempts int
	backoff     time.Duration
	clock       clockwork.Clock
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// RetryOption configures Retrying.
type RetryOption func(*Retrying)

// WithMaxAttempts sets the total number of attempts, the first included.
func WithMaxAttempts(n int) RetryOption {
	return func(r *Retrying) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithBackoff sets the delay before the second attempt. It doubles per
// attempt up to 30s.
func WithBackoff(d time.Duration) RetryOption {
	return func(r *Retrying) {
		if d > 0 {
			r.backoff = d
		}
	}
}

// WithClock overrides the real clock.
func WithClock(c clockwork.Clock) RetryOption {
	return func(r *Retrying) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithMetrics records every attempt in delivery_attempts_total.
func WithMetrics(m *observability.Metrics) RetryOption {
	return func(r *Retrying) {
		r.metrics = m
	}
}

// WithLogger overrides slog.Default.
func WithLogger(l *slog.Logger) RetryOption {
	return func(r *Retrying) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRetrying wraps inner.
func NewRetrying(inner Sender, opts ...RetryOption) *Retrying {
	r := &Retrying{
		inner:       inner,
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		clock:       clockwork.NewRealClock(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retrying) Send(ctx context.Context, msg Message) (string, error) {
	backoff := r.backoff
	for attempt := 1; ; attempt++ {
		ref, err := r.inner.Send(ctx, msg)
		if err == nil {
			r.record("success")
			return ref, nil
		}
		r.record("error")

		if attempt >= r.maxAttempts || IsPermanent(err) || ctx.Err() != nil {
			return "", fmt.Errorf("deliver notification after %d attempt(s): %w", attempt, err)
		}
		r.logger.Warn("delivery failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("deliver notification: %w", ctx.Err())
		case <-r.clock.After(backoff):
		}
		backoff = sharedretry.NextBackoff(backoff, maxRetryBackoff)
	}
}

func (r *Retrying) record(outcome string) {
	if r.metrics != nil {
		r.metrics.DeliveryAttempts.WithLabelValues(outcome).Inc()
	}
}
