// Package pipeline runs the fetch, decide, deliver and persist cycle for one
// monitored address and repeats it on an interval.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/outage-notifier/internal/domain"
	"github.com/couchcryptid/outage-notifier/internal/observability"
)

// Cycle outcomes, used as the outcome label of cycles_total.
const (
	OutcomeOK            = "ok"
	OutcomeFetchError    = "fetch_error"
	OutcomeStateError    = "state_error"
	OutcomeMissingData   = "missing_data"
	OutcomeDeliveryError = "delivery_error"
)

const (
	defaultInterval     = 5 * time.Minute
	defaultRetryBackoff = 10 * time.Second
)

// DocumentFetcher retrieves the provider's current status document.
type DocumentFetcher interface {
	Fetch(ctx context.Context) (*domain.RawDocument, error)
}

// StateStore persists the notification state between cycles. Load returns nil
// when nothing was stored and an error wrapping domain.ErrCorruptState when the
// stored record cannot be decoded.
type StateStore interface {
	Load(ctx context.Context) (*domain.NotificationState, error)
	Save(ctx context.Context, state domain.NotificationState) error
}

// Notifier delivers a sending action and returns its delivery reference.
type Notifier interface {
	Deliver(ctx context.Context, action domain.Action) (string, error)
}

// EventPublisher receives a record of every decided cycle.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.DecisionEvent) error
}

// CycleReport describes one cycle.
type CycleReport struct {
	CycleID    string           `json:"cycle_id"`
	StartedAt  time.Time        `json:"started_at"`
	Duration   time.Duration    `json:"duration_ns"`
	Outcome    string           `json:"outcome"`
	Decision   *domain.Decision `json:"decision,omitempty"`
	Delivered  bool             `json:"delivered"`
	MessageRef string           `json:"message_ref,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Pipeline orchestrates the polling loop.
type Pipeline struct {
	fetcher   DocumentFetcher
	engine    *domain.Engine
	store     StateStore
	notifier  Notifier
	publisher EventPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock

	interval     time.Duration
	retryBackoff time.Duration

	mu    sync.Mutex // serializes cycles
	ready atomic.Bool
	last  atomic.Pointer[CycleReport]
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the real clock.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithInterval sets the delay between successful cycles.
func WithInterval(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithRetryBackoff sets the first delay after a failed cycle. It doubles per
// consecutive failure up to the interval.
func WithRetryBackoff(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.retryBackoff = d
		}
	}
}

// WithPublisher publishes a DecisionEvent for every decided cycle.
func WithPublisher(pub EventPublisher) Option {
	return func(p *Pipeline) {
		p.publisher = pub
	}
}

// New creates a Pipeline.
func New(f DocumentFetcher, e *domain.Engine, s StateStore, n Notifier, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:      f,
		engine:       e,
		store:        s,
		notifier:     n,
		logger:       logger,
		metrics:      metrics,
		clock:        clockwork.NewRealClock(),
		interval:     defaultInterval,
		retryBackoff: defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.retryBackoff > p.interval {
		p.retryBackoff = p.interval
	}
	return p
}

// CheckReadiness returns nil once a cycle has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no polling cycle has completed yet")
	}
	return nil
}

// LastReport returns the report of the most recent cycle.
func (p *Pipeline) LastReport() (CycleReport, bool) {
	r := p.last.Load()
	if r == nil {
		return CycleReport{}, false
	}
	return *r, true
}

// Run executes cycles until the context is cancelled. Failed cycles are
// retried with exponential backoff capped at the polling interval.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("poller started", "interval", p.interval, "address", p.engine.AddressKey())
	p.metrics.PollerRunning.Set(1)
	defer p.metrics.PollerRunning.Set(0)

	backoff := p.retryBackoff
	for {
		wait := p.interval
		if _, err := p.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("poller stopping", "reason", ctx.Err())
				return nil
			}
			wait = backoff
			backoff = sharedretry.NextBackoff(backoff, p.interval)
		} else {
			backoff = p.retryBackoff
		}

		if !sleepWithContext(ctx, p.clock, wait) {
			p.logger.Info("poller stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// RunCycle performs one fetch, decide, deliver and persist cycle. Cycles never
// overlap.
func (p *Pipeline) RunCycle(ctx context.Context) (CycleReport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	report := &CycleReport{CycleID: uuid.NewString(), StartedAt: p.clock.Now()}
	logger := p.logger.With("cycle_id", report.CycleID)

	err := p.cycle(ctx, logger, report)
	report.Duration = p.clock.Since(report.StartedAt)
	p.metrics.CycleDuration.Observe(report.Duration.Seconds())
	p.metrics.Cycles.WithLabelValues(report.Outcome).Inc()

	if err != nil {
		report.Error = err.Error()
		logger.Error("cycle failed", "outcome", report.Outcome, "error", err)
	} else {
		p.ready.Store(true)
		p.metrics.LastCycle.Set(float64(p.clock.Now().Unix()))
	}
	p.last.Store(report)
	return *report, err
}

func (p *Pipeline) cycle(ctx context.Context, logger *slog.Logger, report *CycleReport) error {
	fetchStart := p.clock.Now()
	doc, err := p.fetcher.Fetch(ctx)
	p.metrics.FetchDuration.Observe(p.clock.Since(fetchStart).Seconds())
	if err != nil {
		report.Outcome = OutcomeFetchError
		return fmt.Errorf("fetch document: %w", err)
	}
	for _, w := range doc.Warnings {
		logger.Warn("schedule section dropped", "detail", w)
	}

	prev, err := p.store.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrCorruptState):
		logger.Warn("stored state unreadable, starting cold", "error", err)
		p.metrics.StateErrors.WithLabelValues("corrupt").Inc()
		prev = nil
	case err != nil:
		report.Outcome = OutcomeStateError
		p.metrics.StateErrors.WithLabelValues("load").Inc()
		return fmt.Errorf("load state: %w", err)
	}

	decision, err := p.engine.Evaluate(doc, p.clock.Now(), prev)
	if err != nil {
		var missing *domain.MissingDataError
		if errors.As(err, &missing) {
			report.Outcome = OutcomeMissingData
		} else {
			report.Outcome = OutcomeFetchError
		}
		return fmt.Errorf("evaluate document: %w", err)
	}
	report.Decision = &decision
	defer p.publish(ctx, logger, report)

	action := decision.Action
	p.setSignals(action.Result)
	logger = logger.With("action", action.Kind, "fingerprint", action.Fingerprint)
	if decision.Reset {
		logger.Info("stored state predates today, discarded")
	}

	if action.Kind.Sends() {
		ref, err := p.notifier.Deliver(ctx, action)
		if err != nil {
			report.Outcome = OutcomeDeliveryError
			return fmt.Errorf("deliver %s: %w", action.Kind, err)
		}
		report.Delivered = true
		report.MessageRef = ref
		p.metrics.Notifications.WithLabelValues(string(action.Kind)).Inc()

		if err := p.save(ctx, decision.DeliveredState(ref)); err != nil {
			report.Outcome = OutcomeStateError
			return err
		}
		report.Outcome = OutcomeOK
		return nil
	}

	if action.Reason == domain.ReasonDuplicate {
		p.metrics.NotificationsSuppressed.Inc()
	}
	logger.Debug("no notification", "reason", action.Reason)
	if decision.Persist {
		if err := p.save(ctx, decision.State); err != nil {
			report.Outcome = OutcomeStateError
			return err
		}
	}
	report.Outcome = OutcomeOK
	return nil
}

func (p *Pipeline) save(ctx context.Context, state domain.NotificationState) error {
	if err := p.store.Save(ctx, state); err != nil {
		p.metrics.StateErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (p *Pipeline) setSignals(r domain.OutageResult) {
	p.metrics.EmergencyActive.Set(boolGauge(r.Emergency != nil))
	p.metrics.ScheduledActive.Set(boolGauge(r.Current() != nil))
}

// publish is best effort: a failed publish never fails the cycle.
func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, report *CycleReport) {
	if p.publisher == nil || report.Decision == nil {
		return
	}
	event := domain.NewDecisionEvent(uuid.NewString(), report.CycleID, p.engine.AddressKey(),
		*report.Decision, report.Delivered, report.MessageRef)
	if err := p.publisher.Publish(ctx, event); err != nil {
		logger.Warn("publish decision event failed", "error", err)
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// sleepWithContext is sharedretry.SleepWithContext on an injectable clock.
func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-clock.After(d):
		return true
	}
}
