package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/outage-notifier/internal/domain"
)

// Dispatcher renders decisions and hands them to a Sender.
type Dispatcher struct {
	renderer *Renderer
	sender   Sender
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(renderer *Renderer, sender Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{renderer: renderer, sender: sender, logger: logger}
}

// Deliver renders and sends a sending action. It returns the delivery
// reference to store for in-place edits.
func (d *Dispatcher) Deliver(ctx context.Context, action domain.Action) (string, error) {
	text, err := d.renderer.Render(action)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", action.Kind, err)
	}
	ref, err := d.sender.Send(ctx, Message{Text: text, ReplaceRef: action.ReplaceRef, Kind: action.Kind})
	if err != nil {
		return "", err
	}
	d.logger.Info("notification delivered", "action", action.Kind, "fingerprint", action.Fingerprint, "ref", ref)
	return ref, nil
}

// DeliverSummary renders and sends the daily summary as a new message.
func (d *Dispatcher) DeliverSummary(ctx context.Context, s domain.DailySummary, now time.Time) (string, error) {
	text, err := d.renderer.RenderSummary(s, now)
	if err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return d.sender.Send(ctx, Message{Text: text})
}
