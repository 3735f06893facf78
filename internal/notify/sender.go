// Package notify renders outage decisions into messages and delivers them
// through one or more channels.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/outage-notifier/internal/domain"
)

// Message is a rendered notification.
type Message struct {
	// Text is HTML in the Telegram subset (<b>, <i>, <code>).
	Text string
	// ReplaceRef names a previously delivered message to edit. Channels
	// without editing post a new message.
	ReplaceRef string
	// Kind is the action that produced the message, empty for summaries.
	Kind domain.ActionKind
}

// Sender delivers a message and returns a channel-specific reference to it,
// or "" when the channel has none.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// PermanentError marks a delivery failure that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a PermanentError. Permanent(nil) is nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err or anything it wraps is a PermanentError.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

// LogSender writes messages to the log instead of delivering them. It is used
// when no channel is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) (string, error) {
	s.logger.Info("notification (no delivery channel configured)", "kind", msg.Kind, "text", msg.Text)
	return "", nil
}
