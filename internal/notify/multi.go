package notify

import (
	"context"
	"errors"
	"log/slog"
)

// Multi fans a message out to several senders. It succeeds when at least one
// sender succeeds so that a broken secondary channel never causes the primary
// one to repeat itself. The returned reference comes from the first sender
// that produced one.
type Multi struct {
	senders []Sender
	logger  *slog.Logger
}

// NewMulti constructs a Multi. Nil senders are skipped.
func NewMulti(logger *slog.Logger, senders ...Sender) *Multi {
	kept := make([]Sender, 0, len(senders))
	for _, s := range senders {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Multi{senders: kept, logger: logger}
}

// Len returns the number of senders.
func (m *Multi) Len() int { return len(m.senders) }

func (m *Multi) Send(ctx context.Context, msg Message) (string, error) {
	var (
		ref       string
		errs      []error
		delivered int
	)
	for i, s := range m.senders {
		r, err := s.Send(ctx, msg)
		if err != nil {
			m.logger.Warn("channel delivery failed", "channel", i, "error", err)
			errs = append(errs, err)
			continue
		}
		delivered++
		if ref == "" {
			ref = r
		}
	}
	if delivered == 0 && len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return ref, nil
}
