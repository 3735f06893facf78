package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/outage-notifier/internal/domain"
)

func kyiv(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Kyiv")
	require.NoError(t, err)
	return loc
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(kyiv(t))
	require.NoError(t, err)
	return r
}

func outageWindow(start, end domain.ClockTime, label string) *domain.OutageWindow {
	r := domain.ClockRange{Start: start, End: end}
	return &domain.OutageWindow{Range: r, TimeRange: r.String(), Description: label, Status: domain.StatusNo}
}

func hm(h, m int) domain.ClockTime { return domain.ClockTime(h*60 + m) }

// recordingSender records messages and fails the first failures calls.
type recordingSender struct {
	mu       sync.Mutex
	ref      string
	failures int
	err      error
	sent     []Message
	calls    int
}

func (s *recordingSender) Send(_ context.Context, msg Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		if s.err != nil {
			return "", s.err
		}
		return "", errors.New("channel unavailable")
	}
	s.sent = append(s.sent, msg)
	return s.ref, nil
}

func (s *recordingSender) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
