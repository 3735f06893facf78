package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/outage-notifier/internal/adapter/filestore"
	"github.com/couchcryptid/outage-notifier/internal/config"
	"github.com/couchcryptid/outage-notifier/internal/domain"
	"github.com/couchcryptid/outage-notifier/internal/notify"
	"github.com/couchcryptid/outage-notifier/internal/observability"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Kyiv")
	require.NoError(t, err)
	return &config.Config{
		House:               "12",
		Location:            loc,
		MergePolicy:         domain.MergeBoundary,
		EmergencyPolicy:     domain.FieldsPolicy{},
		ResendWindow:        domain.DefaultResendWindow,
		StateBackend:        config.BackendFile,
		StateFile:           filepath.Join(t.TempDir(), "state.json"),
		DeliveryMaxAttempts: 2,
		DeliveryBackoff:     time.Millisecond,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewEngine(t *testing.T) {
	cfg := testConfig(t)
	e := NewEngine(cfg)
	assert.Equal(t, "12", e.AddressKey())
	assert.Equal(t, cfg.Location, e.Location())
}

func TestOpenStore_File(t *testing.T) {
	cfg := testConfig(t)
	store, closeFn, err := OpenStore(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	defer closeFn() //nolint:errcheck // no-op for the file backend

	fs, ok := store.(*filestore.Store)
	require.True(t, ok)
	assert.Equal(t, cfg.StateFile, fs.Path())
}

func TestNewSender(t *testing.T) {
	metrics := observability.NewMetricsForTesting()

	t.Run("no channels logs only", func(t *testing.T) {
		s := NewSender(testConfig(t), discardLogger(), metrics)
		assert.IsType(t, &notify.LogSender{}, s)
	})

	t.Run("single channel is retried", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.WebhookURL = "http://127.0.0.1:1/hook"
		s := NewSender(cfg, discardLogger(), metrics)
		assert.IsType(t, &notify.Retrying{}, s)
	})

	t.Run("several channels fan out", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.WebhookURL = "http://127.0.0.1:1/hook"
		cfg.TelegramBotToken = "token"
		cfg.TelegramChatID = "-100"
		s := NewSender(cfg, discardLogger(), metrics)
		multi, ok := s.(*notify.Multi)
		require.True(t, ok)
		assert.Equal(t, 2, multi.Len())
	})
}

func TestNewDispatcher(t *testing.T) {
	d, err := NewDispatcher(testConfig(t), discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)
	assert.NotNil(t, d)
}
