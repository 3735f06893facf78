// Package app assembles the service's components from a Config. It is shared
// by the notifier service and the outagectl CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/outage-notifier/internal/adapter/dtek"
	"github.com/couchcryptid/outage-notifier/internal/adapter/filestore"
	"github.com/couchcryptid/outage-notifier/internal/adapter/postgres"
	"github.com/couchcryptid/outage-notifier/internal/adapter/telegram"
	"github.com/couchcryptid/outage-notifier/internal/adapter/webhook"
	"github.com/couchcryptid/outage-notifier/internal/config"
	"github.com/couchcryptid/outage-notifier/internal/domain"
	"github.com/couchcryptid/outage-notifier/internal/notify"
	"github.com/couchcryptid/outage-notifier/internal/observability"
)

// StateStore is a pipeline state store that can also be reset and probed.
type StateStore interface {
	Load(ctx context.Context) (*domain.NotificationState, error)
	Save(ctx context.Context, state domain.NotificationState) error
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
}

// NewEngine builds the decision engine for the configured address.
func NewEngine(cfg *config.Config) *domain.Engine {
	return domain.NewEngine(cfg.House,
		domain.WithLocation(cfg.Location),
		domain.WithEmergencyPolicy(cfg.EmergencyPolicy),
		domain.WithMergePolicy(cfg.MergePolicy),
		domain.WithTrackerOptions(
			domain.WithResendWindow(cfg.ResendWindow),
			domain.WithEmergencyEndedNotices(cfg.EmergencyEndedNotices),
		),
	)
}

// NewFetcher builds the provider client.
func NewFetcher(cfg *config.Config, logger *slog.Logger) *dtek.Client {
	return dtek.NewClient(cfg.ProviderBaseURL, cfg.City, cfg.Street, cfg.FetchTimeout, logger,
		dtek.WithLocation(cfg.Location))
}

// OpenStore opens the configured state backend. The returned close function
// releases its resources.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (StateStore, func() error, error) {
	switch cfg.StateBackend {
	case config.BackendPostgres:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		db, err := postgres.Open(connectCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := postgres.New(db, cfg.House)
		if err := store.EnsureSchema(connectCtx); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("state backend: postgres")
		return store, db.Close, nil
	default:
		logger.Info("state backend: file", "path", cfg.StateFile)
		return filestore.New(cfg.StateFile), func() error { return nil }, nil
	}
}

// NewSender combines the configured channels behind bounded retries. With no
// channel configured, messages are only logged.
func NewSender(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) notify.Sender {
	var channels []notify.Sender
	if cfg.TelegramEnabled() {
		channels = append(channels, notify.NewRetrying(
			telegram.New(cfg.TelegramBotToken, cfg.TelegramChatID, logger,
				telegram.WithEditInPlace(cfg.TelegramEditInPlace)),
			retryOptions(cfg, logger, metrics)...))
	}
	if cfg.WebhookURL != "" {
		channels = append(channels, notify.NewRetrying(webhook.New(cfg.WebhookURL), retryOptions(cfg, logger, metrics)...))
	}
	if len(channels) == 0 {
		logger.Warn("no delivery channel configured, notifications are only logged")
		return notify.NewLogSender(logger)
	}
	if len(channels) == 1 {
		return channels[0]
	}
	return notify.NewMulti(logger, channels...)
}

func retryOptions(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) []notify.RetryOption {
	return []notify.RetryOption{
		notify.WithMaxAttempts(cfg.DeliveryMaxAttempts),
		notify.WithBackoff(cfg.DeliveryBackoff),
		notify.WithMetrics(metrics),
		notify.WithLogger(logger),
	}
}

// NewDispatcher builds the renderer and sender stack. metrics may be nil.
func NewDispatcher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*notify.Dispatcher, error) {
	renderer, err := notify.NewRenderer(cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("build renderer: %w", err)
	}
	return notify.NewDispatcher(renderer, NewSender(cfg, logger, metrics), logger), nil
}
