package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/outage-notifier/internal/app"
	"github.com/couchcryptid/outage-notifier/internal/config"
	"github.com/couchcryptid/outage-notifier/internal/domain"
	"github.com/couchcryptid/outage-notifier/internal/observability"
)

// cli carries what every subcommand needs once configuration is loaded.
type cli struct {
	cfg      *config.Config
	logger   *slog.Logger
	logLevel string
	docPath  string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "outagectl",
		Short:         "Operate the power outage notifier",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.cfg = cfg
			level := c.logLevel
			if level == "" {
				level = cfg.LogLevel
			}
			c.logger = observability.NewLoggerTo(cmd.ErrOrStderr(), level, "text")
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (defaults to LOG_LEVEL)")

	root.AddCommand(
		newCaptureCmd(c),
		newReplayCmd(c),
		newSummaryCmd(c),
		newStateCmd(c),
	)
	return root
}

// document reads the document at path, or fetches a live one when path is
// empty.
func (c *cli) document(ctx context.Context, path string) (*domain.RawDocument, error) {
	if path == "" {
		return app.NewFetcher(c.cfg, c.logger).Fetch(ctx)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return domain.ParseDocument(data)
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// parseAt interprets s in loc. Empty means now.
func parseAt(s string, loc *time.Location, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.In(loc), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: want RFC3339 or \"YYYY-MM-DD HH:MM\"", s)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
