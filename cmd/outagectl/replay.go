package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/outage-notifier/internal/adapter/filestore"
	"github.com/couchcryptid/outage-notifier/internal/app"
	"github.com/couchcryptid/outage-notifier/internal/domain"
	"github.com/couchcryptid/outage-notifier/internal/notify"
)

type replayOutput struct {
	At         time.Time         `json:"at"`
	Inspection domain.Inspection `json:"inspection"`
	Decision   domain.Decision   `json:"decision"`
	Message    string            `json:"message,omitempty"`
}

func newReplayCmd(c *cli) *cobra.Command {
	var (
		at         string
		statePath  string
		writeState bool
		render     bool
	)
	cmd := &cobra.Command{
		Use:   "replay <document.json>",
		Short: "Evaluate a saved document at a given time and print the decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := c.document(ctx, args[0])
			if err != nil {
				return err
			}
			now, err := parseAt(at, c.cfg.Location, time.Now())
			if err != nil {
				return err
			}

			var store *filestore.Store
			var prev *domain.NotificationState
			if statePath != "" {
				store = filestore.New(statePath)
				prev, err = store.Load(ctx)
				switch {
				case errors.Is(err, domain.ErrCorruptState):
					c.logger.Warn("state file unreadable, replaying cold", "error", err)
				case err != nil:
					return err
				}
			}

			engine := app.NewEngine(c.cfg)
			insp, err := engine.Inspect(doc, now)
			if err != nil {
				return err
			}
			decision, err := engine.Evaluate(doc, now, prev)
			if err != nil {
				return err
			}
			out := replayOutput{At: now, Inspection: insp, Decision: decision}

			if render && decision.Action.Kind.Sends() {
				renderer, err := notify.NewRenderer(c.cfg.Location)
				if err != nil {
					return err
				}
				if out.Message, err = renderer.Render(decision.Action); err != nil {
					return err
				}
			}
			if writeState && store != nil && decision.Persist {
				if err := store.Save(ctx, decision.State); err != nil {
					return fmt.Errorf("write state: %w", err)
				}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "evaluation time in the configured timezone (default now)")
	cmd.Flags().StringVar(&statePath, "state", "", "state file holding the previous notification")
	cmd.Flags().BoolVar(&writeState, "write-state", false, "save the resulting state back to --state")
	cmd.Flags().BoolVar(&render, "render", false, "include the rendered message")
	return cmd
}
