package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/outage-notifier/internal/app"
	"github.com/couchcryptid/outage-notifier/internal/notify"
)

func newSummaryCmd(c *cli) *cobra.Command {
	var (
		at   string
		send bool
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Build today's outage summary and print or send it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			doc, err := c.document(ctx, c.docPath)
			if err != nil {
				return err
			}
			now, err := parseAt(at, c.cfg.Location, time.Now())
			if err != nil {
				return err
			}
			summary, err := app.NewEngine(c.cfg).Summarize(doc, now)
			if err != nil {
				return err
			}

			if !send {
				renderer, err := notify.NewRenderer(c.cfg.Location)
				if err != nil {
					return err
				}
				text, err := renderer.RenderSummary(summary, now)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
				return err
			}

			dispatcher, err := app.NewDispatcher(c.cfg, c.logger, nil)
			if err != nil {
				return err
			}
			ref, err := dispatcher.DeliverSummary(ctx, summary, now)
			if err != nil {
				return fmt.Errorf("send summary: %w", err)
			}
			c.logger.Info("summary sent", "ref", ref, "has_outage", summary.HasOutage())
			return nil
		},
	}
	cmd.Flags().StringVar(&c.docPath, "document", "", "read the document from a file instead of fetching it")
	cmd.Flags().StringVar(&at, "at", "", "summary time in the configured timezone (default now)")
	cmd.Flags().BoolVar(&send, "send", false, "deliver through the configured channels instead of printing")
	return cmd
}
