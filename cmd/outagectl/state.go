package main

import (
	"github.com/spf13/cobra"

	"github.com/couchcryptid/outage-notifier/internal/app"
)

func newStateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset the stored notification state",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the stored state as JSON",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, closeFn, err := app.OpenStore(cmd.Context(), c.cfg, c.logger)
				if err != nil {
					return err
				}
				defer closeFn() //nolint:errcheck // read-only use
				st, err := store.Load(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), st)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete the stored state so the next cycle starts cold",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, closeFn, err := app.OpenStore(cmd.Context(), c.cfg, c.logger)
				if err != nil {
					return err
				}
				defer closeFn() //nolint:errcheck // best effort
				if err := store.Clear(cmd.Context()); err != nil {
					return err
				}
				c.logger.Info("state cleared", "backend", c.cfg.StateBackend)
				return nil
			},
		},
	)
	return cmd
}
