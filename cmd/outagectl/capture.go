package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/outage-notifier/internal/app"
)

func newCaptureCmd(c *cli) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Fetch the provider document and save it as a fixture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := app.NewFetcher(c.cfg, c.logger).FetchRaw(cmd.Context())
			if err != nil {
				return err
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, raw, "", "  "); err != nil {
				return fmt.Errorf("provider returned invalid JSON: %w", err)
			}
			pretty.WriteByte('\n')

			if out == "" {
				_, err = cmd.OutOrStdout().Write(pretty.Bytes())
				return err
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(out, pretty.Bytes(), 0o644); err != nil {
				return err
			}
			c.logger.Info("document captured", "path", out, "bytes", pretty.Len())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
