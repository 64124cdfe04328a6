package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cargotag/internal/location"
)

func newLocateCommand(ctx *commandContext) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Ask the configured location source for a fix",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := ctx.setup()
			if err != nil {
				return err
			}
			wait := cfg.Location.Timeout()
			if cmd.Flags().Changed("timeout") && timeout > 0 {
				wait = timeout
			}
			locateCtx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fix, err := location.New(cfg.Location).Locate(locateCtx)
			if err != nil {
				printLines(out, renderFailureLine("Location", err, colorize))
				return err
			}
			printLines(out,
				renderStatusLine("Location", statusOK, cfg.Location.Source, colorize),
				renderField("Latitude", fmt.Sprintf("%.6f", fix.Latitude)),
				renderField("Longitude", fmt.Sprintf("%.6f", fix.Longitude)),
				renderField("Timestamp", fmt.Sprintf("%d (%s)", fix.Timestamp, formatMillis(fix.Timestamp))),
			)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Override location.timeout_seconds")
	return cmd
}
