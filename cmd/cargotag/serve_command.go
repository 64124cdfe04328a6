package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cargotag/internal/cargo"
	"cargotag/internal/location"
	"cargotag/internal/logging"
	"cargotag/internal/pipeline"
	"cargotag/internal/preflight"
	"cargotag/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the compositor over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			if strings.TrimSpace(bind) != "" {
				cfg.Server.Bind = strings.TrimSpace(bind)
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("--bind: %w", err)
				}
			}

			for _, r := range preflight.Failed(preflight.RunAll(cmd.Context(), cfg)) {
				logging.WarnWithContext(logger, "readiness check failed", "preflight_failed",
					logging.String("check", r.Name),
					logging.String("detail", r.Detail),
					logging.String(logging.FieldImpact, "affected feature may fail per request"),
				)
			}

			target, store, closeSink, err := ctx.deliverySink(cfg.Paths.OutputDir)
			if err != nil {
				return err
			}
			defer closeSink()

			p, err := pipeline.New(cfg, logger)
			if err != nil {
				return err
			}
			src := location.New(cfg.Location)
			srv, err := server.New(server.Options{
				Config:   cfg,
				Pipeline: p,
				Sink:     target,
				Journal:  store,
				Locate: func(ctx context.Context) *cargo.Fix {
					return location.Resolve(ctx, src, cfg.Location.Timeout(), logger)
				},
				Logger: logger,
			})
			if err != nil {
				return err
			}

			runCtx := cmd.Context()
			if err := srv.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", srv.Addr())
			<-runCtx.Done()
			srv.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override server.bind (host:port)")
	return cmd
}
