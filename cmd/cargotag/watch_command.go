package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"cargotag/internal/cargo"
	"cargotag/internal/config"
	"cargotag/internal/location"
	"cargotag/internal/logging"
	"cargotag/internal/pipeline"
	"cargotag/internal/services"
	"cargotag/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var (
		recordPath string
		photoPath  string
		output     string
		locate     bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompose whenever the record file or photo changes",
		Long: `Watch keeps the latest artifact for a record file and photo in step with
both files. Every saved change produces a new artifact in the output
directory; rapid edits are coalesced by pipeline.debounce_ms.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			if strings.TrimSpace(recordPath) == "" || strings.TrimSpace(photoPath) == "" {
				return services.Wrap(services.ErrValidation, "cli", "watch", "--record and --photo are required", nil)
			}
			record, err := config.ExpandPath(recordPath)
			if err != nil {
				return err
			}
			photo, err := config.ExpandPath(photoPath)
			if err != nil {
				return err
			}
			dir := cfg.Paths.OutputDir
			if strings.TrimSpace(output) != "" {
				if dir, err = config.ExpandPath(output); err != nil {
					return err
				}
			}

			target, _, closeSink, err := ctx.deliverySink(dir)
			if err != nil {
				return err
			}
			defer closeSink()

			p, err := pipeline.New(cfg, logger)
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			session := pipeline.NewSession(runCtx, p, cfg.Pipeline, logger)
			notifier := ctx.notifier()
			session.OnError(func(gen uint64, err error) {
				genCtx := services.WithGeneration(runCtx, gen)
				logging.WarnWithContext(logging.WithContext(genCtx, logger),
					"artifact not produced", "compose_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "previous artifact remains the latest"),
				)
				if notifyErr := notifier.NotifyError(genCtx, err, "watch"); notifyErr != nil {
					logger.Debug("error notification failed", logging.Error(notifyErr))
				}
			})

			opts := watch.Options{
				RecordPath: record,
				PhotoPath:  photo,
				OutputDir:  dir,
				Session:    session,
				Sink:       target,
				Logger:     logger,
			}
			if locate {
				src := location.New(cfg.Location)
				opts.Locate = func(ctx context.Context) *cargo.Fix {
					return location.Resolve(ctx, src, cfg.Location.Timeout(), logger)
				}
			}
			w, err := watch.New(opts)
			if err != nil {
				session.Close()
				return err
			}
			return w.Run(runCtx)
		},
	}

	cmd.Flags().StringVarP(&recordPath, "record", "r", "", "Record file to watch (.json, .yaml, .toml)")
	cmd.Flags().StringVarP(&photoPath, "photo", "p", "", "Photo file to watch")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default paths.output_dir)")
	cmd.Flags().BoolVar(&locate, "locate", false, "Attach a fix from the configured source to records without one")
	return cmd
}
