package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cargotag/internal/coderender"
	"cargotag/internal/payload"
)

func newPayloadCommand(ctx *commandContext) *cobra.Command {
	var (
		record recordFlags
		check  bool
	)

	cmd := &cobra.Command{
		Use:   "payload",
		Short: "Print the payload text encoded for a record",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			rec, err := record.resolve(cmd)
			if err != nil {
				return err
			}
			rec = record.attachLocation(cmd.Context(), cfg, rec, logger)
			text := payload.Serialize(rec)

			if check {
				level, err := coderender.ParseLevel(cfg.Render.ErrorCorrection)
				if err != nil {
					return err
				}
				if _, err := coderender.NewQR(level).Render(cmd.Context(), text.String(), cfg.Render.CodeSize); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), text.String())
			return nil
		},
	}

	record.register(cmd)
	cmd.Flags().BoolVar(&check, "check", false, "Fail unless the payload fits a code at render.error_correction")
	return cmd
}
