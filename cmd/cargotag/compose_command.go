package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cargotag/internal/api"
	"cargotag/internal/config"
	"cargotag/internal/photo"
	"cargotag/internal/pipeline"
	"cargotag/internal/services"
	"cargotag/internal/sink"
)

func newComposeCommand(ctx *commandContext) *cobra.Command {
	var (
		record     recordFlags
		photoPath  string
		output     string
		jsonOutput bool
		showLayout bool
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Stamp a photo with the record's code and deliver the JPEG",
		Long: `Compose renders the record as a QR code, overlays it on the photo's
lower-right corner with the cargo id beside it, and delivers the JPEG.

--output names a directory (default paths.output_dir) or "-" for stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			rec, err := record.resolve(cmd)
			if err != nil {
				return err
			}
			if strings.TrimSpace(photoPath) == "" {
				return services.Wrap(services.ErrValidation, "cli", "compose", "--photo is required", nil)
			}
			expanded, err := config.ExpandPath(photoPath)
			if err != nil {
				return err
			}
			img, err := photo.Open(expanded)
			if err != nil {
				return err
			}

			runCtx := services.WithGeneration(cmd.Context(), 1)
			runCtx = services.WithCargoID(runCtx, rec.ID)
			rec = record.attachLocation(runCtx, cfg, rec, logger)

			p, err := pipeline.New(cfg, logger)
			if err != nil {
				return err
			}
			res, err := p.Produce(runCtx, rec, img)
			if err != nil {
				return err
			}

			toStdout := strings.TrimSpace(output) == "-"
			var target sink.Sink
			if toStdout {
				if jsonOutput {
					return services.Wrap(services.ErrValidation, "cli", "compose", "--json cannot be combined with --output -", nil)
				}
				target = sink.Writer{W: cmd.OutOrStdout()}
			} else {
				dir := cfg.Paths.OutputDir
				if strings.TrimSpace(output) != "" {
					if dir, err = config.ExpandPath(output); err != nil {
						return err
					}
				}
				var closeSink func()
				target, _, closeSink, err = ctx.deliverySink(dir)
				if err != nil {
					return err
				}
				defer closeSink()
			}

			location, err := sink.Result(runCtx, target, res)
			if err != nil {
				return err
			}
			if toStdout {
				return nil
			}
			if jsonOutput {
				return writeJSON(cmd, api.FromResult(res, location))
			}
			printComposeSummary(cmd.OutOrStdout(), res, location, showLayout, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	record.register(cmd)
	cmd.Flags().StringVarP(&photoPath, "photo", "p", "", "Base photo (JPEG, PNG, GIF, BMP, TIFF, WebP)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory, or - for stdout")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&showLayout, "layout", false, "Print the computed overlay geometry")
	return cmd
}

func printComposeSummary(out io.Writer, res *pipeline.Result, location string, showLayout, colorize bool) {
	printLines(out,
		renderStatusLine("Artifact", statusOK, location, colorize),
		renderField("Cargo", orDash(res.CargoID)),
		renderField("Payload", formatBytes(int64(res.Payload.Len()))),
		renderField("Image", fmt.Sprintf("%dx%d, %s", res.Artifact.Width, res.Artifact.Height, formatBytes(int64(res.Artifact.Size())))),
		renderField("Digest", shortDigest(res.Artifact.Digest)),
	)
	if !res.Layout.Scannable {
		printLines(out, renderStatusLine("Code", statusWarn,
			fmt.Sprintf("%dpx overlay is too small to scan", res.Layout.CodeSize), colorize))
	}
	if !showLayout {
		return
	}
	l := res.Layout
	rows := [][]string{
		{"code", strconv.Itoa(l.Code.Min.X), strconv.Itoa(l.Code.Min.Y), strconv.Itoa(l.Code.Dx()), strconv.Itoa(l.Code.Dy())},
		{"backing", strconv.Itoa(l.Backing.Min.X), strconv.Itoa(l.Backing.Min.Y), strconv.Itoa(l.Backing.Dx()), strconv.Itoa(l.Backing.Dy())},
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable([]string{"Region", "X", "Y", "Width", "Height"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight}))
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
