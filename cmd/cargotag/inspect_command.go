package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cargotag/internal/cargo"
	"cargotag/internal/coderender"
	"cargotag/internal/compositor"
	"cargotag/internal/config"
	"cargotag/internal/payload"
	"cargotag/internal/photo"
	"cargotag/internal/services"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var (
		imagePath  string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [payload|-]",
		Short: "Decode a payload, or the code stamped on an artifact",
		Long: `Inspect parses payload text given as an argument, read from stdin ("-"),
or scanned from an artifact with --image, and prints the record it encodes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := inspectSource(cmd, args, imagePath)
			if err != nil {
				return err
			}
			rec, err := payload.Parse(payload.Text(raw))
			if err != nil {
				return err
			}
			format := cargo.FormatYAML
			if jsonOutput {
				format = cargo.FormatJSON
			}
			data, err := cargo.Marshal(rec, format)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := out.Write(data); err != nil {
				return err
			}
			if !jsonOutput && rec.Location != nil {
				fmt.Fprintf(out, "# located at %s\n", formatMillis(rec.Location.Timestamp))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "Scan the code from an artifact image")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the record as JSON")
	return cmd
}

func inspectSource(cmd *cobra.Command, args []string, imagePath string) (string, error) {
	if strings.TrimSpace(imagePath) != "" {
		if len(args) > 0 {
			return "", services.Wrap(services.ErrValidation, "cli", "inspect", "pass either a payload or --image", nil)
		}
		return scanArtifact(imagePath)
	}
	if len(args) == 0 {
		return "", services.Wrap(services.ErrValidation, "cli", "inspect", "a payload, - or --image is required", nil)
	}
	if args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read payload from stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// scanArtifact tries the whole image first, then the region where the
// compositor places the overlay for an image of this size.
func scanArtifact(path string) (string, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(expanded); err != nil {
		return "", services.Wrap(services.ErrValidation, "cli", "inspect", expanded, err)
	}
	img, err := photo.Open(expanded)
	if err != nil {
		return "", err
	}
	if text, err := coderender.Scan(img); err == nil {
		return text, nil
	}
	b := img.Bounds()
	layout, err := compositor.ComputeLayout(b.Dx(), b.Dy())
	if err != nil {
		return "", err
	}
	return coderender.ScanRegion(img, layout.Backing.Add(b.Min))
}
