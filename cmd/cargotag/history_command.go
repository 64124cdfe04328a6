package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cargotag/internal/api"
	"cargotag/internal/journal"
	"cargotag/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		cargoID    string
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List delivered artifacts from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled {
				return services.Wrap(services.ErrConfiguration, "cli", "history", "journal.enabled is false", nil)
			}
			if limit <= 0 {
				return services.Wrap(services.ErrValidation, "cli", "history", "--limit must be positive", nil)
			}
			store, err := journal.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var entries []journal.Entry
			if id := strings.TrimSpace(cargoID); id != "" {
				entries, err = store.FindByCargoID(cmd.Context(), id)
				if len(entries) > limit {
					entries = entries[:limit]
				}
			} else {
				entries, err = store.List(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, api.HistoryResponse{Deliveries: api.FromEntries(entries)})
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No deliveries recorded")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10),
					orDash(e.CargoID),
					e.FileName,
					formatBytes(e.SizeBytes),
					fmt.Sprintf("%dx%d", e.Width, e.Height),
					formatTimestamp(e.DeliveredAt),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Cargo", "File", "Size", "Image", "Delivered"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "%s deliveries shown\n", formatCount(len(entries)))
			return nil
		},
	}

	cmd.Flags().StringVar(&cargoID, "cargo-id", "", "Only deliveries for this cargo id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of deliveries")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print deliveries as JSON")
	return cmd
}
