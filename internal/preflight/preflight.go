package preflight

import (
	"context"

	"cargotag/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckFreeSpace("Output free space", cfg.Paths.OutputDir, MinFreeBytes),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}

	if cfg.Journal.Enabled {
		results = append(results, CheckJournal(ctx, cfg))
	}

	if cfg.Location.Source != config.LocationNone {
		results = append(results, CheckLocation(ctx, cfg.Location))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
