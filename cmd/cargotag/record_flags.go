package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"cargotag/internal/cargo"
	"cargotag/internal/config"
	"cargotag/internal/location"
	"cargotag/internal/services"
)

// recordFlags builds a cargo record from an optional record file overlaid
// with individual field flags.
type recordFlags struct {
	file           string
	id             string
	description    string
	length         string
	width          string
	height         string
	weight         string
	notes          string
	imperialLength bool
	imperialWeight bool
	latitude       float64
	longitude      float64
	timestamp      int64
	locate         bool
}

func (f *recordFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.file, "record", "r", "", "Record file (.json, .yaml, .toml)")
	flags.StringVar(&f.id, "id", "", "Cargo identifier")
	flags.StringVar(&f.description, "description", "", "Free-form description")
	flags.StringVar(&f.length, "length", "", "Length as typed")
	flags.StringVar(&f.width, "width", "", "Width as typed")
	flags.StringVar(&f.height, "height", "", "Height as typed")
	flags.StringVar(&f.weight, "weight", "", "Weight as typed")
	flags.StringVar(&f.notes, "notes", "", "Free-form notes")
	flags.BoolVar(&f.imperialLength, "imperial-length", false, "Dimensions are in inches instead of centimetres")
	flags.BoolVar(&f.imperialWeight, "imperial-weight", false, "Weight is in pounds instead of kilograms")
	flags.Float64Var(&f.latitude, "lat", 0, "Latitude in degrees (requires --lng and --ts)")
	flags.Float64Var(&f.longitude, "lng", 0, "Longitude in degrees (requires --lat and --ts)")
	flags.Int64Var(&f.timestamp, "ts", 0, "Fix time in Unix milliseconds (requires --lat and --lng)")
	flags.BoolVar(&f.locate, "locate", false, "Ask the configured location source when the record has no location")
}

// resolve loads the record file, if any, and applies every flag the user set.
func (f *recordFlags) resolve(cmd *cobra.Command) (cargo.Record, error) {
	rec := cargo.NewRecord()
	if path := strings.TrimSpace(f.file); path != "" {
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return cargo.Record{}, err
		}
		loaded, err := cargo.LoadFile(expanded)
		if err != nil {
			return cargo.Record{}, err
		}
		rec = loaded
	}

	flags := cmd.Flags()
	text := []struct {
		name   string
		target *string
		value  string
	}{
		{"id", &rec.ID, f.id},
		{"description", &rec.Description, f.description},
		{"length", &rec.Length, f.length},
		{"width", &rec.Width, f.width},
		{"height", &rec.Height, f.height},
		{"weight", &rec.Weight, f.weight},
		{"notes", &rec.Notes, f.notes},
	}
	for _, field := range text {
		if flags.Changed(field.name) {
			*field.target = field.value
		}
	}
	if flags.Changed("imperial-length") {
		rec.LengthUnit = unitSystem(f.imperialLength)
	}
	if flags.Changed("imperial-weight") {
		rec.WeightUnit = unitSystem(f.imperialWeight)
	}

	set := 0
	for _, name := range []string{"lat", "lng", "ts"} {
		if flags.Changed(name) {
			set++
		}
	}
	switch set {
	case 0:
	case 3:
		rec.Location = &cargo.Fix{Latitude: f.latitude, Longitude: f.longitude, Timestamp: f.timestamp}
	default:
		return cargo.Record{}, services.Wrap(services.ErrValidation, "cli", "record", "--lat, --lng and --ts", cargo.ErrPartialLocation)
	}
	if err := rec.CheckText(); err != nil {
		return cargo.Record{}, services.Wrap(services.ErrValidation, "cli", "record", "record text", err)
	}
	return rec, nil
}

// attachLocation fills in a fix from the configured source when --locate was
// given and the record has none. Failures leave the location null.
func (f *recordFlags) attachLocation(ctx context.Context, cfg *config.Config, rec cargo.Record, logger *slog.Logger) cargo.Record {
	if !f.locate || rec.Location != nil {
		return rec
	}
	if fix := location.Resolve(ctx, location.New(cfg.Location), cfg.Location.Timeout(), logger); fix != nil {
		return rec.WithLocation(*fix)
	}
	return rec
}

func unitSystem(imperial bool) cargo.UnitSystem {
	if imperial {
		return cargo.Imperial
	}
	return cargo.Metric
}
