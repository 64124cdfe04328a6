package cargo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
	"gopkg.in/yaml.v3"

	"cargotag/internal/services"
)

// ErrPartialLocation is returned when a record file sets only some of the
// location keys.
var ErrPartialLocation = errors.New("location requires latitude, longitude, and timestamp together")

// Format names a record file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath infers the encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported record file extension %q", filepath.Ext(path))
	}
}

// text accepts either a quoted string or a bare number so record files can
// write `length = 10` or `length = "10"`.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*t = text(n.String())
	return nil
}

func (t *text) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected scalar value", node.Line)
	}
	if node.Tag == "!!null" {
		*t = ""
		return nil
	}
	*t = text(node.Value)
	return nil
}

// UnmarshalTOML keeps the value as written. Bare numbers keep their
// original spelling, so `length = 10.50` stays "10.50".
func (t *text) UnmarshalTOML(node *unstable.Node) error {
	switch node.Kind {
	case unstable.String, unstable.Integer, unstable.Float:
		*t = text(node.Data)
		return nil
	default:
		return fmt.Errorf("expected string or number, got %s", node.Kind)
	}
}

type fileLocation struct {
	Latitude  *float64 `json:"latitude" yaml:"latitude" toml:"latitude"`
	Longitude *float64 `json:"longitude" yaml:"longitude" toml:"longitude"`
	Timestamp *int64   `json:"timestamp" yaml:"timestamp" toml:"timestamp"`
}

type fileRecord struct {
	ID          text          `json:"id" yaml:"id" toml:"id"`
	Description text          `json:"description" yaml:"description" toml:"description"`
	Length      text          `json:"length" yaml:"length" toml:"length"`
	Width       text          `json:"width" yaml:"width" toml:"width"`
	Height      text          `json:"height" yaml:"height" toml:"height"`
	Weight      text          `json:"weight" yaml:"weight" toml:"weight"`
	LengthUnit  string        `json:"length_unit" yaml:"length_unit" toml:"length_unit"`
	WeightUnit  string        `json:"weight_unit" yaml:"weight_unit" toml:"weight_unit"`
	Notes       text          `json:"notes" yaml:"notes" toml:"notes"`
	Location    *fileLocation `json:"location,omitempty" yaml:"location,omitempty" toml:"location,omitempty"`
}

// LoadFile reads a record file, choosing the decoder from its extension.
func LoadFile(path string) (Record, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Record{}, services.Wrap(services.ErrValidation, "cargo", "load", path, err)
	}
	file, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("open record file: %w", err)
	}
	defer file.Close()
	return Decode(file, format)
}

// Decode parses a record from r in the given format.
func Decode(r io.Reader, format Format) (Record, error) {
	var raw fileRecord
	var err error
	switch format {
	case FormatJSON:
		err = decodeJSON(r, &raw)
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	case FormatTOML:
		err = decodeTOML(r, &raw)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return Record{}, services.Wrap(services.ErrValidation, "cargo", "decode", string(format), err)
	}
	return raw.record()
}

// decodeJSON checks the encoding first; encoding/json would otherwise turn
// invalid bytes into U+FFFD without complaint.
func decodeJSON(r io.Reader, raw *fileRecord) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if !utf8.Valid(data) {
		return ErrInvalidText
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(raw)
}

func decodeTOML(r io.Reader, raw *fileRecord) error {
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	dec.EnableUnmarshalerInterface()
	return dec.Decode(raw)
}

func (f fileRecord) record() (Record, error) {
	lengthUnit, err := ParseLengthUnit(f.LengthUnit)
	if err != nil {
		return Record{}, services.Wrap(services.ErrValidation, "cargo", "decode", "length_unit", err)
	}
	weightUnit, err := ParseWeightUnit(f.WeightUnit)
	if err != nil {
		return Record{}, services.Wrap(services.ErrValidation, "cargo", "decode", "weight_unit", err)
	}
	rec := Record{
		ID:          string(f.ID),
		Description: string(f.Description),
		Length:      string(f.Length),
		Width:       string(f.Width),
		Height:      string(f.Height),
		Weight:      string(f.Weight),
		LengthUnit:  lengthUnit,
		WeightUnit:  weightUnit,
		Notes:       string(f.Notes),
	}
	if loc := f.Location; loc != nil {
		set := 0
		for _, present := range []bool{loc.Latitude != nil, loc.Longitude != nil, loc.Timestamp != nil} {
			if present {
				set++
			}
		}
		switch set {
		case 0:
		case 3:
			rec.Location = &Fix{Latitude: *loc.Latitude, Longitude: *loc.Longitude, Timestamp: *loc.Timestamp}
		default:
			return Record{}, services.Wrap(services.ErrValidation, "cargo", "decode", "location", ErrPartialLocation)
		}
	}
	if err := rec.CheckText(); err != nil {
		return Record{}, services.Wrap(services.ErrValidation, "cargo", "decode", "text", err)
	}
	return rec, nil
}

// Marshal writes rec in the record file layout for format.
func Marshal(rec Record, format Format) ([]byte, error) {
	raw := fileRecord{
		ID:          text(rec.ID),
		Description: text(rec.Description),
		Length:      text(rec.Length),
		Width:       text(rec.Width),
		Height:      text(rec.Height),
		Weight:      text(rec.Weight),
		LengthUnit:  rec.LengthUnit.LengthTag(),
		WeightUnit:  rec.WeightUnit.WeightTag(),
		Notes:       text(rec.Notes),
	}
	if fix := rec.Location; fix != nil {
		lat, lng, ts := fix.Latitude, fix.Longitude, fix.Timestamp
		raw.Location = &fileLocation{Latitude: &lat, Longitude: &lng, Timestamp: &ts}
	}
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(raw, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML:
		return yaml.Marshal(raw)
	case FormatTOML:
		return toml.Marshal(raw)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
