package cargo

import (
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"
)

// ErrInvalidText marks a text field that is not valid UTF-8. Payload text
// must carry every field byte for byte, so such input is refused up front.
var ErrInvalidText = errors.New("text is not valid UTF-8")

// Fix is a complete location reading. Timestamp is milliseconds since the
// Unix epoch as reported by the location source.
type Fix struct {
	Latitude  float64
	Longitude float64
	Timestamp int64
}

// Time converts the fix timestamp to a time.Time in UTC.
func (f Fix) Time() time.Time {
	return time.UnixMilli(f.Timestamp).UTC()
}

// Finite reports whether both coordinates are finite numbers.
func (f Fix) Finite() bool {
	return !math.IsNaN(f.Latitude) && !math.IsInf(f.Latitude, 0) &&
		!math.IsNaN(f.Longitude) && !math.IsInf(f.Longitude, 0)
}

// Record is one cargo entry. Numeric fields stay text so that whatever the
// user typed survives serialization unchanged.
type Record struct {
	ID          string
	Description string
	Length      string
	Width       string
	Height      string
	Weight      string
	LengthUnit  UnitSystem
	WeightUnit  UnitSystem
	Notes       string
	Location    *Fix
}

// NewRecord returns an empty record with metric units and no location.
func NewRecord() Record {
	return Record{LengthUnit: Metric, WeightUnit: Metric}
}

// CheckText reports the first text field that is not valid UTF-8.
func (r Record) CheckText() error {
	fields := [...]struct {
		name  string
		value string
	}{
		{"id", r.ID},
		{"description", r.Description},
		{"length", r.Length},
		{"width", r.Width},
		{"height", r.Height},
		{"weight", r.Weight},
		{"notes", r.Notes},
	}
	for _, f := range fields {
		if !utf8.ValidString(f.value) {
			return fmt.Errorf("%s: %w", f.name, ErrInvalidText)
		}
	}
	return nil
}

// Clone returns a deep copy whose location does not alias r's.
func (r Record) Clone() Record {
	out := r
	if r.Location != nil {
		fix := *r.Location
		out.Location = &fix
	}
	return out
}

// WithLocation returns a copy of r carrying fix.
func (r Record) WithLocation(fix Fix) Record {
	out := r.Clone()
	out.Location = &fix
	return out
}

// WithoutLocation returns a copy of r with the location cleared.
func (r Record) WithoutLocation() Record {
	out := r
	out.Location = nil
	return out
}

// Equal reports whether two records carry identical values.
func (r Record) Equal(other Record) bool {
	if r.ID != other.ID || r.Description != other.Description ||
		r.Length != other.Length || r.Width != other.Width || r.Height != other.Height ||
		r.Weight != other.Weight || r.LengthUnit != other.LengthUnit ||
		r.WeightUnit != other.WeightUnit || r.Notes != other.Notes {
		return false
	}
	switch {
	case r.Location == nil && other.Location == nil:
		return true
	case r.Location == nil || other.Location == nil:
		return false
	default:
		return *r.Location == *other.Location
	}
}
