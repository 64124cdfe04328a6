// Package payload converts cargo records to and from the canonical text that
// gets encoded into the scannable code.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"

	"cargotag/internal/cargo"
	"cargotag/internal/services"
)

// Text is the serialized payload of one cargo record.
type Text string

// Field order of these structs is the wire order.
type dimensions struct {
	Length string `json:"l"`
	Width  string `json:"w"`
	Height string `json:"h"`
	Unit   string `json:"unit"`
}

type weight struct {
	Value string `json:"val"`
	Unit  string `json:"unit"`
}

type location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Timestamp int64   `json:"ts"`
}

type document struct {
	ID          string     `json:"id"`
	Description string     `json:"desc"`
	Dimensions  dimensions `json:"dim"`
	Weight      weight     `json:"wt"`
	Notes       string     `json:"notes"`
	Location    *location  `json:"loc"`
}

// Serialize renders rec as compact JSON with a fixed key order. It never
// fails: empty fields stay empty strings and a missing or non-finite location
// becomes null.
func Serialize(rec cargo.Record) Text {
	doc := document{
		ID:          rec.ID,
		Description: rec.Description,
		Dimensions: dimensions{
			Length: rec.Length,
			Width:  rec.Width,
			Height: rec.Height,
			Unit:   rec.LengthUnit.LengthTag(),
		},
		Weight: weight{
			Value: rec.Weight,
			Unit:  rec.WeightUnit.WeightTag(),
		},
		Notes: rec.Notes,
	}
	if fix := rec.Location; fix != nil && fix.Finite() {
		doc.Location = &location{Latitude: fix.Latitude, Longitude: fix.Longitude, Timestamp: fix.Timestamp}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		// Only strings, finite floats, and integers reach the encoder.
		panic("payload: encode cargo record: " + err.Error())
	}
	return Text(bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}))
}

// Parse decodes payload text back into a record. Unknown keys and unit tags
// are rejected.
func Parse(text Text) (cargo.Record, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return cargo.Record{}, services.Wrap(services.ErrValidation, "payload", "parse", "", err)
	}
	if dec.More() {
		return cargo.Record{}, services.Wrap(services.ErrValidation, "payload", "parse", "trailing data after payload", nil)
	}

	lengthUnit, err := unitFromTag(doc.Dimensions.Unit, cargo.TagCentimeter, cargo.TagInch)
	if err != nil {
		return cargo.Record{}, services.Wrap(services.ErrValidation, "payload", "parse", "dim.unit", err)
	}
	weightUnit, err := unitFromTag(doc.Weight.Unit, cargo.TagKilogram, cargo.TagPound)
	if err != nil {
		return cargo.Record{}, services.Wrap(services.ErrValidation, "payload", "parse", "wt.unit", err)
	}

	rec := cargo.Record{
		ID:          doc.ID,
		Description: doc.Description,
		Length:      doc.Dimensions.Length,
		Width:       doc.Dimensions.Width,
		Height:      doc.Dimensions.Height,
		Weight:      doc.Weight.Value,
		LengthUnit:  lengthUnit,
		WeightUnit:  weightUnit,
		Notes:       doc.Notes,
	}
	if doc.Location != nil {
		rec.Location = &cargo.Fix{
			Latitude:  doc.Location.Latitude,
			Longitude: doc.Location.Longitude,
			Timestamp: doc.Location.Timestamp,
		}
	}
	return rec, nil
}

func unitFromTag(tag, metric, imperial string) (cargo.UnitSystem, error) {
	switch tag {
	case metric:
		return cargo.Metric, nil
	case imperial:
		return cargo.Imperial, nil
	default:
		return cargo.Metric, fmt.Errorf("unknown unit tag %q", tag)
	}
}

// Len returns the payload length in bytes, the unit code capacity is measured in.
func (t Text) Len() int {
	return len(t)
}

func (t Text) String() string {
	return string(t)
}
