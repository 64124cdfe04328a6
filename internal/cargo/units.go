package cargo

import (
	"fmt"
	"strings"
)

// UnitSystem selects metric or imperial units for a group of fields.
type UnitSystem int

const (
	Metric UnitSystem = iota
	Imperial
)

// Unit tags as they appear in payloads.
const (
	TagCentimeter = "cm"
	TagInch       = "in"
	TagKilogram   = "kg"
	TagPound      = "lb"
)

func (u UnitSystem) String() string {
	if u == Imperial {
		return "imperial"
	}
	return "metric"
}

// LengthTag resolves the unit system to its dimension tag.
func (u UnitSystem) LengthTag() string {
	if u == Imperial {
		return TagInch
	}
	return TagCentimeter
}

// WeightTag resolves the unit system to its weight tag.
func (u UnitSystem) WeightTag() string {
	if u == Imperial {
		return TagPound
	}
	return TagKilogram
}

// ParseLengthUnit accepts a dimension tag or a unit system name.
func ParseLengthUnit(value string) (UnitSystem, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", TagCentimeter, "metric":
		return Metric, nil
	case TagInch, "inch", "inches", "imperial":
		return Imperial, nil
	default:
		return Metric, fmt.Errorf("unknown length unit %q", value)
	}
}

// ParseWeightUnit accepts a weight tag or a unit system name.
func ParseWeightUnit(value string) (UnitSystem, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", TagKilogram, "metric":
		return Metric, nil
	case TagPound, "lbs", "imperial":
		return Imperial, nil
	default:
		return Metric, fmt.Errorf("unknown weight unit %q", value)
	}
}
