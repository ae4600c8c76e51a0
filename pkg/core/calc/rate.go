// Package calc provides the deterministic arithmetic shared by the projection engine:
// typed rates, compound growth, loan payments and discounting.
package calc

import (
	"encoding/json"
	"fmt"
	"math"
)

// Rate is an annual rate held as a decimal fraction (0.065 == 6.5%).
//
// Users and the JSON/YAML boundary speak percentage points; inside the engine
// only Decimal() is ever multiplied into money.
type Rate float64

// Pct builds a Rate from percentage points, e.g. Pct(6.5).
func Pct(points float64) Rate {
	return Rate(points / 100)
}

// Decimal builds a Rate from a decimal fraction, e.g. Decimal(0.065).
func Decimal(fraction float64) Rate {
	return Rate(fraction)
}

// Decimal returns the rate as a fraction.
func (r Rate) Decimal() float64 {
	return float64(r)
}

// Points returns the rate in percentage points.
func (r Rate) Points() float64 {
	return float64(r) * 100
}

// IsZero reports whether the rate is exactly zero.
func (r Rate) IsZero() bool {
	return r == 0
}

func (r Rate) String() string {
	return fmt.Sprintf("%g%%", roundPoints(r.Points()))
}

// MarshalJSON emits percentage points.
func (r Rate) MarshalJSON() ([]byte, error) {
	p := r.Points()
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return []byte("0"), nil
	}
	return json.Marshal(roundPoints(p))
}

// UnmarshalJSON reads percentage points.
func (r *Rate) UnmarshalJSON(data []byte) error {
	var points float64
	if err := json.Unmarshal(data, &points); err != nil {
		return fmt.Errorf("rate must be a number of percentage points: %w", err)
	}
	*r = Pct(points)
	return nil
}

// UnmarshalYAML reads percentage points (gopkg.in/yaml.v2 unmarshaler).
func (r *Rate) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var points float64
	if err := unmarshal(&points); err != nil {
		return fmt.Errorf("rate must be a number of percentage points: %w", err)
	}
	*r = Pct(points)
	return nil
}

// MarshalYAML emits percentage points.
func (r Rate) MarshalYAML() (interface{}, error) {
	return roundPoints(r.Points()), nil
}

// roundPoints trims float noise such as 7.000000000000001.
func roundPoints(p float64) float64 {
	return math.Round(p*1e9) / 1e9
}
