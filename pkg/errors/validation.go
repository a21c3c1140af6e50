package errors

import (
	"math"
	"strconv"
	"strings"
)

// MaxChord is the highest valid chord index on a four-chord truss.
const MaxChord = 3

// ParseCoordinate parses a coordinate typed into a numeric field.
// Surrounding whitespace is ignored and a decimal comma is accepted.
// Non-numeric or non-finite input returns an INVALID_INPUT error so the
// caller can keep the previous value.
func ParseCoordinate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, New(ErrCodeInvalidInput, "coordinate cannot be empty")
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, New(ErrCodeInvalidInput, "coordinate %q is not a number", s)
	}
	if err := ValidateFinite("coordinate", v); err != nil {
		return 0, err
	}
	return v, nil
}

// ParseMass parses a load mass in kilograms.
func ParseMass(s string) (float64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, New(ErrCodeInvalidInput, "mass %q is not a number", s)
	}
	if err := ValidateMass(v); err != nil {
		return 0, err
	}
	return v, nil
}

// ValidateFinite rejects NaN and infinite values.
func ValidateFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidInput, "%s must be finite, got %v", name, v)
	}
	return nil
}

// ValidateVec rejects a position with any non-finite component.
func ValidateVec(x, y, z float64) error {
	for _, c := range []struct {
		name string
		v    float64
	}{{"x", x}, {"y", y}, {"z", z}} {
		if err := ValidateFinite(c.name, c.v); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMass validates a payload mass in kilograms.
// Zero is allowed (truss self-weight only); negative masses are rejected.
func ValidateMass(m float64) error {
	if err := ValidateFinite("mass", m); err != nil {
		return err
	}
	if m < 0 {
		return New(ErrCodeInvalidInput, "mass cannot be negative, got %g", m)
	}
	return nil
}

// ValidateChord validates a chord index.
func ValidateChord(chord int) error {
	if chord < 0 || chord > MaxChord {
		return New(ErrCodeInvalidChord, "chord %d out of range (0..%d)", chord, MaxChord)
	}
	return nil
}

// ValidatePositive validates a strictly positive, finite dimension such as a
// truss length or the gravitational constant.
func ValidatePositive(name string, v float64) error {
	if err := ValidateFinite(name, v); err != nil {
		return New(ErrCodeInvalidConfig, "%s must be finite", name)
	}
	if v <= 0 {
		return New(ErrCodeInvalidConfig, "%s must be positive, got %g", name, v)
	}
	return nil
}
