// Package units provides distance unit constants, validation and conversion to meters.
package units

import (
	"errors"
	"fmt"
	"strings"
)

// Unit constants
const (
	Meters     = "m"
	Kilometers = "km"
	Miles      = "mi"
	Feet       = "ft"
)

// Default is assumed when a request leaves the unit empty.
const Default = Meters

// ValidUnits contains all valid unit values
var ValidUnits = []string{Meters, Kilometers, Miles, Feet}

// ErrInvalidUnit is returned for units outside ValidUnits.
var ErrInvalidUnit = errors.New("invalid unit")

var metersPer = map[string]float64{
	Meters:     1,
	Kilometers: 1000,
	Miles:      1609.344,
	Feet:       0.3048,
}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	_, ok := metersPer[unit]
	return ok
}

// ValidUnitsString returns a comma-separated string of valid units for error messages
func ValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// Normalize lower-cases and trims unit input, mapping empty to Default.
func Normalize(unit string) string {
	unit = strings.ToLower(strings.TrimSpace(unit))
	if unit == "" {
		return Default
	}
	return unit
}

// ToMeters converts value expressed in unit to meters.
func ToMeters(value float64, unit string) (float64, error) {
	factor, ok := metersPer[unit]
	if !ok {
		return 0, fmt.Errorf("%w %q: expected one of %s", ErrInvalidUnit, unit, ValidUnitsString())
	}
	return value * factor, nil
}

// FromMeters converts meters to unit. Unknown units return meters unchanged.
func FromMeters(meters float64, unit string) float64 {
	factor, ok := metersPer[unit]
	if !ok {
		return meters
	}
	return meters / factor
}
