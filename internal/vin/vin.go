package vin

import (
	"errors"
	"strings"
)

// Length is the fixed size of a vehicle identification number.
const Length = 17

var ErrInvalidFormat = errors.New("VIN must be 17 characters long")

// Normalize trims surrounding whitespace and upper-cases the submitted code.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Validate normalizes raw and accepts it iff the result is exactly 17
// characters. No charset or check-digit validation is performed; the lookup
// service is the authority on whether a VIN exists.
func Validate(raw string) (string, error) {
	v := Normalize(raw)
	if len(v) != Length {
		return "", ErrInvalidFormat
	}
	return v, nil
}
