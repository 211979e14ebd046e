// Package lookup resolves postal codes to street-level address fields.
package lookup

import (
	"errors"

	dErrors "vitrine/pkg/domain-errors"
	pkgstrings "vitrine/pkg/platform/strings"
)

// PostalCodeDigits is the length of a normalized postal code.
const PostalCodeDigits = 8

var (
	ErrPostalCodeNotFound  = errors.New("postal code not found")
	ErrMalformedPostalCode = errors.New("postal code must have 8 digits")
)

// Address holds the fields a postal code lookup can fill. Number and
// complement are never part of a lookup.
type Address struct {
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// NormalizePostalCode strips everything but digits and requires exactly eight.
func NormalizePostalCode(raw string) (string, error) {
	code := pkgstrings.DigitsOnly(raw)
	if len(code) != PostalCodeDigits {
		return "", dErrors.Wrap(ErrMalformedPostalCode, dErrors.CodeValidation, "postal code must have 8 digits")
	}
	return code, nil
}
