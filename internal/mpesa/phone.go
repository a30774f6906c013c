package mpesa

import (
	"errors"
	"strings"
)

// ErrInvalidPhone is returned when a phone number cannot be normalized
var ErrInvalidPhone = errors.New("invalid phone number format")

// NormalizePhone converts a Kenyan mobile number to the 12-digit 254 form
// the Daraja API expects. Accepted inputs after stripping non-digits:
// 10 digits starting "07", 9 digits starting "7", or 12 digits already
// starting "254".
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	clean := b.String()

	switch {
	case len(clean) == 10 && strings.HasPrefix(clean, "07"):
		return "254" + clean[1:], nil
	case len(clean) == 9 && strings.HasPrefix(clean, "7"):
		return "254" + clean, nil
	case len(clean) == 12 && strings.HasPrefix(clean, "254"):
		return clean, nil
	default:
		return "", ErrInvalidPhone
	}
}
