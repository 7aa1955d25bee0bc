package utils

import (
	"errors"
	"strings"
)

var ErrInvalidPhone = errors.New("phone number must have 10 digits")

// NormalizePhone strips formatting and an Indian country code, leaving 10 digits.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		digits = digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return "", ErrInvalidPhone
	}
	return digits, nil
}
