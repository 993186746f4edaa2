package utils

import (
	"errors"
	"strings"
)

var ErrBadPhone = errors.New("phone number must be 10 digits, or 11 digits starting with 7 or 8")

// NormalizePhone strips everything but digits and canonicalizes Russian
// numbers: 10 digits pass through, 11 digits with a leading 7 or 8 become
// 7XXXXXXXXXX. An empty input stays empty (the field is optional).
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case digits == "":
		return "", nil
	case len(digits) == 10:
		return digits, nil
	case len(digits) == 11 && (digits[0] == '7' || digits[0] == '8'):
		return "7" + digits[1:], nil
	default:
		return "", ErrBadPhone
	}
}
