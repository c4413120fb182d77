package validate

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidPhone = errors.New("invalid Indian mobile number")

	nonDigits   = regexp.MustCompile(`\D`)
	indianPhone = regexp.MustCompile(`^\+91[6-9][0-9]{9}$`)
)

// NormalizePhoneIndia maps user input to canonical +91XXXXXXXXXX form.
// Accepted inputs: a bare 10-digit mobile, 91XXXXXXXXXX, or the canonical
// form itself. Indian mobiles start with 6-9.
func NormalizePhoneIndia(input string) (string, error) {
	digits := nonDigits.ReplaceAllString(strings.TrimSpace(input), "")
	switch {
	case len(digits) == 10:
		digits = "+91" + digits
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		digits = "+" + digits
	default:
		return "", ErrInvalidPhone
	}
	if !indianPhone.MatchString(digits) {
		return "", ErrInvalidPhone
	}
	return digits, nil
}
