package validation

import "regexp"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidPassword enforces the signup password policy: at least 10
// characters with one lowercase letter, one uppercase letter, one digit
// and one non-alphanumeric character.
func ValidPassword(password string) bool {
	if len(password) < 10 {
		return false
	}

	var lower, upper, digit, symbol bool

	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}

	return lower && upper && digit && symbol
}

// ValidEmail is a minimal local-part@domain.tld shape check. Real
// deliverability is settled by the verification email, not here.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
