package util

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-extras/go-kit/must"
)

var emailRegexp = must.Must(regexp.Compile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`))

// IsValidEmail does a rough syntax check.
func IsValidEmail(email string) bool {
	return emailRegexp.MatchString(email)
}

// ValidatePassword returns a list of problems. An empty list means the password is fine.
func ValidatePassword(password string) []string {

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(`!@#$%^&*(),.?":{}|<>`, r):
			hasSpecial = true
		}
	}

	var problems []string
	if len([]rune(password)) < 8 {
		problems = append(problems, "password must have at least 8 characters")
	}
	if !hasUpper {
		problems = append(problems, "password must contain an upper case letter")
	}
	if !hasLower {
		problems = append(problems, "password must contain a lower case letter")
	}
	if !hasDigit {
		problems = append(problems, "password must contain a digit")
	}
	if !hasSpecial {
		problems = append(problems, "password must contain a special character")
	}
	return problems
}

// Trunc truncates the input string to a specific length, appending "..." if something was cut off.
// It is UTF8-safe, but does not care for HTML.
func Trunc(s string, maxRunes int) string {
	s = strings.TrimSpace(s)
	var runes = 0
	for i := range s {
		if runes == maxRunes {
			return strings.TrimSpace(s[:i]) + "..." // trim spaces again
		}
		runes++
	}
	return s
}
