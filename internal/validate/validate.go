// Package validate carries the field checks applied at registration and
// password change: an ordered password policy plus the loose formats
// accepted for phone numbers, emails and dates.
package validate

import (
	"regexp"
	"strings"
	"time"
)

// Errors collects field-scoped validation messages, serialized as the
// body of a 400 response.
type Errors map[string][]string

func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

func (e Errors) HasErrors() bool {
	return len(e) > 0
}

var (
	// Up to 15 digits, optional leading +.
	phonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ParseDate accepts ISO dates (YYYY-MM-DD).
func ParseDate(value string) (time.Time, bool) {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// NormalizeIdentifier lowercases and trims emails and usernames so
// uniqueness is case-insensitive.
func NormalizeIdentifier(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
