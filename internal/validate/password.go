package validate

import (
	"fmt"
	"strings"
	"unicode"
)

const minPasswordLength = 8

// PasswordRule checks one policy predicate. identity carries the
// account attributes (email, username, names) a password must not
// resemble. An empty return means the rule passed.
type PasswordRule func(password string, identity []string) string

// PasswordRules is applied in order; every violation is reported, not
// just the first.
var PasswordRules = []PasswordRule{
	minimumLength,
	attributeSimilarity,
	commonPassword,
	notAllNumeric,
}

// CheckPassword runs the full policy and returns all violations.
func CheckPassword(password string, identity ...string) []string {
	var violations []string
	for _, rule := range PasswordRules {
		if msg := rule(password, identity); msg != "" {
			violations = append(violations, msg)
		}
	}
	return violations
}

func minimumLength(password string, _ []string) string {
	if len(password) < minPasswordLength {
		return fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLength)
	}
	return ""
}

// maxSimilarity is the ratio at which a password is considered too
// close to an identity attribute. A shared fragment alone (a surname
// inside a longer password) stays under it.
const maxSimilarity = 0.7

func attributeSimilarity(password string, identity []string) string {
	lowered := strings.ToLower(password)
	for _, attr := range identity {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if attr == "" {
			continue
		}
		// Compare against the whole attribute and each of its word
		// parts, so "jane.doe@example.com" also contributes "jane",
		// "doe" and "example".
		for _, part := range append(splitWords(attr), attr) {
			if part == "" {
				continue
			}
			if similarityRatio(lowered, part) >= maxSimilarity {
				return "The password is too similar to your personal information."
			}
		}
	}
	return ""
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// similarityRatio scores two strings as 2*M/T, where M is the length
// of their longest common subsequence and T the combined length:
// 1.0 for identical strings, 0.0 for disjoint ones.
func similarityRatio(a, b string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return float64(2*prev[len(b)]) / float64(len(a)+len(b))
}

func commonPassword(password string, _ []string) string {
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		return "This password is too common."
	}
	return ""
}

func notAllNumeric(password string, _ []string) string {
	if password == "" {
		return ""
	}
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return ""
		}
	}
	return "This password is entirely numeric."
}

// A small slice of the usual suspects; the point is rejecting the
// passwords people actually type, not exhaustiveness.
var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"passw0rd":    {},
	"12345678":    {},
	"123456789":   {},
	"1234567890":  {},
	"qwerty123":   {},
	"qwertyuiop":  {},
	"letmein1":    {},
	"iloveyou":    {},
	"sunshine":    {},
	"football":    {},
	"baseball":    {},
	"superman":    {},
	"trustno1":    {},
	"welcome1":    {},
	"admin123":    {},
	"abc12345":    {},
	"monkey123":   {},
	"dragon123":   {},
	"master123":   {},
	"shadow123":   {},
	"michael1":    {},
	"jennifer":    {},
	"computer":    {},
	"princess":    {},
	"starwars":    {},
	"whatever":    {},
	"changeme":    {},
}
