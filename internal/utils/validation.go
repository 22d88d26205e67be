package utils

import (
	"regexp"
	"unicode/utf8"
)

// Password length bounds. bcrypt rejects input longer than MaxPasswordBytes.
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
)

var (
	emailRegex       = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,})+$`)
	nonAlphanumRegex = regexp.MustCompile(`[^A-Za-z0-9]`)
	digitRegex       = regexp.MustCompile(`[0-9]`)
	upperRegex       = regexp.MustCompile(`[A-Z]`)
	lowerRegex       = regexp.MustCompile(`[a-z]`)
)

// IsPasswordAllowed reports whether password is at least 8 characters and at
// most 72 bytes long and contains a non-alphanumeric character, a digit, an
// uppercase and a lowercase letter.
func IsPasswordAllowed(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength &&
		len(password) <= MaxPasswordBytes &&
		nonAlphanumRegex.MatchString(password) &&
		digitRegex.MatchString(password) &&
		upperRegex.MatchString(password) &&
		lowerRegex.MatchString(password)
}

// IsEmailAllowed reports whether email has a local@domain.tld shape
func IsEmailAllowed(email string) bool {
	return emailRegex.MatchString(email)
}
