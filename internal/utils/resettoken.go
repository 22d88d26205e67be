package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Reset token configuration
const (
	ResetTokenBytes  = 20
	ResetTokenExpiry = 10 * time.Minute
)

// ResetStatus is the outcome of checking a presented reset token
type ResetStatus int

const (
	ResetOK ResetStatus = iota
	ResetExpired
	ResetInvalid
	ResetNotFound
)

func (s ResetStatus) String() string {
	switch s {
	case ResetOK:
		return "ok"
	case ResetExpired:
		return "expired"
	case ResetNotFound:
		return "not-found"
	default:
		return "invalid"
	}
}

// GenerateResetToken creates a random hex token and its SHA-256 hash.
// The raw token goes to the account holder; only the hash is stored.
func GenerateResetToken() (token, hash string, err error) {
	b := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	token = hex.EncodeToString(b)
	return token, HashResetToken(token), nil
}

// HashResetToken returns the hex SHA-256 digest of token
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ResetExpiry returns the expiry for a token issued at now
func ResetExpiry(now time.Time) time.Time {
	return now.Add(ResetTokenExpiry)
}

// CheckResetExpiry classifies a stored expiry relative to now
func CheckResetExpiry(expire *time.Time, now time.Time) ResetStatus {
	if expire == nil {
		return ResetNotFound
	}
	if !expire.After(now) {
		return ResetExpired
	}
	return ResetOK
}
