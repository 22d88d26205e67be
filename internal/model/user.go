package model

import (
	"errors"
	"time"
)

const (
	RoleUser      = "user"
	RolePublisher = "publisher"
)

// ErrMalformedID is returned when an account identifier is not a valid UUID.
var ErrMalformedID = errors.New("malformed account id")

// User represents an account in the system
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Mobile       string    `json:"mobile"`
	PasswordHash string    `json:"-"` // Do not expose password hash in JSON responses
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`

	ResetPasswordToken  *string    `json:"-"`
	ResetPasswordExpire *time.Time `json:"-"`

	// Version is bumped by the store on every update.
	Version int `json:"-"`

	// plaintext password waiting to be hashed by the repository
	password      string
	passwordDirty bool
}

// SetPassword stages a new plaintext password. The repository hashes it
// on the next Create or Save and clears the staged value.
func (u *User) SetPassword(plain string) {
	u.password = plain
	u.passwordDirty = true
}

// PasswordDirty reports whether a plaintext password is staged.
func (u *User) PasswordDirty() bool {
	return u.passwordDirty
}

// StagedPassword returns the staged plaintext password.
func (u *User) StagedPassword() string {
	return u.password
}

// MarkPasswordHashed stores the computed hash and forgets the plaintext.
func (u *User) MarkPasswordHashed(hash string) {
	u.PasswordHash = hash
	u.password = ""
	u.passwordDirty = false
}

// HasPendingReset reports whether a reset token pair is set.
func (u *User) HasPendingReset() bool {
	return u.ResetPasswordToken != nil && u.ResetPasswordExpire != nil
}

// ClearReset drops the reset token pair.
func (u *User) ClearReset() {
	u.ResetPasswordToken = nil
	u.ResetPasswordExpire = nil
}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	return role == RoleUser || role == RolePublisher
}
