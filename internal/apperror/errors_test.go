package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Body(t *testing.T) {
	plain := NewUnauthorized("INVALID_CRED", "Invalid credentials")
	assert.Equal(t, "Invalid credentials", plain.Body())

	fields := NewValidation([]FieldError{{"password": "Password is not strong enough"}})
	assert.Equal(t, []FieldError{{"password": "Password is not strong enough"}}, fields.Body())
	assert.Equal(t, http.StatusBadRequest, fields.Status)
}

func TestAs_ThroughWrapping(t *testing.T) {
	base := NewNotFound("USER_NOT_FOUND", "User not found")
	wrapped := fmt.Errorf("forgot password: %w", base)

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Same(t, base, got)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestNewInternal_Unwraps(t *testing.T) {
	cause := errors.New("smtp down")
	err := NewInternal("EMAIL_NOT_SENT", "Email could not be sent", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Equal(t, http.StatusInternalServerError, err.Status)
}
