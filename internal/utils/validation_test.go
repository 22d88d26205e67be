package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmailAllowed(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"test@mail.com", true},
		{"123123123@mail.com", true},
		{"test@comcom.com", true},
		{"first.last@sub.example.org", true},
		{"a-b@my-host.info", true},
		{"a@b.co", true},
		{"test", false},
		{"123123123", false},
		{"123`12", false},
		{"test @0", false},
		{"test@com", false},
		{"teststststststs.com", false},
		{"a@b.c", false},
		{"@b.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEmailAllowed(tt.email))
		})
	}
}

func TestIsPasswordAllowed(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"strong", "Strongp@ssw0rd", true},
		{"long strong", "MyStrongerStrongp@ssw0rd", true},
		{"exactly eight", "Ab1!cdef", true},
		{"seven chars all classes", "Ab1!cde", false},
		{"no symbol", "Abcdefg1", false},
		{"no digit", "Abcdefg!", false},
		{"no upper", "abcdef1!", false},
		{"no lower", "ABCDEF1!", false},
		{"digits only", "123123123", false},
		{"short", "test", false},
		{"with space", "test @0", false},
		{"email-like", "teststststststs.com", false},
		{"empty", "", false},
		{"72 bytes", "Str0ng!pw" + strings.Repeat("a", 63), true},
		{"73 bytes", "Str0ng!pw" + strings.Repeat("a", 64), false},
		{"multibyte over 72 bytes", "Str0ng!pw" + strings.Repeat("é", 32), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPasswordAllowed(tt.password))
		})
	}
}
