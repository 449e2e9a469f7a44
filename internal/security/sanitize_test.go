package security

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"strips tags", "<script>alert(1)</script>olá", 100, "alert(1)olá"},
		{"escapes entities", "a & b", 100, "a &amp; b"},
		{"trims whitespace", "   texto   ", 100, "texto"},
		{"truncates by runes", "ação urgente", 4, "ação"},
		{"zero max keeps everything", strings.Repeat("x", 600), 0, strings.Repeat("x", 600)},
		{"empty in empty out", "", 100, ""},
		{"tag soup collapses", "<b><i></i></b>", 100, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input, tt.maxLen))
		})
	}
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("maria.silva"))
	assert.NoError(t, ValidateUsername("user_01"))
	assert.NoError(t, ValidateUsername("  padded  "))

	assert.Error(t, ValidateUsername("ab"), "too short")
	assert.Error(t, ValidateUsername(strings.Repeat("a", 31)), "too long")
	assert.Error(t, ValidateUsername("maria silva"), "space not allowed")
	assert.Error(t, ValidateUsername("maçã"), "accents not allowed")
	assert.Error(t, ValidateUsername("admin"), "reserved")
	assert.Error(t, ValidateUsername("SuPoRtE"), "reserved is case insensitive")
}

func TestValidateAccessCode(t *testing.T) {
	assert.NoError(t, ValidateAccessCode("123456"))
	assert.Error(t, ValidateAccessCode("12345"))
	assert.Error(t, ValidateAccessCode("1234567"))
	assert.Error(t, ValidateAccessCode("12a456"))
	assert.Error(t, ValidateAccessCode(""))
}

func TestValidateUUID(t *testing.T) {
	canonical := uuid.NewString()
	assert.NoError(t, ValidateUUID(canonical))
	assert.Error(t, ValidateUUID("not-a-uuid"))
	assert.Error(t, ValidateUUID(""))

	// Alternate encodings uuid.Parse would take are rejected.
	assert.Error(t, ValidateUUID("urn:uuid:"+canonical))
	assert.Error(t, ValidateUUID("{"+canonical+"}"))
	assert.Error(t, ValidateUUID(strings.ReplaceAll(canonical, "-", "")))
}
