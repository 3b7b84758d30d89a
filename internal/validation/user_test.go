package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		username string
		wantErr  bool
	}{
		{"Valid", "correct7horse", "", false},
		{"Exactly Min Length", "abcdefg1", "", false},
		{"Exactly Max Length", strings.Repeat("a", 127) + "1", "", false},
		{"Too Short", "abc123", "", true},
		{"Too Long", strings.Repeat("a", 128) + "1", "", true},
		{"No Digit", "onlyletters", "", true},
		{"Only Digits", "1234567890", "", true},
		{"Contains Username", "Alice2024!", "alice", true},
		{"Short Username Ignored", "ab12cdefg", "ab", false},
		{"Unicode Characters", "Ångström12", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password, tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "test_user123", false},
		{"Allowed Punctuation", "first.last+tag@home-1", false},
		{"Single Char", "a", false},
		{"Empty", "", true},
		{"Too Long", strings.Repeat("u", 151), true},
		{"Whitespace", "two words", true},
		{"Illegal Chars", "user#123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	// 254 chars total: 64 local + @ + 185 domain label + ".com" (4)
	emailAt254 := strings.Repeat("a", 64) + "@" + strings.Repeat("b", 185) + ".com"
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid", "test@example.com", false},
		{"Subdomain", "test@mail.example.co", false},
		{"Exactly 254 Characters", emailAt254, false},
		{"Too Long", "x" + emailAt254, true},
		{"Invalid Format", "not-an-email", true},
		{"Missing Domain", "user@", true},
		{"Multiple At Symbols", "user@@example.com", true},
		{"Space In Local Part", "user @example.com", true},
		{"Trailing Dot In Domain", "user@example.com.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateContent(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateContent("hello", 500))
	assert.NoError(t, ValidateContent(strings.Repeat("é", 500), 500), "counts runes, not bytes")
	assert.Error(t, ValidateContent("   \n\t", 500))
	assert.Error(t, ValidateContent(strings.Repeat("x", 501), 500))

	assert.NoError(t, ValidateMaxLen("", 150))
	assert.Error(t, ValidateMaxLen(strings.Repeat("b", 151), 150))
}
