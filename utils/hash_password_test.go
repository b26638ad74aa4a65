package utils

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	record, err := HashPassword("correct horse 1")
	require.NoError(t, err)

	assert.True(t, ComparePassword(record, "correct horse 1"))
	assert.False(t, ComparePassword(record, "correct horse 2"))
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	records := make(map[string]bool)
	for i := 0; i < 3; i++ {
		record, err := HashPassword("same password 9")
		require.NoError(t, err)
		assert.True(t, ComparePassword(record, "same password 9"))
		records[record] = true
	}
	// Fresh salt every call: three hashes of the same password all differ.
	assert.Len(t, records, 3)
}

func TestComparePasswordMalformedRecord(t *testing.T) {
	assert.False(t, ComparePassword("", "x"))
	assert.False(t, ComparePassword("no-separator", "x"))
	assert.False(t, ComparePassword("!!!:!!!", "x"))
	assert.False(t, ComparePassword("dmFsaWQ=:!!!", "x"))
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.NoError(t, ValidatePasswordStrength("abcdef12"))
	assert.ErrorIs(t, ValidatePasswordStrength("short1"), ErrWeakPassword)
	assert.ErrorIs(t, ValidatePasswordStrength(strings.Repeat("a1", 65)), ErrWeakPassword)
	assert.ErrorIs(t, ValidatePasswordStrength("lettersonly"), ErrWeakPassword)
	assert.ErrorIs(t, ValidatePasswordStrength("12345678"), ErrWeakPassword)
}

// Length is measured in characters: a 7-character multibyte password is too
// short even though it spans more than 8 bytes, and a 128-character
// multibyte password is accepted although it exceeds 128 bytes.
func TestValidatePasswordStrengthCountsRunes(t *testing.T) {
	short := "密码abc12" // 7 characters, 11 bytes
	assert.ErrorIs(t, ValidatePasswordStrength(short), ErrWeakPassword)

	long := strings.Repeat("密", 126) + "a1" // 128 characters, 380 bytes
	assert.NoError(t, ValidatePasswordStrength(long))

	tooLong := strings.Repeat("密", 127) + "a1" // 129 characters
	assert.ErrorIs(t, ValidatePasswordStrength(tooLong), ErrWeakPassword)
}

func TestGenerateRandomPassword(t *testing.T) {
	for i := 0; i < 1000; i++ {
		password, err := GenerateRandomPassword()
		require.NoError(t, err)
		require.Len(t, password, randomPasswordLength)
		require.NoError(t, ValidatePasswordStrength(password))

		var hasLower, hasUpper, hasDigit, hasSymbol bool
		for _, r := range password {
			switch {
			case unicode.IsLower(r):
				hasLower = true
			case unicode.IsUpper(r):
				hasUpper = true
			case unicode.IsDigit(r):
				hasDigit = true
			default:
				hasSymbol = true
			}
		}
		require.True(t, hasLower && hasUpper && hasDigit && hasSymbol, "password %q misses a class", password)
	}
}
