package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength     = 16
	hashIterations = 100000
	hashKeyLength  = 32

	minPasswordLength = 8
	maxPasswordLength = 128

	randomPasswordLength = 16
)

const (
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()-_=+[]{}<>?"
)

var ErrWeakPassword = errors.New("password must be 8-128 characters and contain at least one letter and one digit")

// HashPassword derives a PBKDF2-SHA256 key from the password with a fresh
// random salt and returns "base64(salt):base64(key)".
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := pbkdf2.Key([]byte(password), salt, hashIterations, hashKeyLength, sha256.New)
	return base64.StdEncoding.EncodeToString(salt) + ":" + base64.StdEncoding.EncodeToString(key), nil
}

// ComparePassword re-derives the key with the stored salt and compares in
// constant time. Malformed records compare false, never error.
func ComparePassword(record, password string) bool {
	parts := strings.SplitN(record, ":", 2)
	if len(parts) != 2 {
		return false
	}
	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	stored, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	derived := pbkdf2.Key([]byte(password), salt, hashIterations, hashKeyLength, sha256.New)
	return hmac.Equal(derived, stored)
}

// ValidatePasswordStrength enforces the portal password policy. Length is
// counted in characters, not bytes, so multibyte passwords are measured the
// same way the user typed them.
func ValidatePasswordStrength(password string) error {
	if n := utf8.RuneCountInString(password); n < minPasswordLength || n > maxPasswordLength {
		return ErrWeakPassword
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrWeakPassword
	}
	return nil
}

// GenerateRandomPassword produces a 16-character password containing at
// least one lowercase letter, one uppercase letter, one digit and one
// symbol, shuffled so the guaranteed characters are not positionally
// predictable.
func GenerateRandomPassword() (string, error) {
	allChars := lowerChars + upperChars + digitChars + symbolChars

	chars := make([]byte, 0, randomPasswordLength)
	for _, set := range []string{lowerChars, upperChars, digitChars, symbolChars} {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}
	for len(chars) < randomPasswordLength {
		c, err := randomChar(allChars)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	// Fisher-Yates with crypto/rand indices.
	for i := len(chars) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		j := int(n.Int64())
		chars[i], chars[j] = chars[j], chars[i]
	}
	return string(chars), nil
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[n.Int64()], nil
}
