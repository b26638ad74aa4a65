package utils

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClaims() *SessionClaims {
	now := time.Now()
	return &SessionClaims{
		UserID:            "u-1",
		Username:          "Test User",
		Email:             "user@example.com",
		Permissions:       map[string]bool{"profile": true, "admin": false},
		PermissionVersion: 2,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "portalauth",
			Subject:   "u-1",
			Audience:  jwt.ClaimStrings{"portal"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func testRSAKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

func TestNewHMACCodecRejectsEmptySecret(t *testing.T) {
	_, err := NewHMACCodec("")
	assert.Error(t, err)
}

func TestHMACCodecRoundTrip(t *testing.T) {
	codec, err := NewHMACCodec("test-secret")
	require.NoError(t, err)

	token, err := codec.Sign(testClaims())
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.True(t, claims.Permissions["profile"])
	assert.False(t, claims.Permissions["admin"])
	assert.Equal(t, 2, claims.PermissionVersion)
}

func TestHMACCodecRejectsWrongSecret(t *testing.T) {
	signer, err := NewHMACCodec("secret-a")
	require.NoError(t, err)
	verifier, err := NewHMACCodec("secret-b")
	require.NoError(t, err)

	token, err := signer.Sign(testClaims())
	require.NoError(t, err)

	_, err = verifier.Decode(token)
	assert.Error(t, err)
}

func TestHMACCodecRejectsTamperedSignature(t *testing.T) {
	codec, err := NewHMACCodec("test-secret")
	require.NoError(t, err)

	token, err := codec.Sign(testClaims())
	require.NoError(t, err)

	// Flip one byte of the signature segment.
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	_, err = codec.Decode(parts[0] + "." + parts[1] + "." + string(sig))
	assert.Error(t, err)
}

func TestHMACCodecRejectsWrongSegmentCount(t *testing.T) {
	codec, err := NewHMACCodec("test-secret")
	require.NoError(t, err)

	_, err = codec.Decode("only.two")
	assert.Error(t, err)
	_, err = codec.Decode("")
	assert.Error(t, err)
}

func TestRSACodecRoundTrip(t *testing.T) {
	codec, err := NewRSACodec(testRSAKeyPEM(t), "portal-1")
	require.NoError(t, err)

	token, err := codec.Sign(testClaims())
	require.NoError(t, err)

	claims, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
}

func TestRSACodecRejectsOtherKey(t *testing.T) {
	signer, err := NewRSACodec(testRSAKeyPEM(t), "a")
	require.NoError(t, err)
	verifier, err := NewRSACodec(testRSAKeyPEM(t), "b")
	require.NoError(t, err)

	token, err := signer.Sign(testClaims())
	require.NoError(t, err)

	_, err = verifier.Decode(token)
	assert.Error(t, err)
}

func TestCodecsRejectCrossAlgorithmTokens(t *testing.T) {
	hmacCodec, err := NewHMACCodec("test-secret")
	require.NoError(t, err)
	rsaCodec, err := NewRSACodec(testRSAKeyPEM(t), "portal-1")
	require.NoError(t, err)

	hmacToken, err := hmacCodec.Sign(testClaims())
	require.NoError(t, err)
	rsaToken, err := rsaCodec.Sign(testClaims())
	require.NoError(t, err)

	_, err = rsaCodec.Decode(hmacToken)
	assert.Error(t, err)
	_, err = hmacCodec.Decode(rsaToken)
	assert.Error(t, err)
}

func TestDecodeIgnoresExpiryButKeepsClaims(t *testing.T) {
	// The codec only verifies signatures; the session verifier owns
	// temporal checks, so an expired token still decodes.
	codec, err := NewHMACCodec("test-secret")
	require.NoError(t, err)

	claims := testClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	token, err := codec.Sign(claims)
	require.NoError(t, err)

	decoded, err := codec.Decode(token)
	require.NoError(t, err)
	assert.True(t, decoded.ExpiresAt.Before(time.Now()))
}

func TestNewRSACodecRejectsGarbage(t *testing.T) {
	_, err := NewRSACodec("", "kid")
	assert.Error(t, err)
	_, err = NewRSACodec("not a pem", "kid")
	assert.Error(t, err)
}
