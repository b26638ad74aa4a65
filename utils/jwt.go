package utils

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

// SessionClaims is the payload of a portal session token. User fields are
// denormalized so request handling does not need a database round trip, and
// the permission map is a snapshot taken at issue time.
type SessionClaims struct {
	UserID            string          `json:"uid"`
	Username          string          `json:"username"`
	Email             string          `json:"email"`
	Permissions       map[string]bool `json:"permissions"`
	PermissionVersion int             `json:"pv"`
	jwt.RegisteredClaims
}

// TokenCodec signs and decodes session tokens. Decode verifies the signature
// and the expected signing scheme only; temporal and revocation checks belong
// to the session service so each failure collapses to the same caller-visible
// result.
type TokenCodec interface {
	Sign(claims *SessionClaims) (string, error)
	Decode(token string) (*SessionClaims, error)
}

// signature-only parser; expiry is checked by the verifier pipeline.
func newParser(methods ...string) *jwt.Parser {
	return jwt.NewParser(jwt.WithValidMethods(methods), jwt.WithoutClaimsValidation())
}

// HMACCodec signs with a shared secret (HS256).
type HMACCodec struct {
	secret []byte
	parser *jwt.Parser
}

// NewHMACCodec rejects an empty secret: a missing signing secret must be a
// startup failure, never a silent fallback.
func NewHMACCodec(secret string) (*HMACCodec, error) {
	if secret == "" {
		return nil, errors.New("jwt: HMAC secret is not configured")
	}
	return &HMACCodec{secret: []byte(secret), parser: newParser(jwt.SigningMethodHS256.Alg())}, nil
}

func (c *HMACCodec) Sign(claims *SessionClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

func (c *HMACCodec) Decode(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := c.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// RSACodec signs with an RSA private key (RS256). The verification key is
// derived from the same configured private key at construction, so signer and
// verifier cannot drift apart on key rotation.
type RSACodec struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	keyID      string
	parser     *jwt.Parser
}

func NewRSACodec(privatePEM, keyID string) (*RSACodec, error) {
	if privatePEM == "" {
		return nil, errors.New("jwt: RSA private key is not configured")
	}
	key, err := parseRSAPrivateKey([]byte(privatePEM))
	if err != nil {
		return nil, err
	}
	return &RSACodec{
		privateKey: key,
		publicKey:  &key.PublicKey,
		keyID:      keyID,
		parser:     newParser(jwt.SigningMethodRS256.Alg()),
	}, nil
}

// PublicKey exposes the verification half for dependent services.
func (c *RSACodec) PublicKey() *rsa.PublicKey {
	return c.publicKey
}

func (c *RSACodec) Sign(claims *SessionClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if c.keyID != "" {
		token.Header["kid"] = c.keyID
	}
	return token.SignedString(c.privateKey)
}

func (c *RSACodec) Decode(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := c.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.publicKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func parseRSAPrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("jwt: invalid private key PEM")
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("jwt: PKCS8 key is not RSA")
		}
		return rsaKey, nil
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwt: failed to parse private key: %w", err)
	}
	return key, nil
}
