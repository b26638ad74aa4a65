package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// StatePayload is the optional data riding inside the OAuth state value:
// a post-login redirect target and, for the manual-link flow, the id of the
// already-authenticated user the new identity must attach to. The link user
// id is an authorization decision, so the payload is never trusted as-is:
// a payload-bearing state carries an HMAC over the random part and the
// payload, keyed with server-side material, and Parse rejects anything the
// server did not mint. The redirect target is additionally validated against
// the hostname allowlist before use.
type StatePayload struct {
	Redirect   string `json:"redirect,omitempty"`
	LinkUserID string `json:"link_user_id,omitempty"`
}

func (p *StatePayload) empty() bool {
	return p == nil || (p.Redirect == "" && p.LinkUserID == "")
}

// StateCodec mints and verifies OAuth state values. Format:
//
//	{random}                                     empty payload
//	{random}|{b64url(JSON payload)}|{b64url(mac)} payload present
//
// where mac = HMAC-SHA256(key, "{random}|{b64url(JSON payload)}").
type StateCodec struct {
	key []byte
}

func NewStateCodec(key []byte) (*StateCodec, error) {
	if len(key) == 0 {
		return nil, errors.New("state: signing key is not configured")
	}
	return &StateCodec{key: key}, nil
}

// Mint returns a fresh state value. Callers put the whole value in both the
// short-lived cookie and the provider round trip.
func (c *StateCodec) Mint(payload *StatePayload) (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	randomPart := base64.RawURLEncoding.EncodeToString(raw)
	if payload.empty() {
		return randomPart, nil
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	signed := randomPart + "|" + base64.RawURLEncoding.EncodeToString(encoded)
	return signed + "|" + base64.RawURLEncoding.EncodeToString(c.sign(signed)), nil
}

// Parse verifies a callback state value and extracts its payload. A state
// carrying a payload without a valid signature is rejected outright: only
// this server's own key can vouch for a link_user_id or redirect target.
func (c *StateCodec) Parse(state string) (*StatePayload, error) {
	if state == "" {
		return nil, errors.New("empty state")
	}
	parts := strings.Split(state, "|")
	switch len(parts) {
	case 1:
		return &StatePayload{}, nil
	case 3:
	default:
		return nil, errors.New("malformed state")
	}

	mac, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("malformed state signature: %w", err)
	}
	if !hmac.Equal(mac, c.sign(parts[0]+"|"+parts[1])) {
		return nil, errors.New("state signature mismatch")
	}

	decoded, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("malformed state payload: %w", err)
	}
	var payload StatePayload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return nil, fmt.Errorf("malformed state payload: %w", err)
	}
	return &payload, nil
}

func (c *StateCodec) sign(message string) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(message))
	return mac.Sum(nil)
}

// ValidateRedirect accepts the redirect target only when it is an absolute
// http(s) URL whose hostname is on the allowlist. Open redirect prevention.
func ValidateRedirect(raw string, allowedHosts []string) (string, error) {
	if raw == "" {
		return "", errors.New("empty redirect")
	}
	target, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid redirect: %w", err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return "", fmt.Errorf("redirect scheme %q is not allowed", target.Scheme)
	}
	host := target.Hostname()
	for _, allowed := range allowedHosts {
		if strings.EqualFold(host, allowed) {
			return raw, nil
		}
	}
	return "", fmt.Errorf("redirect host %q is not on the allowlist", host)
}
