package auth

import (
	"context"
	"time"
)

// Profile is the normalized identity every adapter returns. Email is always
// populated: adapters whose provider does not report one apply a
// deterministic fallback so the identity resolver can rely on it.
type Profile struct {
	ProviderUserID string
	Email          string
	Name           string
	Picture        string
}

// Token is the provider-side credential obtained from the code exchange.
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       *time.Time
}

// Provider encapsulates the three-legged OAuth dance for one external
// identity provider.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Token, error)
	FetchProfile(ctx context.Context, token *Token) (*Profile, error)
}
