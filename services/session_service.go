package services

import (
	"context"
	"time"

	"PortalAuth/models"
	"PortalAuth/stores"
	"PortalAuth/utils"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
)

// SessionTTL is the fixed lifetime of every session token.
const SessionTTL = 7 * 24 * time.Hour

// SessionService mints and verifies session tokens. It composes the token
// codec, the revocation store and the permission evaluator; every protected
// endpoint answers "who is this request" through Verify.
type SessionService struct {
	codec       utils.TokenCodec
	revocations *stores.RevocationStore
	exchange    *stores.ExchangeStore
	permissions *PermissionService
	issuer      string
	audience    []string
}

func NewSessionService(
	codec utils.TokenCodec,
	revocations *stores.RevocationStore,
	exchange *stores.ExchangeStore,
	permissions *PermissionService,
	issuer string,
	audience []string,
) *SessionService {
	return &SessionService{
		codec:       codec,
		revocations: revocations,
		exchange:    exchange,
		permissions: permissions,
		issuer:      issuer,
		audience:    audience,
	}
}

// Issue mints a token for the user with a fresh permission snapshot.
// Expiry is always issued-at plus the fixed TTL.
func (s *SessionService) Issue(ctx context.Context, user *models.User) (string, error) {
	permissions, err := s.permissions.Evaluate(user)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := &utils.SessionClaims{
		UserID:            user.ID,
		Username:          user.Name,
		Email:             user.Email,
		Permissions:       permissions,
		PermissionVersion: PermissionSchemaVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID,
			Audience:  jwt.ClaimStrings(s.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
	}

	token, err := s.codec.Sign(claims)
	if err != nil {
		return "", err
	}
	tokensIssuedTotal.Inc()
	return token, nil
}

// Verify runs the full validity pipeline: signature, expiry, issued-at
// presence, revocation. Any failure returns nil; callers treat "not logged
// in" as an ordinary branch and never learn which step failed.
func (s *SessionService) Verify(ctx context.Context, token string) *utils.SessionClaims {
	if token == "" {
		return nil
	}

	claims, err := s.codec.Decode(token)
	if err != nil {
		tokenVerifyFailuresTotal.WithLabelValues("decode").Inc()
		return nil
	}

	now := time.Now()
	if claims.ExpiresAt == nil || !now.Before(claims.ExpiresAt.Time) {
		tokenVerifyFailuresTotal.WithLabelValues("expired").Inc()
		return nil
	}

	// Tokens without issued-at cannot be checked against revocation marks
	// and are always rejected.
	if claims.IssuedAt == nil {
		tokenVerifyFailuresTotal.WithLabelValues("missing_iat").Inc()
		return nil
	}

	lastLogout, err := s.revocations.LastLogout(ctx, claims.UserID)
	if err != nil {
		// Fail closed: an unreadable revocation mark must not admit a
		// possibly revoked token.
		logrus.Warn("Revocation lookup failed during verify: ", err)
		tokenVerifyFailuresTotal.WithLabelValues("revocation_unavailable").Inc()
		return nil
	}
	if lastLogout != nil && claims.IssuedAt.Time.Before(*lastLogout) {
		tokenVerifyFailuresTotal.WithLabelValues("revoked").Inc()
		return nil
	}

	return claims
}

// Logout invalidates every token issued before now. Tokens issued after the
// mark, including by a concurrent login on another device, stay valid.
func (s *SessionService) Logout(ctx context.Context, userID string) error {
	return s.revocations.MarkLogout(ctx, userID, time.Now())
}

// IssueExchangeKey wraps the token in a one-time cross-domain handoff key.
func (s *SessionService) IssueExchangeKey(ctx context.Context, token string) (string, error) {
	return s.exchange.Issue(ctx, token)
}

// RedeemExchangeKey trades the opaque key for the full token, exactly once.
func (s *SessionService) RedeemExchangeKey(ctx context.Context, key string) (string, error) {
	token, err := s.exchange.Redeem(ctx, key)
	switch {
	case err != nil:
		exchangeRedemptionsTotal.WithLabelValues("error").Inc()
	case token == "":
		exchangeRedemptionsTotal.WithLabelValues("miss").Inc()
	default:
		exchangeRedemptionsTotal.WithLabelValues("hit").Inc()
	}
	return token, err
}
