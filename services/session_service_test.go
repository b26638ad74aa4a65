package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"PortalAuth/models"
	"PortalAuth/repositories"
	"PortalAuth/stores"
	"PortalAuth/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionFixture(t *testing.T) (*SessionService, utils.TokenCodec, *stores.RevocationStore) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	codec, err := utils.NewHMACCodec("test-secret")
	require.NoError(t, err)

	revocations := stores.NewRevocationStore(client)
	exchange := stores.NewExchangeStore(client)
	permissions := NewPermissionService(repositories.NewMockGrantRepository(), []string{"admin@example.com"})
	service := NewSessionService(codec, revocations, exchange, permissions, "portalauth", []string{"portal", "gd.example.com"})
	return service, codec, revocations
}

func testUser() *models.User {
	return &models.User{ID: "u-1", Email: "user@example.com", Name: "User"}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	service, _, _ := newSessionFixture(t)
	ctx := context.Background()

	token, err := service.Issue(ctx, testUser())
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims := service.Verify(ctx, token)
	require.NotNil(t, claims)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "portalauth", claims.Issuer)
	assert.Contains(t, claims.Audience, "gd.example.com")
	assert.Equal(t, PermissionSchemaVersion, claims.PermissionVersion)
	assert.True(t, claims.Permissions[ModuleProfile])
	assert.False(t, claims.Permissions[ModuleAdmin])

	// Expiry is always issued-at plus the fixed TTL.
	assert.Equal(t, claims.IssuedAt.Add(SessionTTL), claims.ExpiresAt.Time)
}

func TestIssueEmbedsAdminPermissions(t *testing.T) {
	service, _, _ := newSessionFixture(t)

	token, err := service.Issue(context.Background(), &models.User{ID: "a-1", Email: "admin@example.com"})
	require.NoError(t, err)

	claims := service.Verify(context.Background(), token)
	require.NotNil(t, claims)
	assert.True(t, claims.Permissions[ModuleAdmin])
	assert.True(t, claims.Permissions[ModuleFavor])
}

func TestVerifyRejectsGarbage(t *testing.T) {
	service, _, _ := newSessionFixture(t)
	ctx := context.Background()

	assert.Nil(t, service.Verify(ctx, ""))
	assert.Nil(t, service.Verify(ctx, "not-a-token"))
	assert.Nil(t, service.Verify(ctx, "a.b.c"))
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	service, _, _ := newSessionFixture(t)
	ctx := context.Background()

	token, err := service.Issue(ctx, testUser())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	assert.Nil(t, service.Verify(ctx, parts[0]+"."+parts[1]+"."+string(sig)))
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	service, codec, _ := newSessionFixture(t)

	past := time.Now().Add(-8 * 24 * time.Hour)
	token, err := codec.Sign(&utils.SessionClaims{
		UserID: "u-1",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(SessionTTL)),
		},
	})
	require.NoError(t, err)

	assert.Nil(t, service.Verify(context.Background(), token))
}

func TestVerifyRejectsMissingIssuedAt(t *testing.T) {
	service, codec, _ := newSessionFixture(t)

	// A forged token without iat cannot be compared against revocation
	// marks and must always be rejected.
	token, err := codec.Sign(&utils.SessionClaims{
		UserID: "u-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)

	assert.Nil(t, service.Verify(context.Background(), token))
}

func TestLogoutInvalidatesOlderTokensOnly(t *testing.T) {
	service, codec, revocations := newSessionFixture(t)
	ctx := context.Background()

	token, err := service.Issue(ctx, testUser())
	require.NoError(t, err)
	require.NotNil(t, service.Verify(ctx, token))

	// Logout strictly after issuance: the old token dies.
	require.NoError(t, revocations.MarkLogout(ctx, "u-1", time.Now().Add(time.Second)))
	assert.Nil(t, service.Verify(ctx, token))

	// A token issued strictly after the logout mark stays valid.
	later := time.Now().Add(time.Minute)
	newToken, err := codec.Sign(&utils.SessionClaims{
		UserID: "u-1",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(later),
			ExpiresAt: jwt.NewNumericDate(later.Add(SessionTTL)),
		},
	})
	require.NoError(t, err)
	assert.NotNil(t, service.Verify(ctx, newToken))
}

func TestLogoutMarksRevocation(t *testing.T) {
	service, _, revocations := newSessionFixture(t)
	ctx := context.Background()

	require.NoError(t, service.Logout(ctx, "u-1"))
	last, err := revocations.LastLogout(ctx, "u-1")
	require.NoError(t, err)
	assert.NotNil(t, last)
}

func TestExchangeKeyRoundTrip(t *testing.T) {
	service, _, _ := newSessionFixture(t)
	ctx := context.Background()

	token, err := service.Issue(ctx, testUser())
	require.NoError(t, err)

	key, err := service.IssueExchangeKey(ctx, token)
	require.NoError(t, err)

	redeemed, err := service.RedeemExchangeKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, token, redeemed)

	redeemed, err = service.RedeemExchangeKey(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, redeemed)
}
