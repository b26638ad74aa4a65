package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// revocationTTL outlives the longest-lived session token, so a mark never
// expires while a token it would invalidate is still within its 7-day window.
const revocationTTL = 30 * 24 * time.Hour

// RevocationStore records, per user, the most recent logout time. Tokens
// issued before that time fail verification even though they have not
// expired. Consulted at verify-time only; absence of a mark means "never
// logged out".
type RevocationStore struct {
	client *redis.Client
}

func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client}
}

func revocationKey(userID string) string {
	return fmt.Sprintf("user:logout:%s", userID)
}

// MarkLogout upserts the user's last-logout timestamp. Concurrent logouts are
// last-write-wins.
func (s *RevocationStore) MarkLogout(ctx context.Context, userID string, at time.Time) error {
	return s.client.Set(ctx, revocationKey(userID), at.UTC().Format(time.RFC3339), revocationTTL).Err()
}

// LastLogout returns the recorded logout time, or nil when no mark exists.
func (s *RevocationStore) LastLogout(ctx context.Context, userID string) (*time.Time, error) {
	value, err := s.client.Get(ctx, revocationKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("revocation lookup failed: %w", err)
	}
	at, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("malformed revocation mark for %s: %w", userID, err)
	}
	return &at, nil
}

// Clear removes the mark. Administrative cleanup only.
func (s *RevocationStore) Clear(ctx context.Context, userID string) error {
	return s.client.Del(ctx, revocationKey(userID)).Err()
}
