package stores

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// exchangeTTL bounds how long an opaque key may sit in a URL, browser history
// or access log before it turns useless.
const exchangeTTL = 30 * time.Second

const exchangeKeyBytes = 32

// ExchangeStore maps a short-lived random opaque key to a full session token,
// redeemable exactly once. It lets a bearer token cross a domain boundary via
// a query parameter without the token itself ever appearing in a URL.
type ExchangeStore struct {
	client *redis.Client
}

func NewExchangeStore(client *redis.Client) *ExchangeStore {
	return &ExchangeStore{client: client}
}

func exchangeKey(key string) string {
	return fmt.Sprintf("access_token:%s", key)
}

// Issue stores the token under a fresh random key and returns the key.
func (s *ExchangeStore) Issue(ctx context.Context, token string) (string, error) {
	raw := make([]byte, exchangeKeyBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	key := base64.RawURLEncoding.EncodeToString(raw)
	if err := s.client.Set(ctx, exchangeKey(key), token, exchangeTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store exchange entry: %w", err)
	}
	return key, nil
}

// Redeem returns the token for the key and deletes it in the same operation.
// GETDEL keeps read-then-delete atomic under concurrent redemption attempts.
// Returns "" when the key was never issued, already redeemed, or expired.
func (s *ExchangeStore) Redeem(ctx context.Context, key string) (string, error) {
	token, err := s.client.GetDel(ctx, exchangeKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("exchange redemption failed: %w", err)
	}
	return token, nil
}
