package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/SOS-Tag/sos-tag-api/internal/core/port"
	"github.com/SOS-Tag/sos-tag-api/internal/repository"
)

const defaultEphemeralPrefix = "sostag:token"

// EphemeralTokenStore persists single-use opaque tokens in Redis under
// prefix:purpose:token with a fixed TTL.
type EphemeralTokenStore struct {
	client *red.Client
	prefix string
	ttl    time.Duration
}

// NewEphemeralTokenStore constructs the store with the provided key prefix
// and TTL applied to every entry.
func NewEphemeralTokenStore(client *red.Client, keyPrefix string, ttl time.Duration) *EphemeralTokenStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultEphemeralPrefix
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &EphemeralTokenStore{client: client, prefix: prefix, ttl: ttl}
}

// Put stores accountID under purpose:token. An identical key is overwritten;
// token entropy makes collisions negligible.
func (s *EphemeralTokenStore) Put(ctx context.Context, purpose, token, accountID string) error {
	key, err := s.key(purpose, token)
	if err != nil {
		return err
	}
	if strings.TrimSpace(accountID) == "" {
		return errors.New("account id is required")
	}

	if err := s.client.Set(ctx, key, accountID, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set ephemeral token: %w", err)
	}

	return nil
}

// TakeAndConsume atomically reads and deletes purpose:token via GETDEL, so
// concurrent redemptions of the same token resolve to exactly one winner.
func (s *EphemeralTokenStore) TakeAndConsume(ctx context.Context, purpose, token string) (string, error) {
	key, err := s.key(purpose, token)
	if err != nil {
		return "", err
	}

	accountID, err := s.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("redis getdel ephemeral token: %w", err)
	}
	if accountID == "" {
		return "", repository.ErrNotFound
	}

	return accountID, nil
}

func (s *EphemeralTokenStore) key(purpose, token string) (string, error) {
	purpose = strings.TrimSpace(purpose)
	token = strings.TrimSpace(token)
	if purpose == "" || token == "" {
		return "", errors.New("purpose and token are required")
	}
	return fmt.Sprintf("%s:%s:%s", s.prefix, purpose, token), nil
}

var _ port.EphemeralTokenStore = (*EphemeralTokenStore)(nil)
