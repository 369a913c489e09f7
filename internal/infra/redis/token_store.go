package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"amia-console/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenStore keeps session tokens in Redis so every console process sees
// the same sessions. Tokens expire after ttl.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

func (s *TokenStore) Issue(ctx context.Context, profileID string) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, s.key(token), profileID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session token: %w", err)
	}
	return token, nil
}

func (s *TokenStore) Resolve(ctx context.Context, token string) (string, error) {
	id, err := s.client.Get(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrSessionExpired
	}
	if err != nil {
		return "", fmt.Errorf("resolve session token: %w", err)
	}
	return id, nil
}

func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("revoke session token: %w", err)
	}
	return nil
}

func (s *TokenStore) key(token string) string {
	return "console:session:" + token
}
