package memory

import (
	"context"
	"sync"
	"time"

	"amia-console/internal/domain"
	"github.com/google/uuid"
)

// TokenStore is an in-memory implementation of auth.TokenStore.
type TokenStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu     sync.Mutex
	tokens map[string]tokenEntry
}

type tokenEntry struct {
	profileID string
	expiresAt time.Time
}

func NewTokenStore(ttl time.Duration) *TokenStore {
	return &TokenStore{
		ttl:    ttl,
		clock:  time.Now,
		tokens: make(map[string]tokenEntry),
	}
}

func (s *TokenStore) Issue(_ context.Context, profileID string) (string, error) {
	token := uuid.NewString()
	entry := tokenEntry{profileID: profileID}
	if s.ttl > 0 {
		entry.expiresAt = s.clock().Add(s.ttl)
	}
	s.mu.Lock()
	s.tokens[token] = entry
	s.mu.Unlock()
	return token, nil
}

func (s *TokenStore) Resolve(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tokens[token]
	if !ok {
		return "", domain.ErrSessionExpired
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(s.clock()) {
		delete(s.tokens, token)
		return "", domain.ErrSessionExpired
	}
	return entry.profileID, nil
}

func (s *TokenStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
	return nil
}
