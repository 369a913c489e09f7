package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"amia-console/internal/domain"
)

func TestTokenStoreLifecycle(t *testing.T) {
	store := NewTokenStore(time.Hour)
	ctx := context.Background()

	token, err := store.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := store.Resolve(ctx, token)
	if err != nil || id != "user-1" {
		t.Fatalf("expected user-1, got %q (%v)", id, err)
	}

	_ = store.Revoke(ctx, token)
	if _, err := store.Resolve(ctx, token); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected expired after revoke, got %v", err)
	}
}

func TestTokenStoreExpires(t *testing.T) {
	store := NewTokenStore(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return now }

	token, _ := store.Issue(context.Background(), "user-1")
	now = now.Add(2 * time.Minute)

	if _, err := store.Resolve(context.Background(), token); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected expiry, got %v", err)
	}
}
