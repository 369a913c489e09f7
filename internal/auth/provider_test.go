package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"amia-console/internal/auth"
	"amia-console/internal/domain"
	"amia-console/internal/infra/memory"
)

func newProvider(t *testing.T, profiles ...domain.Profile) (*auth.Provider, *memory.Directory) {
	t.Helper()
	dir := memory.NewDirectory(profiles...)
	return auth.NewProvider(dir, memory.NewProfileCache(dir, time.Minute), memory.NewTokenStore(time.Hour), nil), dir
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return hash
}

func TestSignInAndRestore(t *testing.T) {
	provider, _ := newProvider(t, domain.Profile{
		Email:        "admin@example.com",
		FullName:     "Giulia Bianchi",
		Role:         domain.RoleAdmin,
		PasswordHash: mustHash(t, "secret"),
	})
	ctx := context.Background()

	token, session, err := provider.SignIn(ctx, " Admin@Example.com ", "secret")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if !session.IsAdmin() || session.DisplayName != "Giulia Bianchi" {
		t.Fatalf("unexpected session %+v", session)
	}

	restored, err := provider.CurrentSession(ctx, token)
	if err != nil {
		t.Fatalf("current session: %v", err)
	}
	if restored == nil || restored.ID != session.ID {
		t.Fatalf("expected restored session, got %+v", restored)
	}
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	provider, _ := newProvider(t, domain.Profile{Email: "a@example.com", PasswordHash: mustHash(t, "right")})

	if _, _, err := provider.SignIn(context.Background(), "a@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, _, err := provider.SignIn(context.Background(), "nobody@example.com", "right"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestCurrentSessionWithoutToken(t *testing.T) {
	provider, _ := newProvider(t)
	for _, token := range []string{"", "unknown"} {
		session, err := provider.CurrentSession(context.Background(), token)
		if err != nil || session != nil {
			t.Fatalf("token %q: expected no session, got %+v (%v)", token, session, err)
		}
	}
}

func TestSignOutNotifiesSubscribers(t *testing.T) {
	provider, _ := newProvider(t, domain.Profile{Email: "a@example.com", Role: domain.RoleAdmin, PasswordHash: mustHash(t, "pw")})
	ctx := context.Background()
	token, _, err := provider.SignIn(ctx, "a@example.com", "pw")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	ch, cancel := provider.Subscribe(token)
	defer cancel()

	if err := provider.SignOut(ctx, token); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	select {
	case s := <-ch:
		if s != nil {
			t.Fatalf("expected nil session after sign out, got %+v", s)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected sign-out notification")
	}

	if s, _ := provider.CurrentSession(ctx, token); s != nil {
		t.Fatalf("expected token revoked")
	}
}

func TestSessionFromProfileFallbacks(t *testing.T) {
	s := auth.SessionFromProfile(domain.Profile{ID: "1", Email: "mario.rossi@example.com"})
	if s.DisplayName != "mario.rossi" {
		t.Fatalf("expected e-mail local part, got %q", s.DisplayName)
	}
	if s.Role != domain.RoleCandidate || s.IsAdmin() {
		t.Fatalf("expected candidate default, got %q", s.Role)
	}
}

func TestHubDropsStaleUpdates(t *testing.T) {
	hub := auth.NewHub()
	ch, cancel := hub.Subscribe("tok")

	for i := 0; i < 20; i++ {
		hub.Publish("tok", &domain.Session{ID: "s"})
	}
	hub.Publish("tok", nil)

	var last *domain.Session = &domain.Session{}
	for len(ch) > 0 {
		last = <-ch
	}
	if last != nil {
		t.Fatalf("expected latest update to be delivered, got %+v", last)
	}

	cancel()
	if hub.Len() != 0 {
		t.Fatalf("expected hub empty after cancel")
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed")
	}
}
