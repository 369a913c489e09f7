package redis

import (
	"context"
	"testing"
	"time"

	"amia-console/internal/domain"
	"amia-console/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestProfileCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	dir := memory.NewDirectory()
	stored := dir.Add(domain.Profile{Email: "hr@example.com", FullName: "HR", Role: domain.RoleAdmin, PasswordHash: "secret-hash"})
	loader := &countingLoader{ProfileLoader: dir}
	cache := NewProfileCache(newClient(mr), loader, time.Minute)

	p, err := cache.GetProfile(context.Background(), stored.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.Role != domain.RoleAdmin {
		t.Fatalf("expected admin, got %q", p.Role)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}

	// Second call should hit Redis.
	cached, _ := cache.GetProfile(context.Background(), stored.ID)
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached.FullName != "HR" || cached.Email != "hr@example.com" {
		t.Fatalf("unexpected cached profile %+v", cached)
	}
	if got := mr.HGet("console:profile:"+stored.ID, "password_hash"); got != "" {
		t.Fatalf("password hash must not be cached, got %q", got)
	}
	if mr.TTL("console:profile:"+stored.ID) <= 0 {
		t.Fatalf("expected ttl on cached profile")
	}
}

type countingLoader struct {
	memory.ProfileLoader
	calls int
}

func (l *countingLoader) LoadProfile(ctx context.Context, id string) (domain.Profile, error) {
	l.calls++
	return l.ProfileLoader.LoadProfile(ctx, id)
}
