// Package auth issues and resolves console sessions.
package auth

import (
	"context"
	"errors"
	"strings"

	"amia-console/internal/domain"
	"amia-console/internal/logger"
	"golang.org/x/crypto/bcrypt"
)

// Directory looks up stored accounts.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (domain.Profile, error)
}

// ProfileRepository returns profiles by id, usually through a cache.
type ProfileRepository interface {
	GetProfile(ctx context.Context, id string) (domain.Profile, error)
}

// TokenStore maps opaque session tokens to profile ids. Resolve returns
// domain.ErrSessionExpired for unknown or expired tokens.
type TokenStore interface {
	Issue(ctx context.Context, profileID string) (string, error)
	Resolve(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

// Provider is the authentication service used by every console.
type Provider struct {
	directory Directory
	profiles  ProfileRepository
	tokens    TokenStore
	hub       *Hub
	log       *logger.Logger
}

func NewProvider(directory Directory, profiles ProfileRepository, tokens TokenStore, log *logger.Logger) *Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &Provider{
		directory: directory,
		profiles:  profiles,
		tokens:    tokens,
		hub:       NewHub(),
		log:       log.Named("auth"),
	}
}

// CurrentSession resolves token to a session. An empty, unknown or expired
// token yields a nil session and no error.
func (p *Provider) CurrentSession(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, nil
	}
	id, err := p.tokens.Resolve(ctx, token)
	if errors.Is(err, domain.ErrSessionExpired) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Remote(err)
	}
	profile, err := p.profiles.GetProfile(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Remote(err)
	}
	return SessionFromProfile(profile), nil
}

// SignIn verifies credentials and issues a new token.
func (p *Provider) SignIn(ctx context.Context, email, password string) (string, *domain.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	profile, err := p.directory.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, domain.Remote(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	token, err := p.tokens.Issue(ctx, profile.ID)
	if err != nil {
		return "", nil, domain.Remote(err)
	}
	p.log.Info("signed in", "profile_id", profile.ID, "role", profile.Role)
	session := SessionFromProfile(profile)
	p.hub.Publish(token, session)
	return token, session, nil
}

// SignOut revokes token and notifies its subscribers with a nil session.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := p.tokens.Revoke(ctx, token); err != nil {
		return domain.Remote(err)
	}
	p.hub.Publish(token, nil)
	return nil
}

// Subscribe streams session changes for token. The caller must invoke the
// returned cancel function.
func (p *Provider) Subscribe(token string) (<-chan *domain.Session, func()) {
	return p.hub.Subscribe(token)
}

// SessionFromProfile builds the console principal. The display name falls
// back to the local part of the e-mail and the role to candidate.
func SessionFromProfile(profile domain.Profile) *domain.Session {
	name := strings.TrimSpace(profile.FullName)
	if name == "" {
		name, _, _ = strings.Cut(profile.Email, "@")
	}
	role := profile.Role
	if role == "" {
		role = domain.RoleCandidate
	}
	return &domain.Session{
		ID:          profile.ID,
		Email:       profile.Email,
		DisplayName: name,
		Role:        role,
	}
}

// HashPassword returns the bcrypt hash stored for a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
