package memory

import (
	"context"
	"strings"
	"sync"

	"amia-console/internal/domain"
	"github.com/google/uuid"
)

// Directory is an in-memory account store seeded from configuration.
type Directory struct {
	mu      sync.RWMutex
	byID    map[string]domain.Profile
	byEmail map[string]string
}

func NewDirectory(profiles ...domain.Profile) *Directory {
	d := &Directory{
		byID:    make(map[string]domain.Profile),
		byEmail: make(map[string]string),
	}
	for _, p := range profiles {
		d.Add(p)
	}
	return d
}

// Add stores p, assigning an id when missing, and returns the stored profile.
func (d *Directory) Add(p domain.Profile) domain.Profile {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))

	d.mu.Lock()
	defer d.mu.Unlock()
	if old, ok := d.byEmail[p.Email]; ok {
		delete(d.byID, old)
	}
	d.byID[p.ID] = p
	d.byEmail[p.Email] = p.ID
	return p
}

func (d *Directory) FindByEmail(_ context.Context, email string) (domain.Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return domain.Profile{}, domain.NotFound("profile")
	}
	return d.byID[id], nil
}

func (d *Directory) LoadProfile(_ context.Context, id string) (domain.Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.byID[id]
	if !ok {
		return domain.Profile{}, domain.NotFound("profile")
	}
	return p, nil
}
