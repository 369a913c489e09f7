// Package screens holds the console pages and the route table that binds
// them to paths.
package screens

import (
	"context"
	"errors"
	"time"

	"amia-console/internal/console/gate"
	"amia-console/internal/console/router"
	"amia-console/internal/datastore"
	"amia-console/internal/domain"
)

// Authenticator signs administrators in.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (string, *domain.Session, error)
}

// Config wires the pages to their collaborators.
type Config struct {
	Store  *datastore.Store
	Auth   Authenticator
	Holder *gate.SessionHolder
	// SignedIn adopts a token and session issued by the login page.
	SignedIn func(token string, session *domain.Session)
	Now      func() time.Time
}

// Screens is the set of console pages.
type Screens struct {
	cfg Config
}

func New(cfg Config) *Screens {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Screens{cfg: cfg}
}

// Register installs the route table on r. Order matters: the first matching
// pattern wins, so literal segments are registered before parameters that
// would also match them.
func (s *Screens) Register(r *router.Router, g *gate.Gate) {
	r.Register("/login", g.Bare(s.Login))
	r.Register("/dashboard", g.Guard(s.Dashboard))
	r.Register("/positions", g.Guard(s.Positions))
	r.Register("/positions/new", g.Guard(s.PositionForm))
	r.Register("/positions/:id/edit", g.Guard(s.PositionForm))
	r.Register("/positions/:id/applications", g.Guard(s.Applications))
	r.Register("/applications", g.Guard(s.Applications))
	r.Register("/applications/:id", g.Guard(s.ApplicationDetail))
	r.Register("/quizzes", g.Guard(s.Quizzes))
	r.Register("/quizzes/new", g.Guard(s.QuizEditor))
	r.Register("/quizzes/:id/edit", g.Guard(s.QuizEditor))
	r.Register("/settings", g.Guard(s.Settings))

	r.Fallback(func(router.Params) {
		if s.cfg.Holder.Get() != nil {
			r.Navigate("/dashboard")
			return
		}
		r.Navigate(gate.LoginPath)
	})
}

// notFound relabels a missing-row error with a message for the user.
func notFound(err error, msg string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.Error{Kind: domain.KindNotFound, Message: msg, Err: err}
	}
	return err
}
