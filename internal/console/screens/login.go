package screens

import (
	"context"
	"errors"

	"amia-console/internal/console/page"
	"amia-console/internal/console/router"
	"amia-console/internal/domain"
)

const (
	msgLoginMissing     = "Inserisci email e password"
	msgLoginInvalid     = "Credenziali non valide. Riprova."
	msgLoginUnavailable = "Accesso non riuscito. Riprova più tardi."
)

// LoginData is the Data of the login view.
type LoginData struct {
	Email   string `json:"email,omitempty"`
	Pending bool   `json:"pending,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Login mounts the sign-in page. A visitor who already has a session goes
// straight to the dashboard.
func (s *Screens) Login(m *page.Mount, _ router.Params) {
	if s.cfg.Holder.Get() != nil {
		m.Nav.Navigate("/dashboard")
		return
	}

	var guard page.Guard
	var render func(LoginData)
	render = func(data LoginData) {
		m.Region.Render(page.View{Screen: "login", Data: data}, page.Handlers{
			"sign-in": func(_ context.Context, in page.Input) {
				email, password := in.Get("email"), in.Raw("password")
				if email == "" || password == "" {
					render(LoginData{Email: email, Error: msgLoginMissing})
					return
				}
				type signedIn struct {
					token   string
					session *domain.Session
				}
				started := page.Try(m, &guard, func(ctx context.Context) (signedIn, error) {
					token, session, err := s.cfg.Auth.SignIn(ctx, email, password)
					return signedIn{token, session}, err
				}, func(res signedIn, err error) {
					if err != nil {
						msg := msgLoginInvalid
						if !errors.Is(err, domain.ErrInvalidCredentials) {
							msg = msgLoginUnavailable
						}
						render(LoginData{Email: email, Error: msg})
						return
					}
					if s.cfg.SignedIn != nil {
						s.cfg.SignedIn(res.token, res.session)
					} else {
						s.cfg.Holder.Set(res.session)
					}
					m.Nav.Navigate("/dashboard")
				})
				if started {
					render(LoginData{Email: email, Pending: true})
				}
			},
		})
	}
	render(LoginData{})
}
