// Package gate decides, synchronously and without network calls, whether a
// route may render: unauthenticated visitors go to /login, non-administrators
// see an access-denied view, administrators get the console shell.
package gate

import (
	"context"
	"strings"
	"unicode/utf8"

	"amia-console/internal/console/page"
	"amia-console/internal/console/router"
	"amia-console/internal/logger"
)

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/login"

// Navigator is the router as seen by the gate.
type Navigator interface {
	Navigate(path string)
	CurrentPath() string
}

// Page mounts a screen into the content region of m.
type Page func(m *page.Mount, params router.Params)

// NavItem is one entry of the shell navigation.
type NavItem struct {
	Label  string `json:"label"`
	Path   string `json:"path"`
	Active bool   `json:"active"`
}

// UserSummary is the signed-in user as shown in the shell.
type UserSummary struct {
	Initial string `json:"initial"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

// ShellData is the Data of the shell view.
type ShellData struct {
	Items []NavItem   `json:"items"`
	User  UserSummary `json:"user"`
}

// DeniedData is the Data of the access-denied view.
type DeniedData struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

var navItems = []NavItem{
	{Label: "Dashboard", Path: "/dashboard"},
	{Label: "Posizioni", Path: "/positions"},
	{Label: "Candidature", Path: "/applications"},
	{Label: "Quiz", Path: "/quizzes"},
	{Label: "Impostazioni", Path: "/settings"},
}

// Config wires a Gate.
type Config struct {
	Holder *SessionHolder
	Screen *page.Screen
	Nav    Navigator
	Sched  page.Scheduler
	Notify page.Notifier
	Ctx    context.Context
	Log    *logger.Logger
	// Token returns the console's current token. Revoke invalidates a token
	// at the provider.
	Token  func() string
	Revoke func(ctx context.Context, token string) error
}

// Gate guards routes on the current session.
type Gate struct {
	cfg Config
}

func New(cfg Config) *Gate {
	if cfg.Log == nil {
		cfg.Log = logger.Nop()
	}
	if cfg.Ctx == nil {
		cfg.Ctx = context.Background()
	}
	return &Gate{cfg: cfg}
}

// Guard wraps p so it only mounts for administrators.
func (g *Gate) Guard(p Page) router.Handler {
	return func(params router.Params) {
		session := g.cfg.Holder.Get()
		if session == nil {
			g.cfg.Nav.Navigate(LoginPath)
			return
		}
		if !session.IsAdmin() {
			region := g.cfg.Screen.Mount(nil, nil)
			region.Render(page.View{Screen: "access-denied", Data: DeniedData{
				Title:   "Accesso negato",
				Message: "Non hai i permessi per accedere a questa sezione.",
			}}, nil)
			return
		}

		name := session.DisplayName
		if name == "" {
			name = "Utente"
		}
		shell := &page.View{Screen: "shell", Data: ShellData{
			Items: activeItems(g.cfg.Nav.CurrentPath()),
			User: UserSummary{
				Initial: initial(name),
				Name:    name,
				Email:   session.Email,
			},
		}}
		region := g.cfg.Screen.Mount(shell, page.Handlers{
			"sign-out": func(ctx context.Context, _ page.Input) { g.SignOut(ctx) },
		})
		p(g.mount(region), params)
	}
}

// Bare mounts p without the shell and without a session check.
func (g *Gate) Bare(p Page) router.Handler {
	return func(params router.Params) {
		p(g.mount(g.cfg.Screen.Mount(nil, nil)), params)
	}
}

// SignOut clears the session, goes to /login and revokes the token in the
// background. Revocation failures are only logged.
func (g *Gate) SignOut(ctx context.Context) {
	var token string
	if g.cfg.Token != nil {
		token = g.cfg.Token()
	}
	g.cfg.Holder.Clear()
	g.cfg.Nav.Navigate(LoginPath)
	if g.cfg.Revoke == nil {
		return
	}
	revoke := g.cfg.Revoke
	g.cfg.Sched.Go(func() {
		if err := revoke(ctx, token); err != nil {
			g.cfg.Log.Warn("sign-out revoke failed", "error", err)
		}
	})
}

func (g *Gate) mount(region *page.Region) *page.Mount {
	return &page.Mount{
		Region:  region,
		Sched:   g.cfg.Sched,
		Nav:     g.cfg.Nav,
		Notify:  g.cfg.Notify,
		Session: g.cfg.Holder.Get(),
		Ctx:     g.cfg.Ctx,
		Log:     g.cfg.Log,
	}
}

func activeItems(current string) []NavItem {
	items := make([]NavItem, len(navItems))
	for i, item := range navItems {
		item.Active = current == item.Path ||
			(item.Path != "/dashboard" && strings.HasPrefix(current, item.Path))
		items[i] = item
	}
	return items
}

func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return "U"
	}
	return strings.ToUpper(string(r))
}
