// Package app assembles one console runtime per connected tab.
package app

import (
	"context"
	"net/url"
	"sync"
	"time"

	"amia-console/internal/console/gate"
	"amia-console/internal/console/page"
	"amia-console/internal/console/router"
	"amia-console/internal/console/screens"
	"amia-console/internal/datastore"
	"amia-console/internal/domain"
	"amia-console/internal/logger"
)

// DismissToast is handled by the console itself rather than by a page.
const DismissToast = "dismiss-toast"

// SessionProvider is the authentication service as seen by a console.
type SessionProvider interface {
	screens.Authenticator
	CurrentSession(ctx context.Context, token string) (*domain.Session, error)
	SignOut(ctx context.Context, token string) error
	Subscribe(token string) (<-chan *domain.Session, func())
}

// Sink receives everything a console shows its client. Every method is
// called from the console loop.
type Sink interface {
	page.Sink
	ShowLocation(path string)
	// ShowSession reports the session the tab now runs under; a nil session
	// comes with an empty token.
	ShowSession(token string, session *domain.Session)
}

// Options configures a Console.
type Options struct {
	Store         *datastore.Store
	Auth          SessionProvider
	Sink          Sink
	Path          string
	ToastDuration time.Duration
	Log           *logger.Logger
	Now           func() time.Time
}

// Console is the runtime of one tab. All of its state lives on a single loop
// goroutine; Navigate and Dispatch may be called from any goroutine.
type Console struct {
	opts   Options
	log    *logger.Logger
	ctx    context.Context
	cancel context.CancelFunc

	loop    *page.Loop
	loc     *router.Location
	router  *router.Router
	screen  *page.Screen
	toaster *page.Toaster
	holder  *gate.SessionHolder

	// loop-owned
	token      string
	unwatch    func()
	stopLoc    func()
	stopHolder func()

	watchers  sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

func NewConsole(opts Options) *Console {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("console")
	ctx, cancel := context.WithCancel(context.Background())

	c := &Console{
		opts:   opts,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		loop:   page.NewLoop(log),
		holder: gate.NewSessionHolder(),
	}
	c.loc = router.NewLocation(c.loop, opts.Path)
	c.router = router.New(c.loc, c.loop)
	c.screen = page.NewScreen(opts.Sink, c.router.CurrentPath, log)
	c.toaster = page.NewToaster(opts.Sink, c.loop, opts.ToastDuration)

	g := gate.New(gate.Config{
		Holder: c.holder,
		Screen: c.screen,
		Nav:    c.router,
		Sched:  c.loop,
		Notify: c.toaster,
		Ctx:    ctx,
		Log:    log,
		Token:  func() string { return c.token },
		Revoke: func(ctx context.Context, token string) error {
			// Revocation outlives the tab that asked for it.
			return opts.Auth.SignOut(context.WithoutCancel(ctx), token)
		},
	})
	screens.New(screens.Config{
		Store:    opts.Store,
		Auth:     opts.Auth,
		Holder:   c.holder,
		SignedIn: c.adopt,
		Now:      opts.Now,
	}).Register(c.router, g)
	return c
}

// Start restores the session behind token, then resolves the initial path.
// A token the provider no longer knows starts the tab signed out. Only the
// first call has any effect.
func (c *Console) Start(ctx context.Context, token string) {
	c.startOnce.Do(func() {
		session, err := c.opts.Auth.CurrentSession(ctx, token)
		if err != nil {
			c.log.Warn("session restore failed", "error", err)
			session = nil
		}
		c.loop.Post(func() {
			c.stopLoc = c.loc.Subscribe(c.opts.Sink.ShowLocation)
			c.stopHolder = c.holder.Subscribe(c.sessionSet)
			if session != nil {
				c.adopt(token, session)
			} else {
				c.holder.Clear()
			}
			c.router.Start()
		})
	})
}

// Navigate moves the tab to path.
func (c *Console) Navigate(path string) {
	c.loop.Post(func() { c.router.Navigate(path) })
}

// Dispatch runs a client action against whatever the tab currently shows.
func (c *Console) Dispatch(action, target string, values url.Values) {
	c.loop.Post(func() {
		if action == DismissToast {
			c.toaster.Dismiss()
			return
		}
		c.screen.Dispatch(c.ctx, action, page.Input{Target: target, Values: values})
	})
}

// Close stops the loop and drops every subscription. Pending work is
// abandoned and in-flight requests are canceled.
func (c *Console) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.loop.Close()

		// The loop has exited, so its state is safe to touch here.
		c.router.Stop()
		if c.stopLoc != nil {
			c.stopLoc()
		}
		if c.stopHolder != nil {
			c.stopHolder()
		}
		c.watch("")
		c.toaster.Close()
		c.watchers.Wait()
	})
}

// adopt switches the console to a freshly issued or restored token.
func (c *Console) adopt(token string, session *domain.Session) {
	c.token = token
	c.watch(token)
	c.holder.Set(session)
}

func (c *Console) sessionSet(session *domain.Session) {
	if session == nil {
		c.token = ""
		c.watch("")
	}
	c.opts.Sink.ShowSession(c.token, session)
}

// watch follows provider changes for token, replacing any earlier watch.
func (c *Console) watch(token string) {
	if c.unwatch != nil {
		c.unwatch()
		c.unwatch = nil
	}
	if token == "" {
		return
	}
	updates, cancel := c.opts.Auth.Subscribe(token)
	c.unwatch = cancel
	c.watchers.Add(1)
	go func() {
		defer c.watchers.Done()
		for session := range updates {
			session := session
			c.loop.Post(func() { c.providerChanged(token, session) })
		}
	}()
}

// providerChanged replaces the holder with the provider's view of token. A
// tab that loses its session is re-gated on the spot.
func (c *Console) providerChanged(token string, session *domain.Session) {
	if token != c.token {
		return
	}
	signedOut := c.holder.Get() != nil && session == nil
	c.holder.Set(session)
	if signedOut {
		c.router.Resolve()
	}
}
