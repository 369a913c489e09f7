package page

import (
	"context"

	"amia-console/internal/domain"
	"amia-console/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Navigator moves the tab to another path.
type Navigator interface {
	Navigate(path string)
}

// Notifier shows transient feedback.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Mount is everything a page needs for one mount: its content region, the
// loop, navigation, notifications, the session it was mounted under and the
// console's context.
type Mount struct {
	Region  *Region
	Sched   Scheduler
	Nav     Navigator
	Notify  Notifier
	Session *domain.Session
	Ctx     context.Context
	Log     *logger.Logger
}

// Live reports whether the mount is still current.
func (m *Mount) Live() bool {
	return m.Region.Live()
}

func (m *Mount) logger() *logger.Logger {
	if m.Log == nil {
		return logger.Nop()
	}
	return m.Log
}

// Guard marks a mutating action in progress. It lives on the loop.
type Guard struct {
	busy bool
}

// Begin claims the guard, returning false if an action is already running.
func (g *Guard) Begin() bool {
	if g.busy {
		return false
	}
	g.busy = true
	return true
}

func (g *Guard) End()       { g.busy = false }
func (g *Guard) Busy() bool { return g.busy }

// Load renders a placeholder for screen, runs fetch in the background and
// hands the result to loaded on the loop. On failure it shows an error toast
// and navigates to recovery, or renders an unavailable view when recovery
// is empty. Results for a stale mount are discarded.
func Load[T any](m *Mount, screen, recovery string, fetch func(ctx context.Context) (T, error), loaded func(T)) {
	m.Region.Render(View{Screen: screen, Data: Status{Loading: true}}, nil)
	m.Sched.Go(func() {
		vm, err := fetch(m.Ctx)
		m.Sched.Post(func() {
			if !m.Live() {
				return
			}
			if err != nil {
				m.logger().Warn("page load failed", "screen", screen, "error", err)
				m.Notify.Error(domain.Message(err))
				if recovery != "" {
					m.Nav.Navigate(recovery)
					return
				}
				m.Region.Render(View{Screen: screen, Data: Status{Error: domain.Message(err)}}, nil)
				return
			}
			loaded(vm)
		})
	})
}

// All runs independent reads concurrently and waits for every one of them.
// Any failure fails the batch.
func All(ctx context.Context, reads ...func(ctx context.Context) error) error {
	var g errgroup.Group
	for _, read := range reads {
		read := read
		g.Go(func() error { return read(ctx) })
	}
	return g.Wait()
}

// Run executes a guarded remote call. It returns false without doing
// anything when guard is busy. The guard is released on the loop before
// done runs; done is skipped for a stale mount. A failure is reported as an
// error toast before done sees it.
func Run[T any](m *Mount, guard *Guard, remote func(ctx context.Context) (T, error), done func(T, error)) bool {
	return run(m, guard, true, remote, done)
}

// Try is Run without the error toast, for pages that report failures inline.
func Try[T any](m *Mount, guard *Guard, remote func(ctx context.Context) (T, error), done func(T, error)) bool {
	return run(m, guard, false, remote, done)
}

func run[T any](m *Mount, guard *Guard, notify bool, remote func(ctx context.Context) (T, error), done func(T, error)) bool {
	if guard != nil && !guard.Begin() {
		return false
	}
	m.Sched.Go(func() {
		v, err := remote(m.Ctx)
		m.Sched.Post(func() {
			if guard != nil {
				guard.End()
			}
			if !m.Live() {
				return
			}
			if err != nil {
				m.logger().Warn("remote call failed", "error", err)
				if notify {
					m.Notify.Error(domain.Message(err))
				}
			}
			done(v, err)
		})
	})
	return true
}

// Mutate is Run for calls without a result: apply runs only on success and
// the view model is left untouched on failure.
func Mutate(m *Mount, guard *Guard, remote func(ctx context.Context) error, apply func()) bool {
	return Run(m, guard, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, remote(ctx)
	}, func(_ struct{}, err error) {
		if err == nil {
			apply()
		}
	})
}
