package page

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"amia-console/internal/domain"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSink struct {
	mu     sync.Mutex
	frames []Frame
	toasts []*Toast
}

func (s *recordingSink) ShowFrame(f Frame) {
	s.mu.Lock()
	s.frames = append(s.frames, f)
	s.mu.Unlock()
}

func (s *recordingSink) ShowToast(t *Toast) {
	s.mu.Lock()
	s.toasts = append(s.toasts, t)
	s.mu.Unlock()
}

func (s *recordingSink) last() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return Frame{}
	}
	return s.frames[len(s.frames)-1]
}

type recordingNav struct{ paths []string }

func (n *recordingNav) Navigate(path string) { n.paths = append(n.paths, path) }

type fixture struct {
	sink   *recordingSink
	queue  *Queue
	screen *Screen
	nav    *recordingNav
	toast  *Toaster
}

func newFixture() *fixture {
	f := &fixture{sink: &recordingSink{}, queue: &Queue{}, nav: &recordingNav{}}
	f.screen = NewScreen(f.sink, func() string { return "/test" }, nil)
	f.toast = NewToaster(f.sink, f.queue, 0)
	return f
}

func (f *fixture) mount() *Mount {
	return &Mount{
		Region: f.screen.Mount(nil, nil),
		Sched:  f.queue,
		Nav:    f.nav,
		Notify: f.toast,
		Ctx:    context.Background(),
	}
}

func TestLoopRunsTasksInOrderAndStops(t *testing.T) {
	loop := NewLoop(nil)

	var (
		mu  sync.Mutex
		got []int
	)
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		loop.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			if i == 4 {
				close(done)
			}
		})
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("loop did not run tasks")
	}
	loop.Close()
	loop.Close()

	for i, v := range got {
		if v != i {
			t.Fatalf("tasks out of order: %v", got)
		}
	}
	loop.Post(func() { t.Errorf("task ran after close") })
	loop.Go(func() { t.Errorf("background task ran after close") })
}

func TestLoopPostsBackgroundResults(t *testing.T) {
	loop := NewLoop(nil)
	defer loop.Close()

	result := make(chan int, 1)
	loop.Go(func() {
		v := 42
		loop.Post(func() { result <- v })
	})
	select {
	case v := <-result:
		if v != 42 {
			t.Fatalf("unexpected result %d", v)
		}
	case <-time.After(time.Second):
		t.Fatalf("continuation never ran")
	}
}

func TestLoopSurvivesPanics(t *testing.T) {
	loop := NewLoop(nil)
	defer loop.Close()

	ran := make(chan struct{})
	loop.Post(func() { panic("boom") })
	loop.Post(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatalf("loop stopped after panic")
	}
}

func TestStaleRegionIsInert(t *testing.T) {
	f := newFixture()
	old := f.screen.Mount(nil, nil)
	fresh := f.screen.Mount(nil, nil)

	fresh.Render(View{Screen: "fresh"}, nil)
	old.Render(View{Screen: "old"}, nil)
	old.OpenModal(View{Screen: "old-modal"}, nil)

	got := f.sink.last()
	if got.Content.Screen != "fresh" || got.Modal != nil {
		t.Fatalf("stale region changed the screen: %+v", got)
	}
	if old.Live() || !fresh.Live() {
		t.Fatalf("unexpected liveness old=%v fresh=%v", old.Live(), fresh.Live())
	}
}

func TestDispatchPrefersModalThenContentThenShell(t *testing.T) {
	f := newFixture()
	var hits []string
	handler := func(name string) ActionFunc {
		return func(context.Context, Input) { hits = append(hits, name) }
	}

	region := f.screen.Mount(&View{Screen: "shell"}, Handlers{"save": handler("shell"), "sign-out": handler("shell")})
	region.Render(View{Screen: "content"}, Handlers{"save": handler("content")})
	region.OpenModal(View{Screen: "modal"}, Handlers{"save": handler("modal")})

	ctx := context.Background()
	f.screen.Dispatch(ctx, "save", Input{})
	region.CloseModal()
	f.screen.Dispatch(ctx, "save", Input{})
	f.screen.Dispatch(ctx, "sign-out", Input{})
	if f.screen.Dispatch(ctx, "unknown", Input{}) {
		t.Fatalf("unknown action must not be handled")
	}

	want := []string{"modal", "content", "shell"}
	if len(hits) != len(want) {
		t.Fatalf("expected %v, got %v", want, hits)
	}
	for i := range want {
		if hits[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, hits)
		}
	}

	frame := f.sink.last()
	if frame.Shell == nil || len(frame.Shell.Actions) != 2 || frame.Content.Actions[0] != "save" {
		t.Fatalf("expected bound actions listed, got %+v", frame)
	}
}

func TestMountDropsHandlersAndModal(t *testing.T) {
	f := newFixture()
	region := f.screen.Mount(nil, nil)
	called := false
	region.Render(View{Screen: "a"}, Handlers{"go": func(context.Context, Input) { called = true }})
	region.OpenModal(View{Screen: "m"}, nil)

	f.screen.Mount(nil, nil)
	f.screen.Dispatch(context.Background(), "go", Input{})
	if called {
		t.Fatalf("handler of previous mount must be unbound")
	}
	if f.screen.Frame().Modal != nil {
		t.Fatalf("modal must be dropped on mount")
	}
}

func TestConfirmRunsOnlyOnExplicitConfirm(t *testing.T) {
	f := newFixture()
	region := f.screen.Mount(nil, nil)
	confirmed := 0
	ctx := context.Background()

	region.Confirm("Eliminare?", func(context.Context) { confirmed++ })
	f.screen.Dispatch(ctx, "cancel", Input{})
	if confirmed != 0 || f.screen.Frame().Modal != nil {
		t.Fatalf("cancel must close without confirming")
	}

	region.Confirm("Eliminare?", func(context.Context) { confirmed++ })
	f.screen.Dispatch(ctx, "confirm", Input{})
	if confirmed != 1 {
		t.Fatalf("expected confirm callback once, got %d", confirmed)
	}
}

func TestLoadRendersPlaceholderThenLoaded(t *testing.T) {
	f := newFixture()
	m := f.mount()

	Load(m, "quizzes", "/dashboard", func(context.Context) (int, error) { return 3, nil }, func(n int) {
		m.Region.Render(View{Screen: "quizzes", Data: n}, nil)
	})
	if st, ok := f.sink.last().Content.Data.(Status); !ok || !st.Loading {
		t.Fatalf("expected loading placeholder, got %+v", f.sink.last().Content)
	}
	f.queue.Flush()
	if f.sink.last().Content.Data != 3 {
		t.Fatalf("expected loaded view, got %+v", f.sink.last().Content)
	}
}

func TestLoadFailureNavigatesToRecovery(t *testing.T) {
	f := newFixture()
	m := f.mount()

	Load(m, "position-form", "/positions", func(context.Context) (int, error) {
		return 0, domain.NotFound("position")
	}, func(int) { t.Fatalf("loaded must not run on failure") })
	f.queue.Flush()

	if len(f.nav.paths) != 1 || f.nav.paths[0] != "/positions" {
		t.Fatalf("expected recovery navigation, got %v", f.nav.paths)
	}
	if cur := f.toast.Current(); cur == nil || cur.Kind != ToastError || cur.Message != "position not found" {
		t.Fatalf("expected error toast, got %+v", cur)
	}
}

func TestLoadFailureWithoutRecoveryRendersUnavailable(t *testing.T) {
	f := newFixture()
	m := f.mount()

	Load(m, "dashboard", "", func(context.Context) (int, error) {
		return 0, errors.New("connection refused")
	}, func(int) {})
	f.queue.Flush()

	st, ok := f.sink.last().Content.Data.(Status)
	if !ok || st.Error != "connection refused" {
		t.Fatalf("expected unavailable view, got %+v", f.sink.last().Content)
	}
	if len(f.nav.paths) != 0 {
		t.Fatalf("expected no navigation")
	}
}

func TestLoadDiscardsStaleCompletion(t *testing.T) {
	f := newFixture()
	m := f.mount()

	Load(m, "a", "/x", func(context.Context) (int, error) { return 0, errors.New("late") }, func(int) {
		t.Fatalf("stale completion delivered")
	})
	f.screen.Mount(nil, nil).Render(View{Screen: "b"}, nil)
	f.queue.Flush()

	if f.sink.last().Content.Screen != "b" || len(f.nav.paths) != 0 || f.toast.Current() != nil {
		t.Fatalf("stale completion must be discarded")
	}
}

func TestMutateFailureLeavesStateAndReleasesGuard(t *testing.T) {
	f := newFixture()
	m := f.mount()
	var guard Guard
	state := "before"

	ok := Mutate(m, &guard, func(context.Context) error { return errors.New("permission denied") }, func() { state = "after" })
	if !ok || !guard.Busy() {
		t.Fatalf("expected guard claimed while in flight")
	}
	if Mutate(m, &guard, func(context.Context) error { return nil }, func() {}) {
		t.Fatalf("expected overlapping mutation to be rejected")
	}
	f.queue.Flush()

	if state != "before" {
		t.Fatalf("view model changed on failure")
	}
	if guard.Busy() {
		t.Fatalf("guard must be released")
	}
	if cur := f.toast.Current(); cur == nil || cur.Message != "permission denied" {
		t.Fatalf("expected service message verbatim, got %+v", cur)
	}

	Mutate(m, &guard, func(context.Context) error { return nil }, func() { state = "after" })
	f.queue.Flush()
	if state != "after" {
		t.Fatalf("expected apply on success")
	}
}

func TestAllWaitsForEveryRead(t *testing.T) {
	var finished int32
	err := All(context.Background(),
		func(context.Context) error {
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&finished, 1)
			return nil
		},
		func(context.Context) error {
			atomic.AddInt32(&finished, 1)
			return errors.New("boom")
		},
	)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected batch failure, got %v", err)
	}
	if atomic.LoadInt32(&finished) != 2 {
		t.Fatalf("expected every read to settle")
	}
}

func TestToasterReplacesAndAutoDismisses(t *testing.T) {
	sink := &recordingSink{}
	q := &Queue{}
	toaster := NewToaster(sink, q, 10*time.Millisecond)
	defer toaster.Close()

	toaster.Success("Salvato")
	toaster.Error("Errore")
	if cur := toaster.Current(); cur.Kind != ToastError || cur.Message != "Errore" {
		t.Fatalf("expected replacement toast, got %+v", cur)
	}

	deadline := time.Now().Add(time.Second)
	for q.Pending() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	q.Flush()
	if toaster.Current() != nil {
		t.Fatalf("expected toast dismissed")
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.toasts[len(sink.toasts)-1] != nil {
		t.Fatalf("expected dismissal published")
	}
}
