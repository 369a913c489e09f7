package page

import "time"

// ToastKind is the tone of a notification.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// Toast is a transient notification.
type Toast struct {
	ID      int       `json:"id"`
	Kind    ToastKind `json:"kind"`
	Message string    `json:"message"`
}

// Toaster shows at most one toast at a time; a new toast replaces the
// current one. Toasts dismiss themselves after the configured duration
// (zero keeps them until replaced or dismissed). Use it on the loop only.
type Toaster struct {
	sink     Sink
	sched    Scheduler
	duration time.Duration

	seq     int
	current *Toast
	timer   *time.Timer
}

func NewToaster(sink Sink, sched Scheduler, duration time.Duration) *Toaster {
	return &Toaster{sink: sink, sched: sched, duration: duration}
}

func (t *Toaster) Success(msg string) { t.Show(ToastSuccess, msg) }
func (t *Toaster) Error(msg string)   { t.Show(ToastError, msg) }

// Show replaces the current toast.
func (t *Toaster) Show(kind ToastKind, msg string) {
	t.stopTimer()
	t.seq++
	t.current = &Toast{ID: t.seq, Kind: kind, Message: msg}
	t.sink.ShowToast(t.current)

	if t.duration > 0 {
		id := t.seq
		t.timer = time.AfterFunc(t.duration, func() {
			t.sched.Post(func() { t.dismiss(id) })
		})
	}
}

// Current returns the visible toast, or nil.
func (t *Toaster) Current() *Toast {
	return t.current
}

// Dismiss hides the current toast.
func (t *Toaster) Dismiss() {
	if t.current != nil {
		t.dismiss(t.current.ID)
	}
}

// Close cancels a pending auto-dismiss.
func (t *Toaster) Close() {
	t.stopTimer()
}

func (t *Toaster) dismiss(id int) {
	if t.current == nil || t.current.ID != id {
		return
	}
	t.stopTimer()
	t.current = nil
	t.sink.ShowToast(nil)
}

func (t *Toaster) stopTimer() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
