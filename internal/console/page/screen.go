package page

import (
	"context"

	"amia-console/internal/logger"
)

// Screen is the tab's display: an optional shell around a content region,
// plus a modal layer. Each Mount starts a new generation; regions handed out
// for older generations become inert.
type Screen struct {
	sink Sink
	path func() string
	log  *logger.Logger

	gen           uint64
	shell         *View
	shellHandlers Handlers
	content       View
	handlers      Handlers
	modal         *View
	modalHandlers Handlers
}

func NewScreen(sink Sink, path func() string, log *logger.Logger) *Screen {
	if log == nil {
		log = logger.Nop()
	}
	return &Screen{sink: sink, path: path, log: log}
}

// Mount starts a new generation with the given shell (nil for a bare page),
// drops every bound handler and any open modal, and returns the content
// region of the new generation.
func (s *Screen) Mount(shell *View, shellHandlers Handlers) *Region {
	s.gen++
	if shell != nil {
		v := *shell
		v.Actions = shellHandlers.names()
		shell = &v
	}
	s.shell = shell
	s.shellHandlers = shellHandlers
	s.content = View{}
	s.handlers = nil
	s.modal = nil
	s.modalHandlers = nil
	return &Region{screen: s, gen: s.gen}
}

// Generation returns the current mount generation.
func (s *Screen) Generation() uint64 {
	return s.gen
}

// Frame returns what the tab currently shows.
func (s *Screen) Frame() Frame {
	return Frame{Path: s.path(), Shell: s.shell, Content: s.content, Modal: s.modal}
}

// Dispatch runs the named action, looking in the modal, then the content,
// then the shell. It reports whether a handler was found.
func (s *Screen) Dispatch(ctx context.Context, action string, in Input) bool {
	for _, set := range []Handlers{s.modalHandlers, s.handlers, s.shellHandlers} {
		if fn, ok := set[action]; ok {
			fn(ctx, in)
			return true
		}
	}
	s.log.Debug("ignoring unbound action", "action", action, "path", s.path())
	return false
}

// Refresh republishes the current frame.
func (s *Screen) Refresh() {
	s.sink.ShowFrame(s.Frame())
}

// Region is the content area of one mount generation.
type Region struct {
	screen *Screen
	gen    uint64
}

// Live reports whether the region still belongs to the current mount.
func (r *Region) Live() bool {
	return r != nil && r.screen.gen == r.gen
}

// Render replaces the content view, then binds its handlers.
func (r *Region) Render(v View, h Handlers) {
	if !r.Live() {
		return
	}
	s := r.screen
	v.Actions = h.names()
	s.content = v
	s.handlers = h
	s.Refresh()
}

// OpenModal shows a modal above the content.
func (r *Region) OpenModal(v View, h Handlers) {
	if !r.Live() {
		return
	}
	s := r.screen
	v.Actions = h.names()
	s.modal = &v
	s.modalHandlers = h
	s.Refresh()
}

// CloseModal removes the modal, if any.
func (r *Region) CloseModal() {
	if !r.Live() || r.screen.modal == nil {
		return
	}
	r.screen.modal = nil
	r.screen.modalHandlers = nil
	r.screen.Refresh()
}

// ConfirmData is the Data of a confirmation prompt.
type ConfirmData struct {
	Message string `json:"message"`
}

// Confirm asks the user to confirm message. onConfirm runs only after an
// explicit "confirm" action; "cancel" just closes the prompt.
func (r *Region) Confirm(message string, onConfirm func(ctx context.Context)) {
	r.OpenModal(View{Screen: "confirm", Data: ConfirmData{Message: message}}, Handlers{
		"confirm": func(ctx context.Context, _ Input) {
			r.CloseModal()
			onConfirm(ctx)
		},
		"cancel": func(context.Context, Input) {
			r.CloseModal()
		},
	})
}
