package questions

import (
	"context"
	"errors"

	"amia-console/internal/console/page"
	"amia-console/internal/datastore"
	"amia-console/internal/domain"
)

// ErrBusy is returned when a save or delete is already in flight.
var ErrBusy = errors.New("operation in progress")

// ModalState is the question modal's state.
type ModalState int

const (
	ModalClosed ModalState = iota
	ModalEditingNew
	ModalEditingExisting
)

func (s ModalState) String() string {
	switch s {
	case ModalEditingNew:
		return "editing_new"
	case ModalEditingExisting:
		return "editing_existing"
	default:
		return "closed"
	}
}

// Editor owns the in-memory question list of one quiz. The list mirrors the
// data service: it changes only after the corresponding remote write has
// succeeded. Use it on the console loop.
type Editor struct {
	quizID string
	store  datastore.Collection[domain.QuizQuestion]
	items  []domain.QuizQuestion
	guard  page.Guard

	state   ModalState
	editing string
	// modalSeq changes on every modal transition; a save closes the modal
	// only if it is still the one the save started from.
	modalSeq int
}

// NewEditor starts an editor over questions already ordered by sort order.
func NewEditor(quizID string, store datastore.Collection[domain.QuizQuestion], questions []domain.QuizQuestion) *Editor {
	return &Editor{
		quizID: quizID,
		store:  store,
		items:  append([]domain.QuizQuestion(nil), questions...),
	}
}

// Questions returns a copy of the current list.
func (e *Editor) Questions() []domain.QuizQuestion {
	return append([]domain.QuizQuestion(nil), e.items...)
}

// Find returns the question with id.
func (e *Editor) Find(id string) (domain.QuizQuestion, bool) {
	if i := e.index(id); i >= 0 {
		return e.items[i], true
	}
	return domain.QuizQuestion{}, false
}

// State returns the modal state and, when editing an existing question, its id.
func (e *Editor) State() (ModalState, string) {
	return e.state, e.editing
}

// Busy reports whether a save or delete is in flight.
func (e *Editor) Busy() bool {
	return e.guard.Busy()
}

// NextSortOrder is one past the highest sort order, or 0 for an empty quiz.
func (e *Editor) NextSortOrder() int {
	next := 0
	for _, q := range e.items {
		if q.SortOrder >= next {
			next = q.SortOrder + 1
		}
	}
	return next
}

// OpenNew opens the modal for a new question and returns its blank form.
func (e *Editor) OpenNew() Draft {
	e.state, e.editing = ModalEditingNew, ""
	e.modalSeq++
	return NewDraft()
}

// OpenEdit opens the modal for question id and returns its form.
func (e *Editor) OpenEdit(id string) (Draft, bool) {
	q, ok := e.Find(id)
	if !ok {
		return Draft{}, false
	}
	e.state, e.editing = ModalEditingExisting, id
	e.modalSeq++
	return DraftFrom(q), true
}

// Cancel closes the modal.
func (e *Editor) Cancel() {
	e.state, e.editing = ModalClosed, ""
	e.modalSeq++
}

// Save validates draft and writes it: a new question is appended after the
// highest sort order, an existing one is replaced in place keeping its sort
// order. Validation failures return immediately without any remote call.
// done, if not nil, runs on the loop after the write; on failure the list
// and the modal are left as they were. On success the modal closes only if
// no other modal transition happened while the write was in flight; closed
// reports whether it did.
func (e *Editor) Save(m *page.Mount, draft Draft, done func(closed bool, err error)) error {
	built, err := draft.Build()
	if err != nil {
		return err
	}
	switch e.state {
	case ModalEditingNew:
		return e.create(m, built, done)
	case ModalEditingExisting:
		return e.update(m, e.editing, built, done)
	default:
		return domain.Validation("nessuna domanda aperta")
	}
}

func (e *Editor) create(m *page.Mount, built Built, done func(bool, error)) error {
	row := domain.QuizQuestion{
		QuizID:      e.quizID,
		Text:        built.Text,
		SortOrder:   e.NextSortOrder(),
		Points:      built.Points,
		Config:      built.Config,
		IdealAnswer: built.IdealAnswer,
	}
	seq := e.modalSeq
	started := page.Run(m, &e.guard, func(ctx context.Context) (domain.QuizQuestion, error) {
		return e.store.Insert(ctx, row)
	}, func(created domain.QuizQuestion, err error) {
		closed := false
		if err == nil {
			e.items = append(e.items, created)
			closed = e.closeIfUnchanged(seq)
		}
		if done != nil {
			done(closed, err)
		}
	})
	if !started {
		return ErrBusy
	}
	return nil
}

func (e *Editor) update(m *page.Mount, id string, built Built, done func(bool, error)) error {
	patch := datastore.Patch{
		"question_text": built.Text,
		"points":        built.Points,
		"config":        built.Config,
		"ideal_answer":  built.IdealAnswer,
	}
	seq := e.modalSeq
	closed := false
	return e.write(m, func(ctx context.Context) error {
		return e.store.Update(ctx, id, patch)
	}, func() {
		if i := e.index(id); i >= 0 {
			q := e.items[i]
			q.Text = built.Text
			q.Points = built.Points
			q.Config = built.Config
			q.IdealAnswer = built.IdealAnswer
			e.items[i] = q
		}
		closed = e.closeIfUnchanged(seq)
	}, func(err error) {
		if done != nil {
			done(closed, err)
		}
	})
}

// Delete removes question id after the remote delete succeeds. Other
// questions keep their sort orders.
func (e *Editor) Delete(m *page.Mount, id string, done func(error)) error {
	return e.write(m, func(ctx context.Context) error {
		return e.store.Delete(ctx, id)
	}, func() {
		if i := e.index(id); i >= 0 {
			e.items = append(e.items[:i:i], e.items[i+1:]...)
		}
	}, done)
}

func (e *Editor) write(m *page.Mount, remote func(ctx context.Context) error, apply func(), done func(error)) error {
	started := page.Run(m, &e.guard, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, remote(ctx)
	}, func(_ struct{}, err error) {
		if err == nil {
			apply()
		}
		if done != nil {
			done(err)
		}
	})
	if !started {
		return ErrBusy
	}
	return nil
}

func (e *Editor) closeIfUnchanged(seq int) bool {
	if e.modalSeq != seq {
		return false
	}
	e.Cancel()
	return true
}

func (e *Editor) index(id string) int {
	for i, q := range e.items {
		if q.ID == id {
			return i
		}
	}
	return -1
}
