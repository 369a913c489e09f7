package questions

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"amia-console/internal/console/page"
	"amia-console/internal/datastore"
	"amia-console/internal/domain"
	"amia-console/internal/infra/memory"
	"github.com/google/go-cmp/cmp"
)

// spyStore counts writes and can be told to fail them.
type spyStore struct {
	datastore.Collection[domain.QuizQuestion]
	writes int
	fail   error
}

func (s *spyStore) Insert(ctx context.Context, q domain.QuizQuestion) (domain.QuizQuestion, error) {
	s.writes++
	if s.fail != nil {
		return domain.QuizQuestion{}, s.fail
	}
	return s.Collection.Insert(ctx, q)
}

func (s *spyStore) Update(ctx context.Context, id string, p datastore.Patch) error {
	s.writes++
	if s.fail != nil {
		return s.fail
	}
	return s.Collection.Update(ctx, id, p)
}

func (s *spyStore) Delete(ctx context.Context, id string) error {
	s.writes++
	if s.fail != nil {
		return s.fail
	}
	return s.Collection.Delete(ctx, id)
}

type nopSink struct{}

func (nopSink) ShowFrame(page.Frame)  {}
func (nopSink) ShowToast(*page.Toast) {}

type nopNav struct{}

func (nopNav) Navigate(string) {}

type fixture struct {
	editor *Editor
	store  *spyStore
	queue  *page.Queue
	mount  *page.Mount
	toast  *page.Toaster
}

// newFixture seeds a quiz whose questions have sort orders 0, 1 and 2.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	mem, _ := memory.NewStore()
	quiz, err := mem.Quizzes.Insert(ctx, domain.Quiz{Title: "Logica", Type: domain.QuizLogic})
	if err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
	var seeded []domain.QuizQuestion
	for i, text := range []string{"Uno", "Due", "Tre"} {
		q, err := mem.Questions.Insert(ctx, domain.QuizQuestion{
			QuizID: quiz.ID, Text: text, SortOrder: i, Points: 1,
			Config: domain.NewQuestionConfig(domain.TextBody{}),
		})
		if err != nil {
			t.Fatalf("insert question: %v", err)
		}
		seeded = append(seeded, q)
	}

	f := &fixture{store: &spyStore{Collection: mem.Questions}, queue: &page.Queue{}}
	f.toast = page.NewToaster(nopSink{}, f.queue, 0)
	screen := page.NewScreen(nopSink{}, func() string { return "/quizzes/x/edit" }, nil)
	f.mount = &page.Mount{
		Region: screen.Mount(nil, nil),
		Sched:  f.queue,
		Nav:    nopNav{},
		Notify: f.toast,
		Ctx:    ctx,
	}
	f.editor = NewEditor(quiz.ID, f.store, seeded)
	return f
}

var sameConfig = cmp.Comparer(func(a, b domain.QuestionConfig) bool {
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	return string(ja) == string(jb)
})

func sortOrders(qs []domain.QuizQuestion) []int {
	out := make([]int, len(qs))
	for i, q := range qs {
		out[i] = q.SortOrder
	}
	return out
}

func TestMultipleChoiceWithoutCorrectIsRejectedLocally(t *testing.T) {
	f := newFixture(t)
	f.editor.OpenNew()
	draft := Draft{
		Type:   domain.MultipleChoice,
		Text:   "Quale?",
		Points: 1,
		Options: []OptionDraft{
			{Text: "A"}, {Text: ""}, {Text: "B"},
		},
	}

	err := f.editor.Save(f.mount, draft, nil)
	if domain.KindOf(err) != domain.KindValidation || domain.Message(err) != MsgNoCorrectOption {
		t.Fatalf("expected missing-correct validation, got %v", err)
	}
	f.queue.Flush()
	if f.store.writes != 0 {
		t.Fatalf("expected zero remote calls, got %d", f.store.writes)
	}
	if state, _ := f.editor.State(); state != ModalEditingNew {
		t.Fatalf("modal must stay open, got %s", state)
	}
}

func TestBuildDropsBlankOptionsAndDerivesAllowMultiple(t *testing.T) {
	draft := Draft{
		Type: domain.MultipleChoice,
		Text: "  Quali?  ",
		Options: []OptionDraft{
			{Text: "A", Correct: true},
			{Text: "   ", Correct: true},
			{Text: "B"},
			{Text: "C", Correct: true},
		},
	}
	built, err := draft.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	body, ok := built.Config.Choice()
	if !ok {
		t.Fatalf("expected choice body")
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, body.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 2}, body.Correct); diff != "" {
		t.Fatalf("correct mismatch (-want +got):\n%s", diff)
	}
	if !body.AllowMultiple() {
		t.Fatalf("expected allowMultiple for two correct options")
	}
	if built.Text != "Quali?" {
		t.Fatalf("expected trimmed text, got %q", built.Text)
	}
}

func TestBuildValidation(t *testing.T) {
	cases := []struct {
		name  string
		draft Draft
		want  string
	}{
		{"blank text", Draft{Type: domain.OpenText, Text: "   "}, MsgTextRequired},
		{"one option", Draft{Type: domain.MultipleChoice, Text: "x", Options: []OptionDraft{{Text: "A", Correct: true}, {Text: " "}}}, MsgTooFewOptions},
		{"negative points", Draft{Type: domain.OpenText, Text: "x", Points: -1}, MsgNegativePoints},
		{"unknown type", Draft{Type: "essay", Text: "x"}, MsgUnknownType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.draft.Build()
			if domain.Message(err) != tc.want {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
		})
	}
}

func TestOpenTextCarriesNoOptions(t *testing.T) {
	built, err := Draft{Type: domain.OpenText, Text: "Spiega", Options: []OptionDraft{{Text: "ignored", Correct: true}}, IdealAnswer: " risposta "}.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if built.Config.Kind() != domain.OpenText {
		t.Fatalf("expected open text config")
	}
	if _, ok := built.Config.Choice(); ok {
		t.Fatalf("open text must not carry options")
	}
	if built.IdealAnswer == nil || *built.IdealAnswer != "risposta" {
		t.Fatalf("expected trimmed ideal answer")
	}
}

func TestCreateAppendsWithNextSortOrder(t *testing.T) {
	f := newFixture(t)
	// Sort orders need not be dense for the next one to be max+1.
	f.editor.items[1].SortOrder = 5

	f.editor.OpenNew()
	var outcome error = errors.New("not called")
	closed := false
	err := f.editor.Save(f.mount, Draft{Type: domain.OpenText, Text: "Quattro", Points: 2}, func(c bool, err error) { closed, outcome = c, err })
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	f.queue.Flush()

	if outcome != nil {
		t.Fatalf("expected success, got %v", outcome)
	}
	qs := f.editor.Questions()
	if len(qs) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(qs))
	}
	if last := qs[3]; last.Text != "Quattro" || last.SortOrder != 6 || last.ID == "" {
		t.Fatalf("unexpected appended question %+v", last)
	}
	if state, _ := f.editor.State(); state != ModalClosed || !closed {
		t.Fatalf("expected modal closed, got %s (closed=%v)", state, closed)
	}
}

func TestNextSortOrderOfEmptyQuizIsZero(t *testing.T) {
	e := NewEditor("q", nil, nil)
	if got := e.NextSortOrder(); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestDeleteKeepsOtherSortOrders(t *testing.T) {
	f := newFixture(t)
	target := f.editor.Questions()[1]

	if err := f.editor.Delete(f.mount, target.ID, nil); err != nil {
		t.Fatalf("delete: %v", err)
	}
	f.queue.Flush()

	if diff := cmp.Diff([]int{0, 2}, sortOrders(f.editor.Questions())); diff != "" {
		t.Fatalf("sort orders mismatch (-want +got):\n%s", diff)
	}
	if _, ok := f.editor.Find(target.ID); ok {
		t.Fatalf("expected question removed")
	}
}

func TestUpdateReplacesInPlace(t *testing.T) {
	f := newFixture(t)
	target := f.editor.Questions()[1]

	draft, ok := f.editor.OpenEdit(target.ID)
	if !ok {
		t.Fatalf("open edit")
	}
	draft.Text = "Due, rivista"
	draft.Points = 4
	if err := f.editor.Save(f.mount, draft, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.queue.Flush()

	got, _ := f.editor.Find(target.ID)
	if got.Text != "Due, rivista" || got.Points != 4 || got.SortOrder != 1 {
		t.Fatalf("unexpected updated question %+v", got)
	}
	if f.editor.Questions()[1].ID != target.ID {
		t.Fatalf("expected question to keep its position")
	}
}

func TestFailedUpdateLeavesCollectionAndModalUnchanged(t *testing.T) {
	f := newFixture(t)
	before := f.editor.Questions()
	target := before[0]

	draft, _ := f.editor.OpenEdit(target.ID)
	draft.Text = "Cambiata"
	f.store.fail = errors.New("row-level security violation")

	var outcome error
	if err := f.editor.Save(f.mount, draft, func(_ bool, err error) { outcome = err }); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.queue.Flush()

	if outcome == nil {
		t.Fatalf("expected failure reported")
	}
	if diff := cmp.Diff(before, f.editor.Questions(), sameConfig); diff != "" {
		t.Fatalf("collection changed on failure (-want +got):\n%s", diff)
	}
	if state, id := f.editor.State(); state != ModalEditingExisting || id != target.ID {
		t.Fatalf("expected modal still editing %s, got %s %s", target.ID, state, id)
	}
	if cur := f.toast.Current(); cur == nil || cur.Message != "row-level security violation" {
		t.Fatalf("expected error toast with service message, got %+v", cur)
	}
}

func TestFailedCreateLeavesCollectionAndModalUnchanged(t *testing.T) {
	f := newFixture(t)
	before := f.editor.Questions()

	f.editor.OpenNew()
	f.store.fail = errors.New("insert rejected")
	var outcome error
	closed := true
	if err := f.editor.Save(f.mount, Draft{Type: domain.OpenText, Text: "Quattro", Points: 1}, func(c bool, err error) { closed, outcome = c, err }); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.queue.Flush()

	if outcome == nil || closed {
		t.Fatalf("expected failure without closing, got closed=%v err=%v", closed, outcome)
	}
	if diff := cmp.Diff(before, f.editor.Questions(), sameConfig); diff != "" {
		t.Fatalf("collection changed on failure (-want +got):\n%s", diff)
	}
	if state, _ := f.editor.State(); state != ModalEditingNew {
		t.Fatalf("expected modal still editing a new question, got %s", state)
	}
}

func TestFailedDeleteKeepsQuestion(t *testing.T) {
	f := newFixture(t)
	before := f.editor.Questions()
	target := before[2]

	f.store.fail = errors.New("delete rejected")
	var outcome error
	if err := f.editor.Delete(f.mount, target.ID, func(err error) { outcome = err }); err != nil {
		t.Fatalf("delete: %v", err)
	}
	f.queue.Flush()

	if outcome == nil {
		t.Fatalf("expected failure reported")
	}
	if _, ok := f.editor.Find(target.ID); !ok {
		t.Fatalf("expected question %s kept", target.ID)
	}
	if diff := cmp.Diff(before, f.editor.Questions(), sameConfig); diff != "" {
		t.Fatalf("collection changed on failure (-want +got):\n%s", diff)
	}
}

func TestSaveKeepsModalReopenedWhileInFlight(t *testing.T) {
	f := newFixture(t)
	other := f.editor.Questions()[0]

	f.editor.OpenNew()
	closed := true
	if err := f.editor.Save(f.mount, Draft{Type: domain.OpenText, Text: "Quattro", Points: 1}, func(c bool, _ error) { closed = c }); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.editor.Cancel()
	if _, ok := f.editor.OpenEdit(other.ID); !ok {
		t.Fatalf("open edit")
	}
	f.queue.Flush()

	if closed {
		t.Fatalf("save must not report closing a modal it did not open")
	}
	if state, id := f.editor.State(); state != ModalEditingExisting || id != other.ID {
		t.Fatalf("expected modal still editing %s, got %s %q", other.ID, state, id)
	}
	if len(f.editor.Questions()) != 4 {
		t.Fatalf("expected the insert to land, got %d questions", len(f.editor.Questions()))
	}
}

func TestUpdateKeepsModalCancelledWhileInFlight(t *testing.T) {
	f := newFixture(t)
	target := f.editor.Questions()[1]

	draft, _ := f.editor.OpenEdit(target.ID)
	draft.Text = "Due, rivista"
	closed := true
	if err := f.editor.Save(f.mount, draft, func(c bool, _ error) { closed = c }); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.editor.Cancel()
	f.editor.OpenNew()
	f.queue.Flush()

	if closed {
		t.Fatalf("update must not close the new-question modal")
	}
	if state, _ := f.editor.State(); state != ModalEditingNew {
		t.Fatalf("expected new-question modal kept, got %s", state)
	}
	if got, _ := f.editor.Find(target.ID); got.Text != "Due, rivista" {
		t.Fatalf("expected update applied, got %+v", got)
	}
}

func TestOverlappingWritesAreBlocked(t *testing.T) {
	f := newFixture(t)
	ids := f.editor.Questions()

	if err := f.editor.Delete(f.mount, ids[0].ID, nil); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := f.editor.Delete(f.mount, ids[1].ID, nil); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected busy, got %v", err)
	}
	f.queue.Flush()
	if f.store.writes != 1 {
		t.Fatalf("expected a single remote write, got %d", f.store.writes)
	}
	if f.editor.Busy() {
		t.Fatalf("guard must be released after completion")
	}
}

func TestParseDraftMapsCorrectIndexes(t *testing.T) {
	in := page.Input{Values: url.Values{
		"type":    {"multiple_choice"},
		"text":    {"Quale?"},
		"points":  {"abc"},
		"option":  {"A", "", "B"},
		"correct": {"2"},
	}}
	d := ParseDraft(in)
	if d.Points != 0 {
		t.Fatalf("non-numeric points must count as zero, got %d", d.Points)
	}
	built, err := d.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	body, _ := built.Config.Choice()
	if diff := cmp.Diff([]int{1}, body.Correct); diff != "" {
		t.Fatalf("correct mismatch (-want +got):\n%s", diff)
	}
}

func TestDraftFromRoundTripsChoice(t *testing.T) {
	q := domain.QuizQuestion{
		Text:   "Quale?",
		Points: 3,
		Config: domain.NewQuestionConfig(domain.ChoiceBody{Options: []string{"A", "B"}, Correct: []int{1}}),
	}
	d := DraftFrom(q)
	want := []OptionDraft{{Text: "A"}, {Text: "B", Correct: true}}
	if diff := cmp.Diff(want, d.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}
