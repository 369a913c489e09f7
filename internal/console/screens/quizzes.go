package screens

import (
	"context"
	"errors"

	"amia-console/internal/console/page"
	"amia-console/internal/console/questions"
	"amia-console/internal/console/router"
	"amia-console/internal/datastore"
	"amia-console/internal/domain"
)

// Quiz form validation messages.
const (
	MsgQuizTitleRequired = "Inserisci un titolo"
	MsgQuizTypeInvalid   = "Tipo di quiz non valido"
	MsgDurationInvalid   = "La durata deve essere un numero"
	MsgDurationNegative  = "La durata non può essere negativa"
)

const defaultQuizMinutes = 25

// QuizRow is a quiz with its question count.
type QuizRow struct {
	domain.Quiz
	TypeLabel string `json:"type_label"`
	Questions int    `json:"questions_count"`
}

// QuizzesData is the Data of the quizzes list.
type QuizzesData struct {
	Quizzes []QuizRow `json:"quizzes"`
}

// Quizzes mounts the quiz list.
func (s *Screens) Quizzes(m *page.Mount, _ router.Params) {
	page.Load(m, "quizzes", "", s.loadQuizzes, func(rows []QuizRow) {
		m.Region.Render(page.View{Screen: "quizzes", Data: QuizzesData{Quizzes: rows}}, page.Handlers{
			"new": func(context.Context, page.Input) {
				m.Nav.Navigate("/quizzes/new")
			},
			"edit": func(_ context.Context, in page.Input) {
				m.Nav.Navigate("/quizzes/" + in.Target + "/edit")
			},
		})
	})
}

func (s *Screens) loadQuizzes(ctx context.Context) ([]QuizRow, error) {
	var (
		quizzes []domain.Quiz
		counts  map[string]int
	)
	err := page.All(ctx,
		func(ctx context.Context) (err error) {
			quizzes, err = s.cfg.Store.Quizzes.Select(ctx, datastore.Query{}.OrderByDesc("created_at"))
			return err
		},
		func(ctx context.Context) (err error) {
			counts, err = s.cfg.Store.Questions.CountBy(ctx, "quiz_id", datastore.Query{})
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	rows := make([]QuizRow, 0, len(quizzes))
	for _, q := range quizzes {
		rows = append(rows, QuizRow{Quiz: q, TypeLabel: quizTypeLabel(q.Type), Questions: counts[q.ID]})
	}
	return rows, nil
}

// QuizInput is the submitted quiz metadata form.
type QuizInput struct {
	Title           string          `validate:"required"`
	Description     *string
	Type            domain.QuizType `validate:"oneof=logic skills attitudinal"`
	DurationMinutes *int            `validate:"omitempty,gte=0"`
}

var quizMessages = []fieldMessage{
	{field: "Title", msg: MsgQuizTitleRequired},
	{field: "Type", msg: MsgQuizTypeInvalid},
	{field: "DurationMinutes", msg: MsgDurationNegative},
}

// ParseQuizInput reads and validates the quiz metadata form.
func ParseQuizInput(in page.Input) (QuizInput, error) {
	q := QuizInput{
		Title:       in.Get("title"),
		Description: optional(in.Get("description")),
		Type:        domain.QuizType(in.Get("quiz_type")),
	}
	v, ok, parseErr := in.Int("duration_minutes")
	if ok {
		q.DurationMinutes = &v
	}
	if err := checkForm(q, quizMessages); err != nil {
		return q, err
	}
	if parseErr != nil {
		return q, domain.Validation(MsgDurationInvalid)
	}
	return q, nil
}

// QuestionView is a question card of the quiz editor.
type QuestionView struct {
	ID            string                  `json:"id"`
	Number        int                     `json:"number"`
	Text          string                  `json:"question_text"`
	Type          domain.QuestionType     `json:"question_type"`
	TypeLabel     string                  `json:"type_label"`
	Points        int                     `json:"points"`
	SortOrder     int                     `json:"sort_order"`
	Options       []questions.OptionDraft `json:"options,omitempty"`
	AllowMultiple bool                    `json:"allow_multiple,omitempty"`
	IdealAnswer   *string                 `json:"ideal_answer,omitempty"`
}

// QuizEditorData is the Data of the quiz editor.
type QuizEditorData struct {
	Editing   bool           `json:"editing"`
	Quiz      domain.Quiz    `json:"quiz"`
	Types     []Option       `json:"types"`
	Questions []QuestionView `json:"questions,omitempty"`
	Saving    bool           `json:"saving,omitempty"`
}

// QuestionModalData is the Data of the question modal.
type QuestionModalData struct {
	New   bool            `json:"new"`
	Draft questions.Draft `json:"draft"`
	Types []Option        `json:"types"`
}

type quizEditor struct {
	quiz      domain.Quiz
	questions []domain.QuizQuestion
}

// QuizEditor mounts the quiz metadata form and, for an existing quiz, its
// question list. Creating a quiz moves to its edit path so questions can be
// added.
func (s *Screens) QuizEditor(m *page.Mount, params router.Params) {
	id := params["id"]
	page.Load(m, "quiz-editor", "/quizzes", func(ctx context.Context) (quizEditor, error) {
		return s.loadQuizEditor(ctx, id)
	}, func(qe quizEditor) {
		p := &quizEditorPage{
			s:      s,
			m:      m,
			id:     id,
			quiz:   qe.quiz,
			editor: questions.NewEditor(id, s.cfg.Store.Questions, qe.questions),
		}
		p.render()
	})
}

func (s *Screens) loadQuizEditor(ctx context.Context, id string) (quizEditor, error) {
	if id == "" {
		minutes := defaultQuizMinutes
		return quizEditor{quiz: domain.Quiz{Type: domain.QuizLogic, DurationMinutes: &minutes}}, nil
	}
	var qe quizEditor
	err := page.All(ctx,
		func(ctx context.Context) error {
			quiz, err := s.cfg.Store.Quizzes.Get(ctx, id)
			if err != nil {
				return notFound(err, "Quiz non trovato")
			}
			qe.quiz = quiz
			return nil
		},
		func(ctx context.Context) (err error) {
			qe.questions, err = s.cfg.Store.Questions.Select(ctx, datastore.Query{}.Where("quiz_id", id).OrderBy("sort_order"))
			return err
		},
	)
	return qe, err
}

type quizEditorPage struct {
	s      *Screens
	m      *page.Mount
	id     string
	quiz   domain.Quiz
	guard  page.Guard
	saving bool
	editor *questions.Editor
}

func (p *quizEditorPage) render() {
	data := QuizEditorData{
		Editing: p.id != "",
		Quiz:    p.quiz,
		Types:   markActive(quizTypeOptions(), string(p.quiz.Type)),
		Saving:  p.saving,
	}
	handlers := page.Handlers{
		"save-quiz": p.saveQuiz,
		"cancel": func(context.Context, page.Input) {
			p.m.Nav.Navigate("/quizzes")
		},
	}
	if data.Editing {
		for i, q := range p.editor.Questions() {
			data.Questions = append(data.Questions, questionView(i, q))
		}
		handlers["delete-quiz"] = p.deleteQuiz
		handlers["add-question"] = func(context.Context, page.Input) {
			p.openModal(p.editor.OpenNew())
		}
		handlers["edit-question"] = func(_ context.Context, in page.Input) {
			if draft, ok := p.editor.OpenEdit(in.Target); ok {
				p.openModal(draft)
			}
		}
		handlers["delete-question"] = p.deleteQuestion
	}
	p.m.Region.Render(page.View{Screen: "quiz-editor", Data: data}, handlers)
}

func (p *quizEditorPage) saveQuiz(_ context.Context, in page.Input) {
	input, err := ParseQuizInput(in)
	if err != nil {
		p.m.Notify.Error(domain.Message(err))
		return
	}
	quizzes := p.s.cfg.Store.Quizzes
	if p.id == "" {
		row := domain.Quiz{Title: input.Title, Description: input.Description, Type: input.Type, DurationMinutes: input.DurationMinutes}
		if page.Run(p.m, &p.guard, func(ctx context.Context) (domain.Quiz, error) {
			return quizzes.Insert(ctx, row)
		}, func(created domain.Quiz, err error) {
			p.saving = false
			if err != nil {
				p.render()
				return
			}
			p.m.Notify.Success("Quiz creato")
			p.m.Nav.Navigate("/quizzes/" + created.ID + "/edit")
		}) {
			p.saving = true
			p.render()
		}
		return
	}

	patch := datastore.Patch{
		"title":            input.Title,
		"description":      input.Description,
		"quiz_type":        input.Type,
		"duration_minutes": input.DurationMinutes,
	}
	if page.Run(p.m, &p.guard, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, quizzes.Update(ctx, p.id, patch)
	}, func(_ struct{}, err error) {
		p.saving = false
		if err == nil {
			p.quiz.Title = input.Title
			p.quiz.Description = input.Description
			p.quiz.Type = input.Type
			p.quiz.DurationMinutes = input.DurationMinutes
			p.m.Notify.Success("Quiz salvato")
		}
		p.render()
	}) {
		p.saving = true
		p.render()
	}
}

func (p *quizEditorPage) deleteQuiz(context.Context, page.Input) {
	p.m.Region.Confirm("Eliminare questo quiz e tutte le sue domande?", func(context.Context) {
		page.Mutate(p.m, &p.guard, func(ctx context.Context) error {
			return p.s.cfg.Store.Quizzes.Delete(ctx, p.id)
		}, func() {
			p.m.Notify.Success("Quiz eliminato")
			p.m.Nav.Navigate("/quizzes")
		})
	})
}

func (p *quizEditorPage) deleteQuestion(_ context.Context, in page.Input) {
	id := in.Target
	if _, ok := p.editor.Find(id); !ok {
		return
	}
	p.m.Region.Confirm("Eliminare questa domanda?", func(context.Context) {
		err := p.editor.Delete(p.m, id, func(err error) {
			if err == nil {
				p.m.Notify.Success("Domanda eliminata")
				p.render()
			}
		})
		if err != nil && !errors.Is(err, questions.ErrBusy) {
			p.m.Notify.Error(domain.Message(err))
		}
	})
}

func (p *quizEditorPage) openModal(draft questions.Draft) {
	state, _ := p.editor.State()
	p.m.Region.OpenModal(page.View{Screen: "question-modal", Data: QuestionModalData{
		New:   state == questions.ModalEditingNew,
		Draft: draft,
		Types: markActive(questionTypeOptions(), string(draft.Type)),
	}}, page.Handlers{
		"save-question": p.saveQuestion,
		"add-option": func(_ context.Context, in page.Input) {
			draft := questions.ParseDraft(in)
			draft.Options = append(draft.Options, questions.OptionDraft{})
			p.openModal(draft)
		},
		"cancel": func(context.Context, page.Input) {
			p.editor.Cancel()
			p.m.Region.CloseModal()
		},
	})
}

func (p *quizEditorPage) saveQuestion(_ context.Context, in page.Input) {
	draft := questions.ParseDraft(in)
	state, _ := p.editor.State()
	msg := "Domanda aggiornata"
	if state == questions.ModalEditingNew {
		msg = "Domanda aggiunta"
	}
	err := p.editor.Save(p.m, draft, func(closed bool, err error) {
		if err != nil {
			return
		}
		if closed {
			p.m.Region.CloseModal()
		}
		p.m.Notify.Success(msg)
		p.render()
	})
	switch {
	case errors.Is(err, questions.ErrBusy):
	case err != nil:
		p.m.Notify.Error(domain.Message(err))
		p.openModal(draft)
	}
}

func questionView(i int, q domain.QuizQuestion) QuestionView {
	v := QuestionView{
		ID:          q.ID,
		Number:      i + 1,
		Text:        q.Text,
		Type:        q.Type(),
		TypeLabel:   questionTypeLabels[q.Type()],
		Points:      q.Points,
		SortOrder:   q.SortOrder,
		IdealAnswer: q.IdealAnswer,
	}
	if choice, ok := q.Config.Choice(); ok {
		v.Options = questions.DraftFrom(q).Options
		v.AllowMultiple = choice.AllowMultiple()
	}
	return v
}

func quizTypeOptions() []Option {
	labels := map[domain.QuizType]string{
		domain.QuizLogic:       "Logica (pre-screening)",
		domain.QuizSkills:      "Skills (post-screening)",
		domain.QuizAttitudinal: "Attitudinale (opzionale)",
	}
	opts := make([]Option, 0, len(domain.QuizTypes))
	for _, t := range domain.QuizTypes {
		opts = append(opts, Option{Value: string(t), Label: labels[t]})
	}
	return opts
}

func questionTypeOptions() []Option {
	opts := make([]Option, 0, len(domain.QuestionTypes))
	for _, t := range domain.QuestionTypes {
		opts = append(opts, Option{Value: string(t), Label: questionTypeLabels[t]})
	}
	return opts
}
