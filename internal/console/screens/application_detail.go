package screens

import (
	"context"
	"math"

	"amia-console/internal/console/page"
	"amia-console/internal/console/router"
	"amia-console/internal/datastore"
	"amia-console/internal/domain"
)

// Allowed minutes assumed when a position links no quiz or the quiz has no
// duration.
const (
	defaultLogicMinutes  = 25
	defaultSkillsMinutes = 35
)

// ResponseView is one recorded answer.
type ResponseView struct {
	Number     int    `json:"number"`
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
	Scored     bool   `json:"scored"`
	Correct    bool   `json:"correct,omitempty"`
	Points     int    `json:"points,omitempty"`
}

// AttemptOverview is a timed attempt as shown on the detail page.
type AttemptOverview struct {
	Title          string         `json:"title"`
	Completed      bool           `json:"completed"`
	Score          int            `json:"score"`
	MaxScore       int            `json:"max_score"`
	Percentage     int            `json:"percentage"`
	ElapsedMinutes *int           `json:"elapsed_minutes,omitempty"`
	AllowedMinutes int            `json:"allowed_minutes"`
	OverTime       bool           `json:"over_time"`
	Responses      []ResponseView `json:"responses,omitempty"`
}

// AttitudinalOverview is the untimed attempt as shown on the detail page.
type AttitudinalOverview struct {
	Completed bool           `json:"completed"`
	Answers   int            `json:"answers"`
	Responses []ResponseView `json:"responses,omitempty"`
}

// Overview derives the display of a timed attempt: percentage of the maximum
// score, elapsed minutes between start and completion against the allowed
// minutes, and the recorded over-time flag.
func Overview(title string, a domain.TimedAttempt, allowedMinutes int) AttemptOverview {
	o := AttemptOverview{Title: title, AllowedMinutes: allowedMinutes, Responses: responses(a.Responses)}
	if a.CompletedAt == nil {
		return o
	}
	o.Completed = true
	o.OverTime = a.OverTime
	o.Percentage = percentage(a.Score, a.MaxScore)
	if a.Score != nil {
		o.Score = *a.Score
	}
	if a.MaxScore != nil {
		o.MaxScore = *a.MaxScore
	}
	if a.StartedAt != nil {
		mins := int(math.Round(a.CompletedAt.Sub(*a.StartedAt).Minutes()))
		o.ElapsedMinutes = &mins
	}
	return o
}

func attitudinal(a domain.UntimedAttempt) AttitudinalOverview {
	return AttitudinalOverview{
		Completed: a.CompletedAt != nil,
		Answers:   len(a.Responses),
		Responses: responses(a.Responses),
	}
}

func responses(rs []domain.QuizResponse) []ResponseView {
	if len(rs) == 0 {
		return nil
	}
	out := make([]ResponseView, len(rs))
	for i, r := range rs {
		v := ResponseView{Number: i + 1, QuestionID: r.QuestionID, Answer: r.Answer.String()}
		if r.IsCorrect != nil {
			v.Scored = true
			v.Correct = *r.IsCorrect
			if r.PointsEarned != nil {
				v.Points = *r.PointsEarned
			}
		}
		out[i] = v
	}
	return out
}

// ApplicationDetailData is the Data of the application detail view.
type ApplicationDetailData struct {
	Application domain.Application       `json:"application"`
	StatusLabel string                   `json:"status_label"`
	Statuses    []Option                 `json:"statuses"`
	Logic       AttemptOverview          `json:"logic"`
	Skills      AttemptOverview          `json:"skills"`
	Attitudinal AttitudinalOverview      `json:"attitudinal"`
	Notes       []domain.ApplicationNote `json:"notes"`
}

type applicationDetail struct {
	app     domain.Application
	notes   []domain.ApplicationNote
	quizzes map[string]domain.Quiz
}

// ApplicationDetail mounts one application with its notes. Status changes
// and new notes are written first, then applied locally.
func (s *Screens) ApplicationDetail(m *page.Mount, params router.Params) {
	id := params["id"]
	page.Load(m, "application-detail", "/applications", func(ctx context.Context) (applicationDetail, error) {
		return s.loadApplicationDetail(ctx, id)
	}, func(d applicationDetail) {
		var statusGuard, noteGuard page.Guard
		var render func()
		render = func() {
			m.Region.Render(page.View{Screen: "application-detail", Data: s.detailData(d)}, page.Handlers{
				"status": func(_ context.Context, in page.Input) {
					next := domain.ApplicationStatus(in.Get("status"))
					if !next.Valid() {
						m.Notify.Error(MsgStatusInvalid)
						return
					}
					if next == d.app.Status {
						return
					}
					page.Mutate(m, &statusGuard, func(ctx context.Context) error {
						return s.cfg.Store.Applications.Update(ctx, d.app.ID, datastore.Patch{"status": next})
					}, func() {
						d.app.Status = next
						m.Notify.Success("Status aggiornato: " + applicationStatusLabel(next))
						render()
					})
				},
				"add-note": func(_ context.Context, in page.Input) {
					content := in.Get("content")
					if content == "" {
						return
					}
					note := domain.ApplicationNote{ApplicationID: d.app.ID, Content: content}
					if m.Session != nil {
						note.AuthorID = m.Session.ID
					}
					page.Run(m, &noteGuard, func(ctx context.Context) (domain.ApplicationNote, error) {
						return s.cfg.Store.Notes.Insert(ctx, note)
					}, func(created domain.ApplicationNote, err error) {
						if err != nil {
							return
						}
						d.notes = append([]domain.ApplicationNote{created}, d.notes...)
						m.Notify.Success("Nota aggiunta")
						render()
					})
				},
				"back": func(context.Context, page.Input) {
					m.Nav.Navigate("/applications")
				},
			})
		}
		render()
	})
}

func (s *Screens) loadApplicationDetail(ctx context.Context, id string) (applicationDetail, error) {
	var d applicationDetail
	store := s.cfg.Store
	err := page.All(ctx,
		func(ctx context.Context) error {
			app, err := store.Applications.Get(ctx, id, "Candidate", "Position")
			if err != nil {
				return notFound(err, "Candidatura non trovata")
			}
			d.app = app
			return nil
		},
		func(ctx context.Context) (err error) {
			d.notes, err = store.Notes.Select(ctx, datastore.Query{}.Where("application_id", id).OrderByDesc("created_at"))
			return err
		},
		func(ctx context.Context) error {
			quizzes, err := store.Quizzes.Select(ctx, datastore.Query{})
			d.quizzes = make(map[string]domain.Quiz, len(quizzes))
			for _, q := range quizzes {
				d.quizzes[q.ID] = q
			}
			return err
		},
	)
	return d, err
}

func (s *Screens) detailData(d applicationDetail) ApplicationDetailData {
	logicMinutes, skillsMinutes := defaultLogicMinutes, defaultSkillsMinutes
	if p := d.app.Position; p != nil {
		logicMinutes = quizMinutes(d.quizzes, p.PreQuizID, logicMinutes)
		skillsMinutes = quizMinutes(d.quizzes, p.PostQuizID, skillsMinutes)
	}
	statuses := make([]Option, 0, len(domain.ApplicationStatuses))
	for _, st := range domain.ApplicationStatuses {
		statuses = append(statuses, Option{Value: string(st), Label: applicationStatusLabel(st)})
	}
	return ApplicationDetailData{
		Application: d.app,
		StatusLabel: applicationStatusLabel(d.app.Status),
		Statuses:    markActive(statuses, string(d.app.Status)),
		Logic:       Overview("Quiz Logica", d.app.Logic, logicMinutes),
		Skills:      Overview("Quiz Skills", d.app.Skills, skillsMinutes),
		Attitudinal: attitudinal(d.app.Attitudinal),
		Notes:       append([]domain.ApplicationNote(nil), d.notes...),
	}
}

func quizMinutes(quizzes map[string]domain.Quiz, id *string, fallback int) int {
	if id == nil {
		return fallback
	}
	q, ok := quizzes[*id]
	if !ok || q.DurationMinutes == nil {
		return fallback
	}
	return *q.DurationMinutes
}
