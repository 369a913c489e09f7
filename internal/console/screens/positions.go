package screens

import (
	"context"
	"strings"
	"unicode"

	"amia-console/internal/console/page"
	"amia-console/internal/console/router"
	"amia-console/internal/datastore"
	"amia-console/internal/domain"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Position form validation messages.
const (
	MsgTitleRequired       = "Inserisci un titolo"
	MsgDescriptionRequired = "Inserisci una descrizione"
	MsgLocationRequired    = "Inserisci la sede"
	MsgSalaryInvalid       = "La RAL deve essere un numero"
	MsgSalaryRange         = "La RAL minima non può superare la massima"
	MsgContractInvalid     = "Tipo di contratto non valido"
	MsgStatusInvalid       = "Stato non valido"
)

var departments = []string{"Engineering", "Design", "Marketing", "Sales", "Operations", "HR", "Product"}

var positionFilters = []Option{
	{Value: filterAll, Label: "Tutte"},
	{Value: string(domain.PositionPublished), Label: "Pubblicate"},
	{Value: string(domain.PositionDraft), Label: "Bozze"},
	{Value: string(domain.PositionClosed), Label: "Chiuse"},
	{Value: string(domain.PositionArchived), Label: "Archiviate"},
}

// PositionRow is a position with its list decorations.
type PositionRow struct {
	domain.Position
	StatusLabel  string `json:"status_label"`
	Applications int    `json:"applications_count"`
	Quizzes      string `json:"quizzes,omitempty"`
}

// PositionsData is the Data of the positions list.
type PositionsData struct {
	Filters   []Option      `json:"filters"`
	Positions []PositionRow `json:"positions"`
}

// FilterPositions keeps the rows in status, or every row for "all".
func FilterPositions(rows []PositionRow, status string) []PositionRow {
	out := make([]PositionRow, 0, len(rows))
	for _, r := range rows {
		if status == filterAll || string(r.Status) == status {
			out = append(out, r)
		}
	}
	return out
}

// Positions mounts the positions list. The status filter only re-renders.
func (s *Screens) Positions(m *page.Mount, _ router.Params) {
	page.Load(m, "positions", "", s.loadPositions, func(rows []PositionRow) {
		filter := filterAll
		var render func()
		render = func() {
			m.Region.Render(page.View{Screen: "positions", Data: PositionsData{
				Filters:   markActive(positionFilters, filter),
				Positions: FilterPositions(rows, filter),
			}}, page.Handlers{
				"filter": func(_ context.Context, in page.Input) {
					if v := in.Get("status"); knownOption(positionFilters, v) {
						filter = v
					}
					render()
				},
				"new": func(context.Context, page.Input) {
					m.Nav.Navigate("/positions/new")
				},
				"edit": func(_ context.Context, in page.Input) {
					m.Nav.Navigate("/positions/" + in.Target + "/edit")
				},
				"applications": func(_ context.Context, in page.Input) {
					m.Nav.Navigate("/positions/" + in.Target + "/applications")
				},
			})
		}
		render()
	})
}

func (s *Screens) loadPositions(ctx context.Context) ([]PositionRow, error) {
	var (
		positions []domain.Position
		counts    map[string]int
	)
	err := page.All(ctx,
		func(ctx context.Context) (err error) {
			positions, err = s.cfg.Store.Positions.Select(ctx, datastore.Query{}.OrderByDesc("created_at"))
			return err
		},
		func(ctx context.Context) (err error) {
			counts, err = s.cfg.Store.Applications.CountBy(ctx, "position_id", datastore.Query{})
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	rows := make([]PositionRow, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, PositionRow{
			Position:     p,
			StatusLabel:  positionStatusLabel(p.Status),
			Applications: counts[p.ID],
			Quizzes:      linkedQuizzes(p),
		})
	}
	return rows, nil
}

func linkedQuizzes(p domain.Position) string {
	var parts []string
	if p.PreQuizID != nil {
		parts = append(parts, quizTypeLabel(domain.QuizLogic))
	}
	if p.PostQuizID != nil {
		parts = append(parts, quizTypeLabel(domain.QuizSkills))
	}
	if p.AttQuizID != nil {
		parts = append(parts, quizTypeLabel(domain.QuizAttitudinal))
	}
	return strings.Join(parts, " + ")
}

// PositionInput is the submitted position form.
type PositionInput struct {
	Title        string                `json:"title" validate:"required"`
	Description  string                `json:"description" validate:"required"`
	Department   string                `json:"department"`
	ContractType domain.ContractType   `json:"contract_type" validate:"oneof=full-time part-time freelance stage"`
	Location     string                `json:"location" validate:"required"`
	SalaryMin    *int                  `json:"salary_min"`
	SalaryMax    *int                  `json:"salary_max"`
	PreQuizID    *string               `json:"pre_quiz_id"`
	PostQuizID   *string               `json:"post_quiz_id"`
	AttQuizID    *string               `json:"att_quiz_id"`
	Status       domain.PositionStatus `json:"status" validate:"oneof=draft published closed archived"`
}

var positionMessages = []fieldMessage{
	{field: "Title", msg: MsgTitleRequired},
	{field: "Description", msg: MsgDescriptionRequired},
	{field: "Location", msg: MsgLocationRequired},
	{field: "ContractType", msg: MsgContractInvalid},
	{field: "Status", msg: MsgStatusInvalid},
	{field: "SalaryMin", tag: "salary_range", msg: MsgSalaryRange},
}

// ParsePositionInput reads and validates the position form.
func ParsePositionInput(in page.Input) (PositionInput, error) {
	p := PositionInput{
		Title:        in.Get("title"),
		Description:  in.Get("description"),
		Department:   in.Get("department"),
		ContractType: domain.ContractType(in.Get("contract_type")),
		Location:     in.Get("location"),
		PreQuizID:    optional(in.Get("pre_quiz_id")),
		PostQuizID:   optional(in.Get("post_quiz_id")),
		AttQuizID:    optional(in.Get("att_quiz_id")),
		Status:       domain.PositionStatus(in.Get("status")),
	}
	if p.ContractType == "" {
		p.ContractType = domain.ContractFullTime
	}
	if p.Status == "" {
		p.Status = domain.PositionDraft
	}
	for key, dst := range map[string]**int{"salary_min": &p.SalaryMin, "salary_max": &p.SalaryMax} {
		v, ok, err := in.Int(key)
		if err != nil {
			return p, domain.Validation(MsgSalaryInvalid)
		}
		if ok {
			*dst = &v
		}
	}
	return p, p.Validate()
}

// Validate checks required fields, the enums and the salary range.
func (p PositionInput) Validate() error {
	return checkForm(p, positionMessages)
}

func (p PositionInput) patch() datastore.Patch {
	return datastore.Patch{
		"title":         p.Title,
		"description":   p.Description,
		"department":    p.Department,
		"contract_type": p.ContractType,
		"location":      p.Location,
		"salary_min":    p.SalaryMin,
		"salary_max":    p.SalaryMax,
		"pre_quiz_id":   p.PreQuizID,
		"post_quiz_id":  p.PostQuizID,
		"att_quiz_id":   p.AttQuizID,
		"status":        p.Status,
		"slug":          Slug(p.Title),
	}
}

func (p PositionInput) row() domain.Position {
	return domain.Position{
		Title:        p.Title,
		Description:  p.Description,
		Department:   p.Department,
		ContractType: p.ContractType,
		Location:     p.Location,
		SalaryMin:    p.SalaryMin,
		SalaryMax:    p.SalaryMax,
		PreQuizID:    p.PreQuizID,
		PostQuizID:   p.PostQuizID,
		AttQuizID:    p.AttQuizID,
		Status:       p.Status,
		Slug:         Slug(p.Title),
	}
}

// Slug lowercases title, strips diacritics and joins the remaining ASCII
// letters and digits with single dashes.
func Slug(title string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, strings.ToLower(title))
	if err != nil {
		folded = strings.ToLower(title)
	}
	var b strings.Builder
	dash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

// QuizChoice is a quiz offered in the position form selects.
type QuizChoice struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Type  domain.QuizType `json:"quiz_type"`
}

// PositionFormData is the Data of the position form.
type PositionFormData struct {
	Editing       bool             `json:"editing"`
	Position      *domain.Position `json:"position,omitempty"`
	Quizzes       []QuizChoice     `json:"quizzes"`
	Departments   []string         `json:"departments"`
	ContractTypes []Option         `json:"contract_types"`
	Statuses      []Option         `json:"statuses,omitempty"`
	Saving        bool             `json:"saving,omitempty"`
}

type positionForm struct {
	position *domain.Position
	quizzes  []QuizChoice
}

// PositionForm mounts the create form, or the edit form when params carry
// an id. A missing position sends the user back to the list.
func (s *Screens) PositionForm(m *page.Mount, params router.Params) {
	id := params["id"]
	page.Load(m, "position-form", "/positions", func(ctx context.Context) (positionForm, error) {
		return s.loadPositionForm(ctx, id)
	}, func(f positionForm) {
		var guard page.Guard
		data := PositionFormData{
			Editing:       id != "",
			Position:      f.position,
			Quizzes:       f.quizzes,
			Departments:   departments,
			ContractTypes: contractOptions(f.position),
		}
		if data.Editing {
			data.Statuses = statusOptions(f.position.Status)
		}

		var render func()
		handlers := page.Handlers{
			"save": func(_ context.Context, in page.Input) {
				input, err := ParsePositionInput(in)
				if err != nil {
					m.Notify.Error(domain.Message(err))
					return
				}
				started := page.Run(m, &guard, func(ctx context.Context) (struct{}, error) {
					return struct{}{}, s.savePosition(ctx, id, f.position, input)
				}, func(_ struct{}, err error) {
					data.Saving = false
					if err != nil {
						render()
						return
					}
					if data.Editing {
						m.Notify.Success("Posizione aggiornata")
					} else {
						m.Notify.Success("Posizione creata")
					}
					m.Nav.Navigate("/positions")
				})
				if started {
					data.Saving = true
					render()
				}
			},
			"cancel": func(context.Context, page.Input) {
				m.Nav.Navigate("/positions")
			},
		}
		if data.Editing {
			handlers["delete"] = func(context.Context, page.Input) {
				m.Region.Confirm("Sei sicuro di voler eliminare questa posizione? Verranno eliminate anche tutte le candidature associate.", func(context.Context) {
					page.Mutate(m, &guard, func(ctx context.Context) error {
						return s.cfg.Store.Positions.Delete(ctx, id)
					}, func() {
						m.Notify.Success("Posizione eliminata")
						m.Nav.Navigate("/positions")
					})
				})
			}
		}
		render = func() {
			m.Region.Render(page.View{Screen: "position-form", Data: data}, handlers)
		}
		render()
	})
}

func (s *Screens) loadPositionForm(ctx context.Context, id string) (positionForm, error) {
	var f positionForm
	reads := []func(context.Context) error{
		func(ctx context.Context) error {
			quizzes, err := s.cfg.Store.Quizzes.Select(ctx, datastore.Query{}.OrderBy("title"))
			for _, q := range quizzes {
				f.quizzes = append(f.quizzes, QuizChoice{ID: q.ID, Title: q.Title, Type: q.Type})
			}
			return err
		},
	}
	if id != "" {
		reads = append(reads, func(ctx context.Context) error {
			p, err := s.cfg.Store.Positions.Get(ctx, id)
			if err != nil {
				return notFound(err, "Posizione non trovata")
			}
			f.position = &p
			return nil
		})
	}
	err := page.All(ctx, reads...)
	return f, err
}

// savePosition inserts or updates. Publishing stamps published_at once.
func (s *Screens) savePosition(ctx context.Context, id string, current *domain.Position, input PositionInput) error {
	if id == "" {
		row := input.row()
		if row.Status == domain.PositionPublished {
			now := s.cfg.Now().UTC()
			row.PublishedAt = &now
		}
		_, err := s.cfg.Store.Positions.Insert(ctx, row)
		return err
	}
	patch := input.patch()
	if input.Status == domain.PositionPublished && (current == nil || current.PublishedAt == nil) {
		patch["published_at"] = s.cfg.Now().UTC()
	}
	return s.cfg.Store.Positions.Update(ctx, id, patch)
}

func contractOptions(p *domain.Position) []Option {
	current := string(domain.ContractFullTime)
	if p != nil {
		current = string(p.ContractType)
	}
	labels := map[domain.ContractType]string{
		domain.ContractFullTime:  "Full-time",
		domain.ContractPartTime:  "Part-time",
		domain.ContractFreelance: "Freelance",
		domain.ContractStage:     "Stage",
	}
	opts := make([]Option, 0, len(domain.ContractTypes))
	for _, c := range domain.ContractTypes {
		opts = append(opts, Option{Value: string(c), Label: labels[c]})
	}
	return markActive(opts, current)
}

func statusOptions(current domain.PositionStatus) []Option {
	opts := make([]Option, 0, len(domain.PositionStatuses))
	for _, st := range domain.PositionStatuses {
		opts = append(opts, Option{Value: string(st), Label: positionStatusLabel(st)})
	}
	return markActive(opts, string(current))
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
