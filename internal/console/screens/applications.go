package screens

import (
	"context"
	"strings"
	"time"

	"amia-console/internal/console/page"
	"amia-console/internal/console/router"
	"amia-console/internal/datastore"
	"amia-console/internal/domain"
)

var applicationFilters = []Option{
	{Value: filterAll, Label: "Tutte"},
	{Value: string(domain.StatusApplied), Label: "Candidati"},
	{Value: string(domain.StatusInterview), Label: "Colloquio"},
	{Value: string(domain.StatusHired), Label: "Assunti"},
	{Value: string(domain.StatusRejected), Label: "Scartati"},
}

// QuizChip summarises one timed attempt in a list row.
type QuizChip struct {
	Completed  bool `json:"completed"`
	Percentage int  `json:"percentage,omitempty"`
	OverTime   bool `json:"over_time,omitempty"`
}

// ApplicationRow is one row of the applications table.
type ApplicationRow struct {
	ID              string                   `json:"id"`
	CandidateName   string                   `json:"candidate_name"`
	CandidateEmail  string                   `json:"candidate_email"`
	PositionTitle   string                   `json:"position_title"`
	Department      string                   `json:"department"`
	Status          domain.ApplicationStatus `json:"status"`
	StatusLabel     string                   `json:"status_label"`
	Logic           QuizChip                 `json:"logic"`
	Skills          QuizChip                 `json:"skills"`
	AttitudinalDone bool                     `json:"attitudinal_done"`
	CreatedAt       time.Time                `json:"created_at"`
}

// ApplicationsData is the Data of the applications list.
type ApplicationsData struct {
	Position     *PositionRef     `json:"position,omitempty"`
	Filters      []Option         `json:"filters"`
	Search       string           `json:"search"`
	Applications []ApplicationRow `json:"applications"`
	Total        int              `json:"total"`
}

// PositionRef names the position a list is scoped to.
type PositionRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// FilterApplications applies the status filter and the search together: a
// row is kept only when it passes both. Search matches the candidate's full
// name, e-mail or the position title, case-insensitively.
func FilterApplications(rows []ApplicationRow, status, search string) []ApplicationRow {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]ApplicationRow, 0, len(rows))
	for _, r := range rows {
		if status != filterAll && string(r.Status) != status {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(r.CandidateName), needle) &&
			!strings.Contains(strings.ToLower(r.CandidateEmail), needle) &&
			!strings.Contains(strings.ToLower(r.PositionTitle), needle) {
			continue
		}
		out = append(out, r)
	}
	return out
}

type applicationList struct {
	position *PositionRef
	rows     []ApplicationRow
}

// Applications mounts the applications table, scoped to one position when
// params carry an id. Filtering and search never hit the data service.
func (s *Screens) Applications(m *page.Mount, params router.Params) {
	positionID := params["id"]
	recovery := ""
	if positionID != "" {
		recovery = "/positions"
	}
	page.Load(m, "applications", recovery, func(ctx context.Context) (applicationList, error) {
		return s.loadApplications(ctx, positionID)
	}, func(list applicationList) {
		status, search := filterAll, ""
		var render func()
		render = func() {
			m.Region.Render(page.View{Screen: "applications", Data: ApplicationsData{
				Position:     list.position,
				Filters:      markActive(applicationFilters, status),
				Search:       search,
				Applications: FilterApplications(list.rows, status, search),
				Total:        len(list.rows),
			}}, page.Handlers{
				"filter": func(_ context.Context, in page.Input) {
					if v := in.Get("status"); knownOption(applicationFilters, v) {
						status = v
					}
					render()
				},
				"search": func(_ context.Context, in page.Input) {
					search = in.Raw("q")
					render()
				},
				"open": func(_ context.Context, in page.Input) {
					if in.Target != "" {
						m.Nav.Navigate("/applications/" + in.Target)
					}
				},
			})
		}
		render()
	})
}

func (s *Screens) loadApplications(ctx context.Context, positionID string) (applicationList, error) {
	var list applicationList
	q := datastore.Query{}.OrderByDesc("created_at").With("Candidate", "Position")
	reads := []func(context.Context) error{}
	if positionID != "" {
		q = q.Where("position_id", positionID)
		reads = append(reads, func(ctx context.Context) error {
			p, err := s.cfg.Store.Positions.Get(ctx, positionID)
			if err != nil {
				return notFound(err, "Posizione non trovata")
			}
			list.position = &PositionRef{ID: p.ID, Title: p.Title}
			return nil
		})
	}
	reads = append(reads, func(ctx context.Context) error {
		apps, err := s.cfg.Store.Applications.Select(ctx, q)
		for _, a := range apps {
			list.rows = append(list.rows, applicationRow(a))
		}
		return err
	})
	err := page.All(ctx, reads...)
	return list, err
}

func applicationRow(a domain.Application) ApplicationRow {
	row := ApplicationRow{
		ID:              a.ID,
		Status:          a.Status,
		StatusLabel:     applicationStatusLabel(a.Status),
		Logic:           chip(a.Logic),
		Skills:          chip(a.Skills),
		AttitudinalDone: a.Attitudinal.CompletedAt != nil,
		CreatedAt:       a.CreatedAt,
	}
	if a.Candidate != nil {
		row.CandidateName = a.Candidate.FullName()
		row.CandidateEmail = a.Candidate.Email
	}
	if a.Position != nil {
		row.PositionTitle = a.Position.Title
		row.Department = a.Position.Department
	}
	return row
}

func chip(a domain.TimedAttempt) QuizChip {
	if a.CompletedAt == nil {
		return QuizChip{}
	}
	return QuizChip{Completed: true, Percentage: percentage(a.Score, a.MaxScore), OverTime: a.OverTime}
}
