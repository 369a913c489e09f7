package screens

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"amia-console/internal/console/page"
	"amia-console/internal/console/router"
	"amia-console/internal/datastore"
	"amia-console/internal/domain"
)

const recentApplications = 5

// Stats are the dashboard counters.
type Stats struct {
	Applications    int `json:"applications"`
	Applied         int `json:"applied"`
	Interview       int `json:"interview"`
	Hired           int `json:"hired"`
	Rejected        int `json:"rejected"`
	ActivePositions int `json:"active_positions"`
	Quizzes         int `json:"quizzes"`
}

// PipelineSegment is one bar of the pipeline breakdown.
type PipelineSegment struct {
	Status  domain.ApplicationStatus `json:"status"`
	Label   string                   `json:"label"`
	Count   int                      `json:"count"`
	Percent float64                  `json:"percent"`
}

// RecentApplication is one row of the recent applications list.
type RecentApplication struct {
	ID            string                   `json:"id"`
	Initials      string                   `json:"initials"`
	CandidateName string                   `json:"candidate_name"`
	PositionTitle string                   `json:"position_title"`
	Status        domain.ApplicationStatus `json:"status"`
	StatusLabel   string                   `json:"status_label"`
	LogicScore    *int                     `json:"logic_score,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
}

// DashboardData is the Data of the dashboard view.
type DashboardData struct {
	Stats    Stats               `json:"stats"`
	Pipeline []PipelineSegment   `json:"pipeline"`
	Recent   []RecentApplication `json:"recent"`
}

var pipelineLabels = map[domain.ApplicationStatus]string{
	domain.StatusApplied:   "Candidati",
	domain.StatusInterview: "Colloquio",
	domain.StatusHired:     "Assunti",
	domain.StatusRejected:  "Scartati",
}

// Dashboard mounts the overview: pipeline counts, active positions, quizzes
// and the latest applications, read concurrently.
func (s *Screens) Dashboard(m *page.Mount, _ router.Params) {
	page.Load(m, "dashboard", "", s.loadDashboard, func(data DashboardData) {
		m.Region.Render(page.View{Screen: "dashboard", Data: data}, page.Handlers{
			"open": func(_ context.Context, in page.Input) {
				if in.Target != "" {
					m.Nav.Navigate("/applications/" + in.Target)
				}
			},
		})
	})
}

func (s *Screens) loadDashboard(ctx context.Context) (DashboardData, error) {
	var (
		byStatus   map[string]int
		byPosition map[string]int
		byQuiz     map[string]int
		recent     []domain.Application
	)
	store := s.cfg.Store
	err := page.All(ctx,
		func(ctx context.Context) (err error) {
			byStatus, err = store.Applications.CountBy(ctx, "status", datastore.Query{})
			return err
		},
		func(ctx context.Context) (err error) {
			byPosition, err = store.Positions.CountBy(ctx, "status", datastore.Query{})
			return err
		},
		func(ctx context.Context) (err error) {
			byQuiz, err = store.Quizzes.CountBy(ctx, "quiz_type", datastore.Query{})
			return err
		},
		func(ctx context.Context) (err error) {
			q := datastore.Query{}.OrderByDesc("created_at").Take(recentApplications).With("Candidate", "Position")
			recent, err = store.Applications.Select(ctx, q)
			return err
		},
	)
	if err != nil {
		return DashboardData{}, err
	}

	stats := Stats{
		Applied:         byStatus[string(domain.StatusApplied)],
		Interview:       byStatus[string(domain.StatusInterview)],
		Hired:           byStatus[string(domain.StatusHired)],
		Rejected:        byStatus[string(domain.StatusRejected)],
		ActivePositions: byPosition[string(domain.PositionPublished)],
	}
	for _, n := range byStatus {
		stats.Applications += n
	}
	for _, n := range byQuiz {
		stats.Quizzes += n
	}

	data := DashboardData{Stats: stats, Pipeline: pipeline(byStatus, stats.Applications)}
	for _, a := range recent {
		row := RecentApplication{
			ID:          a.ID,
			Initials:    initials(a.Candidate),
			Status:      a.Status,
			StatusLabel: applicationStatusLabel(a.Status),
			CreatedAt:   a.CreatedAt,
		}
		row.CandidateName = a.Candidate.FullName()
		if a.Position != nil {
			row.PositionTitle = a.Position.Title
		}
		if a.Logic.CompletedAt != nil && a.Logic.MaxScore != nil {
			pct := percentage(a.Logic.Score, a.Logic.MaxScore)
			row.LogicScore = &pct
		}
		data.Recent = append(data.Recent, row)
	}
	return data, nil
}

// pipeline sizes each stage relative to total. Non-empty stages get at least
// 2% so they stay visible.
func pipeline(counts map[string]int, total int) []PipelineSegment {
	out := make([]PipelineSegment, 0, len(domain.ApplicationStatuses))
	for _, st := range domain.ApplicationStatuses {
		seg := PipelineSegment{Status: st, Label: pipelineLabels[st], Count: counts[string(st)]}
		if total > 0 && seg.Count > 0 {
			seg.Percent = float64(seg.Count) / float64(total) * 100
			if seg.Percent < 2 {
				seg.Percent = 2
			}
		}
		out = append(out, seg)
	}
	return out
}

func initials(c *domain.Candidate) string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range []string{c.FirstName, c.LastName} {
		if r, _ := utf8.DecodeRuneInString(part); r != utf8.RuneError {
			b.WriteString(strings.ToUpper(string(r)))
		}
	}
	return b.String()
}
