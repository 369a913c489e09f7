package datastore

import (
	"context"
	"fmt"
	"time"

	"amia-console/internal/domain"
)

// SeedDemo fills an empty store with a small recruiting data set: one quiz of
// each type, three positions, candidates with applications at different
// stages, and the default e-mail templates.
func SeedDemo(ctx context.Context, s *Store) error {
	quizIDs := make(map[domain.QuizType]string, len(domain.QuizTypes))
	for _, qs := range demoQuizzes() {
		quiz, err := s.Quizzes.Insert(ctx, qs.quiz)
		if err != nil {
			return fmt.Errorf("seed quiz %q: %w", qs.quiz.Title, err)
		}
		quizIDs[quiz.Type] = quiz.ID
		for i, q := range qs.questions {
			q.QuizID = quiz.ID
			q.SortOrder = i
			if _, err := s.Questions.Insert(ctx, q); err != nil {
				return fmt.Errorf("seed question: %w", err)
			}
		}
	}

	now := time.Now().UTC()
	logic, skills, att := quizIDs[domain.QuizLogic], quizIDs[domain.QuizSkills], quizIDs[domain.QuizAttitudinal]
	positions := []domain.Position{
		{
			Title: "Sviluppatore Backend Go", Department: "Engineering", Location: "Milano",
			Description:  "Progettazione e sviluppo di servizi backend.",
			ContractType: domain.ContractFullTime, Status: domain.PositionPublished,
			SalaryMin: intPtr(35000), SalaryMax: intPtr(50000),
			PreQuizID: &logic, PostQuizID: &skills, AttQuizID: &att,
			Slug: "sviluppatore-backend-go", PublishedAt: &now,
		},
		{
			Title: "UX Designer", Department: "Product", Location: "Remoto",
			Description:  "Ricerca utente e prototipazione.",
			ContractType: domain.ContractFreelance, Status: domain.PositionDraft,
			Slug: "ux-designer",
		},
		{
			Title: "Stage Marketing", Department: "Marketing", Location: "Torino",
			Description:  "Supporto alle campagne digitali.",
			ContractType: domain.ContractStage, Status: domain.PositionClosed,
			Slug: "stage-marketing",
		},
	}
	var positionIDs []string
	for _, p := range positions {
		created, err := s.Positions.Insert(ctx, p)
		if err != nil {
			return fmt.Errorf("seed position %q: %w", p.Title, err)
		}
		positionIDs = append(positionIDs, created.ID)
	}

	candidates := []struct {
		first, last, email string
		position           int
		status             domain.ApplicationStatus
	}{
		{"Mario", "Rossi", "mario.rossi@example.com", 0, domain.StatusApplied},
		{"Giulia", "Bianchi", "giulia.bianchi@example.com", 0, domain.StatusInterview},
		{"Luca", "Verdi", "luca.verdi@example.com", 1, domain.StatusApplied},
		{"Sara", "Neri", "sara.neri@example.com", 2, domain.StatusRejected},
	}
	for i, c := range candidates {
		cand, err := s.Candidates.Insert(ctx, domain.Candidate{FirstName: c.first, LastName: c.last, Email: c.email})
		if err != nil {
			return fmt.Errorf("seed candidate: %w", err)
		}
		app := domain.Application{
			PositionID:  positionIDs[c.position],
			CandidateID: cand.ID,
			Status:      c.status,
			CVFilePath:  fmt.Sprintf("cv/%s.pdf", cand.ID),
		}
		if i == 1 {
			started := now.Add(-40 * time.Minute)
			done := now.Add(-5 * time.Minute)
			app.Logic = domain.TimedAttempt{
				Score: intPtr(7), MaxScore: intPtr(10),
				StartedAt: &started, CompletedAt: &done, OverTime: true,
			}
		}
		if _, err := s.Applications.Insert(ctx, app); err != nil {
			return fmt.Errorf("seed application: %w", err)
		}
	}

	for _, tpl := range DefaultTemplates() {
		if _, err := s.Templates.Insert(ctx, tpl); err != nil {
			return fmt.Errorf("seed template %q: %w", tpl.Trigger, err)
		}
	}
	return nil
}

// DefaultTemplates returns the notification templates every installation
// starts with.
func DefaultTemplates() []domain.EmailTemplate {
	return []domain.EmailTemplate{
		{
			Trigger:  "application_received",
			Subject:  "Candidatura ricevuta: {position_title}",
			BodyHTML: "<p>Ciao {candidate_name},</p><p>abbiamo ricevuto la tua candidatura per {position_title} presso {company_name}.</p><p>Segui lo stato su {portal_url}.</p>",
		},
		{
			Trigger:  "interview_invite",
			Subject:  "Colloquio per {position_title}",
			BodyHTML: "<p>Ciao {candidate_name},</p><p>vorremmo conoscerti per la posizione {position_title}.</p>",
		},
		{
			Trigger:  "rejected",
			Subject:  "Aggiornamento sulla tua candidatura",
			BodyHTML: "<p>Ciao {candidate_name},</p><p>grazie per l'interesse verso {company_name}. Abbiamo scelto di proseguire con altri profili.</p>",
		},
	}
}

type demoQuiz struct {
	quiz      domain.Quiz
	questions []domain.QuizQuestion
}

func demoQuizzes() []demoQuiz {
	return []demoQuiz{
		{
			quiz: domain.Quiz{Title: "Ragionamento logico", Type: domain.QuizLogic, DurationMinutes: intPtr(30)},
			questions: []domain.QuizQuestion{
				{
					Text: "Quale numero completa la serie 2, 4, 8, 16, ?", Points: 1,
					Config: domain.NewQuestionConfig(domain.ChoiceBody{Options: []string{"24", "32", "30"}, Correct: []int{1}}),
				},
				{
					Text: "Quali sono numeri primi?", Points: 2,
					Config: domain.NewQuestionConfig(domain.ChoiceBody{Options: []string{"2", "4", "7", "9"}, Correct: []int{0, 2}}),
				},
			},
		},
		{
			quiz: domain.Quiz{Title: "Competenze Go", Type: domain.QuizSkills, DurationMinutes: intPtr(45)},
			questions: []domain.QuizQuestion{
				{
					Text: "Descrivi la differenza tra canali bufferizzati e non.", Points: 5,
					Config:      domain.NewQuestionConfig(domain.TextBody{}),
					IdealAnswer: strPtr("Un canale non bufferizzato sincronizza mittente e ricevente."),
				},
				{
					Text: "Carica un esempio di codice.", Points: 3,
					Config: domain.NewQuestionConfig(domain.UploadBody{AllowedTypes: []string{".go", ".zip"}, MaxSizeMB: 5}),
				},
			},
		},
		{
			quiz: domain.Quiz{Title: "Profilo attitudinale", Type: domain.QuizAttitudinal},
			questions: []domain.QuizQuestion{
				{Text: "Come gestisci una scadenza imprevista?", Config: domain.NewQuestionConfig(domain.TextBody{})},
			},
		},
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
