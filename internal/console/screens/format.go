package screens

import (
	"math"

	"amia-console/internal/domain"
)

// Option is one entry of a filter bar or select.
type Option struct {
	Value  string `json:"value"`
	Label  string `json:"label"`
	Active bool   `json:"active,omitempty"`
}

const filterAll = "all"

var positionStatusLabels = map[domain.PositionStatus]string{
	domain.PositionDraft:     "Bozza",
	domain.PositionPublished: "Pubblicata",
	domain.PositionClosed:    "Chiusa",
	domain.PositionArchived:  "Archiviata",
}

var applicationStatusLabels = map[domain.ApplicationStatus]string{
	domain.StatusApplied:   "Candidato",
	domain.StatusInterview: "Colloquio",
	domain.StatusHired:     "Assunto",
	domain.StatusRejected:  "Scartato",
}

var quizTypeLabels = map[domain.QuizType]string{
	domain.QuizLogic:       "Logica",
	domain.QuizSkills:      "Skills",
	domain.QuizAttitudinal: "Attitudinale",
}

var questionTypeLabels = map[domain.QuestionType]string{
	domain.MultipleChoice: "Scelta multipla",
	domain.OpenText:       "Risposta aperta",
	domain.FileUpload:     "Upload file",
}

func positionStatusLabel(s domain.PositionStatus) string {
	if l, ok := positionStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

func applicationStatusLabel(s domain.ApplicationStatus) string {
	if l, ok := applicationStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

func quizTypeLabel(t domain.QuizType) string {
	if l, ok := quizTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// markActive copies opts flagging the one whose value is current.
func markActive(opts []Option, current string) []Option {
	out := make([]Option, len(opts))
	for i, o := range opts {
		o.Active = o.Value == current
		out[i] = o
	}
	return out
}

func knownOption(opts []Option, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}

// percentage rounds score/max to a whole percent; zero when max is unknown.
func percentage(score, max *int) int {
	if max == nil || *max == 0 {
		return 0
	}
	s := 0
	if score != nil {
		s = *score
	}
	return int(math.Round(float64(s) / float64(*max) * 100))
}
