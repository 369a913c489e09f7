// Package questions keeps a quiz's ordered question list in sync with the
// data service while an administrator edits it.
package questions

import (
	"strconv"
	"strings"

	"amia-console/internal/console/page"
	"amia-console/internal/domain"
)

// Validation messages shown to the administrator.
const (
	MsgTextRequired    = "Inserisci il testo della domanda"
	MsgTooFewOptions   = "Servono almeno 2 opzioni"
	MsgNoCorrectOption = "Segna almeno una risposta corretta"
	MsgNegativePoints  = "I punti non possono essere negativi"
	MsgUnknownType     = "Tipo di domanda non valido"
	MsgNegativeMaxSize = "La dimensione massima non può essere negativa"
)

const (
	defaultPoints       = 10
	defaultOptionFields = 4
)

// OptionDraft is one option row of the question form.
type OptionDraft struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Draft is the question form as the administrator filled it in.
type Draft struct {
	Type         domain.QuestionType `json:"type"`
	Text         string              `json:"text"`
	Points       int                 `json:"points"`
	Options      []OptionDraft       `json:"options,omitempty"`
	IdealAnswer  string              `json:"ideal_answer,omitempty"`
	AllowedTypes []string            `json:"allowed_types,omitempty"`
	MaxSizeMB    int                 `json:"max_size_mb,omitempty"`
}

// Built is a validated draft, ready to be written.
type Built struct {
	Text        string
	Points      int
	Config      domain.QuestionConfig
	IdealAnswer *string
}

// NewDraft returns the form for a new question: multiple choice, four empty
// options with the first marked correct.
func NewDraft() Draft {
	opts := make([]OptionDraft, defaultOptionFields)
	opts[0].Correct = true
	return Draft{Type: domain.MultipleChoice, Points: defaultPoints, Options: opts}
}

// DraftFrom returns the form for editing q.
func DraftFrom(q domain.QuizQuestion) Draft {
	d := Draft{Type: q.Type(), Text: q.Text, Points: q.Points}
	if q.IdealAnswer != nil {
		d.IdealAnswer = *q.IdealAnswer
	}
	switch b := q.Config.Body().(type) {
	case domain.ChoiceBody:
		for i, opt := range b.Options {
			d.Options = append(d.Options, OptionDraft{Text: opt, Correct: b.IsCorrect(i)})
		}
	case domain.UploadBody:
		d.AllowedTypes = append([]string(nil), b.AllowedTypes...)
		d.MaxSizeMB = b.MaxSizeMB
	}
	return d
}

// ParseDraft reads the question form. Options arrive as repeated "option"
// values; "correct" holds indexes into that submitted list. A points value
// that is not a number counts as zero.
func ParseDraft(in page.Input) Draft {
	d := Draft{
		Type:        domain.QuestionType(in.Get("type")),
		Text:        in.Raw("text"),
		IdealAnswer: in.Raw("ideal_answer"),
	}
	if n, err := strconv.Atoi(in.Get("points")); err == nil {
		d.Points = n
	}
	correct := make(map[int]bool)
	for _, raw := range in.All("correct") {
		if i, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			correct[i] = true
		}
	}
	for i, text := range in.All("option") {
		d.Options = append(d.Options, OptionDraft{Text: text, Correct: correct[i]})
	}
	for _, ext := range strings.Split(in.Get("allowed_types"), ",") {
		if ext = strings.TrimSpace(ext); ext != "" {
			d.AllowedTypes = append(d.AllowedTypes, ext)
		}
	}
	if n, err := strconv.Atoi(in.Get("max_size_mb")); err == nil {
		d.MaxSizeMB = n
	}
	return d
}

// Build validates the draft without touching the data service. Blank
// options are discarded and correct indexes renumbered to the kept ones.
func (d Draft) Build() (Built, error) {
	text := strings.TrimSpace(d.Text)
	if text == "" {
		return Built{}, domain.Validation(MsgTextRequired)
	}
	if d.Points < 0 {
		return Built{}, domain.Validation(MsgNegativePoints)
	}

	var body domain.QuestionBody
	switch d.Type {
	case domain.MultipleChoice:
		var choice domain.ChoiceBody
		for _, opt := range d.Options {
			val := strings.TrimSpace(opt.Text)
			if val == "" {
				continue
			}
			if opt.Correct {
				choice.Correct = append(choice.Correct, len(choice.Options))
			}
			choice.Options = append(choice.Options, val)
		}
		if len(choice.Options) < 2 {
			return Built{}, domain.Validation(MsgTooFewOptions)
		}
		if len(choice.Correct) == 0 {
			return Built{}, domain.Validation(MsgNoCorrectOption)
		}
		body = choice
	case domain.OpenText:
		body = domain.TextBody{}
	case domain.FileUpload:
		if d.MaxSizeMB < 0 {
			return Built{}, domain.Validation(MsgNegativeMaxSize)
		}
		body = domain.UploadBody{AllowedTypes: d.AllowedTypes, MaxSizeMB: d.MaxSizeMB}
	default:
		return Built{}, domain.Validation(MsgUnknownType)
	}

	built := Built{Text: text, Points: d.Points, Config: domain.NewQuestionConfig(body)}
	if ideal := strings.TrimSpace(d.IdealAnswer); ideal != "" {
		built.IdealAnswer = &ideal
	}
	return built, nil
}
