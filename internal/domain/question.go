package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// QuestionType identifies the answer format of a question.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	OpenText       QuestionType = "open_text"
	FileUpload     QuestionType = "file_upload"
)

// QuestionTypes lists every question type in display order.
var QuestionTypes = []QuestionType{MultipleChoice, OpenText, FileUpload}

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, OpenText, FileUpload:
		return true
	}
	return false
}

// QuestionBody is the type-specific part of a question. Exactly one variant
// exists per question type.
type QuestionBody interface {
	Kind() QuestionType
	isQuestionBody()
}

// ChoiceBody configures a multiple-choice question. Correct holds indexes
// into Options.
type ChoiceBody struct {
	Options []string
	Correct []int
}

func (ChoiceBody) Kind() QuestionType { return MultipleChoice }
func (ChoiceBody) isQuestionBody()    {}

// AllowMultiple is derived: more than one correct option means the candidate
// may select several.
func (b ChoiceBody) AllowMultiple() bool {
	return len(b.Correct) > 1
}

// IsCorrect reports whether the option at index i is marked correct.
func (b ChoiceBody) IsCorrect(i int) bool {
	for _, c := range b.Correct {
		if c == i {
			return true
		}
	}
	return false
}

// TextBody is a free-form answer question.
type TextBody struct{}

func (TextBody) Kind() QuestionType { return OpenText }
func (TextBody) isQuestionBody()    {}

// UploadBody is a file submission question.
type UploadBody struct {
	AllowedTypes []string
	MaxSizeMB    int
}

func (UploadBody) Kind() QuestionType { return FileUpload }
func (UploadBody) isQuestionBody()    {}

// QuestionConfig stores a QuestionBody. It serializes as a single JSON object
// tagged with the question type, for both JSON and SQL jsonb columns.
type QuestionConfig struct {
	body QuestionBody
}

// NewQuestionConfig wraps body.
func NewQuestionConfig(body QuestionBody) QuestionConfig {
	return QuestionConfig{body: body}
}

// Body returns the wrapped variant, or nil for an empty config.
func (c QuestionConfig) Body() QuestionBody {
	return c.body
}

// Kind returns the question type, or "" for an empty config.
func (c QuestionConfig) Kind() QuestionType {
	if c.body == nil {
		return ""
	}
	return c.body.Kind()
}

// Choice returns the multiple-choice variant if that is what c holds.
func (c QuestionConfig) Choice() (ChoiceBody, bool) {
	b, ok := c.body.(ChoiceBody)
	return b, ok
}

type questionConfigJSON struct {
	Kind          QuestionType `json:"kind"`
	Options       []string     `json:"options,omitempty"`
	Correct       []int        `json:"correct,omitempty"`
	AllowMultiple bool         `json:"allow_multiple,omitempty"`
	AllowedTypes  []string     `json:"allowed_types,omitempty"`
	MaxSizeMB     int          `json:"max_size_mb,omitempty"`
}

func (c QuestionConfig) MarshalJSON() ([]byte, error) {
	if c.body == nil {
		return []byte("null"), nil
	}
	out := questionConfigJSON{Kind: c.body.Kind()}
	switch b := c.body.(type) {
	case ChoiceBody:
		out.Options = b.Options
		out.Correct = b.Correct
		out.AllowMultiple = b.AllowMultiple()
	case UploadBody:
		out.AllowedTypes = b.AllowedTypes
		out.MaxSizeMB = b.MaxSizeMB
	}
	return json.Marshal(out)
}

func (c *QuestionConfig) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		c.body = nil
		return nil
	}
	var in questionConfigJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Kind {
	case MultipleChoice:
		c.body = ChoiceBody{Options: in.Options, Correct: in.Correct}
	case OpenText:
		c.body = TextBody{}
	case FileUpload:
		c.body = UploadBody{AllowedTypes: in.AllowedTypes, MaxSizeMB: in.MaxSizeMB}
	default:
		return fmt.Errorf("unknown question type %q", in.Kind)
	}
	return nil
}

// Value implements driver.Valuer.
func (c QuestionConfig) Value() (driver.Value, error) {
	data, err := c.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (c *QuestionConfig) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		c.body = nil
		return nil
	case []byte:
		return c.UnmarshalJSON(v)
	case string:
		return c.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("scan question config: unsupported type %T", src)
	}
}
