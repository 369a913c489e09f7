package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Role is the capability level of an authenticated principal.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleCandidate Role = "candidate"
)

// Session is the authenticated principal as seen by the console.
type Session struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
}

// IsAdmin reports whether the principal may use the console.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// Profile is the stored account behind a session.
type Profile struct {
	ID           string
	Email        string
	FullName     string
	Role         Role
	PasswordHash string
}

// PositionStatus is the publication stage of a job posting.
type PositionStatus string

const (
	PositionDraft     PositionStatus = "draft"
	PositionPublished PositionStatus = "published"
	PositionClosed    PositionStatus = "closed"
	PositionArchived  PositionStatus = "archived"
)

// PositionStatuses lists every status in display order.
var PositionStatuses = []PositionStatus{PositionDraft, PositionPublished, PositionClosed, PositionArchived}

// ContractType classifies a position's employment terms.
type ContractType string

const (
	ContractFullTime  ContractType = "full-time"
	ContractPartTime  ContractType = "part-time"
	ContractFreelance ContractType = "freelance"
	ContractStage     ContractType = "stage"
)

// ContractTypes lists every contract type in display order.
var ContractTypes = []ContractType{ContractFullTime, ContractPartTime, ContractFreelance, ContractStage}

// Position is a job posting.
type Position struct {
	ID           string         `json:"id" bun:"id,pk,nullzero,type:uuid,default:gen_random_uuid()"`
	Title        string         `json:"title" bun:"title"`
	Description  string         `json:"description" bun:"description"`
	Department   string         `json:"department" bun:"department"`
	ContractType ContractType   `json:"contract_type" bun:"contract_type"`
	Location     string         `json:"location" bun:"location"`
	SalaryMin    *int           `json:"salary_min" bun:"salary_min"`
	SalaryMax    *int           `json:"salary_max" bun:"salary_max"`
	Status       PositionStatus `json:"status" bun:"status"`
	PreQuizID    *string        `json:"pre_quiz_id" bun:"pre_quiz_id,type:uuid"`
	PostQuizID   *string        `json:"post_quiz_id" bun:"post_quiz_id,type:uuid"`
	AttQuizID    *string        `json:"att_quiz_id" bun:"att_quiz_id,type:uuid"`
	Slug         string         `json:"slug" bun:"slug"`
	PublishedAt  *time.Time     `json:"published_at" bun:"published_at"`
	CreatedAt    time.Time      `json:"created_at" bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time      `json:"updated_at" bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// QuizType is the assessment stage a quiz belongs to.
type QuizType string

const (
	QuizLogic       QuizType = "logic"
	QuizSkills      QuizType = "skills"
	QuizAttitudinal QuizType = "attitudinal"
)

// QuizTypes lists every quiz type in display order.
var QuizTypes = []QuizType{QuizLogic, QuizSkills, QuizAttitudinal}

// Valid reports whether t is a known quiz type.
func (t QuizType) Valid() bool {
	for _, known := range QuizTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Quiz is a named, typed, optionally timed set of ordered questions.
type Quiz struct {
	ID              string    `json:"id" bun:"id,pk,nullzero,type:uuid,default:gen_random_uuid()"`
	Title           string    `json:"title" bun:"title"`
	Description     *string   `json:"description" bun:"description"`
	Type            QuizType  `json:"quiz_type" bun:"quiz_type"`
	DurationMinutes *int      `json:"duration_minutes" bun:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at" bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time `json:"updated_at" bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// QuizQuestion is one ordered question of a quiz. SortOrder is unique and
// dense from zero within its quiz.
type QuizQuestion struct {
	ID          string         `json:"id" bun:"id,pk,nullzero,type:uuid,default:gen_random_uuid()"`
	QuizID      string         `json:"quiz_id" bun:"quiz_id,type:uuid"`
	Text        string         `json:"question_text" bun:"question_text"`
	SortOrder   int            `json:"sort_order" bun:"sort_order"`
	Points      int            `json:"points" bun:"points"`
	Config      QuestionConfig `json:"config" bun:"config,type:jsonb"`
	IdealAnswer *string        `json:"ideal_answer" bun:"ideal_answer"`
	CreatedAt   time.Time      `json:"created_at" bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Type returns the question type carried by the configuration.
func (q QuizQuestion) Type() QuestionType {
	return q.Config.Kind()
}

// Candidate is a person who applied to one or more positions.
type Candidate struct {
	ID          string    `json:"id" bun:"id,pk,nullzero,type:uuid,default:gen_random_uuid()"`
	UserID      *string   `json:"user_id" bun:"user_id,type:uuid"`
	FirstName   string    `json:"first_name" bun:"first_name"`
	LastName    string    `json:"last_name" bun:"last_name"`
	Email       string    `json:"email" bun:"email"`
	Phone       *string   `json:"phone" bun:"phone"`
	LinkedInURL *string   `json:"linkedin_url" bun:"linkedin_url"`
	CreatedAt   time.Time `json:"created_at" bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// FullName joins first and last name.
func (c *Candidate) FullName() string {
	if c == nil {
		return ""
	}
	return c.FirstName + " " + c.LastName
}

// ApplicationStatus is the pipeline stage of an application.
type ApplicationStatus string

const (
	StatusApplied   ApplicationStatus = "applied"
	StatusInterview ApplicationStatus = "interview"
	StatusHired     ApplicationStatus = "hired"
	StatusRejected  ApplicationStatus = "rejected"
)

// ApplicationStatuses lists every pipeline stage in display order.
var ApplicationStatuses = []ApplicationStatus{StatusApplied, StatusInterview, StatusHired, StatusRejected}

// Valid reports whether s is a known pipeline stage.
func (s ApplicationStatus) Valid() bool {
	for _, known := range ApplicationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// QuizResponse is one recorded answer of an attempt.
type QuizResponse struct {
	QuestionID   string `json:"question_id"`
	Answer       Answer `json:"answer"`
	IsCorrect    *bool  `json:"is_correct,omitempty"`
	PointsEarned *int   `json:"points_earned,omitempty"`
}

// Answer is a recorded answer: one value for open questions, several for
// multiple-choice selections. A bare JSON string decodes as one value.
type Answer []string

func (a *Answer) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = Answer{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*a = many
	return nil
}

// String joins multiple selections with a comma.
func (a Answer) String() string {
	return strings.Join(a, ", ")
}

// TimedAttempt is a scored quiz attempt with a time limit.
type TimedAttempt struct {
	Score       *int           `json:"score" bun:"score"`
	MaxScore    *int           `json:"max_score" bun:"max_score"`
	Responses   []QuizResponse `json:"responses" bun:"responses,type:jsonb"`
	StartedAt   *time.Time     `json:"started_at" bun:"started_at"`
	CompletedAt *time.Time     `json:"completed_at" bun:"completed_at"`
	OverTime    bool           `json:"over_time" bun:"over_time"`
}

// UntimedAttempt is the attitudinal attempt: responses only.
type UntimedAttempt struct {
	Responses   []QuizResponse `json:"responses" bun:"responses,type:jsonb"`
	CompletedAt *time.Time     `json:"completed_at" bun:"completed_at"`
}

// Application is a candidate's submission for a position. It is read-only to
// the console apart from status transitions and notes.
type Application struct {
	ID            string            `json:"id" bun:"id,pk,nullzero,type:uuid,default:gen_random_uuid()"`
	PositionID    string            `json:"position_id" bun:"position_id,type:uuid"`
	CandidateID   string            `json:"candidate_id" bun:"candidate_id,type:uuid"`
	Status        ApplicationStatus `json:"status" bun:"status"`
	CVFilePath    string            `json:"cv_file_path" bun:"cv_file_path"`
	PortfolioPath *string           `json:"portfolio_path" bun:"portfolio_path"`
	CoverLetter   *string           `json:"cover_letter" bun:"cover_letter"`
	Logic         TimedAttempt      `json:"pre_quiz" bun:"embed:pre_quiz_"`
	Skills        TimedAttempt      `json:"post_quiz" bun:"embed:post_quiz_"`
	Attitudinal   UntimedAttempt    `json:"att_quiz" bun:"embed:att_quiz_"`
	CreatedAt     time.Time         `json:"created_at" bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time         `json:"updated_at" bun:"updated_at,nullzero,notnull,default:current_timestamp"`

	Candidate *Candidate `json:"candidate,omitempty" bun:"rel:belongs-to,join:candidate_id=id"`
	Position  *Position  `json:"position,omitempty" bun:"rel:belongs-to,join:position_id=id"`
}

// ApplicationNote is an internal staff note on an application.
type ApplicationNote struct {
	ID            string    `json:"id" bun:"id,pk,nullzero,type:uuid,default:gen_random_uuid()"`
	ApplicationID string    `json:"application_id" bun:"application_id,type:uuid"`
	AuthorID      string    `json:"author_id" bun:"author_id,type:uuid"`
	Content       string    `json:"content" bun:"content"`
	CreatedAt     time.Time `json:"created_at" bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// EmailTemplate is a notification template keyed by its trigger.
type EmailTemplate struct {
	ID        string    `json:"id" bun:"id,pk,nullzero,type:uuid,default:gen_random_uuid()"`
	Trigger   string    `json:"trigger" bun:"trigger"`
	Subject   string    `json:"subject" bun:"subject"`
	BodyHTML  string    `json:"body_html" bun:"body_html"`
	CreatedAt time.Time `json:"created_at" bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `json:"updated_at" bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
