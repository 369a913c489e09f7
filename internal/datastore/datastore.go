// Package datastore defines the collection-style contract of the remote data
// service: filtered reads, single-row reads, insert-returning, update-by-id,
// delete-by-id and single-level relation joins.
package datastore

import (
	"context"

	"amia-console/internal/domain"
)

// Filter is an equality condition on a column.
type Filter struct {
	Column string
	Value  any
}

// Order sorts by a column.
type Order struct {
	Column string
	Desc   bool
}

// Query describes a filtered, ordered read. Relations names single-level
// joins by the Go field that receives the related row (e.g. "Candidate").
type Query struct {
	Filters   []Filter
	Orders    []Order
	Limit     int
	Relations []string
}

// Where returns a copy of q with an added equality filter.
func (q Query) Where(column string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Column: column, Value: value})
	return q
}

// OrderBy returns a copy of q sorted ascending by column.
func (q Query) OrderBy(column string) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Column: column})
	return q
}

// OrderByDesc returns a copy of q sorted descending by column.
func (q Query) OrderByDesc(column string) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Column: column, Desc: true})
	return q
}

// Take returns a copy of q limited to n rows.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// With returns a copy of q that also loads the named relations.
func (q Query) With(relations ...string) Query {
	q.Relations = append(append([]string(nil), q.Relations...), relations...)
	return q
}

// Patch maps column names to new values for an update.
type Patch map[string]any

// Collection is one table of the data service. Implementations report a
// missing row from Get as domain.ErrNotFound and wrap every other failure
// with domain.Remote.
type Collection[T any] interface {
	Select(ctx context.Context, q Query) ([]T, error)
	Get(ctx context.Context, id string, relations ...string) (T, error)
	Insert(ctx context.Context, row T) (T, error)
	Update(ctx context.Context, id string, patch Patch) error
	Delete(ctx context.Context, id string) error
	CountBy(ctx context.Context, column string, q Query) (map[string]int, error)
}

// Store groups the collections the console works with.
type Store struct {
	Positions    Collection[domain.Position]
	Quizzes      Collection[domain.Quiz]
	Questions    Collection[domain.QuizQuestion]
	Applications Collection[domain.Application]
	Candidates   Collection[domain.Candidate]
	Notes        Collection[domain.ApplicationNote]
	Templates    Collection[domain.EmailTemplate]
}

// Table names shared by every backend.
const (
	TablePositions    = "positions"
	TableQuizzes      = "quizzes"
	TableQuestions    = "quiz_questions"
	TableApplications = "applications"
	TableCandidates   = "candidates"
	TableNotes        = "application_notes"
	TableTemplates    = "email_templates"
)
