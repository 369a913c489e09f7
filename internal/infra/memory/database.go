package memory

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"amia-console/internal/datastore"
	"amia-console/internal/domain"
	"github.com/google/uuid"
)

// Join describes a single-level relation: rows of Table whose id equals the
// owning row's ForeignKey are attached under Key when Relation is requested.
type Join struct {
	Relation   string
	Key        string
	Table      string
	ForeignKey string
}

// Cascade deletes rows of Table whose ForeignKey references a deleted row.
type Cascade struct {
	Table      string
	ForeignKey string
}

type document map[string]any

// Database is an in-process stand-in for the remote data service. Rows are
// kept as JSON documents in insertion order.
type Database struct {
	clock func() time.Time
	newID func() string

	mu       sync.RWMutex
	tables   map[string][]document
	joins    map[string][]Join
	cascades map[string][]Cascade
}

func NewDatabase() *Database {
	return &Database{
		clock:    time.Now,
		newID:    func() string { return uuid.NewString() },
		tables:   make(map[string][]document),
		joins:    make(map[string][]Join),
		cascades: make(map[string][]Cascade),
	}
}

// NewStore returns the console collections backed by a fresh Database with
// the relations and cascades of the production schema.
func NewStore() (*datastore.Store, *Database) {
	db := NewDatabase()
	db.AddJoin(datastore.TableApplications, Join{Relation: "Candidate", Key: "candidate", Table: datastore.TableCandidates, ForeignKey: "candidate_id"})
	db.AddJoin(datastore.TableApplications, Join{Relation: "Position", Key: "position", Table: datastore.TablePositions, ForeignKey: "position_id"})
	db.AddCascade(datastore.TableQuizzes, Cascade{Table: datastore.TableQuestions, ForeignKey: "quiz_id"})
	db.AddCascade(datastore.TablePositions, Cascade{Table: datastore.TableApplications, ForeignKey: "position_id"})
	db.AddCascade(datastore.TableApplications, Cascade{Table: datastore.TableNotes, ForeignKey: "application_id"})

	return &datastore.Store{
		Positions:    NewCollection[domain.Position](db, datastore.TablePositions),
		Quizzes:      NewCollection[domain.Quiz](db, datastore.TableQuizzes),
		Questions:    NewCollection[domain.QuizQuestion](db, datastore.TableQuestions),
		Applications: NewCollection[domain.Application](db, datastore.TableApplications),
		Candidates:   NewCollection[domain.Candidate](db, datastore.TableCandidates),
		Notes:        NewCollection[domain.ApplicationNote](db, datastore.TableNotes),
		Templates:    NewCollection[domain.EmailTemplate](db, datastore.TableTemplates),
	}, db
}

// AddJoin registers a relation loadable from table.
func (d *Database) AddJoin(table string, j Join) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.joins[table] = append(d.joins[table], j)
}

// AddCascade registers a delete cascade from table.
func (d *Database) AddCascade(table string, c Cascade) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cascades[table] = append(d.cascades[table], c)
}

// Len reports the number of rows in table.
func (d *Database) Len(table string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.tables[table])
}

func (d *Database) findLocked(table, id string) (int, bool) {
	for i, row := range d.tables[table] {
		if row["id"] == id {
			return i, true
		}
	}
	return -1, false
}

func (d *Database) deleteLocked(table, id string) bool {
	idx, ok := d.findLocked(table, id)
	if !ok {
		return false
	}
	rows := d.tables[table]
	d.tables[table] = append(rows[:idx:idx], rows[idx+1:]...)
	for _, c := range d.cascades[table] {
		var children []string
		for _, row := range d.tables[c.Table] {
			if row[c.ForeignKey] == id {
				if childID, ok := row["id"].(string); ok {
					children = append(children, childID)
				}
			}
		}
		for _, childID := range children {
			d.deleteLocked(c.Table, childID)
		}
	}
	return true
}

func (d *Database) attachLocked(table string, row document, relations []string) (document, error) {
	if len(relations) == 0 {
		return row, nil
	}
	out := row.clone()
	for _, rel := range relations {
		join, ok := d.joinFor(table, rel)
		if !ok {
			return nil, fmt.Errorf("unknown relation %q on %s", rel, table)
		}
		fk, _ := row[join.ForeignKey].(string)
		if idx, found := d.findLocked(join.Table, fk); found {
			out[join.Key] = d.tables[join.Table][idx].clone()
		} else {
			out[join.Key] = nil
		}
	}
	return out, nil
}

func (d *Database) joinFor(table, relation string) (Join, bool) {
	for _, j := range d.joins[table] {
		if j.Relation == relation {
			return j, true
		}
	}
	return Join{}, false
}

func (d *Database) relationKeys(table string) []string {
	keys := make([]string, 0, len(d.joins[table]))
	for _, j := range d.joins[table] {
		keys = append(keys, j.Key)
	}
	return keys
}

func (doc document) clone() document {
	out := make(document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func (doc document) matches(filters []datastore.Filter) (bool, error) {
	for _, f := range filters {
		want, err := normalize(f.Value)
		if err != nil {
			return false, err
		}
		if !reflect.DeepEqual(doc[f.Column], want) {
			return false, nil
		}
	}
	return true, nil
}

func toDocument(v any) (document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDocument[T any](doc document) (T, error) {
	var out T
	data, err := json.Marshal(doc)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}

// normalize converts v to the shape it has inside a stored document.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	err = json.Unmarshal(data, &out)
	return out, err
}

func sortDocuments(rows []document, orders []datastore.Order) {
	if len(orders) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orders {
			c := compareValues(rows[i][o.Column], rows[j][o.Column])
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compareValues orders nil first, then numbers, timestamps and strings by
// their natural order.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch av := a.(type) {
	case float64:
		bv, _ := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case bool:
		bv, _ := b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case string:
		bv, _ := b.(string)
		ta, errA := time.Parse(time.RFC3339Nano, av)
		tb, errB := time.Parse(time.RFC3339Nano, bv)
		if errA == nil && errB == nil {
			return ta.Compare(tb)
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	}
	return 0
}

func groupKey(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
