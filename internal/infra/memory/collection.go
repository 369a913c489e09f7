package memory

import (
	"context"
	"time"

	"amia-console/internal/datastore"
	"amia-console/internal/domain"
)

const zeroTimestamp = "0001-01-01T00:00:00Z"

// Collection implements datastore.Collection over one table of a Database.
type Collection[T any] struct {
	db    *Database
	table string
}

func NewCollection[T any](db *Database, table string) *Collection[T] {
	return &Collection[T]{db: db, table: table}
}

var _ datastore.Collection[domain.Position] = (*Collection[domain.Position])(nil)

func (c *Collection[T]) Select(ctx context.Context, q datastore.Query) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Remote(err)
	}
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()

	var rows []document
	for _, row := range c.db.tables[c.table] {
		ok, err := row.matches(q.Filters)
		if err != nil {
			return nil, domain.Remote(err)
		}
		if ok {
			rows = append(rows, row)
		}
	}
	sortDocuments(rows, q.Orders)
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		joined, err := c.db.attachLocked(c.table, row, q.Relations)
		if err != nil {
			return nil, domain.Remote(err)
		}
		item, err := fromDocument[T](joined)
		if err != nil {
			return nil, domain.Remote(err)
		}
		out = append(out, item)
	}
	return out, nil
}

func (c *Collection[T]) Get(ctx context.Context, id string, relations ...string) (T, error) {
	var zero T
	rows, err := c.Select(ctx, datastore.Query{}.Where("id", id).Take(1).With(relations...))
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, domain.NotFound(c.table)
	}
	return rows[0], nil
}

func (c *Collection[T]) Insert(ctx context.Context, row T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, domain.Remote(err)
	}
	doc, err := toDocument(row)
	if err != nil {
		return zero, domain.Remote(err)
	}

	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	for _, key := range c.db.relationKeys(c.table) {
		delete(doc, key)
	}
	if id, _ := doc["id"].(string); id == "" {
		doc["id"] = c.db.newID()
	} else if _, exists := c.db.findLocked(c.table, id); exists {
		return zero, domain.Validation("duplicate id " + id)
	}
	now := c.db.clock().UTC().Format(time.RFC3339Nano)
	for _, col := range []string{"created_at", "updated_at"} {
		if v, ok := doc[col]; ok && (v == nil || v == zeroTimestamp) {
			doc[col] = now
		}
	}
	c.db.tables[c.table] = append(c.db.tables[c.table], doc)

	out, err := fromDocument[T](doc)
	if err != nil {
		return zero, domain.Remote(err)
	}
	return out, nil
}

func (c *Collection[T]) Update(ctx context.Context, id string, patch datastore.Patch) error {
	if err := ctx.Err(); err != nil {
		return domain.Remote(err)
	}
	values := make(document, len(patch))
	for col, v := range patch {
		n, err := normalize(v)
		if err != nil {
			return domain.Remote(err)
		}
		values[col] = n
	}

	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	idx, ok := c.db.findLocked(c.table, id)
	if !ok {
		return domain.NotFound(c.table)
	}
	updated := c.db.tables[c.table][idx].clone()
	for col, v := range values {
		updated[col] = v
	}
	if _, ok := updated["updated_at"]; ok {
		if _, explicit := values["updated_at"]; !explicit {
			updated["updated_at"] = c.db.clock().UTC().Format(time.RFC3339Nano)
		}
	}
	c.db.tables[c.table][idx] = updated
	return nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return domain.Remote(err)
	}
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	if !c.db.deleteLocked(c.table, id) {
		return domain.NotFound(c.table)
	}
	return nil
}

func (c *Collection[T]) CountBy(ctx context.Context, column string, q datastore.Query) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Remote(err)
	}
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()

	counts := make(map[string]int)
	for _, row := range c.db.tables[c.table] {
		ok, err := row.matches(q.Filters)
		if err != nil {
			return nil, domain.Remote(err)
		}
		if ok {
			counts[groupKey(row[column])]++
		}
	}
	return counts, nil
}
