package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"amia-console/internal/datastore"
	"amia-console/internal/domain"
	"github.com/uptrace/bun"
)

// Collection implements datastore.Collection for a bun model.
type Collection[T any] struct {
	db    bun.IDB
	table string
	// touch refreshes updated_at on every update.
	touch bool
}

func NewCollection[T any](db bun.IDB, table string, touch bool) *Collection[T] {
	return &Collection[T]{db: db, table: table, touch: touch}
}

var _ datastore.Collection[domain.Quiz] = (*Collection[domain.Quiz])(nil)

func (c *Collection[T]) Select(ctx context.Context, q datastore.Query) ([]T, error) {
	rows := make([]T, 0)
	sel := c.db.NewSelect().Model(&rows)
	for _, f := range q.Filters {
		sel = sel.Where("?TableAlias.? = ?", bun.Ident(f.Column), f.Value)
	}
	for _, o := range q.Orders {
		if o.Desc {
			sel = sel.OrderExpr("?TableAlias.? DESC", bun.Ident(o.Column))
		} else {
			sel = sel.OrderExpr("?TableAlias.? ASC", bun.Ident(o.Column))
		}
	}
	if q.Limit > 0 {
		sel = sel.Limit(q.Limit)
	}
	for _, rel := range q.Relations {
		sel = sel.Relation(rel)
	}
	if err := sel.Scan(ctx); err != nil {
		return nil, c.wrap("select", err)
	}
	return rows, nil
}

func (c *Collection[T]) Get(ctx context.Context, id string, relations ...string) (T, error) {
	var row T
	sel := c.db.NewSelect().Model(&row).Where("?TableAlias.id = ?", id).Limit(1)
	for _, rel := range relations {
		sel = sel.Relation(rel)
	}
	if err := sel.Scan(ctx); err != nil {
		return row, c.wrap("get", err)
	}
	return row, nil
}

func (c *Collection[T]) Insert(ctx context.Context, row T) (T, error) {
	if _, err := c.db.NewInsert().Model(&row).Returning("*").Exec(ctx); err != nil {
		return row, c.wrap("insert", err)
	}
	return row, nil
}

func (c *Collection[T]) Update(ctx context.Context, id string, patch datastore.Patch) error {
	if len(patch) == 0 {
		return nil
	}
	cols := make([]string, 0, len(patch))
	for col := range patch {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	upd := c.db.NewUpdate().TableExpr("?", bun.Ident(c.table))
	for _, col := range cols {
		upd = upd.Set("? = ?", bun.Ident(col), patch[col])
	}
	if _, explicit := patch["updated_at"]; c.touch && !explicit {
		upd = upd.Set("updated_at = current_timestamp")
	}
	res, err := upd.Where("id = ?", id).Exec(ctx)
	if err != nil {
		return c.wrap("update", err)
	}
	return c.expectRow(res)
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	res, err := c.db.NewDelete().TableExpr("?", bun.Ident(c.table)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return c.wrap("delete", err)
	}
	return c.expectRow(res)
}

type groupCount struct {
	Key   sql.NullString `bun:"key"`
	Count int            `bun:"count"`
}

func (c *Collection[T]) CountBy(ctx context.Context, column string, q datastore.Query) (map[string]int, error) {
	var groups []groupCount
	sel := c.db.NewSelect().
		TableExpr("?", bun.Ident(c.table)).
		ColumnExpr("?::text AS key", bun.Ident(column)).
		ColumnExpr("count(*) AS count").
		GroupExpr("?", bun.Ident(column))
	for _, f := range q.Filters {
		sel = sel.Where("? = ?", bun.Ident(f.Column), f.Value)
	}
	if err := sel.Scan(ctx, &groups); err != nil {
		return nil, c.wrap("count", err)
	}
	counts := make(map[string]int, len(groups))
	for _, g := range groups {
		counts[g.Key.String] += g.Count
	}
	return counts, nil
}

func (c *Collection[T]) expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return c.wrap("rows affected", err)
	}
	if n == 0 {
		return domain.NotFound(c.table)
	}
	return nil
}

// driverError exposes Postgres error fields; pgdriver.Error implements it.
type driverError interface {
	error
	Field(k byte) string
}

const invalidTextRepresentation = "22P02"

// wrap classifies err. The user-facing message is the server's own text;
// the operation and table stay in the wrapped error. A malformed id on a
// single-row operation matches no row and reads as not found.
func (c *Collection[T]) wrap(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(c.table)
	}
	msg := err.Error()
	var pgErr driverError
	if errors.As(err, &pgErr) {
		if pgErr.Field('C') == invalidTextRepresentation && byID(op) {
			return domain.NotFound(c.table)
		}
		if m := pgErr.Field('M'); m != "" {
			msg = m
		}
	}
	return &domain.Error{Kind: domain.KindRemote, Message: msg, Err: fmt.Errorf("%s %s: %w", op, c.table, err)}
}

func byID(op string) bool {
	switch op {
	case "get", "update", "delete":
		return true
	}
	return false
}
