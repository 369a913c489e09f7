// Package postgres backs the console with a Postgres database: bun for the
// data collections and migrations, a pgx pool for the account directory.
package postgres

import (
	"context"
	"database/sql"

	"amia-console/internal/datastore"
	"amia-console/internal/domain"
	pgmigrations "amia-console/internal/infra/postgres/migrations"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// Open returns a bun handle for dsn. The caller closes it.
func Open(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// NewStore returns the console collections backed by db.
func NewStore(db bun.IDB) *datastore.Store {
	return &datastore.Store{
		Positions:    NewCollection[domain.Position](db, datastore.TablePositions, true),
		Quizzes:      NewCollection[domain.Quiz](db, datastore.TableQuizzes, true),
		Questions:    NewCollection[domain.QuizQuestion](db, datastore.TableQuestions, false),
		Applications: NewCollection[domain.Application](db, datastore.TableApplications, true),
		Candidates:   NewCollection[domain.Candidate](db, datastore.TableCandidates, false),
		Notes:        NewCollection[domain.ApplicationNote](db, datastore.TableNotes, false),
		Templates:    NewCollection[domain.EmailTemplate](db, datastore.TableTemplates, true),
	}
}

// Migrate applies every pending migration and returns the applied group.
func Migrate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, err
	}
	return migrator.Migrate(ctx)
}
