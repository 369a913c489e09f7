package postgres

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	"amia-console/internal/domain"
)

// fakePGError mimics the field access of pgdriver.Error.
type fakePGError map[byte]string

func (e fakePGError) Error() string {
	return "ERROR: " + e['M'] + " (SQLSTATE=" + e['C'] + ")"
}

func (e fakePGError) Field(k byte) string { return e[k] }

func TestWrapShowsServerMessageOnly(t *testing.T) {
	c := &Collection[domain.Quiz]{table: "quizzes"}

	err := c.wrap("insert", fakePGError{'C': "23505", 'M': `duplicate key value violates unique constraint "quizzes_pkey"`})
	if domain.KindOf(err) != domain.KindRemote {
		t.Fatalf("expected remote kind, got %v", err)
	}
	if got := domain.Message(err); got != `duplicate key value violates unique constraint "quizzes_pkey"` {
		t.Fatalf("unexpected message %q", got)
	}
	if !strings.Contains(err.Error(), "insert quizzes") {
		t.Fatalf("expected operation context kept in the error chain, got %v", err)
	}
}

func TestWrapMalformedIDIsNotFound(t *testing.T) {
	c := &Collection[domain.Quiz]{table: "quizzes"}
	malformed := fakePGError{'C': invalidTextRepresentation, 'M': `invalid input syntax for type uuid: "abc"`}

	for _, op := range []string{"get", "update", "delete"} {
		if err := c.wrap(op, malformed); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("%s: expected not found, got %v", op, err)
		}
	}
	if err := c.wrap("select", malformed); domain.KindOf(err) != domain.KindRemote {
		t.Fatalf("select: expected remote, got %v", err)
	}
	if err := c.wrap("get", sql.ErrNoRows); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for no rows, got %v", err)
	}
}

func TestWrapPlainErrorKeepsText(t *testing.T) {
	c := &Collection[domain.Quiz]{table: "quizzes"}
	err := c.wrap("select", errors.New("connection refused"))
	if domain.Message(err) != "connection refused" {
		t.Fatalf("unexpected message %q", domain.Message(err))
	}
}
