package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by how the console reacts to it.
type Kind string

const (
	// KindNotFound: a single-row read returned nothing.
	KindNotFound Kind = "not_found"
	// KindValidation: rejected locally before any remote call.
	KindValidation Kind = "validation"
	// KindRemote: the data service or auth provider rejected the call.
	KindRemote Kind = "remote"
	// KindAuthorization: authenticated but lacking the required role.
	KindAuthorization Kind = "authorization"
	// KindUnauthenticated: no session.
	KindUnauthenticated Kind = "unauthenticated"
)

var (
	// ErrNotFound matches any KindNotFound error.
	ErrNotFound = &Error{Kind: KindNotFound, Message: "not found"}
	// ErrUnauthenticated matches any KindUnauthenticated error.
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Message: "not signed in"}
	// ErrForbidden matches any KindAuthorization error.
	ErrForbidden = &Error{Kind: KindAuthorization, Message: "access denied"}
	// ErrInvalidCredentials is returned by sign-in for a wrong email or password.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	// ErrSessionExpired is returned when a stored token no longer resolves.
	ErrSessionExpired = errors.New("session expired")
)

// Error is a classified failure carrying a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors of the same kind, so errors.Is(err, ErrNotFound) holds
// for every not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// NotFound builds a KindNotFound error for the named entity.
func NotFound(what string) error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

// Validation builds a KindValidation error.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Remote wraps a data-service failure; its message is shown verbatim.
func Remote(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: KindRemote, Message: err.Error(), Err: err}
}

// KindOf returns the classification of err, treating unclassified errors as
// remote failures.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindRemote
}

// Message returns the text shown to the user for err.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
