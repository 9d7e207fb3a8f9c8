package services

import (
	"errors"
	"fmt"

	"hub/store"
)

var (
	ErrNotFound     = errors.New("no encontrado")
	ErrForbidden    = errors.New("sin permisos")
	ErrInvalid      = errors.New("datos inválidos")
	ErrConflict     = errors.New("conflicto")
	ErrUnauthorized = errors.New("no autenticado")
)

// Error carries a user facing message and one of the sentinel kinds above.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

func newError(kind error, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) error {
	return newError(ErrInvalid, format, args...)
}

func notFound(what string) error {
	return newError(ErrNotFound, "%s no encontrado", what)
}

func forbidden(format string, args ...any) error {
	return newError(ErrForbidden, format, args...)
}

// translate maps store errors onto the service sentinels. Anything else is
// returned unchanged.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return notFound(what)
	case errors.Is(err, store.ErrDuplicate):
		return newError(ErrConflict, "%s: %v", what, err)
	case errors.Is(err, store.ErrInvalidCredentials):
		return newError(ErrUnauthorized, "credenciales inválidas")
	}
	return err
}
