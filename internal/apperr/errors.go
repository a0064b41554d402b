// Package apperr defines the error taxonomy shared by the service layer and its
// transports, and classifies driver errors into it.
package apperr

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Code classifies an application error.
type Code string

const (
	BadRequest Code = "BAD_REQUEST"
	NotFound   Code = "NOT_FOUND"
	Internal   Code = "INTERNAL"
)

// AppError carries a classification, a client-safe message and the cause.
type AppError struct {
	Code    Code
	Message string
	Origin  error // underlying cause, never sent to clients
}

func (e *AppError) Error() string {
	if e.Origin != nil {
		return e.Message + ": " + e.Origin.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Origin
}

// New creates an AppError with an explicit message.
func New(code Code, message string, origin error) *AppError {
	return &AppError{Code: code, Message: message, Origin: origin}
}

func NewBadRequest(origin error) *AppError {
	return New(BadRequest, http.StatusText(http.StatusBadRequest), origin)
}

func NewNotFound(origin error) *AppError {
	return New(NotFound, http.StatusText(http.StatusNotFound), origin)
}

func NewInternal(origin error) *AppError {
	return New(Internal, http.StatusText(http.StatusInternalServerError), origin)
}

// CodeOf returns the classification of err. Errors that are not AppErrors are Internal.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return Internal
}

// Is reports whether err is an AppError with the given code.
func Is(err error, code Code) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// HTTPStatus converts a code to its HTTP status.
func HTTPStatus(code Code) int {
	switch code {
	case BadRequest:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// SQLSTATE codes treated as client errors.
const (
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgInvalidTextRepr     = "22P02"
	pgNumericOutOfRange   = "22003"
)

// FromDB classifies an error returned by the database layer. Errors that are
// already AppErrors pass through unchanged.
func FromDB(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return NewNotFound(err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewInternal(err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fromSQLState(string(pqErr.Code), err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fromSQLState(pgErr.Code, err)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return fromSQLite(liteErr, err)
	}
	return NewInternal(err)
}

func fromSQLState(state string, err error) *AppError {
	switch state {
	case pgForeignKeyViolation:
		return NewNotFound(err)
	case pgNotNullViolation, pgUniqueViolation, pgCheckViolation,
		pgInvalidTextRepr, pgNumericOutOfRange:
		return NewBadRequest(err)
	}
	return NewInternal(err)
}

func fromSQLite(liteErr *sqlite.Error, err error) *AppError {
	switch liteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return NewNotFound(err)
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL, sqlite3.SQLITE_CONSTRAINT_UNIQUE,
		sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_CHECK,
		sqlite3.SQLITE_MISMATCH:
		return NewBadRequest(err)
	}
	// Connections without extended result codes report the primary code only.
	if liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		if strings.Contains(liteErr.Error(), "FOREIGN KEY") {
			return NewNotFound(err)
		}
		return NewBadRequest(err)
	}
	return NewInternal(err)
}
