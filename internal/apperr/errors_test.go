package apperr

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestAppErrorWrapsOrigin(t *testing.T) {
	cause := errors.New("boom")
	err := NewInternal(cause)

	assert.Equal(t, "Internal Server Error: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, Internal, CodeOf(err))
	assert.Equal(t, "Bad Request", NewBadRequest(nil).Error())
}

func TestCodeOfWrapped(t *testing.T) {
	err := fmt.Errorf("create comment: %w", NewNotFound(nil))
	assert.Equal(t, NotFound, CodeOf(err))
	assert.True(t, Is(err, NotFound))
	assert.False(t, Is(err, BadRequest))
	assert.Equal(t, Internal, CodeOf(errors.New("plain")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(BadRequest))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Internal))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Code("SOMETHING_ELSE")))
}

func TestFromDB(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"no rows", sql.ErrNoRows, NotFound},
		{"wrapped no rows", fmt.Errorf("get article: %w", sql.ErrNoRows), NotFound},
		{"pq unique", &pq.Error{Code: "23505"}, BadRequest},
		{"pq not null", &pq.Error{Code: "23502"}, BadRequest},
		{"pq foreign key", &pq.Error{Code: "23503"}, NotFound},
		{"pq invalid text", &pq.Error{Code: "22P02"}, BadRequest},
		{"pq syntax error", &pq.Error{Code: "42601"}, Internal},
		{"pgx check", &pgconn.PgError{Code: "23514"}, BadRequest},
		{"pgx out of range", &pgconn.PgError{Code: "22003"}, BadRequest},
		{"pgx foreign key", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), NotFound},
		{"canceled", context.Canceled, Internal},
		{"unknown", errors.New("disk on fire"), Internal},
		{"already classified", NewBadRequest(nil), BadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromDB(tt.err)
			assert.Equal(t, tt.want, got.Code)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestFromDBNil(t *testing.T) {
	assert.Nil(t, FromDB(nil))
}
