package apperr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("meal %d not found", 3), http.StatusNotFound},
		{"forbidden", Forbidden("nope"), http.StatusForbidden},
		{"bad request", BadRequest("bad"), http.StatusBadRequest},
		{"conflict", Conflict("taken"), http.StatusConflict},
		{"unauthorized", Unauthorized("who"), http.StatusUnauthorized},
		{"internal", Internal(errors.New("boom"), "failed"), http.StatusInternalServerError},
		{"plain error", errors.New("raw"), http.StatusInternalServerError},
		{"wrapped", Wrap(Conflict("taken"), "register"), http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestFromDB(t *testing.T) {
	assert.Nil(t, FromDB(nil, "x"))

	err := FromDB(gorm.ErrRecordNotFound, "order not found")
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, "order not found", PublicMessage(err))

	conflict := Conflict("already paid")
	assert.Same(t, conflict, FromDB(conflict, "ignored"))

	cause := errors.New("disk full")
	internal := FromDB(cause, "ignored")
	assert.True(t, Is(internal, KindInternal))
	assert.ErrorIs(t, internal, cause)
	assert.Equal(t, "database error", PublicMessage(internal))
}

func TestWrapKeepsChain(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ctx"))
	assert.Nil(t, Wrapf(nil, "ctx %d", 1))

	base := NotFound("vendor not found")
	wrapped := Wrapf(base, "order %d", 7)
	assert.Equal(t, "order 7: vendor not found", wrapped.Error())
	assert.True(t, Is(wrapped, KindNotFound))
	assert.Equal(t, "vendor not found", PublicMessage(wrapped))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("raw")))
}
