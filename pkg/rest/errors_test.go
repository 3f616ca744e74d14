package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKindStatusCodes(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindBadRequest, http.StatusBadRequest},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindNotAcceptable, http.StatusNotAcceptable},
		{KindConflict, http.StatusConflict},
		{KindServerError, http.StatusInternalServerError},
		{KindNotImplemented, http.StatusNotImplemented},
		{KindServiceUnavailable, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.StatusCode(), string(tt.kind))
	}
}

func TestWriteErrorShape(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, zap.NewNop(), NotFound("users 42 not found"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, body.Code)
	assert.Equal(t, KindNotFound, body.Kind)
	assert.Equal(t, "users 42 not found", body.Message)
}

func TestWriteErrorWrapsUnknownErrors(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, zap.NewNop(), errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, KindServerError, body.Kind)
	// internal detail must not leak to the client
	assert.NotContains(t, body.Message, "boom")
}

func TestTranslateDBError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"no rows", pgx.ErrNoRows, KindNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505", Message: "duplicate key"}, KindConflict},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, KindConflict},
		{"invalid text representation", &pgconn.PgError{Code: "22P02"}, KindBadRequest},
		{"connection failure", &pgconn.PgError{Code: "08006"}, KindServiceUnavailable},
		{"anything else", errors.New("boom"), KindServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, translateDBError(tt.err).Kind)
		})
	}
}
