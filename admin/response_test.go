package admin_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sagarc03/webroot"
	"github.com/sagarc03/webroot/admin"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		errCode string
	}{
		{"invalid input", webroot.ErrInvalidInput, http.StatusBadRequest, "invalid_query"},
		{"wrapped invalid input", fmt.Errorf("list: %w", webroot.ErrInvalidInput), http.StatusBadRequest, "invalid_query"},
		{"not found", errors.Join(errors.New("context"), webroot.ErrNotFound), http.StatusNotFound, "not_found"},
		{"anything else", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			admin.HandleError(rec, tt.err)

			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error":"`+tt.errCode+`"`)
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()

	admin.WriteError(rec, http.StatusBadRequest, "bad_request", "Invalid request")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"bad_request","message":"Invalid request"}`, rec.Body.String())
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	err := admin.WriteJSON(rec, http.StatusCreated, map[string]string{"key": "value"})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"key":"value"}`, rec.Body.String())
}
