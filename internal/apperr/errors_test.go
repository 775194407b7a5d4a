package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", Validation("message", "empty"), http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("load: %w", NotFound("conversation", "x")), http.StatusNotFound},
		{"storage", &StorageError{Op: "insert", Err: errors.New("boom")}, http.StatusInternalServerError},
		{"upstream", &UpstreamError{Service: "openai", StatusCode: 429, Err: errors.New("slow down")}, http.StatusInternalServerError},
		{"parse", &ParseError{Raw: "nope", Err: errors.New("bad json")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestStorageKeepsClassifiedErrors(t *testing.T) {
	nf := NotFound("user info", "abc")
	assert.Same(t, nf, Storage("get", nf))

	raw := errors.New("connection reset")
	wrapped := Storage("get", raw)
	var se *StorageError
	assert.ErrorAs(t, wrapped, &se)
	assert.ErrorIs(t, wrapped, raw)
	assert.NoError(t, Storage("noop", nil))
}

func TestUpstreamStatus(t *testing.T) {
	err := fmt.Errorf("chat: %w", &UpstreamError{Service: "openai", StatusCode: 401, Err: errors.New("bad key")})
	assert.Equal(t, 401, UpstreamStatus(err))
	assert.Equal(t, 0, UpstreamStatus(errors.New("plain")))
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "conversation_id", Value: "conv_1", Message: "invalid conversation ID format"}
	assert.Equal(t, `invalid conversation ID format: "conv_1"`, err.Error())
}
