package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", &ValidationError{Message: "invalid message data"}, http.StatusBadRequest, "invalid message data"},
		{"not found", &NotFoundError{Resource: "conversation"}, http.StatusNotFound, "conversation not found"},
		{"upstream identified", &UpstreamError{Provider: "alphavantage", Message: "Invalid API call", Identified: true}, http.StatusBadRequest, "Invalid API call"},
		{"upstream transport", &UpstreamError{Provider: "alphavantage", Message: "status 503"}, http.StatusInternalServerError, "failed to fetch market data"},
		{"generation", &GenerationError{Op: "summary"}, http.StatusInternalServerError, "failed to generate response"},
		{"storage wrapped", fmt.Errorf("post: %w", &StorageError{Op: "create message", Err: errors.New("conn reset")}), http.StatusInternalServerError, "storage failure"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, msg := HTTPStatus(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.msg, msg)
		})
	}
}

func TestValidationErrorMessageListsFields(t *testing.T) {
	err := &ValidationError{Message: "invalid", Fields: map[string]string{"role": "required", "content": "required"}}
	assert.Equal(t, "invalid (content: required, role: required)", err.Error())
}
