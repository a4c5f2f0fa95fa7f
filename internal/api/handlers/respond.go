package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/markdave123-py/ChatbotX/internal/core"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, errorBody{Error: message, Message: message})
}

// RespondErr maps err onto a status and a client-safe body. Server-side
// faults are logged with their full cause.
func RespondErr(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := core.HTTPStatus(err)
	body := errorBody{Error: msg, Message: msg}

	var vErr *core.ValidationError
	if errors.As(err, &vErr) && len(vErr.Fields) > 0 {
		body.Details = vErr.Fields
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}
	RespondJSON(w, status, body)
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// Failures come back as *core.ValidationError carrying per-field rules.
func decodeAndValidate(r *http.Request, dst interface{}, invalidMsg string) error {
	if err := decodeJSON(r, dst, invalidMsg); err != nil {
		return err
	}
	return validateStruct(dst, invalidMsg)
}

func decodeJSON(r *http.Request, dst interface{}, invalidMsg string) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &core.ValidationError{Message: invalidMsg, Fields: map[string]string{"body": "required"}}
		}
		return &core.ValidationError{Message: invalidMsg, Fields: map[string]string{"body": "invalid json"}}
	}
	return nil
}

func validateStruct(v interface{}, invalidMsg string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &core.ValidationError{Message: invalidMsg}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if p := fe.Param(); p != "" {
			rule += "=" + p
		}
		fields[fe.Field()] = rule
	}
	return &core.ValidationError{Message: invalidMsg, Fields: fields}
}
