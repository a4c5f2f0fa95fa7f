package core

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ValidationError reports malformed or missing input. Fields maps a json
// field name to the rule it failed.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}

// NotFoundError means the entity is absent or not owned by the caller.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// UpstreamError is a market-data provider failure. Identified is set when the
// provider itself named the cause (an explicit error payload).
type UpstreamError struct {
	Provider   string
	Message    string
	Identified bool
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// GenerationError is a failed or empty model invocation.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return "generate " + e.Op + ": empty response"
	}
	return fmt.Sprintf("generate %s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// StorageError wraps any persistence fault.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// HTTPStatus maps an error from any layer onto a response status and a
// client-safe message.
func HTTPStatus(err error) (int, string) {
	var (
		vErr *ValidationError
		nErr *NotFoundError
		uErr *UpstreamError
		gErr *GenerationError
		sErr *StorageError
	)
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, vErr.Message
	case errors.As(err, &nErr):
		return http.StatusNotFound, nErr.Error()
	case errors.As(err, &uErr):
		if uErr.Identified {
			return http.StatusBadRequest, uErr.Message
		}
		return http.StatusInternalServerError, "failed to fetch market data"
	case errors.As(err, &gErr):
		return http.StatusInternalServerError, "failed to generate response"
	case errors.As(err, &sErr):
		return http.StatusInternalServerError, "storage failure"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
