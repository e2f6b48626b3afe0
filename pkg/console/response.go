package console

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/flagkit/pkg/repository"
)

// Response renders itself to a writer.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Envelope is the body of every JSON response.
type Envelope struct {
	Data  any          `json:"data,omitempty"`
	Meta  any          `json:"meta,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type jsonResponse struct {
	status int
	body   Envelope
	err    error
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

func WithStatus(status int) JSONOption {
	return func(r *jsonResponse) { r.status = status }
}

func WithMeta(meta any) JSONOption {
	return func(r *jsonResponse) { r.body.Meta = meta }
}

// JSON wraps v in an Envelope. An error value renders as JSONError.
func JSON(v any, opts ...JSONOption) Response {
	if err, ok := v.(error); ok {
		return JSONError(err, opts...)
	}
	r := &jsonResponse{status: http.StatusOK, body: Envelope{Data: v}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError renders err with the status of its repository error kind.
func JSONError(err error, opts ...JSONOption) Response {
	status, code := classify(err)
	r := &jsonResponse{
		status: status,
		body:   Envelope{Error: &ErrorDetail{Code: code, Message: err.Error()}},
		err:    err,
	}
	if status >= http.StatusInternalServerError {
		r.body.Error.Message = http.StatusText(status)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// classify maps repository error kinds to HTTP statuses.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrAlreadyExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, repository.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, repository.ErrAccessDenied):
		return http.StatusForbidden, "access_denied"
	case errors.Is(err, repository.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

type emptyResponse struct {
	status int
}

func (e emptyResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.WriteHeader(e.status)
	return nil
}

// Empty returns 204 No Content.
func Empty() Response {
	return emptyResponse{status: http.StatusNoContent}
}

type rawResponse struct {
	contentType string
	body        []byte
}

func (b rawResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", b.contentType)
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(b.body)
	return err
}
