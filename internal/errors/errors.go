// Package errors is the JSON error body shared by every dashboard endpoint.
//
// A body looks like:
//
//	{"error":"figure not found","code":"NOT_FOUND","request_id":"...","timestamp":"..."}
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"
)

// Codes carried in the "code" field.
const (
	CodeBadRequest  = "BAD_REQUEST"
	CodeNotFound    = "NOT_FOUND"
	CodeForbidden   = "FORBIDDEN"
	CodeUnavailable = "UNAVAILABLE"
	CodeInternal    = "INTERNAL"
)

var statusByCode = map[string]int{
	CodeBadRequest:  http.StatusBadRequest,
	CodeNotFound:    http.StatusNotFound,
	CodeForbidden:   http.StatusForbidden,
	CodeUnavailable: http.StatusServiceUnavailable,
	CodeInternal:    http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for code; unknown codes are 500.
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Actor identifies the caller in a FORBIDDEN body.
type Actor struct {
	Subject string   `json:"subject"`
	Roles   []string `json:"roles"`
}

// Error is both a Go error and the response body.
type Error struct {
	Message   string    `json:"error"`
	Code      string    `json:"code"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	TraceID   string    `json:"trace_id,omitempty"`
	Actor     *Actor    `json:"actor,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// Status is StatusFor(e.Code).
func (e *Error) Status() int { return StatusFor(e.Code) }

// Option sets an optional field.
type Option func(*Error)

func WithDetail(detail string) Option   { return func(e *Error) { e.Detail = detail } }
func WithRequestID(id string) Option    { return func(e *Error) { e.RequestID = id } }
func WithTraceID(id string) Option      { return func(e *Error) { e.TraceID = id } }
func WithActor(actor *Actor) Option     { return func(e *Error) { e.Actor = actor } }
func WithTimestamp(ts time.Time) Option { return func(e *Error) { e.Timestamp = ts.UTC() } }

// New stamps the error with the current UTC time before applying opts.
func New(code, message string, opts ...Option) *Error {
	e := &Error{Code: code, Message: message, Timestamp: time.Now().UTC()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// From finds an *Error in err's chain. Anything else is reported as INTERNAL
// with the original text as detail.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return New(CodeInternal, "unexpected error occurred", WithDetail(err.Error()))
}

// Marshal encodes From(err).
func Marshal(err error) ([]byte, error) {
	return json.Marshal(From(err))
}

// Write sends err as a JSON body after applying opts.
func Write(w http.ResponseWriter, err error, opts ...Option) {
	e := From(err)
	for _, opt := range opts {
		opt(e)
	}
	body, encErr := json.Marshal(e)
	if encErr != nil {
		http.Error(w, e.Message, e.Status())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status())
	_, _ = w.Write(body)
}
