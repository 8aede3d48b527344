// Package errors defines the client-facing failure codes of the wallet service.
package errors

import (
	stderrors "errors"
	"net/http"
)

// DomainError is a failure the caller can act on. Code is stable and part of
// the API contract; Status is the HTTP status handlers answer with.
type DomainError struct {
	Code    string
	Message string
	Status  int
}

func (e *DomainError) Error() string {
	return e.Code + ": " + e.Message
}

// Is matches any DomainError carrying the same code, so errors.Is works
// against the sentinels even after WithMessage.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// WithMessage returns a copy of e with a more specific message.
func (e *DomainError) WithMessage(msg string) *DomainError {
	c := *e
	c.Message = msg
	return &c
}

// HTTPStatus falls back to 400 for errors declared without a status.
func (e *DomainError) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusBadRequest
	}
	return e.Status
}

// As extracts the DomainError wrapped in err, if any.
func As(err error) (*DomainError, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}
