package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation      = "validation_error"
	CodeUnauthorized    = "unauthorized"
	CodeOriginForbidden = "origin_forbidden"
	CodeUpstream        = "upstream_error"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Validation marks a bad, missing or oversized request (400).
func Validation(msg string) *Error {
	return New(http.StatusBadRequest, CodeValidation, errors.New(msg))
}

// Auth marks a request without a resolvable identity (401).
func Auth(err error) *Error {
	if err == nil {
		err = errors.New(CodeUnauthorized)
	}
	return New(http.StatusUnauthorized, CodeUnauthorized, err)
}

// OriginForbidden marks a request from an origin outside the allow-list (403).
func OriginForbidden() *Error {
	return New(http.StatusForbidden, CodeOriginForbidden, errors.New(CodeOriginForbidden))
}

// Upstream wraps a failed embedding, generation or store call (500). The
// underlying message is kept as-is.
func Upstream(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}
	if op != "" {
		err = fmt.Errorf("%s: %w", op, err)
	}
	return New(http.StatusInternalServerError, CodeUpstream, err)
}

// StatusOf returns the HTTP status for err, defaulting to 500.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

func IsUpstream(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeUpstream
}
