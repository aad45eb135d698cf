// Package domainerrors defines the coded error type exchanged between
// services and the transport layer. Stores return sentinel errors; services
// translate them into coded errors here so handlers can map them to HTTP
// without inspecting infrastructure details.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure the caller can act on.
type Code string

const (
	CodeValidation        Code = "validation_error"
	CodeInsufficientStock Code = "insufficient_stock"
	CodeNotFound          Code = "not_found"
	CodeAlreadyClaimed    Code = "already_claimed"
	CodeInvalidTransition Code = "invalid_transition"
	CodeNotAuthorized     Code = "not_authorized"
	CodeUnauthorized      Code = "unauthorized"
	CodeExternalService   Code = "external_service_error"
	CodeBadRequest        Code = "bad_request"
	CodeInternal          Code = "internal_error"
)

// DomainError carries a machine-readable code plus a human-readable
// description with enough detail for the caller to act.
type DomainError struct {
	Code        Code
	Description string
	wrapped     error
}

func (e *DomainError) Error() string {
	if e.Description == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *DomainError) Unwrap() error { return e.wrapped }

// New builds a DomainError with the given code and description.
func New(code Code, description string) *DomainError {
	return &DomainError{Code: code, Description: description}
}

// Wrap builds a DomainError that preserves the underlying cause for
// errors.Is/errors.As chains while presenting the coded description.
func Wrap(code Code, description string, cause error) *DomainError {
	return &DomainError{Code: code, Description: description, wrapped: cause}
}

// Is reports whether err (or anything it wraps) is a DomainError with the
// given code.
func Is(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that did not originate in a service.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP equivalent.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeInsufficientStock:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyClaimed, CodeInvalidTransition:
		return http.StatusConflict
	case CodeNotAuthorized:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
