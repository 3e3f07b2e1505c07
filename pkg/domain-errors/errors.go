// Package derrors defines the stable error codes surfaced by the grievance
// service. Every failure leaving a service carries one of these codes so
// transport can map it to an HTTP status and callers can branch on it without
// string matching.
package derrors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Code identifies an error kind. Codes are part of the API contract and must
// stay stable across releases.
type Code string

const (
	CodeInvalidRequest          Code = "INVALID_REQUEST"
	CodeInvalidSource           Code = "INVALID_SOURCE"
	CodeInvalidServiceCode      Code = "INVALID_SERVICECODE"
	CodeInvalidSearch           Code = "INVALID_SEARCH"
	CodeInvalidAccountID        Code = "INVALID_ACCOUNTID"
	CodeInvalidAssignment       Code = "INVALID_ASSIGNMENT"
	CodeInvalidAction           Code = "INVALID_ACTION"
	CodeInvalidUpdate           Code = "INVALID_UPDATE"
	CodeUserNotFound            Code = "USER_NOT_FOUND"
	CodeWorkflowNotFound        Code = "WORKFLOW_NOT_FOUND"
	CodeBusinessServiceNotFound Code = "BUSINESSSERVICE_NOT_FOUND"
	CodeParsingError            Code = "PARSING_ERROR"
	CodeWorkflowUnavailable     Code = "WORKFLOW_UNAVAILABLE"
	CodeDepartmentNotFound      Code = "DEPARTMENT_NOT_FOUND"
	CodeIDGenError              Code = "IDGEN_ERROR"
	CodeInternal                Code = "INTERNAL_ERROR"
)

// Error is a domain error with a stable code and one or more human readable
// messages. Fields holds per-field validation messages when a single request
// fails multiple checks at once.
type Error struct {
	Code    Code
	Message string
	Fields  map[string]string
	cause   error
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return string(e.Code) + ": " + e.Message
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
	return string(e.Code) + ": " + strings.Join(parts, "; ")
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. The cause remains
// reachable through errors.Is / errors.As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// NewFields builds an aggregated validation error. Callers collect field
// messages into a map and fail once, so one response reports every violation.
func NewFields(code Code, fields map[string]string) *Error {
	return &Error{Code: code, Fields: fields}
}

// HasCode reports whether err carries the given domain error code anywhere in
// its chain.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the domain code from err, defaulting to CodeInternal for
// errors that never passed through a service boundary.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain code onto the HTTP status transport should emit.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidRequest, CodeInvalidSource, CodeInvalidServiceCode,
		CodeInvalidSearch, CodeInvalidAccountID, CodeInvalidAssignment,
		CodeInvalidUpdate, CodeIDGenError:
		return http.StatusBadRequest
	case CodeInvalidAction:
		return http.StatusForbidden
	case CodeUserNotFound, CodeWorkflowNotFound, CodeBusinessServiceNotFound,
		CodeDepartmentNotFound:
		return http.StatusNotFound
	case CodeParsingError:
		return http.StatusBadGateway
	case CodeWorkflowUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
