package domain

import "net/http"

// ErrorCode is the machine-readable tag carried by every application error.
// It is the only thing consumers branch on; the HTTP status is derived from it.
type ErrorCode string

const (
	// General
	CodeUnknown             ErrorCode = "UNKNOWN_ERROR"
	CodeInternalServerError ErrorCode = "INTERNAL_SERVER_ERROR"
	CodeBadRequest          ErrorCode = "BAD_REQUEST"
	CodeValidation          ErrorCode = "VALIDATION_ERROR"

	// Authentication / authorization
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	CodeTokenInvalid       ErrorCode = "TOKEN_INVALID"

	// Resources
	CodeNotFound              ErrorCode = "NOT_FOUND"
	CodeResourceAlreadyExists ErrorCode = "RESOURCE_ALREADY_EXISTS"

	// Business rules
	CodeBusinessRuleViolation ErrorCode = "BUSINESS_RULE_VIOLATION"
	CodeOperationNotAllowed   ErrorCode = "OPERATION_NOT_ALLOWED"
)

// statusByCode is the fixed code → HTTP status table shared by both sides of
// the wire. Every code in the enumeration must have an entry.
var statusByCode = map[ErrorCode]int{
	CodeUnknown:               http.StatusInternalServerError,
	CodeInternalServerError:   http.StatusInternalServerError,
	CodeBadRequest:            http.StatusBadRequest,
	CodeValidation:            http.StatusBadRequest,
	CodeUnauthorized:          http.StatusUnauthorized,
	CodeForbidden:             http.StatusForbidden,
	CodeInvalidCredentials:    http.StatusUnauthorized,
	CodeTokenExpired:          http.StatusUnauthorized,
	CodeTokenInvalid:          http.StatusUnauthorized,
	CodeNotFound:              http.StatusNotFound,
	CodeResourceAlreadyExists: http.StatusConflict,
	CodeBusinessRuleViolation: http.StatusUnprocessableEntity,
	CodeOperationNotAllowed:   http.StatusForbidden,
}

// ErrorCodes returns every member of the enumeration.
func ErrorCodes() []ErrorCode {
	return []ErrorCode{
		CodeUnknown,
		CodeInternalServerError,
		CodeBadRequest,
		CodeValidation,
		CodeUnauthorized,
		CodeForbidden,
		CodeInvalidCredentials,
		CodeTokenExpired,
		CodeTokenInvalid,
		CodeNotFound,
		CodeResourceAlreadyExists,
		CodeBusinessRuleViolation,
		CodeOperationNotAllowed,
	}
}

// Valid reports whether c is a member of the enumeration.
func (c ErrorCode) Valid() bool {
	_, ok := statusByCode[c]
	return ok
}

// HTTPStatus returns the table status for c. Codes outside the enumeration
// resolve to 500, the status of UNKNOWN_ERROR.
func (c ErrorCode) HTTPStatus() int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// CodeForStatus picks the enumeration member whose table status best matches an
// arbitrary HTTP status. Used when a transport-level status must be expressed
// as a domain error without breaking the code → status invariant.
func CodeForStatus(status int) ErrorCode {
	switch {
	case status == http.StatusBadRequest:
		return CodeBadRequest
	case status == http.StatusUnauthorized:
		return CodeUnauthorized
	case status == http.StatusForbidden:
		return CodeForbidden
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusConflict:
		return CodeResourceAlreadyExists
	case status == http.StatusUnprocessableEntity:
		return CodeBusinessRuleViolation
	case status >= 400 && status < 500:
		return CodeBadRequest
	default:
		return CodeInternalServerError
	}
}
