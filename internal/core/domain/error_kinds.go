package domain

import "fmt"

// Specific error kinds. Each fixes its code and formats a message from its
// arguments; all of them serialize to the same envelope.

func NewUnauthorizedError(message string) *Error {
	if message == "" {
		message = "Unauthorized access"
	}
	return NewError(CodeUnauthorized, message, nil)
}

func NewInvalidCredentialsError(message string) *Error {
	if message == "" {
		message = "Invalid credentials"
	}
	return NewError(CodeInvalidCredentials, message, nil)
}

func NewTokenExpiredError(message string) *Error {
	if message == "" {
		message = "Token has expired"
	}
	return NewError(CodeTokenExpired, message, nil)
}

func NewTokenInvalidError(message string) *Error {
	if message == "" {
		message = "Token is invalid"
	}
	return NewError(CodeTokenInvalid, message, nil)
}

func NewForbiddenError(message string) *Error {
	if message == "" {
		message = "Forbidden: insufficient permissions"
	}
	return NewError(CodeForbidden, message, nil)
}

// NewNotFoundError formats "{resource} with id '{identifier}' not found".
func NewNotFoundError(resource, identifier string) *Error {
	msg := fmt.Sprintf("%s not found", resource)
	if identifier != "" {
		msg = fmt.Sprintf("%s with id '%s' not found", resource, identifier)
	}
	return NewError(CodeNotFound, msg, map[string]any{
		"resource":   resource,
		"identifier": identifier,
	})
}

// NewResourceAlreadyExistsError formats "{resource} with identifier '{identifier}' already exists".
func NewResourceAlreadyExistsError(resource, identifier string) *Error {
	msg := fmt.Sprintf("%s already exists", resource)
	if identifier != "" {
		msg = fmt.Sprintf("%s with identifier '%s' already exists", resource, identifier)
	}
	return NewError(CodeResourceAlreadyExists, msg, map[string]any{
		"resource":   resource,
		"identifier": identifier,
	})
}

// NewValidationError carries per-field messages under details.validationErrors.
func NewValidationError(message string, fieldErrors map[string][]string) *Error {
	if message == "" {
		message = "Validation failed"
	}
	var details map[string]any
	if len(fieldErrors) > 0 {
		details = map[string]any{"validationErrors": fieldErrors}
	}
	return NewError(CodeValidation, message, details)
}

func NewBadRequestError(message string) *Error {
	if message == "" {
		message = "Bad request"
	}
	return NewError(CodeBadRequest, message, nil)
}

func NewBusinessRuleViolationError(rule, message string) *Error {
	if message == "" {
		message = "Business rule violation: " + rule
	}
	return NewError(CodeBusinessRuleViolation, message, map[string]any{"rule": rule})
}

func NewOperationNotAllowedError(operation string) *Error {
	return NewError(CodeOperationNotAllowed,
		fmt.Sprintf("Operation not allowed: %s", operation),
		map[string]any{"operation": operation})
}

func NewInternalServerError(message string, details map[string]any) *Error {
	if message == "" {
		message = "Internal server error"
	}
	return NewError(CodeInternalServerError, message, details)
}

func NewUnknownError(message string, details map[string]any) *Error {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewError(CodeUnknown, message, details)
}
