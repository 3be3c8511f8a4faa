package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by services and the HTTP layer.
const (
	CodeValidation            = "VALIDATION_FAILED"
	CodeNotFound              = "NOT_FOUND"
	CodeDuplicateEmail        = "DUPLICATE_EMAIL"
	CodeProtectedEntity       = "PROTECTED_ENTITY"
	CodeInUse                 = "IN_USE"
	CodeExternalSync          = "EXTERNAL_SYNC_FAILED"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeInvitationAlreadyUsed = "INVITATION_ALREADY_USED"
	CodeInvitationInvalid     = "INVITATION_INVALID"
	CodeForbidden             = "FORBIDDEN"
	CodeInternal              = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewDuplicateEmail(email string) error {
	return NewDomainError(CodeDuplicateEmail, "email already registered", http.StatusConflict, map[string]any{"email": email})
}

func NewProtectedEntity(message string, details map[string]any) error {
	return NewDomainError(CodeProtectedEntity, message, http.StatusConflict, details)
}

// NewInUse reports that count dependents still reference the resource.
func NewInUse(resource string, count int) error {
	return NewDomainError(CodeInUse,
		fmt.Sprintf("cannot delete %s: %d user(s) are using it", resource, count),
		http.StatusConflict,
		map[string]any{"count": count})
}

// NewExternalSync wraps a collaborator failure. Never returned from local mutations.
func NewExternalSync(target string, err error) error {
	return &DomainError{
		Code:       CodeExternalSync,
		Message:    fmt.Sprintf("%s sync failed", target),
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"target": target},
		Err:        err,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewInvitationAlreadyUsed() error {
	return NewDomainError(CodeInvitationAlreadyUsed, "This invitation has already been used. Please login instead.", http.StatusUnauthorized, nil)
}

func NewInvitationInvalid() error {
	return NewDomainError(CodeInvitationInvalid, "Invalid or expired invitation link.", http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError carrying code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// IsAuthError reports whether err belongs to the authentication family.
func IsAuthError(err error) bool {
	return HasCode(err, CodeUnauthorized) ||
		HasCode(err, CodeInvitationAlreadyUsed) ||
		HasCode(err, CodeInvitationInvalid)
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
