package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound        ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized    ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden       ErrorType = "FORBIDDEN"
	ErrorTypeConflict        ErrorType = "CONFLICT"
	ErrorTypeTooManyRequests ErrorType = "TOO_MANY_REQUESTS"
	ErrorTypeInternal        ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"

	// identity
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeNotAuthenticated   ErrorCode = "NOT_AUTHENTICATED"
	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodeAccountDisabled    ErrorCode = "ACCOUNT_DISABLED"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"

	// authorization
	ErrCodeAdminOnly           ErrorCode = "ADMIN_ONLY"
	ErrCodeTenantAdminOnly     ErrorCode = "TENANT_ADMIN_ONLY"
	ErrCodeNoTenant            ErrorCode = "NO_TENANT"
	ErrCodeSuperAdminsExcluded ErrorCode = "SUPER_ADMINS_EXCLUDED"
	ErrCodeResourceNotFound    ErrorCode = "RESOURCE_NOT_FOUND"

	// uniqueness
	ErrCodeConflictSlug     ErrorCode = "CONFLICT_SLUG"
	ErrCodeConflictDocument ErrorCode = "CONFLICT_DOCUMENT"
	ErrCodeConflictEmail    ErrorCode = "CONFLICT_EMAIL"
	ErrCodeConflictRoleName ErrorCode = "CONFLICT_ROLE_NAME"

	// business rules
	ErrCodeForeignRole                 ErrorCode = "FOREIGN_ROLE"
	ErrCodeSuperAdminNoRolesNeeded     ErrorCode = "SUPER_ADMIN_NO_ROLES_NEEDED"
	ErrCodePasswordMismatch            ErrorCode = "PASSWORD_MISMATCH"
	ErrCodeWrongCurrentPassword        ErrorCode = "WRONG_CURRENT_PASSWORD"
	ErrCodeSuperAdminCreationForbidden ErrorCode = "SUPER_ADMIN_CREATION_FORBIDDEN"
	ErrCodeSuperAdminWithTenant        ErrorCode = "SUPER_ADMIN_WITH_TENANT"
	ErrCodeTenantAdminWithoutTenant    ErrorCode = "TENANT_ADMIN_WITHOUT_TENANT"
	ErrCodeSuperAdminFlagImmutable     ErrorCode = "SUPER_ADMIN_FLAG_IMMUTABLE"
	ErrCodeUnknownPermission           ErrorCode = "UNKNOWN_PERMISSION"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
		messages := make([]string, len(validationErrors.Errors))
		for i, err := range validationErrors.Errors {
			messages[i] = err.Message
		}
		return strings.Join(messages, "; ")
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on the stable code so wrapped copies of a sentinel compare equal.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy so shared sentinels are never mutated.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return NewValidationErrors(ValidationError{Field: field, Message: message, Code: string(code)})
}

func NewValidationErrors(errs ...ValidationError) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    ValidationErrors{Errors: errs},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewTooManyRequestsError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeTooManyRequests,
		Code:       ErrCodeRateLimited,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrNotAuthenticated   = NewUnauthorizedError("Authentication required", ErrCodeNotAuthenticated)
	ErrUserNotFound       = NewUnauthorizedError("User no longer exists", ErrCodeUserNotFound)
	ErrAccountDisabled    = NewForbiddenError("User account is disabled", ErrCodeAccountDisabled)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
	ErrRateLimited        = NewTooManyRequestsError("Too many login attempts, try again later")

	ErrAdminOnly           = NewForbiddenError("Only super administrators can perform this action", ErrCodeAdminOnly)
	ErrTenantAdminOnly     = NewForbiddenError("Only tenant administrators can perform this action", ErrCodeTenantAdminOnly)
	ErrNoTenant            = NewForbiddenError("User is not linked to any tenant", ErrCodeNoTenant)
	ErrSuperAdminsExcluded = NewForbiddenError("Super administrators must use the global endpoints", ErrCodeSuperAdminsExcluded)
	ErrResourceNotFound    = NewNotFoundError("Resource not found", ErrCodeResourceNotFound)

	ErrConflictSlug     = NewConflictError("Slug is already in use", ErrCodeConflictSlug)
	ErrConflictDocument = NewConflictError("Document is already in use", ErrCodeConflictDocument)
	ErrConflictEmail    = NewConflictError("Email is already in use", ErrCodeConflictEmail)
	ErrConflictRoleName = NewConflictError("A role with this name already exists in the tenant", ErrCodeConflictRoleName)

	ErrForeignRole                 = NewValidationError("One or more roles do not belong to the user's tenant", ErrCodeForeignRole)
	ErrSuperAdminNoRolesNeeded     = NewValidationError("Super administrators already have every permission", ErrCodeSuperAdminNoRolesNeeded)
	ErrPasswordMismatch            = NewValidationError("New password and confirmation do not match", ErrCodePasswordMismatch)
	ErrWrongCurrentPassword        = NewValidationError("Current password is incorrect", ErrCodeWrongCurrentPassword)
	ErrSuperAdminCreationForbidden = NewValidationError("Super administrators cannot be created through the API", ErrCodeSuperAdminCreationForbidden)
	ErrSuperAdminWithTenant        = NewValidationError("A super administrator cannot belong to a tenant", ErrCodeSuperAdminWithTenant)
	ErrTenantAdminWithoutTenant    = NewValidationError("A tenant administrator must belong to a tenant", ErrCodeTenantAdminWithoutTenant)
	ErrSuperAdminFlagImmutable     = NewValidationError("The super administrator flag cannot be changed", ErrCodeSuperAdminFlagImmutable)
	ErrUnknownPermission           = NewValidationError("One or more permissions do not exist", ErrCodeUnknownPermission)
)

// AsAppError unwraps err until an *AppError is found.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
