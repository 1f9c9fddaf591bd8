package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeBusinessRule ErrorType = "BUSINESS_RULE_ERROR"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_ERROR"

	ErrCodeMinimumHours    ErrorCode = "MINIMUM_HOURS_ERROR"
	ErrCodeTimeCalculation ErrorCode = "TIME_CALCULATION_ERROR"
	ErrCodeHoursRequired   ErrorCode = "HOURS_REQUIRED"
	ErrCodeTimePairNeeded  ErrorCode = "TIME_PAIR_REQUIRED"

	ErrCodeTimeEntryNotFound     ErrorCode = "TIME_ENTRY_NOT_FOUND"
	ErrCodeTimeEntryAccessDenied ErrorCode = "TIME_ENTRY_ACCESS_DENIED"

	ErrCodeCustomerNotFound     ErrorCode = "CUSTOMER_NOT_FOUND"
	ErrCodeCustomerAccessDenied ErrorCode = "CUSTOMER_ACCESS_DENIED"
	ErrCodeInvalidUserIDs       ErrorCode = "INVALID_USER_IDS"
	ErrCodeNoCustomersAssigned  ErrorCode = "NO_CUSTOMERS_ASSIGNED"

	ErrCodeInvalidCredentials  ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeTokenMissing        ErrorCode = "TOKEN_MISSING"
	ErrCodeTokenInvalid        ErrorCode = "TOKEN_INVALID"
	ErrCodeTokenExpired        ErrorCode = "TOKEN_EXPIRED"
	ErrCodeInvalidRefreshToken ErrorCode = "INVALID_REFRESH_TOKEN"
	ErrCodeInvalidGoogleToken  ErrorCode = "INVALID_GOOGLE_TOKEN"
	ErrCodeEmailNotVerified    ErrorCode = "EMAIL_NOT_VERIFIED"

	ErrCodeUserNotFound            ErrorCode = "USER_NOT_FOUND"
	ErrCodeUserAlreadyExists       ErrorCode = "USER_ALREADY_EXISTS"
	ErrCodeCannotDeleteSelf        ErrorCode = "CANNOT_DELETE_SELF"
	ErrCodeInvitationExists        ErrorCode = "INVITATION_ALREADY_EXISTS"
	ErrCodeInvalidInvitationToken  ErrorCode = "INVALID_INVITATION_TOKEN"
	ErrCodeInvitationExpired       ErrorCode = "INVITATION_EXPIRED"
	ErrCodeInvitationAccepted      ErrorCode = "INVITATION_ALREADY_ACCEPTED"
	ErrCodeInsufficientPermissions ErrorCode = "INSUFFICIENT_PERMISSIONS"

	ErrCodeAccessDenied ErrorCode = "ACCESS_DENIED"

	ErrCodeScheduleNotFound      ErrorCode = "SCHEDULE_NOT_FOUND"
	ErrCodeScheduleInUse         ErrorCode = "SCHEDULE_IN_USE"
	ErrCodeInvalidScheduleConfig ErrorCode = "INVALID_SCHEDULE_CONFIG"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// AppError is the single error currency between services and handlers.
// It marshals to the API error shape {error, code, details?}.
type AppError struct {
	Type       ErrorType
	Code       ErrorCode
	Message    string
	Details    interface{}
	StatusCode int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithCode(code ErrorCode) *AppError {
	clone := *e
	clone.Code = code
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error   string      `json:"error"`
		Code    ErrorCode   `json:"code"`
		Details interface{} `json:"details,omitempty"`
	}{
		Error:   e.Message,
		Code:    e.Code,
		Details: e.Details,
	})
}

// FieldError is one entry of a validation Details array.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func NewValidationError(message string, details []FieldError) *AppError {
	appErr := &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
	if len(details) > 0 {
		appErr.Details = details
	}
	return appErr
}

func NewBusinessRuleError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeBusinessRule,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
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
	ErrMinimumHours   = NewBusinessRuleError("Minimum time entry is 0.5 hours", ErrCodeMinimumHours)
	ErrInvertedRange  = NewBusinessRuleError("End time must be after start time", ErrCodeTimeCalculation)
	ErrHoursRequired  = NewBusinessRuleError("Either hours or start/end times must be provided", ErrCodeHoursRequired)
	ErrTimePairNeeded = NewBusinessRuleError("Both start and end times must be provided", ErrCodeTimePairNeeded)

	ErrTimeEntryNotFound     = NewNotFoundError("Time entry not found", ErrCodeTimeEntryNotFound)
	ErrTimeEntryAccessDenied = NewForbiddenError("Access denied to this time entry", ErrCodeTimeEntryAccessDenied)

	ErrCustomerNotFound     = NewNotFoundError("Customer not found", ErrCodeCustomerNotFound)
	ErrCustomerAccessDenied = NewForbiddenError("Access denied to this customer", ErrCodeCustomerAccessDenied)
	ErrNoCustomersAssigned  = NewForbiddenError("No customers assigned. Please contact your administrator.", ErrCodeNoCustomersAssigned)

	ErrInvalidCredentials = NewUnauthorizedError("Invalid credentials", ErrCodeInvalidCredentials)
	ErrTokenMissing       = NewUnauthorizedError("Access token required", ErrCodeTokenMissing)
	ErrTokenInvalid       = NewUnauthorizedError("Invalid or expired token", ErrCodeTokenInvalid)
	ErrTokenExpired       = NewUnauthorizedError("Token expired", ErrCodeTokenExpired)
	ErrInvalidGoogleToken = NewUnauthorizedError("Invalid Google token", ErrCodeInvalidGoogleToken)
	ErrEmailNotVerified   = NewBusinessRuleError("Google account email is not verified", ErrCodeEmailNotVerified)

	ErrUserNotFound      = NewNotFoundError("User not found", ErrCodeUserNotFound)
	ErrUserAlreadyExists = NewConflictError("User already exists", ErrCodeUserAlreadyExists)
	ErrCannotDeleteSelf  = NewBusinessRuleError("Cannot delete your own account", ErrCodeCannotDeleteSelf)
	ErrInvitationExists  = NewConflictError("Invitation already sent", ErrCodeInvitationExists)
	ErrInvalidInvitation = NewNotFoundError("Invalid invitation token", ErrCodeInvalidInvitationToken)
	ErrInvitationExpired = NewBusinessRuleError("Invitation has expired", ErrCodeInvitationExpired)
	ErrInvitationUsed    = NewBusinessRuleError("Invitation already accepted", ErrCodeInvitationAccepted)

	ErrInsufficientPermissions = NewForbiddenError("Insufficient permissions", ErrCodeInsufficientPermissions)

	ErrScheduleNotFound     = NewNotFoundError("Working schedule not found", ErrCodeScheduleNotFound)
	ErrScheduleAccessDenied = NewForbiddenError("Access denied", ErrCodeAccessDenied)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}
