package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// FlowError is an expected, locally-handled authentication outcome. Code is
// stable and machine-readable; Message is safe to show to the user. Anything
// that is not a FlowError is treated as an internal failure and never
// surfaced verbatim.
type FlowError struct {
	Code    string
	Status  int
	Message string
}

func (e *FlowError) Error() string {
	return e.Message
}

var (
	ErrMissingCredentials  = &FlowError{"missing_credentials", http.StatusBadRequest, "Username and password cannot be empty"}
	ErrInvalidCredentials  = &FlowError{"invalid_credentials", http.StatusUnauthorized, "Invalid username or password"}
	ErrAccountDisabled     = &FlowError{"account_disabled", http.StatusUnauthorized, "Account is disabled. Please contact an administrator."}
	ErrDuplicateUsername   = &FlowError{"duplicate_username", http.StatusBadRequest, "Username already exists"}
	ErrDuplicateEmail      = &FlowError{"duplicate_email", http.StatusBadRequest, "Email already registered"}
	ErrInvalidSecurityCode = &FlowError{"invalid_security_code", http.StatusBadRequest, "Invalid security code"}
	ErrPasswordMismatch    = &FlowError{"password_mismatch", http.StatusBadRequest, "Passwords do not match"}
	ErrWeakPassword        = &FlowError{"weak_password", http.StatusBadRequest, "Password must be at least 6 characters long"}
	ErrInvalidEmail        = &FlowError{"invalid_email", http.StatusBadRequest, "Invalid email format"}
	ErrInvalidUsername     = &FlowError{"invalid_username", http.StatusBadRequest, "Username must be 3-255 characters of letters, numbers, underscore or hyphen"}
	ErrUnauthorized        = &FlowError{"unauthorized", http.StatusUnauthorized, "Not authenticated"}
)

// AccountLockedError carries the lock expiry into the user-facing message.
func AccountLockedError(until time.Time) *FlowError {
	return &FlowError{
		Code:    "account_locked",
		Status:  http.StatusLocked,
		Message: fmt.Sprintf("Account is locked until %s. Please try again later.", until.UTC().Format("2006-01-02 15:04:05")),
	}
}

func MissingFieldError(field string) *FlowError {
	return &FlowError{
		Code:    "missing_credentials",
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("%s is required", field),
	}
}

// Storage-level sentinels, never surfaced to clients directly.
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSecurityCodeNotFound = errors.New("security code not found")
)
