package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Credential and session errors
	ErrCodeNotLoggedIn   ErrorCode = "NOT_LOGGED_IN"
	ErrCodeTokenRejected ErrorCode = "TOKEN_REJECTED"

	// Push channel errors
	ErrCodePushDisconnected ErrorCode = "PUSH_DISCONNECTED"
	ErrCodePushExhausted    ErrorCode = "PUSH_RETRIES_EXHAUSTED"
	ErrCodeChannelStale     ErrorCode = "CHANNEL_STALE"

	// Workspace errors
	ErrCodeWorkspaceNotMapped ErrorCode = "WORKSPACE_NOT_MAPPED"
	ErrCodeWorkspaceNotFound  ErrorCode = "WORKSPACE_NOT_FOUND"
	ErrCodeNoActiveWorkspace  ErrorCode = "NO_ACTIVE_WORKSPACE"

	// Artifact errors
	ErrCodeArtifactWrite   ErrorCode = "ARTIFACT_WRITE"
	ErrCodeArtifactPath    ErrorCode = "ARTIFACT_PATH"
	ErrCodePendingNotFound ErrorCode = "PENDING_NOT_FOUND"
	ErrCodeLocalEditNewer  ErrorCode = "LOCAL_EDIT_NEWER"

	// API errors
	ErrCodeAPIRequest ErrorCode = "API_REQUEST"
	ErrCodeAPIStatus  ErrorCode = "API_STATUS"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// HelmwrightError represents a structured error with context
type HelmwrightError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *HelmwrightError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *HelmwrightError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *HelmwrightError) WithDetail(key string, value interface{}) *HelmwrightError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *HelmwrightError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new HelmwrightError
func New(code ErrorCode, message string) *HelmwrightError {
	return &HelmwrightError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a HelmwrightError
func Wrap(err error, code ErrorCode, message string) *HelmwrightError {
	return &HelmwrightError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific HelmwrightError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	hwErr, ok := err.(*HelmwrightError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	return hwErr.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	hwErr, ok := err.(*HelmwrightError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return hwErr.Code
}
