package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Environment errors: the terminal automation backend is missing entirely.
	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"

	// Validation errors: a precondition failed before any mutation.
	ErrCodeNotARepository   ErrorCode = "NOT_A_REPOSITORY"
	ErrCodeBranchExists     ErrorCode = "BRANCH_EXISTS"
	ErrCodeFolderExists     ErrorCode = "FOLDER_EXISTS"
	ErrCodeWorktreeMissing  ErrorCode = "WORKTREE_MISSING"
	ErrCodeWorktreeDirty    ErrorCode = "WORKTREE_DIRTY"
	ErrCodeUnpushedCommits  ErrorCode = "UNPUSHED_COMMITS"
	ErrCodeBaseUnresolved   ErrorCode = "BASE_UNRESOLVED"
	ErrCodeAlreadyOpen      ErrorCode = "ALREADY_OPEN"
	ErrCodeSessionNotFound  ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"

	// VCS errors: git exited non-zero on an unexpected path.
	ErrCodeVcsCommandFailed ErrorCode = "VCS_COMMAND_FAILED"

	// Locator errors: session enumeration or lookup failed. Soft by policy;
	// the code exists for Close(tabID), the one locator call that reports hard.
	ErrCodeLocatorFailed ErrorCode = "LOCATOR_FAILED"

	// Command execution errors
	ErrCodeCommandTimeout  ErrorCode = "COMMAND_TIMEOUT"
	ErrCodeCommandNotFound ErrorCode = "COMMAND_NOT_FOUND"
	ErrCodeCommandFailed   ErrorCode = "COMMAND_FAILED"

	// General errors
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// ArborError represents a structured error with context
type ArborError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *ArborError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ArborError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *ArborError) WithDetail(key string, value interface{}) *ArborError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *ArborError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new ArborError
func New(code ErrorCode, message string) *ArborError {
	return &ArborError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an ArborError
func Wrap(err error, code ErrorCode, message string) *ArborError {
	return &ArborError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific ArborError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	arborErr, ok := err.(*ArborError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	return arborErr.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	arborErr, ok := err.(*ArborError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return arborErr.Code
}

// IsValidation reports whether the error is one of the precondition codes.
// Validation errors are always raised before any mutation has happened.
func IsValidation(err error) bool {
	switch GetCode(err) {
	case ErrCodeNotARepository, ErrCodeBranchExists, ErrCodeFolderExists,
		ErrCodeWorktreeMissing, ErrCodeWorktreeDirty, ErrCodeUnpushedCommits,
		ErrCodeBaseUnresolved, ErrCodeAlreadyOpen, ErrCodeInvalidInput:
		return true
	}
	return false
}
