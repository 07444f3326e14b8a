package errors

import (
	stderrors "errors"
	"fmt"
)

// BrainError is the structured error type for brainlib.
// It carries enough context for logging, CLI output and MCP error mapping.
type BrainError struct {
	// Code is the unique error code (e.g., "ERR_207_EXTRACT_FAILED").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category derived from the code.
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable hint for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *BrainError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *BrainError) Unwrap() error {
	return e.Cause
}

// Is matches another BrainError by code so errors.Is works with sentinel
// values built from New.
func (e *BrainError) Is(target error) bool {
	if t, ok := target.(*BrainError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *BrainError) WithDetail(key, value string) *BrainError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *BrainError) WithSuggestion(suggestion string) *BrainError {
	e.Suggestion = suggestion
	return e
}

// New creates a new BrainError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *BrainError {
	return &BrainError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a BrainError from an existing error, reusing its message.
func Wrap(code string, err error) *BrainError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *BrainError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ExtractError creates an extraction failure for the given file.
func ExtractError(path string, cause error) *BrainError {
	return New(ErrCodeExtractFailed, "failed to extract text", cause).WithDetail("path", path)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *BrainError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *BrainError {
	return New(ErrCodeInternal, message, cause)
}

// As finds the first BrainError in err's chain.
func As(err error) (*BrainError, bool) {
	var be *BrainError
	if stderrors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if be, ok := As(err); ok {
		return be.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	if be, ok := As(err); ok {
		return be.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code, or "" if err is not a BrainError.
func GetCode(err error) string {
	if be, ok := As(err); ok {
		return be.Code
	}
	return ""
}

// GetCategory extracts the category, or "" if err is not a BrainError.
func GetCategory(err error) Category {
	if be, ok := As(err); ok {
		return be.Category
	}
	return ""
}
