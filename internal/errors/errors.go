package errors

import (
	stderrors "errors"
	"fmt"
)

// ScopeError is the structured error carried through codescope: a
// stable machine-readable code plus everything needed to log the
// failure, present it, and decide whether to retry.
type ScopeError struct {
	Code       string            // stable identifier, e.g. "ERR_202_NOT_INDEXED"
	Message    string            // human-readable description
	Category   Category          // derived from the code's numeric block
	Severity   Severity          // how the caller should react
	Details    map[string]string // extra context key-value pairs
	Cause      error             // wrapped underlying error, if any
	Retryable  bool              // transient failure, safe to retry
	Suggestion string            // actionable next step for the user
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ScopeError) Unwrap() error {
	return e.Cause
}

// Is matches ScopeErrors by code, so errors.Is can test for a class of
// failure without comparing messages.
func (e *ScopeError) Is(target error) bool {
	t, ok := target.(*ScopeError)
	return ok && e.Code == t.Code
}

// WithDetail attaches a context key-value pair and returns the error
// for chaining.
func (e *ScopeError) WithDetail(key, value string) *ScopeError {
	if e.Details == nil {
		e.Details = map[string]string{}
	}
	e.Details[key] = value
	return e
}

// WithSuggestion records a next step to show the user and returns the
// error for chaining.
func (e *ScopeError) WithSuggestion(suggestion string) *ScopeError {
	e.Suggestion = suggestion
	return e
}

// New builds a ScopeError, deriving category, severity, and the
// retryable flag from the code.
func New(code string, message string, cause error) *ScopeError {
	return &ScopeError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap lifts an existing error into a ScopeError under the given code,
// reusing its message. A nil error stays nil.
func Wrap(code string, err error) *ScopeError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// as pulls a ScopeError out of anywhere in err's unwrap chain.
func as(err error) (*ScopeError, bool) {
	var se *ScopeError
	ok := stderrors.As(err, &se)
	return se, ok
}

// InvalidPath creates an error for a path that is missing or not a directory.
func InvalidPath(path string, cause error) *ScopeError {
	return New(ErrCodeInvalidPath, fmt.Sprintf("invalid path: %s", path), cause).
		WithDetail("path", path)
}

// NoProjectSet creates an error for queries issued before set_project_path.
func NoProjectSet() *ScopeError {
	return New(ErrCodeNoProjectSet, "no project path set", nil).
		WithSuggestion("Call set_project_path first.")
}

// NotIndexed creates an error for a file absent from the current index.
func NotIndexed(path string) *ScopeError {
	return New(ErrCodeNotIndexed, fmt.Sprintf("file not found in index: %s", path), nil).
		WithDetail("path", path)
}

// UnsupportedLanguage creates an error for an extension with no grammar.
func UnsupportedLanguage(ext string) *ScopeError {
	return New(ErrCodeUnsupportedLanguage, fmt.Sprintf("no parser registered for %s files", ext), nil).
		WithDetail("extension", ext)
}

// SearchFailed creates an error for an unexpected search subprocess failure.
func SearchFailed(message string, cause error) *ScopeError {
	return New(ErrCodeSearchFailed, message, cause)
}

// ParseFailure creates an error for a single-file parse failure.
// These are absorbed by the indexer (file skipped), never surfaced as fatal.
func ParseFailure(path string, cause error) *ScopeError {
	return New(ErrCodeParseFailure, fmt.Sprintf("failed to parse %s", path), cause).
		WithDetail("path", path)
}

// ConfigError creates an error for bad or unreadable configuration.
func ConfigError(message string, cause error) *ScopeError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// InternalError creates an error for failures with no better code.
func InternalError(message string, cause error) *ScopeError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable reports whether err carries a retryable ScopeError
// anywhere in its chain.
func IsRetryable(err error) bool {
	se, ok := as(err)
	return ok && se.Retryable
}

// IsFatal reports whether err carries a fatal-severity ScopeError.
// Fatal errors abort the current operation.
func IsFatal(err error) bool {
	se, ok := as(err)
	return ok && se.Severity == SeverityFatal
}

// GetCode returns the ScopeError code in err's chain, or "" for plain
// errors.
func GetCode(err error) string {
	if se, ok := as(err); ok {
		return se.Code
	}
	return ""
}

// GetCategory returns the ScopeError category in err's chain, or ""
// for plain errors.
func GetCategory(err error) Category {
	if se, ok := as(err); ok {
		return se.Category
	}
	return ""
}
