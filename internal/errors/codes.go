// Package errors defines codescope's structured error type and the
// stable codes attached to it.
//
// Codes read ERR_NNN_DESCRIPTION, with the first digit of NNN naming
// the failure class: 1xx configuration, 2xx IO and index state on
// disk, 3xx lifecycle state (calls made before setup), 4xx input
// validation, 5xx internal.
package errors

import "strings"

// Category names the subsystem a code belongs to.
type Category string

const (
	CategoryConfig     Category = "CONFIG"
	CategoryIO         Category = "IO"
	CategoryState      Category = "STATE"
	CategoryValidation Category = "VALIDATION"
	CategoryInternal   Category = "INTERNAL"
)

// Severity says how a caller should react: FATAL aborts the run,
// ERROR fails the operation, WARNING degrades it, INFO is advisory.
type Severity string

const (
	SeverityFatal   Severity = "FATAL"
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

const (
	// 1xx configuration
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// 2xx IO and on-disk index state
	ErrCodeFileNotFound    = "ERR_201_FILE_NOT_FOUND"
	ErrCodeNotIndexed      = "ERR_202_NOT_INDEXED"
	ErrCodeCorruptSnapshot = "ERR_205_CORRUPT_SNAPSHOT"
	ErrCodeProjectLocked   = "ERR_206_PROJECT_LOCKED"

	// 3xx lifecycle state
	ErrCodeNoProjectSet = "ERR_301_NO_PROJECT_SET"

	// 4xx validation
	ErrCodeInvalidInput        = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidPath         = "ERR_406_INVALID_PATH"
	ErrCodeUnsupportedLanguage = "ERR_407_UNSUPPORTED_LANGUAGE"

	// 5xx internal
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeSearchFailed = "ERR_503_SEARCH_FAILED"
	ErrCodeParseFailure = "ERR_504_PARSE_FAILURE"
	ErrCodeIndexFailed  = "ERR_505_INDEX_FAILED"
	ErrCodeWatchFailed  = "ERR_506_WATCH_FAILED"
)

// categoryFromCode maps the leading digit of a code's numeric block to
// its category. Malformed codes land in CategoryInternal.
func categoryFromCode(code string) Category {
	if !strings.HasPrefix(code, "ERR_") || len(code) < 5 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryState
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode assigns severity. A missing grammar is fatal since
// the parser registry cannot be built without it; lock contention is a
// retryable warning; everything else is a plain error.
func severityFromCode(code string) Severity {
	switch {
	case code == ErrCodeUnsupportedLanguage:
		return SeverityFatal
	case isRetryableCode(code):
		return SeverityWarning
	default:
		return SeverityError
	}
}

// isRetryableCode reports whether the failure is transient. Only
// snapshot lock contention qualifies today.
func isRetryableCode(code string) bool {
	return code == ErrCodeProjectLocked
}
