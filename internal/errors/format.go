package errors

import (
	"fmt"
	"strings"
)

// FormatForCLI renders an error as a short terminal-friendly block:
// the message, an optional hint, and the code. Plain errors are
// wrapped under ERR_501_INTERNAL first.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}
	se, ok := as(err)
	if !ok {
		se = Wrap(ErrCodeInternal, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s\n", se.Message)
	if se.Suggestion != "" {
		fmt.Fprintf(&b, "  Hint: %s\n", se.Suggestion)
	}
	fmt.Fprintf(&b, "  Code: %s\n", se.Code)
	return b.String()
}

// FormatForLog flattens an error into slog attribute pairs. Details
// are prefixed detail_ so they cannot collide with the fixed keys.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}
	se, ok := as(err)
	if !ok {
		return map[string]any{"error": err.Error()}
	}

	fields := map[string]any{
		"error_code": se.Code,
		"message":    se.Message,
		"category":   string(se.Category),
		"severity":   string(se.Severity),
		"retryable":  se.Retryable,
	}
	if se.Cause != nil {
		fields["cause"] = se.Cause.Error()
	}
	if se.Suggestion != "" {
		fields["suggestion"] = se.Suggestion
	}
	for k, v := range se.Details {
		fields["detail_"+k] = v
	}
	return fields
}
