// Package mcp implements the Model Context Protocol (MCP) server for
// codescope. It exposes the indexer's tool surface to AI clients over
// a stdio transport.
package mcp

import (
	"context"
	"errors"
	"fmt"

	scerrors "codescope/internal/errors"
)

// Application-defined MCP error codes.
const (
	ErrCodeNoProject     = -32001 // query arrived before set_project_path
	ErrCodeNotIndexed    = -32002 // file absent from the current index
	ErrCodeSearchFailed  = -32003 // search subprocess failed
	ErrCodeProjectLocked = -32004 // another process owns the project snapshot
	ErrCodeTimeout       = -32005 // request timed out or was canceled
	ErrCodeFileTooLarge  = -32006 // resource exceeds the read cap
	ErrCodeFileNotFound  = -32007 // file no longer exists on disk

	// JSON-RPC 2.0 standard codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError is a protocol-level error carrying a JSON-RPC code.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func protoErr(code int, msg string) *MCPError {
	return &MCPError{Code: code, Message: msg}
}

// NewInvalidParamsError builds the standard invalid-params error with
// a caller-supplied explanation.
func NewInvalidParamsError(msg string) *MCPError {
	return protoErr(ErrCodeInvalidParams, msg)
}

// scopeToMCPCode maps structured codescope error codes onto their
// dedicated protocol codes. Codes absent here fall back to a mapping
// by category.
var scopeToMCPCode = map[string]int{
	scerrors.ErrCodeNoProjectSet:  ErrCodeNoProject,
	scerrors.ErrCodeNotIndexed:    ErrCodeNotIndexed,
	scerrors.ErrCodeSearchFailed:  ErrCodeSearchFailed,
	scerrors.ErrCodeProjectLocked: ErrCodeProjectLocked,
	scerrors.ErrCodeFileNotFound:  ErrCodeFileNotFound,
}

// MapError translates an internal error into the protocol error sent
// to the client. Anything unrecognized becomes an internal error with
// a generic message.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var se *scerrors.ScopeError
	if errors.As(err, &se) {
		return mapScopeError(se)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return protoErr(ErrCodeTimeout, "Request timed out.")
	case errors.Is(err, context.Canceled):
		return protoErr(ErrCodeTimeout, "Request was canceled.")
	default:
		return protoErr(ErrCodeInternalError, "Internal server error.")
	}
}

func mapScopeError(se *scerrors.ScopeError) *MCPError {
	// Carry the suggestion into the message so clients surface it.
	message := se.Message
	if se.Suggestion != "" {
		message = fmt.Sprintf("%s %s", se.Message, se.Suggestion)
	}

	if code, ok := scopeToMCPCode[se.Code]; ok {
		return protoErr(code, message)
	}

	switch se.Category {
	case scerrors.CategoryValidation:
		return protoErr(ErrCodeInvalidParams, message)
	case scerrors.CategoryState:
		return protoErr(ErrCodeNoProject, message)
	default:
		return protoErr(ErrCodeInternalError, message)
	}
}
