package mcp

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scerrors "codescope/internal/errors"
)

func TestMapError_ScopeErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "no project set",
			err:      scerrors.NoProjectSet(),
			wantCode: ErrCodeNoProject,
		},
		{
			name:     "not indexed",
			err:      scerrors.NotIndexed("src/Gone.java"),
			wantCode: ErrCodeNotIndexed,
		},
		{
			name:     "search failed",
			err:      scerrors.SearchFailed("rg exited with status 2", nil),
			wantCode: ErrCodeSearchFailed,
		},
		{
			name:     "project locked",
			err:      scerrors.New(scerrors.ErrCodeProjectLocked, "project is locked", nil),
			wantCode: ErrCodeProjectLocked,
		},
		{
			name:     "file not found",
			err:      scerrors.New(scerrors.ErrCodeFileNotFound, "file not found: src/Gone.java", nil),
			wantCode: ErrCodeFileNotFound,
		},
		{
			name:     "invalid path maps to invalid params",
			err:      scerrors.InvalidPath("/nope", nil),
			wantCode: ErrCodeInvalidParams,
		},
		{
			name:     "invalid input maps to invalid params",
			err:      scerrors.New(scerrors.ErrCodeInvalidInput, "bad argument", nil),
			wantCode: ErrCodeInvalidParams,
		},
		{
			name:     "index failed maps to internal",
			err:      scerrors.New(scerrors.ErrCodeIndexFailed, "failed to index /proj", nil),
			wantCode: ErrCodeInternalError,
		},
		{
			name:     "config error maps to internal",
			err:      scerrors.ConfigError("bad config", nil),
			wantCode: ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mcpErr := MapError(tt.err)
			require.NotNil(t, mcpErr)
			assert.Equal(t, tt.wantCode, mcpErr.Code)
			assert.NotEmpty(t, mcpErr.Message)
		})
	}
}

func TestMapError_WrappedScopeError(t *testing.T) {
	wrapped := fmt.Errorf("query failed: %w", scerrors.NoProjectSet())

	mcpErr := MapError(wrapped)

	require.NotNil(t, mcpErr)
	assert.Equal(t, ErrCodeNoProject, mcpErr.Code)
}

func TestMapError_SuggestionAppended(t *testing.T) {
	err := scerrors.NoProjectSet()

	mcpErr := MapError(err)

	require.NotNil(t, mcpErr)
	assert.Contains(t, mcpErr.Message, "no project path set")
	assert.Contains(t, mcpErr.Message, "set_project_path")
}

func TestMapError_ContextErrors(t *testing.T) {
	deadline := MapError(context.DeadlineExceeded)
	require.NotNil(t, deadline)
	assert.Equal(t, ErrCodeTimeout, deadline.Code)

	canceled := MapError(context.Canceled)
	require.NotNil(t, canceled)
	assert.Equal(t, ErrCodeTimeout, canceled.Code)
}

func TestMapError_UnknownError(t *testing.T) {
	mcpErr := MapError(assert.AnError)

	require.NotNil(t, mcpErr)
	assert.Equal(t, ErrCodeInternalError, mcpErr.Code)
	assert.Equal(t, "Internal server error.", mcpErr.Message)
}

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestNewInvalidParamsError(t *testing.T) {
	err := NewInvalidParamsError("pattern parameter is required")

	assert.Equal(t, ErrCodeInvalidParams, err.Code)
	assert.Contains(t, err.Error(), "pattern parameter is required")
	assert.Contains(t, err.Error(), "-32602")
}
