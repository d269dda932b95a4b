package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlainRenderer() (*PlainRenderer, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewPlainRenderer(NewConfig(buf)), buf
}

func TestPlainRenderer_SilentLifecycle(t *testing.T) {
	// Given: a plain renderer
	r, buf := newPlainRenderer()

	// When: started and stopped with no events in between
	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Stop())

	// Then: nothing is written
	assert.Empty(t, buf.String())
}

func TestPlainRenderer_PrintsStageTransitionOnce(t *testing.T) {
	// Given: a plain renderer
	r, buf := newPlainRenderer()

	// When: the parse stage starts and per-file ticks follow
	r.UpdateProgress(ProgressEvent{Stage: StageParsing})
	r.UpdateProgress(ProgressEvent{Stage: StageParsing, Current: 10, CurrentFile: "src/A.java"})
	r.UpdateProgress(ProgressEvent{Stage: StageParsing, Current: 11, CurrentFile: "src/B.java"})

	// Then: the transition prints exactly once and the ticks stay silent
	assert.Equal(t, 1, strings.Count(buf.String(), "[PARSE] Parsing..."))
	assert.NotContains(t, buf.String(), "A.java")
}

func TestPlainRenderer_PrintsExplicitMessages(t *testing.T) {
	// Given: a plain renderer
	r, buf := newPlainRenderer()

	// When: an event carries a message
	r.UpdateProgress(ProgressEvent{Stage: StageScanning, Message: "Scanning /proj"})

	// Then: the message prints under the stage tag
	assert.Equal(t, "[SCAN] Scanning /proj\n", buf.String())
}

func TestPlainRenderer_TagsErrorsBySeverity(t *testing.T) {
	// Given: a plain renderer
	r, buf := newPlainRenderer()

	// When: an error, a warning, and a file-less error are reported
	r.AddError(ErrorEvent{File: "broken.ts", Err: errors.New("parse failed")})
	r.AddError(ErrorEvent{File: "big.js", Err: errors.New("too large"), IsWarn: true})
	r.AddError(ErrorEvent{Err: errors.New("walk aborted")})

	// Then: each line carries its severity tag
	out := buf.String()
	assert.Contains(t, out, "ERROR: broken.ts: parse failed")
	assert.Contains(t, out, "WARN: big.js: too large")
	assert.Contains(t, out, "ERROR: walk aborted")
}

func TestPlainRenderer_CompletionSummary(t *testing.T) {
	// Given: a plain renderer
	r, buf := newPlainRenderer()

	// When: the build finishes cleanly
	r.Complete(CompletionStats{Files: 42, Symbols: 311, Duration: 1500 * time.Millisecond})

	// Then: one line carries all three figures
	assert.Equal(t, "Complete: 42 files, 311 symbols indexed in 1.5s\n", buf.String())
}

func TestPlainRenderer_CompletionSummaryWithIssues(t *testing.T) {
	// Given: a plain renderer
	r, buf := newPlainRenderer()

	// When: the build finishes with problems
	r.Complete(CompletionStats{Files: 10, Symbols: 50, Duration: time.Second, Errors: 2, Warnings: 3})

	// Then: the error and warning counts are appended
	assert.Contains(t, buf.String(), "indexed in 1s (2 errors, 3 warnings)")
}
