package ui

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTUIRenderer_RequiresTTY(t *testing.T) {
	// Given: a pipe-like output
	cfg := NewConfig(&bytes.Buffer{})

	// When: constructing the TUI
	r, err := NewTUIRenderer(cfg)

	// Then: construction is refused
	require.Error(t, err)
	assert.Nil(t, r)
}

func TestTUIRenderer_EventsBeforeStartAreSafe(t *testing.T) {
	// Given: a renderer that was never started
	r := &TUIRenderer{model: newBuildModel(""), finished: make(chan struct{})}

	// When: events arrive and it is stopped
	r.UpdateProgress(ProgressEvent{Stage: StageParsing})
	r.AddError(ErrorEvent{Err: assert.AnError})
	r.Complete(CompletionStats{})

	// Then: nothing panics and Stop returns cleanly
	assert.NoError(t, r.Stop())
}

func TestBuildModel_InitialFrame(t *testing.T) {
	// Given: a fresh model
	m := newBuildModel("/home/dev/shop")

	// When: rendering before any progress arrives
	frame := m.View()

	// Then: the header names the project and the pipeline shows all stages
	assert.Contains(t, frame, "/home/dev/shop")
	for _, label := range []string{"Scan", "Parse", "Save"} {
		assert.Contains(t, frame, label)
	}
	assert.Contains(t, frame, "Preparing...")
}

func TestBuildModel_TracksParseProgress(t *testing.T) {
	// Given: a model receiving parse events
	m := newBuildModel("")
	m.Update(progressUpdateMsg{Stage: StageParsing, Current: 50, CurrentFile: "src/components/Button.tsx"})

	// When: rendering
	frame := m.View()

	// Then: the counter and the current file are on screen
	assert.Contains(t, frame, "50 files parsed")
	assert.Contains(t, frame, "Button.tsx")
}

func TestBuildModel_CountsErrorsInStatusBar(t *testing.T) {
	// Given: a model that saw one error and one warning
	m := newBuildModel("")
	m.Update(errorMsg{File: "broken.java", Err: assert.AnError})
	m.Update(errorMsg{File: "big.js", Err: assert.AnError, IsWarn: true})

	// When: rendering
	frame := m.View()

	// Then: both counters appear in the status bar
	assert.Contains(t, frame, "1 errors")
	assert.Contains(t, frame, "1 warnings")
}

func TestBuildModel_CompletionPanel(t *testing.T) {
	// Given: a model told the build finished
	m := newBuildModel("")
	m.Update(completeMsg{Files: 100, Symbols: 500, Duration: 2 * time.Second})

	// When: rendering
	frame := m.View()

	// Then: the summary panel replaces the progress display
	assert.Contains(t, frame, "Index Complete")
	assert.Contains(t, frame, "100")
	assert.Contains(t, frame, "500")
	assert.Contains(t, frame, "2s")
}

func TestBuildModel_QuitOnInterrupt(t *testing.T) {
	// Given: a running model
	m := newBuildModel("")

	// When: the user hits ctrl+c
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	// Then: the model quits and the frame says so
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Cancelled")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0ms"},
		{500 * time.Millisecond, "500ms"},
		{3 * time.Second, "3s"},
		{61 * time.Second, "1m 1s"},
		{90 * time.Second, "1m 30s"},
		{2 * time.Minute, "2m"},
		{time.Hour, "1h 0m"},
		{90 * time.Minute, "1h 30m"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDuration(tt.d))
		})
	}
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		max  int
		want string
	}{
		{"fits untouched", "src/main.ts", 50, "src/main.ts"},
		{"empty stays empty", "", 50, ""},
		{"keeps filename", "src/components/very/deeply/nested/directory/file.ts", 30, "src/components/very.../file.ts"},
		{"no separator", "abcdefghijklmnopqrstuvwxyz", 10, "...tuvwxyz"},
		{"tiny width", "src/main.ts", 3, "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncatePath(tt.path, tt.max)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), tt.max)
		})
	}
}
