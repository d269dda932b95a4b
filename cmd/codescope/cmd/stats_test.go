package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codescope/internal/ui"
)

func TestStatsCmd_RendersSummary(t *testing.T) {
	// Given: an indexed project
	setupIndexedProject(t)

	// When: showing stats without color
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"stats", "--no-color"})

	err := cmd.Execute()

	// Then: totals, breakdowns, snapshot, and tooling all render
	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "Index: proj")
	assert.Contains(t, output, "Files:        3")
	assert.Contains(t, output, "Lines:        240")
	assert.Contains(t, output, "Symbols:      6")
	assert.Contains(t, output, "Last indexed: just now")
	assert.Contains(t, output, "Languages:")
	assert.Contains(t, output, "typescript")
	assert.Contains(t, output, "java")
	assert.Contains(t, output, "Symbols by kind:")
	assert.Contains(t, output, "Snapshot:")
	assert.Contains(t, output, "Search tools:")
}

func TestStatsCmd_JSON(t *testing.T) {
	// Given: an indexed project
	setupIndexedProject(t)

	// When: showing stats as JSON
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"stats", "--json"})

	err := cmd.Execute()

	// Then: the payload decodes with the expected totals
	require.NoError(t, err)
	var info ui.IndexInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.Equal(t, "proj", info.ProjectName)
	assert.Equal(t, 3, info.TotalFiles)
	assert.Equal(t, 240, info.TotalLines)
	assert.Equal(t, 6, info.TotalSymbols)
	assert.Equal(t, 2, info.Languages["typescript"])
	assert.Equal(t, 1, info.Languages["java"])
	assert.Equal(t, 2, info.SymbolKinds["method"])
	assert.NotEmpty(t, info.SnapshotPath)
	assert.Positive(t, info.SnapshotSize)
	assert.NotEmpty(t, info.PreferredTool)
}

func TestStatsCmd_NoIndex(t *testing.T) {
	// Given: a project without a snapshot
	tmpDir := t.TempDir()
	t.Setenv("CODESCOPE_CACHE_DIR", tmpDir+"/cache")
	chdirTemp(t, tmpDir)

	// When: showing stats
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"stats"})

	err := cmd.Execute()

	// Then: the error tells the user to index first
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no index found")
}
