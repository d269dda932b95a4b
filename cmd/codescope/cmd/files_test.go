package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesCmd_ListsAll(t *testing.T) {
	// Given: an indexed project
	setupIndexedProject(t)

	// When: listing files without a pattern
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"files"})

	err := cmd.Execute()

	// Then: every indexed file is printed
	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "src/main/java/shop/OrderService.java")
	assert.Contains(t, output, "src/ui/Button.tsx")
	assert.Contains(t, output, "src/util/format.ts")
}

func TestFilesCmd_FiltersByPattern(t *testing.T) {
	// Given: an indexed project
	setupIndexedProject(t)

	// When: listing with a basename pattern
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"files", "*.tsx"})

	err := cmd.Execute()

	// Then: only the matching file is printed
	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "src/ui/Button.tsx")
	assert.NotContains(t, output, "OrderService.java")
	assert.NotContains(t, output, "format.ts")
}

func TestFilesCmd_NoMatches(t *testing.T) {
	// Given: an indexed project
	setupIndexedProject(t)

	// When: the pattern matches nothing
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"files", "*.go"})

	err := cmd.Execute()

	// Then: a friendly message, not an error
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `No indexed files match "*.go"`)
}

func TestFilesCmd_JSON(t *testing.T) {
	// Given: an indexed project
	setupIndexedProject(t)

	// When: listing as JSON
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"files", "*.ts", "--json"})

	err := cmd.Execute()

	// Then: the payload decodes with files and total
	require.NoError(t, err)
	var payload struct {
		Files []string `json:"files"`
		Total int      `json:"total"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	assert.Equal(t, 1, payload.Total)
	assert.Equal(t, []string{"src/util/format.ts"}, payload.Files)
}

func TestFilesCmd_NoIndex(t *testing.T) {
	// Given: a project without a snapshot
	tmpDir := t.TempDir()
	t.Setenv("CODESCOPE_CACHE_DIR", tmpDir+"/cache")
	chdirTemp(t, tmpDir)

	// When: listing files
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"files"})

	err := cmd.Execute()

	// Then: the error tells the user to index first
	require.Error(t, err)
	assert.Contains(t, err.Error(), "codescope index")
}
