package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codescope/internal/parser"
)

func TestUsagesCmd_CaseInsensitiveContains(t *testing.T) {
	// Given: an indexed project
	setupIndexedProject(t)

	// When: searching symbols with a lowercase fragment
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"usages", "order"})

	err := cmd.Execute()

	// Then: all three OrderService symbols match
	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, `Found 3 symbols matching "order":`)
	assert.Contains(t, output, "OrderService.submit")
	assert.Contains(t, output, "OrderService.retry")
	assert.Contains(t, output, "(Order order): Receipt")
}

func TestUsagesCmd_KindFilter(t *testing.T) {
	// Given: an indexed project
	setupIndexedProject(t)

	// When: filtering the same query to classes
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"usages", "order", "--kind", "class"})

	err := cmd.Execute()

	// Then: only the class declaration remains
	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, `Found 1 symbols matching "order":`)
	assert.Contains(t, output, "OrderService.java:12")
	assert.NotContains(t, output, "OrderService.submit")
}

func TestUsagesCmd_NoMatches(t *testing.T) {
	// Given: an indexed project
	setupIndexedProject(t)

	// When: searching for a name that exists nowhere
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"usages", "frobnicate"})

	err := cmd.Execute()

	// Then: a no-match message, not an error
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `No symbols match "frobnicate"`)
}

func TestUsagesCmd_JSON(t *testing.T) {
	// Given: an indexed project
	setupIndexedProject(t)

	// When: searching as JSON with a kind filter
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"usages", "order", "--kind", "method", "--json"})

	err := cmd.Execute()

	// Then: the payload lists both methods
	require.NoError(t, err)
	var payload struct {
		SymbolName   string           `json:"symbol_name"`
		Matches      []*parser.Symbol `json:"matches"`
		TotalMatches int              `json:"total_matches"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	assert.Equal(t, "order", payload.SymbolName)
	require.Equal(t, 2, payload.TotalMatches)
	names := []string{payload.Matches[0].Name, payload.Matches[1].Name}
	assert.Contains(t, names, "OrderService.submit")
	assert.Contains(t, names, "OrderService.retry")
}
