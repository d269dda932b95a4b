package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestDefaultStyles_Palette(t *testing.T) {
	// Given: the default theme
	styles := DefaultStyles()

	// Then: the lime accent marks success and headers are bold
	assert.Equal(t, lipgloss.Color(ColorLime), styles.Success.GetForeground())
	assert.True(t, styles.Header.GetBold())

	// Then: errors and warnings use distinct colors
	assert.NotEqual(t, styles.Error.GetForeground(), styles.Warning.GetForeground())
}

func TestNoColorStyles_RenderUnstyled(t *testing.T) {
	// Given: the no-color theme
	styles := NoColorStyles()

	// Then: text passes through every style untouched
	for _, s := range []lipgloss.Style{
		styles.Header, styles.Success, styles.Warning, styles.Error,
		styles.Dim, styles.Active, styles.Border, styles.Label,
	} {
		assert.Equal(t, "plain", s.Render("plain"))
	}
}

func TestGetStyles_HonorsColorPreference(t *testing.T) {
	// When: color is disabled
	plain := GetStyles(true)

	// Then: rendering adds nothing
	assert.Equal(t, "ok", plain.Success.Render("ok"))

	// When: color is enabled
	colored := GetStyles(false)

	// Then: the text survives styling
	assert.Contains(t, colored.Header.Render("Index Complete"), "Index Complete")
}
