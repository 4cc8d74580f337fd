package cmd

import (
	"strings"

	"charm.land/lipgloss/v2"
)

var (
	colorPrimary = lipgloss.Color("#8B5CF6")
	colorAccent  = lipgloss.Color("#14B8A6")
	colorSuccess = lipgloss.Color("#22C55E")
	colorError   = lipgloss.Color("#F43F5E")
	colorDim     = lipgloss.Color("#94A3B8")
	colorTrack   = lipgloss.Color("#334155")
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	hintStyle      = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
	correctStyle   = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	incorrectStyle = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	cardStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorTrack).
			Padding(0, 1)
	barFilled = lipgloss.NewStyle().Foreground(colorAccent)
	barEmpty  = lipgloss.NewStyle().Foreground(colorTrack)
)

// bar renders percent (0-100) as a horizontal bar of width cells.
func bar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	filled = max(0, min(filled, width))
	return barFilled.Render(strings.Repeat("█", filled)) +
		barEmpty.Render(strings.Repeat("░", width-filled))
}
