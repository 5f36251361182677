package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	fighter1Style = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	fighter2Style = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	critStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	abilityStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	healStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	winnerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	promptStyle   = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)
)

// centerText centers text within the given width.
func centerText(text string, width int) string {
	textWidth := lipgloss.Width(text)
	if textWidth >= width {
		return text
	}
	padding := (width - textWidth) / 2
	return strings.Repeat(" ", padding) + text
}
