package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primaryColor = lipgloss.Color("#7C3AED") // Purple
	okColor      = lipgloss.Color("#10B981") // Green
	warningColor = lipgloss.Color("#F59E0B") // Yellow
	errorColor   = lipgloss.Color("#EF4444") // Red
	mutedColor   = lipgloss.Color("#6B7280") // Gray

	// Base styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	// Severity styles
	blockingStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	advisoryStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	okStyle = lipgloss.NewStyle().
		Foreground(okColor).
		Bold(true)

	// Detail panel
	detailPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(primaryColor).
				Padding(1, 2)

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Width(10)

	// Help style
	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)
)

// SeverityBadge renders a colored severity tag
func SeverityBadge(severity string) string {
	switch severity {
	case "BLOCKING":
		return blockingStyle.Render("✗ " + severity)
	case "ADVISORY":
		return advisoryStyle.Render("! " + severity)
	default:
		return okStyle.Render("✓ " + severity)
	}
}
