package main

import "github.com/charmbracelet/lipgloss"

var (
	// successColor indicates successful operations.
	successColor = lipgloss.Color("#4ECDC4")
	// warningColor indicates warnings or caution messages.
	warningColor = lipgloss.Color("#FFE66D")
	errorColor   = lipgloss.Color("#FF6B6B")
	subtleColor  = lipgloss.Color("#666666")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#95E1D3")).
			MarginBottom(1)

	successStyle = lipgloss.NewStyle().Foreground(successColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor)
	subtleStyle  = lipgloss.NewStyle().Foreground(subtleColor)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

	// negativeStyle marks amounts below zero in listings.
	negativeStyle = lipgloss.NewStyle().Foreground(errorColor)
)

func formatTitle(s string) string {
	return titleStyle.Render(s)
}

func formatAmount(s string) string {
	if len(s) > 0 && s[0] == '-' {
		return negativeStyle.Render(s)
	}
	return s
}
