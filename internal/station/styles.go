package station

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
	pendingCardStyle = cardStyle.BorderForeground(lipgloss.Color("12"))
)
