package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("205")
	colorMuted   = lipgloss.Color("241")
	colorOK      = lipgloss.Color("42")
	colorWarn    = lipgloss.Color("214")
	colorError   = lipgloss.Color("196")
	colorSurface = lipgloss.Color("236")

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			Padding(0, 2)
	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)
	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("232")).
			Background(colorWarn).
			Padding(0, 1)

	listSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("231")).
				Background(colorSurface)
	listNormalStyle = lipgloss.NewStyle()
	statusStyle     = map[string]lipgloss.Style{
		"pending": lipgloss.NewStyle().Foreground(colorWarn),
		"sent":    lipgloss.NewStyle().Foreground(colorOK),
		"deleted": lipgloss.NewStyle().Foreground(colorMuted),
		"failed":  lipgloss.NewStyle().Foreground(colorError),
	}

	detailTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	sectionStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorMuted)
	mutedStyle       = lipgloss.NewStyle().Foreground(colorMuted)

	chatUserStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	chatAssistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(1, 2)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)
	connUpStyle   = lipgloss.NewStyle().Foreground(colorOK)
	connDownStyle = lipgloss.NewStyle().Foreground(colorError)

	toastStyles = map[string]lipgloss.Style{
		"info":    lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
		"success": lipgloss.NewStyle().Foreground(colorOK),
		"error":   lipgloss.NewStyle().Foreground(colorError),
	}
)
