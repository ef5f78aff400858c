package ui

import "github.com/charmbracelet/lipgloss"

var (
	focusedBorderColor   = lipgloss.Color("62")
	unfocusedBorderColor = lipgloss.Color("240")
)

var (
	diffAddedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	diffRemovedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	diffContextStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	diffHunkHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true)
	diffFileHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	diffEmptyStateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	diffCursorRowStyle  = lipgloss.NewStyle().Background(lipgloss.Color("236"))
	diffCommentTagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

var (
	statusBarStyle       = lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("252"))
	statusBarAccentStyle = lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("62")).Bold(true)
	statusBarErrorStyle  = lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("196")).Bold(true)
)

func panelStyle(focused bool, width, height int) lipgloss.Style {
	borderColor := unfocusedBorderColor
	if focused {
		borderColor = focusedBorderColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Width(width).
		Height(height)
}

func overlayBoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(focusedBorderColor).
		Padding(0, 1).
		Width(width)
}
