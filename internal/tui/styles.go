package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#A78BFA")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#F87171")
	mutedColor   = lipgloss.Color("#9CA3AF")
	borderColor  = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	cardTitleStyle = lipgloss.NewStyle().Bold(true)

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(primaryColor)

	metaStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	tagStyle   = lipgloss.NewStyle().Foreground(successColor)
	errorStyle = lipgloss.NewStyle().Foreground(errorColor)
	emptyStyle = lipgloss.NewStyle().Foreground(warningColor).Italic(true)

	disabledStyle = lipgloss.NewStyle().Foreground(mutedColor).Faint(true)
	enabledStyle  = lipgloss.NewStyle().Foreground(primaryColor)
	statusStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 2)

	helpStyle = lipgloss.NewStyle().Foreground(mutedColor)

	detailBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(1, 2)

	noticeStyles = map[string]lipgloss.Style{
		noticeInfo:  lipgloss.NewStyle().Foreground(primaryColor),
		noticeError: lipgloss.NewStyle().Foreground(errorColor).Bold(true),
	}
)
