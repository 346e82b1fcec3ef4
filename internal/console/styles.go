package console

import "github.com/charmbracelet/lipgloss"

var (
	// Colors meet WCAG AA contrast on dark terminals
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	BlueColor      = lipgloss.Color("#60A5FA") // Blue
	CyanColor      = lipgloss.Color("#22D3EE") // Cyan
	BorderColor    = lipgloss.Color("#6B7280") // Gray

	infoStyle     = lipgloss.NewStyle().Foreground(BlueColor)
	successStyle  = lipgloss.NewStyle().Foreground(SecondaryColor)
	warningStyle  = lipgloss.NewStyle().Foreground(WarningColor)
	errorStyle    = lipgloss.NewStyle().Foreground(ErrorColor)
	progressStyle = lipgloss.NewStyle().Foreground(CyanColor)
	mutedStyle    = lipgloss.NewStyle().Foreground(MutedColor)

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(PrimaryColor).
			Padding(0, 2)

	summaryBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	summaryTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	summaryKey = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(12)
)
