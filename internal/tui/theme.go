package tui

import "github.com/charmbracelet/lipgloss"

// ---------------------------------------------------------------------------
// Catppuccin Mocha palette (subset)
// https://catppuccin.com/palette
// ---------------------------------------------------------------------------

const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorLavender lipgloss.Color = "#b4befe"

	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface1 lipgloss.Color = "#45475a"
	colorSurface0 lipgloss.Color = "#313244"
	colorCrust    lipgloss.Color = "#11111b"
)

const (
	colorAccent = colorPink
	colorFocus  = colorLavender
	colorError  = colorRed
	colorInfo   = colorTeal
	colorMuted  = colorOverlay0
	colorBorder = colorSurface1
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)

	statusStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	statusErrStyle = lipgloss.NewStyle().Foreground(colorError).Bold(true)

	buttonStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorSurface0).
			Padding(0, 1)
	buttonFocusStyle = lipgloss.NewStyle().
				Foreground(colorCrust).
				Background(colorFocus).
				Bold(true).
				Padding(0, 1)
	buttonDisabledStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Background(colorSurface0).
				Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
	cardNameStyle  = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	cardLabelStyle = lipgloss.NewStyle().Foreground(colorSubtext0)
	emptyStyle     = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
)
