package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha palette
// https://catppuccin.com/palette
const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorMauve    lipgloss.Color = "#cba6f7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorSky      lipgloss.Color = "#89dceb"
	colorSapphire lipgloss.Color = "#74c7ec"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorLavender lipgloss.Color = "#b4befe"

	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorSurface1 lipgloss.Color = "#45475a"
	colorSurface0 lipgloss.Color = "#313244"
	colorBase     lipgloss.Color = "#1e1e2e"
)

const (
	colorAccent  = colorPink
	colorFocus   = colorLavender
	colorSuccess = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
	colorInfo    = colorTeal
)

// tileColors cycles through tiles on a dashboard.
var tileColors = []lipgloss.Color{colorBlue, colorPeach, colorTeal, colorMauve, colorSapphire, colorGreen, colorSky}

var (
	titleStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)

	tabStyle       = lipgloss.NewStyle().Foreground(colorSubtext0).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Foreground(colorBase).Background(colorAccent).Bold(true).Padding(0, 1)

	chipStyle        = lipgloss.NewStyle().Foreground(colorText).Background(colorSurface0).Padding(0, 1)
	focusedChipStyle = lipgloss.NewStyle().Foreground(colorBase).Background(colorFocus).Bold(true).Padding(0, 1)
	dirtyMarkStyle   = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)

	cursorStyle   = lipgloss.NewStyle().Foreground(colorFocus).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorOverlay1)

	statusStyle = lipgloss.NewStyle().Foreground(colorInfo)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError)
)

func tileColor(i int) lipgloss.Color { return tileColors[i%len(tileColors)] }
