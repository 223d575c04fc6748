package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Colors stay readable on both light and dark terminal backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted    lipgloss.TerminalColor = ac("240", "243")
	colorAccent   lipgloss.TerminalColor = ac("25", "75")
	colorSelectBg lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectFg lipgloss.TerminalColor = ac("235", "255")
	colorError    lipgloss.TerminalColor = ac("160", "203")

	// Priority 1 is the most urgent.
	priorityColors = []lipgloss.TerminalColor{
		ac("160", "203"),
		ac("166", "215"),
		ac("28", "114"),
		ac("25", "111"),
	}
)

var (
	styleInternal = lipgloss.NewStyle().Bold(true)
	styleMuted    = lipgloss.NewStyle().Foreground(colorMuted)
	styleHeader   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleSelected = lipgloss.NewStyle().Background(colorSelectBg).Foreground(colorSelectFg)
	styleError    = lipgloss.NewStyle().Foreground(colorError)
)

func priorityStyle(p int) lipgloss.Style {
	if p < 1 {
		p = 1
	}
	if p > len(priorityColors) {
		p = len(priorityColors)
	}
	return lipgloss.NewStyle().Foreground(priorityColors[p-1])
}

// SetupColorProfile picks the lipgloss color profile from the environment.
// NO_COLOR and PEBBLE_TRACKER_TUI_COLOR=none force plain text.
func SetupColorProfile() {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("PEBBLE_TRACKER_TUI_COLOR"))) {
	case "none", "ascii":
		lipgloss.SetColorProfile(termenv.Ascii)
	case "ansi":
		lipgloss.SetColorProfile(termenv.ANSI)
	case "256":
		lipgloss.SetColorProfile(termenv.ANSI256)
	case "truecolor":
		lipgloss.SetColorProfile(termenv.TrueColor)
	default:
		lipgloss.SetColorProfile(termenv.EnvColorProfile())
	}
}
