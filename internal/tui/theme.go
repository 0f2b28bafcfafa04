package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette helpers. Colors are adaptive so the grid stays readable on light
// and dark terminals; faint text is only used on dark backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted      lipgloss.TerminalColor = ac("240", "243")
	colorChromeFg   lipgloss.TerminalColor = ac("240", "245")
	colorSelectedBg lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg lipgloss.TerminalColor = ac("235", "255")
	colorAccent     lipgloss.TerminalColor = ac("27", "62")
	colorAccentFg   lipgloss.TerminalColor = ac("255", "235")
	colorEmptyCell  lipgloss.TerminalColor = ac("252", "236")
	colorSuccess    lipgloss.TerminalColor = ac("28", "114")
	colorError      lipgloss.TerminalColor = ac("160", "203")
	colorDarkPanel  lipgloss.TerminalColor = ac("236", "234")
	colorOnBlock    lipgloss.TerminalColor = ac("255", "255")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func styleChrome() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorChromeFg)
}

func styleTab(active bool) lipgloss.Style {
	st := lipgloss.NewStyle().Padding(0, 1)
	if active {
		return st.Bold(true).Background(colorAccent).Foreground(colorAccentFg)
	}
	return st.Foreground(colorChromeFg)
}

func styleSelected() lipgloss.Style {
	return lipgloss.NewStyle().Background(colorSelectedBg).Foreground(colorSelectedFg)
}

func styleEmptyCell() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorEmptyCell)
}

// styleActivity paints a cell in the activity's hex color.
func styleActivity(color string) lipgloss.Style {
	st := lipgloss.NewStyle().Foreground(colorOnBlock)
	if strings.HasPrefix(color, "#") {
		return st.Background(lipgloss.Color(color))
	}
	return st.Background(colorAccent)
}

// stylePreview marks cells a drag would paint: the activity color, reversed.
func stylePreview(color string) lipgloss.Style {
	return styleActivity(color).Reverse(true).Bold(true)
}

func styleNotice(level string) lipgloss.Style {
	switch level {
	case "error":
		return lipgloss.NewStyle().Foreground(colorError).Bold(true)
	case "success":
		return lipgloss.NewStyle().Foreground(colorSuccess)
	default:
		return styleChrome()
	}
}

// applyColorProfilePreference honors NO_COLOR and otherwise follows the
// terminal. CLICOLOR is ignored on purpose for the interactive view.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	profile := termenv.ColorProfile()
	colorterm := strings.ToLower(os.Getenv("COLORTERM"))
	if profile != termenv.Ascii && (strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit")) {
		profile = termenv.TrueColor
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference sets the background detection from
// DASHGRID_TUI_THEME=light|dark, falling back to the COLORFGBG heuristic.
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvTheme))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
		}
	}
}

// markdownStyle picks the glamour standard style matching the theme.
func markdownStyle() string {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvTheme))) {
	case "light":
		return "light"
	case "dark":
		return "dark"
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
