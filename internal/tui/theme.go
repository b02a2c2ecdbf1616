package tui

import (
	"os"
	"strconv"
	"strings"

	"planboard/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// The board must stay readable on both light and dark terminal backgrounds, so the
// palette is built from lipgloss.AdaptiveColor and faint styling is only used on dark
// backgrounds.

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
	colorMuted = ac("240", "243")

	colorSelectedBg = ac("#e9e9e9", "#262626")
	colorSelectedFg = ac("235", "255")

	colorSurfaceFg = ac("235", "252")
	colorControlBg = ac("252", "235")
	colorInputBg   = ac("254", "234")

	colorAccent     = ac("27", "62")
	colorDropHint   = ac("27", "111")
	colorFlashBg    = ac("196", "160")
	colorFlashFg    = ac("255", "255")
	colorCardMeta   = ac("238", "250")
	colorReadOnlyFg = ac("130", "214")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

// adaptive turns a stored light/dark pair into a terminal color. Nil means "no color".
func adaptive(c *model.Color) (lipgloss.TerminalColor, bool) {
	if c == nil || c.Light == "" || c.Dark == "" {
		return nil, false
	}
	return ac(c.Light, c.Dark), true
}

func priorityStyle(p model.Priority) lipgloss.Style {
	hex := p.Color()
	if hex == "" {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(hex))
}

// applyColorProfilePreference sets Lip Gloss's color profile. Only NO_COLOR is
// honored; CLICOLOR handling in termenv can disable colors in an interactive program.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") && (profile == termenv.Ascii || profile == termenv.ANSI) {
		profile = termenv.ANSI256
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference configures background detection.
//
// Priority:
// 1) theme argument (config tui.theme) or PLANBOARD_TUI_THEME=light|dark|auto
// 2) COLORFGBG heuristic ("fg;bg")
func applyThemePreference(theme string) {
	if env := strings.TrimSpace(os.Getenv("PLANBOARD_TUI_THEME")); env != "" {
		theme = env
	}
	switch strings.ToLower(strings.TrimSpace(theme)) {
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
