package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette: readable on light and dark backgrounds. Faint styling is only
// applied on dark backgrounds.

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
	colorMuted     lipgloss.TerminalColor = ac("240", "243")
	colorChromeFg  lipgloss.TerminalColor = ac("240", "245")
	colorSurfaceFg lipgloss.TerminalColor = ac("235", "252")

	colorSelectedBg lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg lipgloss.TerminalColor = ac("235", "255")

	colorAccent   lipgloss.TerminalColor = ac("27", "62")
	colorAccentFg lipgloss.TerminalColor = ac("255", "235")

	colorSuccess lipgloss.TerminalColor = ac("28", "42")
	colorError   lipgloss.TerminalColor = ac("160", "203")
	// Rows whose write has not been confirmed yet.
	colorPending lipgloss.TerminalColor = ac("136", "179")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func styleHeader() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg)
}

func styleCrumb() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorChromeFg)
}

func styleCursor() lipgloss.Style {
	return lipgloss.NewStyle().Background(colorSelectedBg).Foreground(colorSelectedFg).Bold(true)
}

func stylePending() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorPending).Italic(true)
}

func styleToast(success bool) lipgloss.Style {
	bg := colorError
	if success {
		bg = colorSuccess
	}
	return lipgloss.NewStyle().Background(bg).Foreground(colorAccentFg).Padding(0, 1)
}

func styleInfoToast() lipgloss.Style {
	return lipgloss.NewStyle().Background(colorAccent).Foreground(colorAccentFg).Padding(0, 1)
}

func stylePanel() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorMuted).
		Padding(0, 1)
}

// applyColorProfilePreference picks Lip Gloss's color profile. NO_COLOR is
// honored; otherwise TERM/COLORTERM may raise what termenv detected.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	profile := termenv.ColorProfile()
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	switch {
	case strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit"):
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	case strings.Contains(term, "256color"):
		if profile == termenv.Ascii || profile == termenv.ANSI {
			profile = termenv.ANSI256
		}
	}
	lipgloss.SetColorProfile(profile)
}

// themeDark resolves SPACENAV_TUI_THEME (light|dark|auto), then COLORFGBG.
// ok is false when neither decides.
func themeDark() (dark bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("SPACENAV_TUI_THEME"))) {
	case "light":
		return false, true
	case "dark":
		return true, true
	}
	// COLORFGBG is "fg;bg" (sometimes more segments); the last one is bg.
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			return bg < 7, true
		}
	}
	return false, false
}

func applyThemePreference() {
	if dark, ok := themeDark(); ok {
		lipgloss.SetHasDarkBackground(dark)
	}
}
