package tui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"spacenav/internal/model"
)

// Terminals can't change the user's font, so affordances (twisties,
// checkboxes, bullets) come in a Unicode and an ASCII set.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

const glyphsEnv = "SPACENAV_TUI_GLYPHS"

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

func parseGlyphs(name string) (glyphSet, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "unicode", "utf8":
		return glyphSetUnicode, true
	case "ascii":
		return glyphSetASCII, true
	default:
		return glyphSetUnicode, false
	}
}

// SetGlyphs selects the glyph set by name (unicode|ascii; empty means
// unicode).
func SetGlyphs(name string) error {
	gs, ok := parseGlyphs(name)
	if !ok {
		return fmt.Errorf("unknown glyph set: %q (expected unicode|ascii)", name)
	}
	setGlyphs(gs)
	return nil
}

// applyGlyphPreference honors the env var directly. Unknown values are
// ignored.
func applyGlyphPreference() {
	v := strings.TrimSpace(os.Getenv(glyphsEnv))
	if v == "" {
		return
	}
	if gs, ok := parseGlyphs(v); ok {
		setGlyphs(gs)
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	gs := currentGlyphs
	glyphsMu.RUnlock()
	return gs
}

func pick(unicode, ascii string) string {
	if glyphs() == glyphSetASCII {
		return ascii
	}
	return unicode
}

func glyphTwistyCollapsed() string { return pick("▸", ">") }
func glyphTwistyExpanded() string  { return pick("▾", "v") }
func glyphBullet() string          { return pick("•", "*") }
func glyphHRule() string           { return pick("─", "-") }
func glyphEllipsis() string        { return pick("…", "...") }

func glyphCheckbox(state model.CheckState) string {
	switch state {
	case model.CheckChecked:
		return pick("☑", "[x]")
	case model.CheckIndeterminate:
		return pick("◩", "[-]")
	default:
		return pick("☐", "[ ]")
	}
}
