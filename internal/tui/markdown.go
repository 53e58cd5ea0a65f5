package tui

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

var (
	mdRendererMu sync.Mutex
	// Keyed by style and wrap width. WithAutoStyle can block on terminal
	// queries, so a fixed style is resolved up front.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

const helpMarkdown = `
# Keys

| Key | Action |
| --- | --- |
| ` + "`j` / `k`" + ` | Move down / up |
| ` + "`l` / `enter`" + ` | Expand space |
| ` + "`h`" + ` | Collapse space (or jump to parent) |
| ` + "`space`" + ` | Toggle checkbox |
| ` + "`a`" + ` | Add stream to the space under the cursor |
| ` + "`d`" + ` | Delete stream under the cursor |
| ` + "`c`" + ` | Clear selection |
| ` + "`y`" + ` | Copy selected stream ids |
| ` + "`Z`" + ` | Collapse all |
| ` + "`r`" + ` | Reload site |
| ` + "`s`" + ` | Switch site |
| ` + "`?`" + ` | Toggle this help |
| ` + "`q`" + ` | Quit |

Spaces with many children only draw the rows in view; ` + "`pgup`/`pgdown`" + `
scroll the list under the cursor.
`

func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}

	style := markdownStyle()
	key := style + ":" + strconv.Itoa(width)

	mdRendererMu.Lock()
	r := mdRenderers[key]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStyles(markdownStyleConfig(style)),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			mdRendererMu.Unlock()
			return md
		}
		mdRenderers[key] = rr
		r = rr
	}
	mdRendererMu.Unlock()

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func markdownStyle() string {
	if dark, ok := themeDark(); ok {
		if dark {
			return "dark"
		}
		return "light"
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func markdownStyleConfig(style string) ansi.StyleConfig {
	cfg := styles.DarkStyleConfig
	if style == "light" {
		cfg = styles.LightStyleConfig
	}
	zero := uint(0)
	cfg.Document.Margin = &zero
	return cfg
}
