package tui

import (
	"fmt"
	"strings"

	"spacenav/internal/notify"
	"spacenav/internal/tree"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

const (
	headerLines = 2
	footerLines = 2
	// The selection panel is only drawn when the terminal is at least this wide.
	panelMinWidth = 90
	panelWidth    = 32
)

func (m appModel) bodyHeight() int {
	return m.height - headerLines - footerLines - m.toastLines()
}

func (m appModel) toastLines() int {
	n := len(m.toasts.List())
	if n > 3 {
		n = 3
	}
	return n
}

func (m appModel) View() string {
	if m.mode == modeHelp {
		return renderMarkdown(helpMarkdown, m.width-4)
	}
	var body string
	if m.screen == screenSites {
		body = m.viewSites()
	} else {
		body = m.viewTree()
	}
	parts := []string{m.viewHeader(), body}
	if t := m.viewToasts(); t != "" {
		parts = append(parts, t)
	}
	parts = append(parts, m.viewFooter())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m appModel) viewHeader() string {
	title := styleHeader().Render("spacenav")
	crumb := ""
	if m.snap.HasSite() {
		crumb = styleCrumb().Render(" / " + siteName(m.snap.Sites, m.snap.SiteID))
	}
	var status string
	switch {
	case m.snap.Loading:
		status = styleMuted().Render("Loading spaces" + glyphEllipsis())
	case m.snap.Error != "":
		status = styleToast(false).Render(m.snap.Error)
	case m.snap.HasSite():
		total := len(tree.AllStreamIDs(m.snap.Optimistic...))
		status = styleMuted().Render(fmt.Sprintf("%s spaces %s %s of %s streams selected",
			humanize.Comma(int64(tree.CountSpaces(m.snap.Optimistic))), glyphBullet(),
			humanize.Comma(int64(m.snap.Selection.Len())), humanize.Comma(int64(total))))
		if n := len(m.snap.Pending); n > 0 {
			status += stylePending().Render(fmt.Sprintf("  %d saving", n))
		}
	}
	return ansi.Truncate(title+crumb, m.width, glyphEllipsis()) + "\n" + ansi.Truncate(status, m.width, glyphEllipsis())
}

func (m appModel) viewSites() string {
	h := m.bodyHeight()
	lines := []string{m.siteFilter.View()}
	switch {
	case m.snap.SitesLoading:
		lines = append(lines, styleMuted().Render("Loading sites"+glyphEllipsis()))
	case m.snap.SitesError != "":
		lines = append(lines, styleToast(false).Render(m.snap.SitesError), styleMuted().Render("ctrl+r to retry"))
	default:
		sites := filterSites(m.snap.Sites, m.siteFilter.Value())
		if len(sites) == 0 {
			lines = append(lines, styleMuted().Render("No matching sites"))
		}
		for i, s := range sites {
			line := "  " + s.Name
			if i == m.siteCursor {
				line = styleCursor().Render("> " + s.Name)
			}
			if s.ID == m.snap.SiteID {
				line += styleMuted().Render(" (current)")
			}
			lines = append(lines, ansi.Truncate(line, m.width, glyphEllipsis()))
		}
	}
	return fitLines(lines, h)
}

func (m appModel) viewTree() string {
	h := m.bodyHeight()
	treeWidth := m.width
	showPanel := m.width >= panelMinWidth && m.snap.HasSite()
	if showPanel {
		treeWidth = m.width - panelWidth - 1
	}

	var lines []string
	switch {
	case !m.snap.HasSite():
		lines = append(lines, styleMuted().Render("No site selected. Press s to pick one."))
	case len(m.rows) == 0 && !m.snap.Loading && m.snap.Error == "":
		lines = append(lines, styleMuted().Render("This site has no spaces."))
	}
	end := m.top + h
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.top; i < end; i++ {
		r := m.rows[i]
		text := strings.Repeat("  ", r.depth) + rowText(r, true)
		text = ansi.Truncate(text, treeWidth, glyphEllipsis())
		switch {
		case i == m.cursor:
			text = styleCursor().Render(text)
		case r.pending():
			text = stylePending().Render(text)
		case r.kind == rowGap:
			text = styleMuted().Render(text)
		}
		lines = append(lines, text)
	}
	switch m.mode {
	case modeAdd:
		lines = append(lines, "", fmt.Sprintf("Add stream to %s", m.addTo.Name), m.input.View())
	case modeConfirmDelete:
		lines = append(lines, "", fmt.Sprintf("Delete %q? (y/N)", m.deleteTarget.Name))
	}
	body := fitLines(lines, h)
	if !showPanel {
		return body
	}
	panel := m.viewSelectedPanel(h)
	return lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().Width(treeWidth).Render(body), " ", panel)
}

func (m appModel) viewSelectedPanel(h int) string {
	streams := m.selectedPanel()
	inner := panelWidth - 4
	lines := []string{styleHeader().Render(fmt.Sprintf("Selected (%d)", len(streams)))}
	if len(streams) == 0 {
		lines = append(lines, styleMuted().Render("Nothing selected"))
	}
	// Border takes two lines.
	room := h - 2 - 1
	for i, s := range streams {
		if i >= room {
			lines = append(lines, styleMuted().Render(fmt.Sprintf("+%d more", len(streams)-i)))
			break
		}
		lines = append(lines, ansi.Truncate(glyphBullet()+" "+s.Name, inner, glyphEllipsis()))
	}
	return stylePanel().Width(panelWidth - 2).Render(strings.Join(lines, "\n"))
}

func (m appModel) viewToasts() string {
	toasts := m.toasts.List()
	if len(toasts) > 3 {
		toasts = toasts[len(toasts)-3:]
	}
	lines := make([]string, 0, len(toasts))
	for _, t := range toasts {
		msg := ansi.Truncate(t.Message, m.width-2, glyphEllipsis())
		switch t.Level {
		case notify.LevelSuccess:
			lines = append(lines, styleToast(true).Render(msg))
		case notify.LevelError:
			lines = append(lines, styleToast(false).Render(msg))
		default:
			lines = append(lines, styleInfoToast().Render(msg))
		}
	}
	return strings.Join(lines, "\n")
}

func (m appModel) viewFooter() string {
	var hint string
	switch {
	case m.mode == modeAdd:
		hint = "enter save " + glyphBullet() + " esc cancel"
	case m.mode == modeConfirmDelete:
		hint = "y delete " + glyphBullet() + " any other key cancels"
	case m.screen == screenSites:
		hint = "type to filter " + glyphBullet() + " enter open " + glyphBullet() + " esc back"
	default:
		hint = "space select " + glyphBullet() + " a add " + glyphBullet() + " d delete " + glyphBullet() + " s sites " + glyphBullet() + " ? help " + glyphBullet() + " q quit"
	}
	rule := strings.Repeat(glyphHRule(), max(0, m.width))
	return styleMuted().Render(rule) + "\n" + styleMuted().Render(ansi.Truncate(hint, m.width, glyphEllipsis()))
}

// fitLines pads or cuts lines to exactly h rows.
func fitLines(lines []string, h int) string {
	if h < 1 {
		h = 1
	}
	if len(lines) > h {
		lines = lines[:h]
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
