package tui

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"spacenav/internal/model"
	"spacenav/internal/mutate"
	"spacenav/internal/notify"
	"spacenav/internal/state"
	"spacenav/internal/window"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

type screen int

const (
	screenSites screen = iota
	screenTree
)

type mode int

const (
	modeNormal mode = iota
	modeAdd
	modeConfirmDelete
	modeHelp
)

const toastTick = 500 * time.Millisecond

type (
	stateChangedMsg struct{}
	loadedMsg       struct{ err error }
	opDoneMsg       struct {
		op  mutate.Op
		err error
	}
	toastTickMsg struct{}
	copiedMsg    struct {
		n   int
		err error
	}
)

type appModel struct {
	ctx    context.Context
	store  *state.Store
	toasts *notify.Queue
	log    logrus.FieldLogger

	changes     <-chan struct{}
	unsubscribe func()
	initialSite string

	width  int
	height int
	screen screen
	mode   mode

	snap      state.State
	rows      []row
	cursor    int
	cursorKey string
	top       int
	scroll    *window.ScrollTracker
	rowsSite  string

	siteFilter textinput.Model
	siteCursor int

	input        textinput.Model
	addTo        model.TreeNode
	deleteTarget model.Stream

	// copyFn replaces the system clipboard in tests.
	copyFn func(string) error
}

func newAppModel(ctx context.Context, opts Options) appModel {
	ch, cancel := opts.Store.Subscribe()

	filter := textinput.New()
	filter.Prompt = "Filter: "
	filter.Placeholder = "site name"
	filter.Focus()

	in := textinput.New()
	in.Prompt = "Stream name: "
	in.CharLimit = 200

	return appModel{
		ctx:         ctx,
		store:       opts.Store,
		toasts:      opts.Toasts,
		log:         opts.Log.WithField("component", "tui"),
		changes:     ch,
		unsubscribe: cancel,
		initialSite: strings.TrimSpace(opts.Site),
		width:       80,
		height:      24,
		screen:      screenSites,
		snap:        opts.Store.Snapshot(),
		scroll:      window.NewScrollTracker(),
		siteFilter:  filter,
		input:       in,
		copyFn:      clipboard.WriteAll,
	}
}

func (m appModel) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForChange(m.changes), m.loadSitesCmd(), tickToasts()}
	if m.initialSite != "" {
		cmds = append(cmds, m.selectSiteCmd(m.initialSite))
	}
	return tea.Batch(cmds...)
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return stateChangedMsg{}
	}
}

func tickToasts() tea.Cmd {
	return tea.Tick(toastTick, func(time.Time) tea.Msg { return toastTickMsg{} })
}

func (m appModel) loadSitesCmd() tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg { return loadedMsg{err: store.LoadSites(ctx)} }
}

func (m appModel) selectSiteCmd(id string) tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg { return loadedMsg{err: store.SelectSite(ctx, id)} }
}

func (m appModel) reloadCmd() tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg { return loadedMsg{err: store.Reload(ctx)} }
}

func (m appModel) addStreamCmd(spaceID int, name string) tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		op, err := store.AddStream(ctx, spaceID, name)
		return opDoneMsg{op: op, err: err}
	}
}

func (m appModel) deleteStreamCmd(streamID int) tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		op, err := store.DeleteStream(ctx, streamID)
		return opDoneMsg{op: op, err: err}
	}
}

func (m appModel) copySelectionCmd() tea.Cmd {
	streams := m.store.SelectedStreams()
	copyFn := m.copyFn
	return func() tea.Msg {
		ids := make([]string, 0, len(streams))
		for _, s := range streams {
			if !mutate.IsTemp(s.ID) {
				ids = append(ids, strconv.Itoa(s.ID))
			}
		}
		if len(ids) == 0 {
			return copiedMsg{}
		}
		return copiedMsg{n: len(ids), err: copyFn(strings.Join(ids, ","))}
	}
}

// refresh re-reads the store and rebuilds the rows, keeping the cursor on the
// same row key when it still exists.
func (m *appModel) refresh() {
	m.snap = m.store.Snapshot()
	if m.snap.SiteID != m.rowsSite {
		m.scroll.Reset()
		m.cursor, m.cursorKey, m.top = 0, "", 0
		m.rowsSite = m.snap.SiteID
	}
	m.rows = flattenRows(m.snap.View(), m.snap.Selection, m.store, m.scroll)
	if m.cursorKey != "" {
		for i, r := range m.rows {
			if r.key() == m.cursorKey {
				m.cursor = i
				break
			}
		}
	}
	m.clampCursor()
}

func (m *appModel) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.cursorKey = ""
	if m.cursor < len(m.rows) {
		m.cursorKey = m.rows[m.cursor].key()
	}
	if h := m.bodyHeight(); h > 0 {
		if m.cursor < m.top {
			m.top = m.cursor
		}
		if m.cursor >= m.top+h {
			m.top = m.cursor - h + 1
		}
	}
}

func (m appModel) current() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.clampCursor()
		return m, nil

	case stateChangedMsg:
		m.refresh()
		if m.snap.HasSite() {
			m.screen = screenTree
		}
		return m, waitForChange(m.changes)

	case loadedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Debug("load finished with error")
		}
		return m, nil

	case opDoneMsg:
		// Write failures are reported by the store; only rejected requests land here.
		if msg.err != nil {
			m.toasts.Notify(notify.LevelError, msg.err.Error())
		}
		return m, nil

	case copiedMsg:
		switch {
		case msg.err != nil:
			m.toasts.Notify(notify.LevelError, "Copy failed: "+msg.err.Error())
		case msg.n == 0:
			m.toasts.Notify(notify.LevelInfo, "Nothing selected")
		default:
			m.toasts.Notify(notify.LevelInfo, fmt.Sprintf("Copied %d stream ids", msg.n))
		}
		return m, nil

	case toastTickMsg:
		m.toasts.Expire(time.Now())
		return m, tickToasts()

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m appModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case modeHelp:
		m.mode = modeNormal
		return m, nil
	case modeAdd:
		return m.updateAdd(msg)
	case modeConfirmDelete:
		return m.updateConfirmDelete(msg)
	}
	if m.screen == screenSites {
		return m.updateSites(msg)
	}
	return m.updateTree(msg)
}

func (m appModel) updateSites(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sites := filterSites(m.snap.Sites, m.siteFilter.Value())
	switch msg.String() {
	case "esc":
		if m.siteFilter.Value() != "" {
			m.siteFilter.SetValue("")
			m.siteCursor = 0
			return m, nil
		}
		if m.snap.HasSite() {
			m.screen = screenTree
			return m, nil
		}
		return m, tea.Quit
	case "up", "ctrl+p":
		if m.siteCursor > 0 {
			m.siteCursor--
		}
		return m, nil
	case "down", "ctrl+n":
		if m.siteCursor < len(sites)-1 {
			m.siteCursor++
		}
		return m, nil
	case "ctrl+r":
		return m, m.loadSitesCmd()
	case "enter":
		if m.siteCursor < len(sites) {
			site := sites[m.siteCursor]
			m.screen = screenTree
			m.siteFilter.SetValue("")
			m.siteCursor = 0
			return m, m.selectSiteCmd(site.ID)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.siteFilter, cmd = m.siteFilter.Update(msg)
	if n := len(filterSites(m.snap.Sites, m.siteFilter.Value())); m.siteCursor >= n {
		m.siteCursor = max(0, n-1)
	}
	return m, cmd
}

func (m appModel) updateTree(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cur, ok := m.current()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.mode = modeHelp
		return m, nil
	case "s", "esc":
		m.screen = screenSites
		return m, nil
	case "r":
		if m.snap.HasSite() {
			return m, m.reloadCmd()
		}
		return m, nil
	case "j", "down":
		m.cursor++
		m.clampCursor()
		return m, nil
	case "k", "up":
		m.cursor--
		m.clampCursor()
		return m, nil
	case "g", "home":
		m.cursor = 0
		m.clampCursor()
		return m, nil
	case "G", "end":
		m.cursor = len(m.rows) - 1
		m.clampCursor()
		return m, nil
	case "Z":
		m.store.CollapseAll()
		return m, nil
	case "c":
		m.store.ClearSelection()
		return m, nil
	case "y":
		return m, m.copySelectionCmd()
	case "pgdown", "ctrl+d":
		if ok {
			m.scrollList(cur.parent, +1)
		}
		return m, nil
	case "pgup", "ctrl+u":
		if ok {
			m.scrollList(cur.parent, -1)
		}
		return m, nil
	}
	if !ok {
		return m, nil
	}

	switch msg.String() {
	case "l", "right", "enter":
		switch cur.kind {
		case rowSpace:
			m.store.SetExpanded(cur.node.ID, true)
		case rowGap:
			if cur.above {
				m.scrollList(cur.parent, -1)
			} else {
				m.scrollList(cur.parent, +1)
			}
		}
	case "h", "left":
		if cur.kind == rowSpace && cur.node.IsExpanded {
			m.store.SetExpanded(cur.node.ID, false)
			return m, nil
		}
		m.jumpTo(fmt.Sprintf("space-%d", cur.parent))
	case " ", "space", "x":
		switch cur.kind {
		case rowSpace:
			m.store.ToggleSpaceSelection(cur.node.ID)
		case rowStream:
			m.store.ToggleStreamSelection(cur.stream.ID)
		}
	case "a":
		target, found := m.addTarget(cur)
		if !found {
			return m, nil
		}
		m.addTo = target
		m.mode = modeAdd
		m.input.SetValue("")
		return m, m.input.Focus()
	case "d", "delete":
		if cur.kind != rowStream {
			return m, nil
		}
		m.deleteTarget = cur.stream
		m.mode = modeConfirmDelete
	}
	return m, nil
}

// addTarget is the space under the cursor, or the owner of the stream under it.
func (m appModel) addTarget(cur row) (model.TreeNode, bool) {
	if cur.kind == rowSpace {
		return cur.node, true
	}
	for _, r := range m.rows {
		if r.kind == rowSpace && r.node.ID == cur.parent {
			return r.node, true
		}
	}
	return model.TreeNode{}, false
}

func (m *appModel) jumpTo(key string) {
	for i, r := range m.rows {
		if r.key() == key {
			m.cursor = i
			m.clampCursor()
			return
		}
	}
}

// scrollList pages the windowed child list of spaceID by one viewport.
func (m *appModel) scrollList(spaceID, dir int) {
	if spaceID == 0 {
		return
	}
	cfg := m.store.WindowConfig(spaceID)
	m.scroll.SetOffset(spaceID, m.scroll.Offset(spaceID)+dir*cfg.MaxHeight)
	m.refresh()
}

func (m appModel) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.input.Blur()
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.input.Value())
		m.mode = modeNormal
		m.input.Blur()
		// Open the space so the new row is visible.
		m.store.SetExpanded(m.addTo.ID, true)
		return m, m.addStreamCmd(m.addTo.ID, name)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m appModel) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeNormal
	switch msg.String() {
	case "y", "Y", "enter":
		return m, m.deleteStreamCmd(m.deleteTarget.ID)
	}
	return m, nil
}

// selectedPanel lists selected streams by name.
func (m appModel) selectedPanel() []model.Stream {
	streams := m.store.SelectedStreams()
	sort.SliceStable(streams, func(i, j int) bool {
		return strings.ToLower(streams[i].Name) < strings.ToLower(streams[j].Name)
	})
	return streams
}
