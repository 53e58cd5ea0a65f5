package tui

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"spacenav/internal/api"
	"spacenav/internal/logging"
	"spacenav/internal/model"
	"spacenav/internal/mutate"
	"spacenav/internal/notify"
	"spacenav/internal/server"
	"spacenav/internal/state"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestApp(t *testing.T) (appModel, *state.Store, *notify.Queue) {
	t.Helper()
	ctx := context.Background()

	db, err := server.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	seed, err := server.DefaultSeed()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := db.SeedIfEmpty(ctx, seed); err != nil {
		t.Fatalf("seed db: %v", err)
	}
	srv := httptest.NewServer(server.New(db, server.Config{Logger: logging.Discard()}).Handler())
	t.Cleanup(srv.Close)

	client := api.New(srv.URL, logging.Discard())
	client.HTTP = srv.Client()
	toasts := notify.NewQueue()
	st := state.New(state.Options{Fetcher: client, Writer: client, Notifier: toasts})

	m := newAppModel(ctx, Options{Store: st, Toasts: toasts, Log: logging.Discard()})
	t.Cleanup(m.unsubscribe)
	m.width, m.height = 120, 60
	return m, st, toasts
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func press(m appModel, keys ...string) (appModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(appModel)
	}
	return m, cmd
}

func deliver(m appModel, msg tea.Msg) appModel {
	next, _ := m.Update(msg)
	return next.(appModel)
}

// settle runs cmd (if any), feeds its message back and refreshes from the store.
func settle(m appModel, cmd tea.Cmd) appModel {
	if cmd != nil {
		if msg := cmd(); msg != nil {
			m = deliver(m, msg)
		}
	}
	return deliver(m, stateChangedMsg{})
}

func openSite(t *testing.T, m appModel, st *state.Store, id string) appModel {
	t.Helper()
	if err := st.LoadSites(context.Background()); err != nil {
		t.Fatalf("load sites: %v", err)
	}
	if err := st.SelectSite(context.Background(), id); err != nil {
		t.Fatalf("select site: %v", err)
	}
	return deliver(m, stateChangedMsg{})
}

func rowKeys(m appModel) string {
	return strings.Join(keys(m.rows), ",")
}

func TestApp_ExpandAndSelect(t *testing.T) {
	m, st, _ := newTestApp(t)
	m = openSite(t, m, st, "1")

	if m.screen != screenTree {
		t.Fatalf("expected tree screen after loading a site")
	}
	if got := rowKeys(m); got != "space-1,space-6" {
		t.Fatalf("unexpected roots: %s", got)
	}

	m, _ = press(m, "l")
	m = deliver(m, stateChangedMsg{})
	if got := rowKeys(m); got != "space-1,stream-1,stream-2,space-2,space-3,space-6" {
		t.Fatalf("unexpected rows after expand: %s", got)
	}

	m, _ = press(m, "j", "space")
	m = deliver(m, stateChangedMsg{})
	if m.rows[1].state != model.CheckChecked || m.rows[0].state != model.CheckIndeterminate {
		t.Fatalf("expected checked stream and indeterminate parent; got %s / %s", m.rows[1].state, m.rows[0].state)
	}

	// Indeterminate space toggles to fully selected.
	m, _ = press(m, "k", "space")
	m = deliver(m, stateChangedMsg{})
	if got := len(st.SelectedStreams()); got != 7 {
		t.Fatalf("expected all 7 streams under Main Building selected; got %d", got)
	}
	if m.rows[0].state != model.CheckChecked {
		t.Fatalf("expected checked space; got %s", m.rows[0].state)
	}

	m, _ = press(m, "c")
	m = deliver(m, stateChangedMsg{})
	if m.snap.Selection.Len() != 0 {
		t.Fatalf("expected selection cleared")
	}
}

func TestApp_AddStream(t *testing.T) {
	m, st, toasts := newTestApp(t)
	m = openSite(t, m, st, "1")

	m, _ = press(m, "a")
	if m.mode != modeAdd {
		t.Fatalf("expected add mode")
	}
	m, _ = press(m, "Hall Cam")
	m, cmd := press(m, "enter")
	m = settle(m, cmd)

	if !strings.Contains(rowKeys(m), "stream-43") {
		t.Fatalf("expected confirmed stream-43 in rows; got %s", rowKeys(m))
	}
	list := toasts.List()
	if len(list) != 1 || list[0].Level != notify.LevelSuccess || list[0].Message != `Stream "Hall Cam" added successfully!` {
		t.Fatalf("unexpected toasts: %+v", list)
	}
}

func TestApp_AddStream_EmptyNameIsRejected(t *testing.T) {
	m, st, toasts := newTestApp(t)
	m = openSite(t, m, st, "1")

	m, _ = press(m, "a")
	m, cmd := press(m, "enter")
	m = settle(m, cmd)

	list := toasts.List()
	if len(list) != 1 || list[0].Message != mutate.ErrEmptyName.Error() {
		t.Fatalf("expected one validation toast; got %+v", list)
	}
	if strings.Contains(rowKeys(m), "stream--") {
		t.Fatalf("expected no optimistic row; got %s", rowKeys(m))
	}
}

func TestApp_DeleteStreamNeedsConfirmation(t *testing.T) {
	m, st, _ := newTestApp(t)
	m = openSite(t, m, st, "1")
	m, _ = press(m, "l")
	m = deliver(m, stateChangedMsg{})
	m, _ = press(m, "j")

	// Anything but y cancels.
	m, cmd := press(m, "d", "n")
	if cmd != nil || m.mode != modeNormal {
		t.Fatalf("expected cancel without command")
	}

	m, cmd = press(m, "d", "y")
	m = settle(m, cmd)
	if strings.Contains(rowKeys(m), "stream-1,") {
		t.Fatalf("expected stream-1 removed; got %s", rowKeys(m))
	}
}

func TestApp_WindowedListScrolls(t *testing.T) {
	m, st, _ := newTestApp(t)
	m = openSite(t, m, st, "1")
	m, _ = press(m, "j", "l")
	m = deliver(m, stateChangedMsg{})

	// Parking Structure: 22 streams + 1 child space, windowed.
	last := m.rows[len(m.rows)-1]
	if len(m.rows) != 16 || last.kind != rowGap || last.hidden != 10 {
		t.Fatalf("unexpected windowed rows (%d): %s", len(m.rows), rowKeys(m))
	}

	m, _ = press(m, "G", "enter")
	if m.rows[2].key() != "gap-6-above" || m.rows[2].hidden != 5 {
		t.Fatalf("expected gap above after scrolling; got %s", rowKeys(m))
	}
	if cur, _ := m.current(); cur.key() != "gap-6-below" {
		t.Fatalf("expected cursor to stay on the bottom gap; got %s", cur.key())
	}
}

func TestApp_SitePickerFilters(t *testing.T) {
	m, st, _ := newTestApp(t)
	if err := st.LoadSites(context.Background()); err != nil {
		t.Fatalf("load sites: %v", err)
	}
	m = deliver(m, stateChangedMsg{})
	if m.screen != screenSites {
		t.Fatalf("expected site picker first")
	}

	m, _ = press(m, "tor")
	m, cmd := press(m, "enter")
	m = settle(m, cmd)
	if m.snap.SiteID != "2" || m.screen != screenTree {
		t.Fatalf("expected Toronto (2) open; got site %q screen %v", m.snap.SiteID, m.screen)
	}
	if !strings.Contains(m.View(), "Toronto") {
		t.Fatalf("expected breadcrumb with site name")
	}
}

func TestApp_CopySelection(t *testing.T) {
	m, st, toasts := newTestApp(t)
	m = openSite(t, m, st, "1")
	var copied string
	m.copyFn = func(s string) error { copied = s; return nil }

	st.ToggleStreamSelection(2)
	st.ToggleStreamSelection(1)
	m = deliver(m, stateChangedMsg{})
	m, cmd := press(m, "y")
	m = settle(m, cmd)

	if copied != "1,2" {
		t.Fatalf("expected ids in tree order; got %q", copied)
	}
	if list := toasts.List(); len(list) != 1 || list[0].Message != "Copied 2 stream ids" {
		t.Fatalf("unexpected toasts: %+v", list)
	}
}

func TestApp_ViewShowsSelectionPanel(t *testing.T) {
	m, st, _ := newTestApp(t)
	m = openSite(t, m, st, "1")
	st.ToggleStreamSelection(2)
	m = deliver(m, stateChangedMsg{})

	out := m.View()
	for _, want := range []string{"San Jose", "Selected (1)", "Reception Desk", "Main Building"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected view to contain %q:\n%s", want, out)
		}
	}
}
