// Package tui is the interactive navigator: a site picker and the
// spaces/streams tree with checkboxes, optimistic add/delete and toasts.
package tui

import (
	"context"
	"errors"
	"io"

	"spacenav/internal/notify"
	"spacenav/internal/state"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Store *state.Store
	// Toasts is drained by the view. The store should notify into it.
	Toasts *notify.Queue
	// Site, when set, is opened directly instead of showing the site picker.
	Site string
	Log  logrus.FieldLogger
}

func Run(ctx context.Context, opts Options) error {
	if opts.Store == nil {
		return errors.New("tui: missing store")
	}
	if opts.Toasts == nil {
		opts.Toasts = notify.NewQueue()
	}
	if opts.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Log = l
	}
	applyColorProfilePreference()
	applyThemePreference()
	applyGlyphPreference()

	m := newAppModel(ctx, opts)
	defer m.unsubscribe()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
