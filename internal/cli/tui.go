package cli

import (
	"spacenav/internal/notify"
	"spacenav/internal/state"
	"spacenav/internal/tui"

	"github.com/spf13/cobra"
)

func newTUICmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive navigator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}
	cmd.Flags().String("site", "", "Open this site directly (default: tui.site from config)")
	cmd.Flags().String("glyphs", "", "Glyph set (unicode|ascii)")
	return cmd
}

func runTUI(cmd *cobra.Command, app *App) error {
	policy, err := app.cfg.WindowPolicy()
	if err != nil {
		return writeErr(cmd, err)
	}
	if err := tui.SetGlyphs(app.cfg.TUI.Glyphs); err != nil {
		return writeErr(cmd, err)
	}

	client := app.client()
	toasts := notify.NewQueue()
	st := state.New(state.Options{
		Fetcher:  client,
		Writer:   client,
		Notifier: notify.Multi{toasts, notify.LogNotifier{Log: app.log}},
		Logger:   app.log,
		Window:   policy,
	})
	app.log.WithField("apiUrl", app.cfg.APIURL).Info("starting navigator")

	return tui.Run(cmd.Context(), tui.Options{
		Store:  st,
		Toasts: toasts,
		Site:   app.cfg.TUI.Site,
		Log:    app.log,
	})
}
