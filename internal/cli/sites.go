package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func newSitesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List sites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sites, err := app.client().ListSites(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			hints := []string{}
			if len(sites) > 0 {
				hints = append(hints, "spacenav spaces --site "+sites[0].ID)
			}
			return writeData(cmd, app, sites, hints...)
		},
	}
}

func newHealthCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			if err := app.client().Health(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, map[string]any{
				"apiUrl":    app.cfg.APIURL,
				"ok":        true,
				"latencyMs": time.Since(start).Milliseconds(),
			})
		},
	}
}
