package cli

import (
	"strings"

	"spacenav/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: strings.TrimSpace(`
Print the configuration after merging defaults, the config file,
SPACENAV_* environment variables and flags.
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Path()
			if err != nil {
				return writeErr(cmd, err)
			}
			hints := []string{}
			if app.cfg.File == "" {
				hints = append(hints, "spacenav config init  # writes "+path)
			}
			return writeData(cmd, app, app.cfg, hints...)
		},
	}
	cmd.AddCommand(newConfigInitCmd(app))
	return cmd
}

func newConfigInitCmd(app *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(app.ConfigFile)
			if path == "" {
				p, err := config.Path()
				if err != nil {
					return writeErr(cmd, err)
				}
				path = p
			}
			if err := config.WriteDefault(path, force); err != nil {
				return writeErr(cmd, err)
			}
			return writeData(cmd, app, map[string]any{"path": path, "written": true})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
