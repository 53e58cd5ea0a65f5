package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"spacenav/internal/api"
	"spacenav/internal/config"
	"spacenav/internal/format"
	"spacenav/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type App struct {
	ConfigFile string
	PrettyJSON bool
	Format     string

	cfg      config.Config
	log      *logrus.Logger
	closeLog func() error
}

// flagKeys maps flag names to config keys. Any command declaring one of these
// flags gets it bound over env and file values.
var flagKeys = map[string]string{
	"api-url":   "api_url",
	"log-level": "log_level",
	"log-file":  "log_file",
	"glyphs":    "tui.glyphs",
	"site":      "tui.site",
	"addr":      "serve.addr",
	"db":        "serve.db",
	"seed":      "serve.seed",
	"latency":   "serve.latency",
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "spacenav",
		Short:        "Browse sites, spaces and camera streams",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive navigator
  spacenav

  # Run a local backend with demo data
  spacenav serve --latency 500ms

  # Scriptable commands
  spacenav sites
  spacenav spaces --site 1 --text

  # Site shortcut (same as: spacenav spaces --site 1)
  spacenav @1
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.closeLog != nil {
			return app.closeLog()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ConfigFile, "config", envOr(config.EnvPrefix+"_CONFIG", ""), "Config file (default: ~/.config/spacenav/config.yaml)")
	cmd.PersistentFlags().String("api-url", "", "Backend base URL (default http://127.0.0.1:8000)")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().String("log-file", "", "Append logs to this file")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr(config.EnvPrefix+"_FORMAT", "json"), "Output format ("+strings.Join(format.Names, "|")+")")

	cmd.AddCommand(newTUICmd(app))
	cmd.AddCommand(newSitesCmd(app))
	cmd.AddCommand(newSpacesCmd(app))
	cmd.AddCommand(newStreamsCmd(app))
	cmd.AddCommand(newHealthCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

// setup resolves config (flags > env > file > defaults) and builds the logger.
func (app *App) setup(cmd *cobra.Command) error {
	file := app.ConfigFile
	if isConfigInit(cmd) {
		// The file may not exist yet.
		file = ""
	}
	v, err := config.New(file)
	if err != nil {
		return writeErr(cmd, err)
	}
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return writeErr(cmd, bindErr)
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return writeErr(cmd, err)
	}
	app.cfg = cfg

	// The TUI owns the terminal; without a log file its logs are dropped.
	var fallback io.Writer = cmd.ErrOrStderr()
	if isTUICommand(cmd) {
		fallback = io.Discard
	}
	log, closeFn, err := logging.New(cfg.LogLevel, cfg.LogFile, fallback)
	if err != nil {
		return writeErr(cmd, err)
	}
	app.log = log
	app.closeLog = closeFn
	log.WithFields(logrus.Fields{"command": cmd.CommandPath(), "config": cfg.File}).Debug("starting")
	return nil
}

func isConfigInit(cmd *cobra.Command) bool {
	return cmd.Name() == "init" && cmd.Parent() != nil && cmd.Parent().Name() == "config"
}

func isTUICommand(cmd *cobra.Command) bool {
	return cmd.Parent() == nil || cmd.Name() == "tui"
}

func (app *App) client() *api.Client {
	return api.New(app.cfg.APIURL, app.log)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

// writeData writes the standard {"data", "_hints"} envelope.
func writeData(cmd *cobra.Command, app *App, data any, hints ...string) error {
	if hints == nil {
		hints = []string{}
	}
	return writeOut(cmd, app, map[string]any{"data": data, "_hints": hints})
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
