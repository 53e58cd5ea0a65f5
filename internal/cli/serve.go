package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"spacenav/internal/config"
	"spacenav/internal/server"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local sites/spaces/streams backend",
		Long: strings.TrimSpace(`
Run a local HTTP backend speaking the same API the navigator talks to.

Data lives in SQLite (in memory unless --db is a file). An empty database is
loaded from the built-in demo seed, or from --seed (YAML).

--latency delays every write so optimistic updates are visible in the TUI.
`),
		Example: strings.TrimSpace(`
# Demo data in memory on the default address
spacenav serve

# Persist to a file, with slow writes
spacenav serve --db ./spaces.db --latency 750ms
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, handler, err := openBackend(ctx, app.cfg.Serve, app.log)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer db.Close()

			listenAddr := strings.TrimSpace(app.cfg.Serve.Addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("serve: missing --addr"))
			}
			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}

			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr
			_ = writeData(cmd, app, map[string]any{
				"addr":      actualAddr,
				"url":       url,
				"db":        app.cfg.Serve.DB,
				"latency":   app.cfg.Serve.Latency.String(),
				"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
			}, "spacenav --api-url "+url)
			fmt.Fprintf(cmd.ErrOrStderr(), "spacenav backend running at %s\n", url)

			return serveUntilDone(ctx, ln, handler)
		},
	}

	def := config.Defaults().Serve
	cmd.Flags().String("addr", def.Addr, "Bind address (host:port or :port)")
	cmd.Flags().String("db", def.DB, "SQLite database path (:memory: for throwaway)")
	cmd.Flags().String("seed", "", "YAML seed file for an empty database (default: built-in demo)")
	cmd.Flags().Duration("latency", 0, "Artificial delay before each write")
	return cmd
}

// openBackend opens (and seeds when empty) the database and returns the
// HTTP handler serving it.
func openBackend(ctx context.Context, cfg config.ServeConfig, log logrus.FieldLogger) (*server.DB, http.Handler, error) {
	var (
		seed server.Seed
		err  error
	)
	if strings.TrimSpace(cfg.Seed) != "" {
		seed, err = server.LoadSeed(cfg.Seed)
	} else {
		seed, err = server.DefaultSeed()
	}
	if err != nil {
		return nil, nil, err
	}

	db, err := server.Open(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	loaded, err := db.SeedIfEmpty(ctx, seed)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("seed: %w", err)
	}
	log.WithFields(logrus.Fields{"db": cfg.DB, "seeded": loaded}).Info("backend ready")

	srv := server.New(db, server.Config{Latency: cfg.Latency, Logger: log})
	return db, srv.Handler(), nil
}

// serveUntilDone serves on ln until ctx is cancelled, then shuts down.
func serveUntilDone(ctx context.Context, ln net.Listener, handler http.Handler) error {
	httpSrv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
