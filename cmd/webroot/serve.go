package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/webroot"
	"github.com/sagarc03/webroot/accesslog"
	"github.com/sagarc03/webroot/admin"
	"github.com/sagarc03/webroot/config"
	"github.com/sagarc03/webroot/database"
	"github.com/sagarc03/webroot/filesystem"
	"github.com/sagarc03/webroot/server"
	"github.com/sagarc03/webroot/session"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the file server",
	Long: `Start the webroot file server.

The server listens on a raw TCP socket and serves files from the web root.
With --access-log every exchange is written to the configured database, and
with --admin a small JSON API exposes health and the recorded exchanges.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("address", "", "listen address (default: 0.0.0.0)")
	serveCmd.Flags().Int("port", 0, "listen port (default: 8080)")
	serveCmd.Flags().Int("backlog", 0, "maximum concurrently served connections (default: 10)")
	serveCmd.Flags().Duration("read-timeout", 0, "close connections idle for this long, 0 disables")
	serveCmd.Flags().Bool("access-log", false, "record every exchange into the access log database")
	serveCmd.Flags().Bool("admin", false, "start the admin API")
	serveCmd.Flags().Int("admin-port", 0, "admin API port (default: 8081)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err = os.MkdirAll(cfg.Site.WebRoot, 0o750); err != nil {
		return fmt.Errorf("create web root: %w", err)
	}

	root, err := os.OpenRoot(cfg.Site.WebRoot)
	if err != nil {
		return fmt.Errorf("open web root: %w", err)
	}
	defer func() { _ = root.Close() }()

	rules, err := cfg.Site.Rules()
	if err != nil {
		return err
	}

	dispatcher, err := webroot.NewDispatcher(filesystem.NewFileStorage(root), rules)
	if err != nil {
		return fmt.Errorf("create dispatcher: %w", err)
	}

	srvCfg := server.Config{
		Address:     cfg.Server.Address,
		Port:        cfg.Server.Port,
		Backlog:     cfg.Server.Backlog,
		ReadTimeout: cfg.Server.ReadTimeout,
		Framer: session.Framer{
			MaxLineBytes:   cfg.Server.MaxRequestLine,
			MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		},
	}

	var (
		db     database.Database
		writer *accesslog.Writer
	)
	if cfg.AccessLog.Enabled {
		db, err = database.Open(ctx, cfg.AccessLog.Config)
		if err != nil {
			return fmt.Errorf("open access log: %w", err)
		}
		defer func() { _ = db.Close() }()

		writer, err = accesslog.NewWriter(db.GetRepo(), cfg.AccessLog.QueueSize)
		if err != nil {
			return fmt.Errorf("create access log writer: %w", err)
		}
		srvCfg.Recorder = writer
		slog.Info("access log enabled", "type", cfg.AccessLog.Type)
	}

	srv, err := server.New(dispatcher, srvCfg)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	if err = srv.Listen(); err != nil {
		return err
	}

	var adminSrv *http.Server
	if cfg.Admin.Enabled {
		adminSrv = newAdminServer(cfg, db)
		go func() {
			slog.Info("starting admin api", "addr", adminSrv.Addr)
			if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("admin api error", "err", err)
			}
		}()
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}

		slog.Info("shutting down server...")
		cancel()
	}()

	slog.Info("starting server",
		"addr", srv.Addr().String(),
		"web_root", cfg.Site.WebRoot,
		"backlog", srvCfg.Backlog,
	)

	serveErr := srv.Serve(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "err", err)
	}
	if adminSrv != nil {
		if err := adminSrv.Shutdown(shutdownCtx); err != nil {
			slog.Error("admin api shutdown error", "err", err)
		}
	}
	if writer != nil {
		if err := writer.Close(shutdownCtx); err != nil {
			slog.Error("access log flush error", "err", err)
		}
		stats := writer.Stats()
		slog.Info("access log closed", "written", stats.Written, "failed", stats.Failed, "dropped", stats.Dropped)
	}

	if serveErr != nil {
		return fmt.Errorf("server error: %w", serveErr)
	}
	return nil
}

func newAdminServer(cfg *config.Config, db database.Database) *http.Server {
	handlerCfg := admin.HandlerConfig{CORS: cfg.CORS}
	if db != nil {
		handlerCfg.Repo = db.GetRepo()
		handlerCfg.Checks = map[string]admin.Pinger{"access_log": db}
	}

	return &http.Server{
		Addr:         net.JoinHostPort(cfg.Admin.Address, strconv.Itoa(cfg.Admin.Port)),
		Handler:      admin.NewHandler(handlerCfg).Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
