package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/polyls/polyls/internal/config"
	"github.com/polyls/polyls/internal/httpapi"
	"github.com/polyls/polyls/internal/manager"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Boot the Manager and its HTTP API",
	Long: `serve loads the workspace configuration, starts the Document Store and
File Watcher, and listens for HTTP requests. LSP backends are not spawned
until the first request that needs one; the AST matcher runs per call with
no persistent process.`,
	Example: `
# Serve the current directory
polyls serve

# Serve a specific workspace with a config file
polyls serve --cwd /path/to/project --config ./polyls.json

# Serve on a custom address
polyls serve --addr :9000
  `,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "HTTP listen address (overrides the config file's addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cwd, err := resolveCwd(cmd)
	if err != nil {
		return err
	}
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = os.Getenv("POLYLS_CONFIG")
	}
	if configPath == "" {
		if _, statErr := os.Stat("polyls.json"); statErr == nil {
			configPath = "polyls.json"
		}
	}

	configMgr := config.NewManager()
	cfg, err := configMgr.Init(configPath, cwd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Debug = true
	}
	if cfg.Debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	mgr, err := manager.New(cfg)
	if err != nil {
		return fmt.Errorf("start manager: %w", err)
	}

	return serveUntilInterrupted(cmd.Context(), cfg, mgr)
}

func serveUntilInterrupted(ctx context.Context, cfg *config.Config, mgr *manager.Manager) error {
	handler := httpapi.New(mgr)
	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("polyls listening", "addr", cfg.Addr, "workspace", cfg.WorkspaceRoot)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		shutdownManager(mgr)
		return err
	case <-sigCtx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http server shutdown", "err", err)
	}

	shutdownManager(mgr)
	return <-serveErr
}

func shutdownManager(mgr *manager.Manager) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := mgr.Shutdown(ctx); err != nil {
		slog.Warn("manager shutdown", "err", err)
	}
}
