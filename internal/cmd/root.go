// Package cmd wires polyls's github.com/spf13/cobra command tree: a root
// command with persistent cwd/config/debug flags, Execute as main's sole
// entrypoint, and the serve/schema subcommands that do the real work. This
// system has no interactive surface, just a server process.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/polyls/polyls/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "polyls",
	Short:   "Multi-backend LSP federation proxy",
	Version: version.Version,
	Long: `polyls federates multiple Language Server Protocol backends behind a
single HTTP API, picking the right backend per file and normalizing its
responses, with a structural AST matcher as a fallback for languages
without a live backend.`,
}

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Workspace root (defaults to the current directory)")
	rootCmd.PersistentFlags().StringP("config", "f", "", "Path to the polyls JSON config file")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd, schemaCmd)
}

// Execute runs the command tree; it is main's only responsibility.
func Execute() {
	setupLogger()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("polyls exited with error", "err", err)
		os.Exit(1)
	}
}

// setupLogger configures the default slog logger from the --debug flag,
// writing to stderr so stdout stays free for JSON HTTP bodies.
func setupLogger() {
	debug := false
	for _, arg := range os.Args[1:] {
		if arg == "--debug" || arg == "-d" {
			debug = true
			break
		}
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

func resolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		abs, err := filepath.Abs(cwd)
		if err != nil {
			return "", fmt.Errorf("resolve --cwd: %w", err)
		}
		return abs, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return wd, nil
}
