package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir string, cfg map[string]any) string {
	t.Helper()
	path := filepath.Join(dir, "polyls.json")
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestLoadRequiresWorkspaceRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, map[string]any{})
	_, err := Load(path, "")
	require.Error(t, err)
}

func TestLoadRejectsRelativeWorkspaceRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, map[string]any{"workspace_root": "relative/path"})
	_, err := Load(path, "")
	require.Error(t, err)
}

func TestLoadAppliesLSPDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, map[string]any{
		"workspace_root": dir,
		"lsp": map[string]any{
			"golang": map[string]any{"command": "gopls", "args": []string{"serve"}},
		},
	})

	cfg, err := Load(path, "")
	require.NoError(t, err)

	golang := cfg.LSP["golang"]
	require.Equal(t, []string{"go"}, golang.FileTypes)
	require.Equal(t, []string{"go.mod", "go.work"}, golang.RootMarkers)
	require.Contains(t, cfg.Watch.Include, "**/*.go")
	require.Contains(t, cfg.Watch.Exclude, "**/node_modules")
	require.Equal(t, "ast-grep", cfg.MatcherBinary)
	require.Equal(t, ":4583", cfg.Addr)
}

func TestWorkspaceRootFlagOverridesConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	other := t.TempDir()
	path := writeConfig(t, dir, map[string]any{"workspace_root": dir})

	cfg, err := Load(path, other)
	require.NoError(t, err)
	require.Equal(t, other, cfg.WorkspaceRoot)
}

func TestManagerGetReturnsNilBeforeInit(t *testing.T) {
	t.Parallel()

	m := NewManager()
	require.Nil(t, m.Get())
}

func TestManagerInitThenGet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, map[string]any{"workspace_root": dir})

	m := NewManager()
	cfg, err := m.Init(path, "")
	require.NoError(t, err)
	require.Same(t, cfg, m.Get())
}
