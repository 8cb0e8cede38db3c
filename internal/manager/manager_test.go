package manager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/polyls/polyls/internal/config"
)

func newTestManager(t *testing.T, root string, cfg *config.Config) *Manager {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{WorkspaceRoot: root, LSP: map[string]config.LSPConfig{}}
	}
	m, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	return m
}

func TestLanguageForPathRecognizesExtensions(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"main.go":        "golang",
		"foo/bar.py":     "python",
		"app.tsx":        "typescript",
		"lib.rs":         "rust",
		"thing.cpp":      "cpp",
		"Main.java":      "java",
		"README.md":      "",
		"no_extension":   "",
	}

	for path, want := range cases {
		lang, ok := languageForPath(path)
		if want == "" {
			require.False(t, ok, path)
			continue
		}
		require.True(t, ok, path)
		require.Equal(t, want, lang)
	}
}

func TestListFilesReturnsWorkspaceRelativePaths(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "skip.go"), []byte(""), 0o644))

	cfg := &config.Config{
		WorkspaceRoot: root,
		LSP:           map[string]config.LSPConfig{},
		Watch: config.WatchConfig{
			Include: []string{"**/*.go"},
			Exclude: []string{"**/node_modules/**"},
		},
	}
	m := newTestManager(t, root, cfg)

	files, err := m.ListFiles()
	require.NoError(t, err)
	require.Equal(t, []string{"main.go"}, files)
}

func TestDefinitionsInFileFallsBackToMatcherWhenNoBackendConfigured(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	srcPath := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(srcPath, []byte("package main\nfunc main() {}\n"), 0o644))

	binDir := t.TempDir()
	binPath := filepath.Join(binDir, "fake-matcher")
	script := "#!/bin/sh\ncat <<'EOF'\n" +
		`[{"text":"main","range":{"start":{"line":1,"character":5},"end":{"line":1,"character":9}},"metaVariables":{}}]` +
		"\nEOF\n"
	require.NoError(t, os.WriteFile(binPath, []byte(script), 0o755))

	cfg := &config.Config{
		WorkspaceRoot: root,
		LSP:           map[string]config.LSPConfig{},
		MatcherBinary: binPath,
	}
	m := newTestManager(t, root, cfg)

	symbols, err := m.DefinitionsInFile(context.Background(), "main.go")
	require.NoError(t, err)
	require.NotEmpty(t, symbols)

	var found bool
	for _, s := range symbols {
		if s.Name == "main" {
			found = true
		}
	}
	require.True(t, found)
}

func TestDefinitionsInFileUnknownExtensionIsNotSupported(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	m := newTestManager(t, root, nil)

	_, err := m.DefinitionsInFile(context.Background(), "README.md")
	require.Error(t, err)
}
