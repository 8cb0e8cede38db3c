package lsp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasRootMarkers(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()

	require.True(t, HasRootMarkers(tmpDir, []string{}))
	require.False(t, HasRootMarkers(tmpDir, []string{"go.mod", "package.json"}))

	goModPath := filepath.Join(tmpDir, "go.mod")
	require.NoError(t, os.WriteFile(goModPath, []byte("module test"), 0o644))

	require.True(t, HasRootMarkers(tmpDir, []string{"go.mod", "package.json"}))
	require.False(t, HasRootMarkers(tmpDir, []string{"package.json", "Cargo.toml"}))

	require.True(t, HasRootMarkers(tmpDir, []string{"*.mod"}))
	require.False(t, HasRootMarkers(tmpDir, []string{"*.json"}))
}
