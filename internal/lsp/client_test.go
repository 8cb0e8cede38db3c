package lsp

import (
	"context"
	"os"
	"testing"

	"github.com/polyls/polyls/internal/lsp/protocol"
	"github.com/stretchr/testify/require"
)

func TestHandlesFileMatchesConfiguredExtensions(t *testing.T) {
	t.Parallel()

	c := &Client{}
	require.True(t, c.HandlesFile(nil, "main.go"))
	require.True(t, c.HandlesFile([]string{"go", ".rs"}, "main.go"))
	require.True(t, c.HandlesFile([]string{"go", ".rs"}, "lib.rs"))
	require.False(t, c.HandlesFile([]string{"go"}, "main.py"))
}

func TestIsMethodSupportedBeforeCapabilitiesPermissive(t *testing.T) {
	t.Parallel()

	c := &Client{}
	require.True(t, c.IsMethodSupported("textDocument/definition"))
}

func TestIsMethodSupportedRespectsAdvertisedCapabilities(t *testing.T) {
	t.Parallel()

	c := &Client{}
	c.setCapabilities(protocol.ServerCapabilities{
		DefinitionProvider: []byte("true"),
	})

	require.True(t, c.IsMethodSupported("textDocument/definition"))
	require.False(t, c.IsMethodSupported("textDocument/references"))
	require.True(t, c.IsMethodSupported("initialize"))
}

func TestCloseBeforeReadyJustKillsProcess(t *testing.T) {
	t.Parallel()

	c, err := NewClient(context.Background(), "cat-backend", "", "cat", nil, nil)
	require.NoError(t, err)
	require.Equal(t, StateStarting, c.State())

	require.NoError(t, c.Close(context.Background()))
	require.Equal(t, StateShutdown, c.State())
}

func TestInitializeRejectsSecondCall(t *testing.T) {
	t.Parallel()

	c, err := NewClient(context.Background(), "cat-backend", "", "cat", nil, nil)
	require.NoError(t, err)
	defer c.Close(context.Background())

	c.initialized.Store(true)
	_, err = c.Initialize(context.Background(), t.TempDir())
	require.Error(t, err)
}

func TestOpenNotifyCloseFileLifecycle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := dir + "/main.go"
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0o644))

	c, err := NewClient(context.Background(), "cat-backend", "", "cat", nil, nil)
	require.NoError(t, err)
	defer c.Close(context.Background())

	require.False(t, c.IsFileOpen(path))
	require.NoError(t, c.OpenFile(context.Background(), path, "go"))
	require.True(t, c.IsFileOpen(path))

	require.NoError(t, os.WriteFile(path, []byte("package main\n\nfunc main() {}\n"), 0o644))
	require.NoError(t, c.NotifyChange(context.Background(), path))

	require.NoError(t, c.CloseFile(context.Background(), path))
	require.False(t, c.IsFileOpen(path))
}
