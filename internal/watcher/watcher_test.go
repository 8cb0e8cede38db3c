package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherBroadcastsFileCreation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := New(dir)
	w.debounce = 20 * time.Millisecond
	require.NoError(t, w.Start())
	defer w.Stop()

	sub := w.Subscribe()
	defer w.Unsubscribe(sub)

	path := filepath.Join(dir, "new.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0o644))

	select {
	case ev := <-sub:
		require.Equal(t, path, ev.Path)
		require.Equal(t, Created, ev.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for create event")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	w := New(t.TempDir())
	sub := w.Subscribe()
	w.Unsubscribe(sub)

	_, ok := <-sub
	require.False(t, ok)
}
