package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/polyls/polyls/internal/config"
	"github.com/polyls/polyls/internal/manager"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.py"), []byte("x = 1\n"), 0o644))

	cfg := &config.Config{
		WorkspaceRoot: root,
		LSP:           map[string]config.LSPConfig{},
		Watch: config.WatchConfig{
			Include: []string{"**/*.py"},
		},
	}
	mgr, err := manager.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Shutdown(t.Context()) })

	return New(mgr), root
}

func TestListFilesEndpointReturnsJSONArray(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/workspace/list-files", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var files []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
	require.Equal(t, []string{"main.py"}, files)
}

func TestDefinitionsInFileMissingFilePathIs400(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/symbol/definitions-in-file", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFindDefinitionUnsupportedLanguageIs500(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/symbol/find-definition?file_path=main.py&line=0&character=0", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	// No backend is configured for python in this test workspace, so
	// NotSupported surfaces as a 500.
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFindDefinitionMalformedPositionIs400(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/symbol/find-definition?file_path=main.py&line=nope&character=0", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
