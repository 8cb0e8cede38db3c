// Package httpapi is a thin HTTP handler layer: query-parameter parsing and
// JSON encoding only, with every actual decision (path resolution, backend
// dispatch, error classification) delegated to internal/manager. It exists
// because a runnable binary needs a transport, but it carries no core logic
// of its own.
//
// Routing uses a plain *http.ServeMux and log/slog for access logging, no
// router framework. Request correlation ids use github.com/google/uuid.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/polyls/polyls/internal/docstore"
	"github.com/polyls/polyls/internal/manager"
	"github.com/polyls/polyls/internal/perr"
)

// Server wraps a *manager.Manager with its HTTP contract.
type Server struct {
	mgr *manager.Manager
	mux *http.ServeMux
}

// New builds a Server dispatching to mgr.
func New(mgr *manager.Manager) *Server {
	s := &Server{mgr: mgr, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /symbol/definitions-in-file", s.handleDefinitionsInFile)
	s.mux.HandleFunc("GET /symbol/find-definition", s.handleFindDefinition)
	s.mux.HandleFunc("GET /symbol/find-references", s.handleFindReferences)
	s.mux.HandleFunc("GET /symbol/diagnostics", s.handleDiagnostics)
	s.mux.HandleFunc("GET /workspace/list-files", s.handleListFiles)
	return s
}

// ServeHTTP implements http.Handler, dispatching into the mux and then
// logging the request with a correlation id, its status and its duration.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	start := time.Now()

	ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(ww, r)

	slog.Info("request",
		"id", reqID,
		"method", r.Method,
		"path", r.URL.Path,
		"status", ww.status,
		"duration", time.Since(start),
	)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// writeJSON encodes v as the response body with a 200 status.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}

// writeError maps err's perr.Kind to a status code: NotFound and
// BackendError are client errors (400, the backend-error response carrying
// the server's own message), and everything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	kind := perr.KindOf(err)
	status := http.StatusInternalServerError
	if kind == perr.NotFound || kind == perr.BackendError {
		status = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"kind":  string(kind),
	})
}

func queryPosition(r *http.Request) (docstore.Position, error) {
	line, err := strconv.Atoi(r.URL.Query().Get("line"))
	if err != nil {
		return docstore.Position{}, perr.New(perr.NotFound, "line must be an integer")
	}
	character, err := strconv.Atoi(r.URL.Query().Get("character"))
	if err != nil {
		return docstore.Position{}, perr.New(perr.NotFound, "character must be an integer")
	}
	return docstore.Position{Line: line, Character: character}, nil
}

// requestContext bounds each handler's backend calls to a generous overall
// deadline, independent of the per-call LSP timeouts internal/lsp already
// enforces.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 60*time.Second)
}
