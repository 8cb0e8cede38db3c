// Package manager implements the federation dispatcher: the registry of
// live backends keyed by language, lazy per-language construction, path
// translation, and the upward operations the HTTP layer calls.
//
// Construction is lazy-on-first-touch rather than eager, serialized per
// language with golang.org/x/sync/singleflight so two concurrent first
// requests for the same language only spawn one backend. The registry
// itself is a csync.Map, a generic read-write-locked map, rather than a
// hand-rolled mutex+map pair. Shutdown fans out concurrently with
// golang.org/x/sync/errgroup and reports the first backend error.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/polyls/polyls/internal/astmatch"
	"github.com/polyls/polyls/internal/config"
	"github.com/polyls/polyls/internal/csync"
	"github.com/polyls/polyls/internal/docstore"
	"github.com/polyls/polyls/internal/lsp"
	"github.com/polyls/polyls/internal/lsp/protocol"
	"github.com/polyls/polyls/internal/perr"
	"github.com/polyls/polyls/internal/watcher"
)

// extensionToLanguage is the closed table mapping a file extension to the
// language tag used to key backend configuration.
var extensionToLanguage = map[string]string{
	".py":   "python",
	".ts":   "typescript",
	".tsx":  "typescript",
	".js":   "typescript",
	".jsx":  "typescript",
	".rs":   "rust",
	".c":    "cpp",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".go":   "golang",
	".java": "java",
}

const initializeTimeout = 30 * time.Second

// Symbol is the normalized shape returned by DefinitionsInFile, whichever
// backend (semantic LSP server or the AST matcher) produced it.
type Symbol struct {
	Name               string
	Kind               string
	IdentifierPosition docstore.Position
	Range              docstore.Range
}

// FileRange is an absolute-path-free location returned upward: a
// workspace-relative path plus the range within it.
type FileRange struct {
	RelPath string
	Range   docstore.Range
}

// Manager owns the Document Store, the backend registry, and the AST
// matcher, and dispatches each upward operation to the right one.
type Manager struct {
	cfg     *config.Config
	store   *docstore.Store
	watch   *watcher.Watcher
	matcher *astmatch.Matcher

	backends *csync.Map[string, *lsp.Client]

	sf singleflight.Group
}

// New constructs a Manager over cfg. It starts the File Watcher and wires
// its events into the Document Store, but constructs no backends yet.
func New(cfg *config.Config) (*Manager, error) {
	store := docstore.New(cfg.WorkspaceRoot, cfg.Watch.Include, cfg.Watch.Exclude)

	w := watcher.New(cfg.WorkspaceRoot)
	if err := w.Start(); err != nil {
		return nil, perr.Wrap(perr.IoError, "start file watcher", err)
	}

	m := &Manager{
		cfg:      cfg,
		store:    store,
		watch:    w,
		matcher:  astmatch.New(cfg.MatcherBinary),
		backends: csync.NewMap[string, *lsp.Client](),
	}

	sub := w.Subscribe()
	go m.consumeWatchEvents(sub)

	return m, nil
}

func (m *Manager) consumeWatchEvents(sub chan watcher.Event) {
	for ev := range sub {
		rel, err := m.store.RelPath(ev.Path)
		if err != nil {
			continue
		}
		if !m.store.Matches(rel) {
			continue
		}
		m.store.InvalidateAll()

		for _, c := range m.backends.Seq2() {
			m.notifyBackendOfChange(c, ev)
		}
	}
}

func (m *Manager) notifyBackendOfChange(c *lsp.Client, ev watcher.Event) {
	ctx := context.Background()
	uri := protocol.URIFromPath(ev.Path)

	switch ev.Kind {
	case watcher.Deleted:
		params := protocol.DidChangeWatchedFilesParams{
			Changes: []protocol.FileEvent{{URI: uri, Type: protocol.FileChangeDeleted}},
		}
		if err := c.Notify("workspace/didChangeWatchedFiles", params); err != nil {
			slog.Warn("notify backend of delete failed", "backend", c.Name(), "err", err)
		}
	case watcher.Changed:
		if c.IsFileOpen(ev.Path) {
			if err := c.NotifyChange(ctx, ev.Path); err != nil {
				slog.Warn("notify backend of change failed", "backend", c.Name(), "err", err)
			}
			return
		}
		params := protocol.DidChangeWatchedFilesParams{
			Changes: []protocol.FileEvent{{URI: uri, Type: protocol.FileChangeChanged}},
		}
		_ = c.Notify("workspace/didChangeWatchedFiles", params)
	case watcher.Created:
		params := protocol.DidChangeWatchedFilesParams{
			Changes: []protocol.FileEvent{{URI: uri, Type: protocol.FileChangeCreated}},
		}
		_ = c.Notify("workspace/didChangeWatchedFiles", params)
	}
}

// languageForPath resolves path's language by its extension, or ("", false)
// if the extension isn't in the closed table.
func languageForPath(path string) (string, bool) {
	lang, ok := extensionToLanguage[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// backend lazily constructs (and initializes) the backend for language,
// serialized via singleflight so concurrent first-touches share one spawn.
func (m *Manager) backend(ctx context.Context, language string) (*lsp.Client, error) {
	if c, ok := m.backends.Get(language); ok {
		return c, nil
	}

	lspCfg, ok := m.cfg.LSP[language]
	if !ok || lspCfg.Disabled {
		return nil, perr.New(perr.NotSupported, fmt.Sprintf("no backend configured for %q", language))
	}

	result, err, _ := m.sf.Do(language, func() (any, error) {
		if c, ok := m.backends.Get(language); ok {
			return c, nil
		}

		if !lsp.HasRootMarkers(m.cfg.WorkspaceRoot, lspCfg.RootMarkers) {
			return nil, perr.New(perr.NotSupported, fmt.Sprintf("no root markers for %q in workspace", language))
		}

		client, err := lsp.NewClient(ctx, language, m.cfg.WorkspaceRoot, lspCfg.Command, lspCfg.Args, lspCfg.ResolvedEnv())
		if err != nil {
			return nil, perr.Wrap(perr.TransportFailed, fmt.Sprintf("spawn backend %q", language), err)
		}

		initCtx, cancel := context.WithTimeout(ctx, initializeTimeout)
		defer cancel()
		if _, err := client.Initialize(initCtx, m.cfg.WorkspaceRoot); err != nil {
			_ = client.Close(context.Background())
			return nil, err
		}

		m.backends.Set(language, client)

		return client, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*lsp.Client), nil
}

// backendWithRetry resolves language's backend like backend, but when the
// existing client has gone unhealthy (its read loop observed a transport
// failure) it evicts the dead client and respawns once instead of failing
// every subsequent request for that language.
func (m *Manager) backendWithRetry(ctx context.Context, language string) (*lsp.Client, error) {
	existing, ok := m.backends.Get(language)

	if ok && existing.State() == lsp.StateError {
		m.backends.Del(language)
		_ = existing.Close(ctx)
		slog.Warn("respawning unhealthy backend", "language", language)
	}

	return m.backend(ctx, language)
}

// ListFiles returns every file in the workspace matching the Document
// Store's active patterns, as workspace-relative paths.
func (m *Manager) ListFiles() ([]string, error) {
	abs, err := m.store.ListFiles()
	if err != nil {
		return nil, err
	}
	rels := make([]string, 0, len(abs))
	for _, a := range abs {
		rel, err := m.store.RelPath(a)
		if err != nil {
			continue
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

// Shutdown closes every live backend concurrently and stops the file
// watcher. Only the first backend error is returned; later ones are not
// reported. A failing backend does not stop the others from being closed,
// though once one fails the rest are closed with an already-cancelled
// context, which cuts their shutdown request short before the kill.
func (m *Manager) Shutdown(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for name, c := range m.backends.Seq2() {
		name, c := name, c
		g.Go(func() error {
			if err := c.Close(gctx); err != nil {
				return fmt.Errorf("closing backend %q: %w", name, err)
			}
			return nil
		})
	}
	err := g.Wait()
	m.backends.Clear()

	m.watch.Stop()
	return err
}
