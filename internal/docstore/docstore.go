// Package docstore implements the workspace document store: a read-through
// cache over the workspace's file contents with tri-state cache semantics,
// include/exclude glob enumeration, and LSP-flavored sub-range extraction.
//
// Directory enumeration uses a fastwalk walk with doublestar glob matching.
// The cache itself is a csync.VersionedMap; its version counter gives
// callers a cheap way to notice a watcher-driven InvalidateAll happened
// without diffing the cache themselves.
package docstore

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"

	"github.com/polyls/polyls/internal/csync"
	"github.com/polyls/polyls/internal/filepathext"
	"github.com/polyls/polyls/internal/perr"
)

// entry is one cache slot: present-with-nil-content means "known to exist,
// not yet read"; present-with-non-nil means "content cached".
type entry struct {
	content *string
}

// Store is the workspace-wide document cache. The zero value is not usable;
// construct with New.
type Store struct {
	root string

	cache *csync.VersionedMap[string, *entry]

	patternsMu sync.RWMutex
	include    []string
	exclude    []string
}

// New returns a Store rooted at root with the given initial include/exclude
// glob patterns, matched against paths relative to root.
func New(root string, include, exclude []string) *Store {
	return &Store{
		root:    root,
		cache:   csync.NewVersionedMap[string, *entry](),
		include: append([]string(nil), include...),
		exclude: append([]string(nil), exclude...),
	}
}

// CacheVersion returns a counter that increments every time the cache is
// mutated (a read or ListFiles seeds an entry, Invalidate drops one, or the
// whole cache is cleared, as a matching watcher event does). Callers can use it to detect that something
// changed without re-reading the cache themselves.
func (s *Store) CacheVersion() uint64 { return s.cache.Version() }

// Read returns absPath's full content, or the substring named by rng if it
// is non-nil. A cache miss reads the file from disk and stores the full
// content regardless of rng, so a subsequent range read over the same file
// never touches disk again.
func (s *Store) Read(absPath string, rng *Range) (string, error) {
	content, err := s.readFull(absPath)
	if err != nil {
		return "", err
	}
	if rng == nil {
		return content, nil
	}
	return extractRange(content, *rng), nil
}

func (s *Store) readFull(absPath string) (string, error) {
	if e, tracked := s.cache.Get(absPath); tracked && e.content != nil {
		return *e.content, nil
	}

	raw, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", perr.Wrap(perr.NotFound, "read "+absPath, err)
		}
		return "", perr.Wrap(perr.IoError, "read "+absPath, err)
	}
	content := string(raw)

	s.cache.Set(absPath, &entry{content: &content})

	return content, nil
}

// ListFiles walks the workspace root and returns every absolute path
// matching the active include patterns and none of the exclude patterns.
// Every returned path is seeded into the cache as "known, not yet read" so
// a subsequent Read only needs to check whether content is already there.
func (s *Store) ListFiles() ([]string, error) {
	s.patternsMu.RLock()
	include := append([]string(nil), s.include...)
	exclude := append([]string(nil), s.exclude...)
	s.patternsMu.RUnlock()

	var results []string
	conf := fastwalk.Config{
		Follow:  false,
		ToSlash: fastwalk.DefaultToSlash(),
		Sort:    fastwalk.SortDirsFirst,
	}

	err := fastwalk.Walk(&conf, s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == s.root {
			return nil
		}

		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if matchesAny(exclude, rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if len(include) > 0 && !matchesAny(include, rel) {
			return nil
		}

		results = append(results, path)
		return nil
	})
	if err != nil {
		return nil, perr.Wrap(perr.IoError, "list workspace files", err)
	}

	sort.Strings(results)

	for _, path := range results {
		if _, exists := s.cache.Get(path); !exists {
			s.cache.Set(path, &entry{})
		}
	}

	return results, nil
}

func matchesAny(patterns []string, relPath string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, relPath); err == nil && ok {
			return true
		}
	}
	return false
}

// UpdatePatterns atomically replaces the include/exclude glob pairs and
// clears the cache, since any previously tracked path may no longer match.
func (s *Store) UpdatePatterns(include, exclude []string) {
	s.patternsMu.Lock()
	s.include = append([]string(nil), include...)
	s.exclude = append([]string(nil), exclude...)
	s.patternsMu.Unlock()
	s.cache.Clear()
}

// Invalidate drops absPath's cache entry, if any.
func (s *Store) Invalidate(absPath string) {
	s.cache.Del(absPath)
}

// InvalidateAll clears the entire cache. Called when a watcher event
// touches a path matching the active patterns, since the conservative
// response is to drop everything rather than track which entries are
// actually stale.
func (s *Store) InvalidateAll() {
	s.cache.Clear()
}

// Matches reports whether relPath (workspace-relative, forward-slashed)
// matches the active include/exclude patterns.
func (s *Store) Matches(relPath string) bool {
	s.patternsMu.RLock()
	include := s.include
	exclude := s.exclude
	s.patternsMu.RUnlock()

	relPath = filepath.ToSlash(relPath)
	if matchesAny(exclude, relPath) {
		return false
	}
	return len(include) == 0 || matchesAny(include, relPath)
}

// Root returns the workspace root this store was constructed with.
func (s *Store) Root() string { return s.root }

// AbsPath joins a workspace-relative path onto the root. A caller that
// already has an absolute path (an editor that resolved it itself, say)
// gets it back unchanged rather than double-joined.
func (s *Store) AbsPath(relPath string) string {
	return filepathext.SmartJoin(s.root, filepath.FromSlash(relPath))
}

// RelPath renders an absolute path (which must be under the workspace
// root) as a workspace-relative, forward-slashed path.
func (s *Store) RelPath(absPath string) (string, error) {
	rel, err := filepath.Rel(s.root, absPath)
	if err != nil {
		return "", perr.Wrap(perr.IoError, "compute relative path", err)
	}
	if strings.HasPrefix(rel, "..") {
		return "", perr.New(perr.NotFound, "path is outside the workspace: "+absPath)
	}
	return filepath.ToSlash(rel), nil
}
