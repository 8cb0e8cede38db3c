package docstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/polyls/polyls/internal/perr"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestReadCachesFullContentOnMiss(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.go": "package main\n"})
	store := New(root, nil, nil)

	got, err := store.Read(filepath.Join(root, "a.go"), nil)
	require.NoError(t, err)
	require.Equal(t, "package main\n", got)

	_, tracked := store.cache.Get(filepath.Join(root, "a.go"))
	require.True(t, tracked)
}

func TestReadMissingFileIsNotFound(t *testing.T) {
	t.Parallel()

	store := New(t.TempDir(), nil, nil)
	_, err := store.Read("/does/not/exist.go", nil)
	require.Error(t, err)
	require.Equal(t, perr.NotFound, perr.KindOf(err))
}

func TestListFilesAppliesIncludeExclude(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.go":                "package main\n",
		"util.go":                "package main\n",
		"README.md":              "# hi\n",
		"node_modules/pkg/a.go":  "package pkg\n",
	})
	store := New(root, []string{"**/*.go"}, []string{"**/node_modules/**"})

	files, err := store.ListFiles()
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rel, err := store.RelPath(f)
		require.NoError(t, err)
		rels = append(rels, rel)
	}
	require.ElementsMatch(t, []string{"main.go", "util.go"}, rels)
}

func TestListFilesSeedsCacheWithoutReading(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.go": "package main\n"})
	store := New(root, nil, nil)

	_, err := store.ListFiles()
	require.NoError(t, err)

	e, tracked := store.cache.Get(filepath.Join(root, "a.go"))
	require.True(t, tracked)
	require.Nil(t, e.content)
}

func TestInvalidateAllClearsCache(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.go": "package main\n"})
	store := New(root, nil, nil)

	_, err := store.Read(filepath.Join(root, "a.go"), nil)
	require.NoError(t, err)

	store.InvalidateAll()

	require.Equal(t, 0, store.cache.Len())
}

func TestUpdatePatternsClearsCache(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.go": "package main\n"})
	store := New(root, []string{"**/*.go"}, nil)

	_, err := store.Read(filepath.Join(root, "a.go"), nil)
	require.NoError(t, err)

	store.UpdatePatterns([]string{"**/*.py"}, nil)

	require.Equal(t, 0, store.cache.Len())
	require.Equal(t, []string{"**/*.py"}, store.include)
}

func TestCacheVersionIncrementsOnInvalidate(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.go": "package main\n"})
	store := New(root, nil, nil)

	before := store.CacheVersion()
	_, err := store.Read(filepath.Join(root, "a.go"), nil)
	require.NoError(t, err)
	require.Greater(t, store.CacheVersion(), before)

	afterRead := store.CacheVersion()
	store.InvalidateAll()
	require.Greater(t, store.CacheVersion(), afterRead)
}

func TestRangeExtractionSingleLine(t *testing.T) {
	t.Parallel()

	got := extractRange("hello world\n", Range{
		Start: Position{Line: 0, Character: 6},
		End:   Position{Line: 0, Character: 11},
	})
	require.Equal(t, "world", got)
}

func TestRangeExtractionMultiLine(t *testing.T) {
	t.Parallel()

	content := "func main() {\n\tfmt.Println(\"hi\")\n}\n"
	got := extractRange(content, Range{
		Start: Position{Line: 0, Character: 5},
		End:   Position{Line: 2, Character: 1},
	})
	require.Equal(t, "main() {\n\tfmt.Println(\"hi\")\n}", got)
}

func TestRangeExtractionCharacterPastLineLengthClamps(t *testing.T) {
	t.Parallel()

	got := extractRange("short\n", Range{
		Start: Position{Line: 0, Character: 2},
		End:   Position{Line: 0, Character: 9999},
	})
	require.Equal(t, "ort", got)
}

func TestRangeExtractionStartLineBeyondContentIsEmpty(t *testing.T) {
	t.Parallel()

	got := extractRange("one\ntwo\n", Range{
		Start: Position{Line: 50, Character: 0},
		End:   Position{Line: 60, Character: 0},
	})
	require.Equal(t, "", got)
}

func TestRangeExtractionClampsEndLineToLastLine(t *testing.T) {
	t.Parallel()

	got := extractRange("one\ntwo\nthree", Range{
		Start: Position{Line: 0, Character: 0},
		End:   Position{Line: 100, Character: 0},
	})
	require.Equal(t, "one\ntwo\n", got)
}
