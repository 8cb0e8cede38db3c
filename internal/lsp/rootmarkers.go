package lsp

import (
	"os"

	"github.com/bmatcuk/doublestar/v4"
)

// HasRootMarkers reports whether dir contains any file matching one of
// markers, each of which may be a plain filename or a doublestar glob
// pattern like "*.mod". An empty marker list is treated as always
// matching, so a backend with no configured root markers is never
// disqualified from a workspace.
func HasRootMarkers(dir string, markers []string) bool {
	if len(markers) == 0 {
		return true
	}

	fsys := os.DirFS(dir)
	for _, marker := range markers {
		matches, err := doublestar.Glob(fsys, marker)
		if err == nil && len(matches) > 0 {
			return true
		}
	}
	return false
}
