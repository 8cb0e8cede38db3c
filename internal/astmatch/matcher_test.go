package astmatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/polyls/polyls/internal/perr"
	"github.com/stretchr/testify/require"
)

// fakeBinary writes an executable shell script at dir/name that prints body
// on stdout and exits with code.
func fakeBinary(t *testing.T, dir, name, body string, code int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\ncat <<'EOF'\n" + body + "\nEOF\nexit " + itoa(code) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	return string(rune('0' + n))
}

func TestScanParsesAndSortsMatches(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := `[
		{"text":"b","range":{"start":{"line":5,"character":0},"end":{"line":5,"character":1}},"metaVariables":{}},
		{"text":"a","range":{"start":{"line":1,"character":2},"end":{"line":1,"character":3}},"metaVariables":{}}
	]`
	bin := fakeBinary(t, dir, "astmatch-fake", out, 0)

	m := New(bin)
	matches, err := m.Scan(context.Background(), RuleSet{RuleVariableDeclarator: "(declarator) @x"}, RuleVariableDeclarator, "file.go")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, "a", matches[0].Text)
	require.Equal(t, "b", matches[1].Text)
}

func TestScanUnknownRuleKindIsNotSupported(t *testing.T) {
	t.Parallel()

	m := New("/bin/true")
	_, err := m.Scan(context.Background(), RuleSet{}, RuleEnumConstant, "file.go")
	require.Error(t, err)
	require.Equal(t, perr.NotSupported, perr.KindOf(err))
}

func TestScanNonZeroExitIsMatcherFailed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bin := fakeBinary(t, dir, "astmatch-fail", "boom", 1)

	m := New(bin)
	_, err := m.Scan(context.Background(), RuleSet{RuleVariableDeclarator: "x"}, RuleVariableDeclarator, "file.go")
	require.Error(t, err)
	require.Equal(t, perr.MatcherFailed, perr.KindOf(err))
}

func TestScanMalformedJSONIsMatcherBadOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bin := fakeBinary(t, dir, "astmatch-bad-json", "not json", 0)

	m := New(bin)
	_, err := m.Scan(context.Background(), RuleSet{RuleVariableDeclarator: "x"}, RuleVariableDeclarator, "file.go")
	require.Error(t, err)
	require.Equal(t, perr.MatcherBadOutput, perr.KindOf(err))
}
