package docstore

import (
	"strings"
	"unicode/utf16"
)

// Position is a zero-based line and UTF-16-code-unit character offset,
// matching LSP's Position convention.
type Position struct {
	Line      int
	Character int
}

// Range is a half-open [Start, End) span over a document's lines.
type Range struct {
	Start Position
	End   Position
}

// extractRange implements the range-extraction algorithm verbatim: split on
// "\n", clamp end.line into range, take per-line slices by UTF-16 code unit
// offset, and join with "\n". Character offsets past a line's length are
// silently clamped to the line's length rather than erroring.
func extractRange(content string, r Range) string {
	lines := strings.Split(content, "\n")

	endLine := r.End.Line
	if endLine > len(lines)-1 {
		endLine = len(lines) - 1
	}
	if endLine < 0 {
		endLine = 0
	}

	startLine := r.Start.Line
	if startLine >= len(lines) {
		return ""
	}
	if startLine > endLine {
		return ""
	}

	var out []string
	for i := startLine; i <= endLine; i++ {
		line := lines[i]
		switch {
		case i == startLine && i == endLine:
			out = append(out, sliceUTF16(line, r.Start.Character, r.End.Character))
		case i == startLine:
			out = append(out, sliceUTF16(line, r.Start.Character, -1))
		case i == endLine:
			out = append(out, sliceUTF16(line, 0, r.End.Character))
		default:
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// sliceUTF16 returns the substring of line spanning UTF-16 code units
// [start, end). end == -1 means "through the end of the line". Offsets
// past the line's UTF-16 length clamp to that length rather than erroring.
func sliceUTF16(line string, start, end int) string {
	units := utf16.Encode([]rune(line))

	if start < 0 {
		start = 0
	}
	if start > len(units) {
		start = len(units)
	}

	if end < 0 {
		end = len(units)
	}
	if end > len(units) {
		end = len(units)
	}
	if end < start {
		end = start
	}

	return string(utf16.Decode(units[start:end]))
}
