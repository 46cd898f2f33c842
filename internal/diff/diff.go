// Package diff renders line-based text diffs for operator-facing output
// (change previews, dirty-state reports, rollback previews).
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Unified returns a line-oriented diff of two texts with -/+ prefixed
// lines, unchanged lines prefixed with two spaces. Returns "" when the
// texts are identical.
func Unified(before, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()

	// Line-mode diff: map lines to runes, diff, then map back. Much
	// better output than character diffs for JSON documents.
	beforeRunes, afterRunes, lines := dmp.DiffLinesToRunes(before, after)
	diffs := dmp.DiffMainRunes(beforeRunes, afterRunes, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range splitKeepNonEmpty(d.Text) {
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// splitKeepNonEmpty splits on newlines, dropping the trailing empty
// fragment produced by a terminal newline but keeping interior blanks.
func splitKeepNonEmpty(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
