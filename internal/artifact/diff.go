package artifact

import (
	"os"
	"strings"

	"github.com/helmwright/helmwright/errors"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffLine is one line of a review diff.
type DiffLine struct {
	Op   rune // '+', '-', or ' '
	Text string
}

// Diff computes a line-level diff between the file currently on disk and
// the pending content. A missing file diffs against empty, so a brand-new
// artifact shows as all additions.
func (s *Store) Diff(filePath string) ([]DiffLine, error) {
	p, ok := s.Get(filePath)
	if !ok {
		return nil, errors.PendingNotFound(filePath)
	}

	var current string
	data, err := os.ReadFile(p.AbsPath)
	if err == nil {
		current = string(data)
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	return diffLines(current, p.Content), nil
}

// RenderDiff formats a diff the way unified patches read, one prefixed
// line per row.
func RenderDiff(lines []DiffLine) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteRune(line.Op)
		b.WriteString(line.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// diffLines runs a character diff over line tokens so whole lines are the
// unit of change.
func diffLines(old, new string) []DiffLine {
	dmp := diffmatchpatch.New()
	oldChars, newChars, lineArray := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffMain(oldChars, newChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var result []DiffLine
	for _, d := range diffs {
		op := ' '
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = '+'
		case diffmatchpatch.DiffDelete:
			op = '-'
		}
		for _, text := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			result = append(result, DiffLine{Op: op, Text: text})
		}
	}
	return result
}
