package watcher

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/patternmatcher"
)

// IgnoreMatcher filters paths against the chart's .helmignore patterns.
// The file uses .dockerignore-style glob syntax.
type IgnoreMatcher struct {
	pm *patternmatcher.PatternMatcher
}

// LoadIgnore reads .helmignore from chartDir. A missing file yields a
// matcher that ignores nothing.
func LoadIgnore(chartDir string) (*IgnoreMatcher, error) {
	data, err := os.ReadFile(filepath.Join(chartDir, ".helmignore"))
	if os.IsNotExist(err) {
		return NewIgnoreMatcher(nil)
	}
	if err != nil {
		return nil, err
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return NewIgnoreMatcher(patterns)
}

// NewIgnoreMatcher builds a matcher from raw patterns.
func NewIgnoreMatcher(patterns []string) (*IgnoreMatcher, error) {
	pm, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, err
	}
	return &IgnoreMatcher{pm: pm}, nil
}

// Matches reports whether a chart-relative path is ignored.
func (m *IgnoreMatcher) Matches(rel string) bool {
	if m == nil || m.pm == nil {
		return false
	}
	matched, err := m.pm.MatchesOrParentMatches(filepath.ToSlash(rel))
	if err != nil {
		return false
	}
	return matched
}
