package artifact

import (
	"path/filepath"
	"strings"

	"github.com/helmwright/helmwright/errors"
)

// ResolvePath combines the workspace's local chart directory with an
// event-relative file path to produce the on-disk location.
//
// The server-side path and the local mapping can both include the chart
// folder name, producing a doubled segment like
// "mychart/templates/deployment.yaml" under ".../mychart". The duplicated
// leading segment is stripped before joining. This is a workaround for a
// producer-side path construction bug, not a contract; remove it once the
// server stops prefixing the chart directory.
func ResolvePath(chartDir, filePath string) (string, error) {
	if filePath == "" {
		return "", errors.ArtifactPath(filePath, "empty file path")
	}

	rel := filepath.ToSlash(filepath.Clean(filePath))
	if filepath.IsAbs(filePath) || strings.HasPrefix(rel, "../") || rel == ".." {
		return "", errors.ArtifactPath(filePath, "path escapes the chart directory")
	}

	if base := filepath.Base(chartDir); base != "" && base != "." {
		if rel == base {
			return "", errors.ArtifactPath(filePath, "path resolves to the chart directory itself")
		}
		rel = strings.TrimPrefix(rel, base+"/")
	}

	resolved := filepath.Join(chartDir, filepath.FromSlash(rel))

	// Clean can still fold the result outside chartDir when the input is
	// hostile; re-check after the join.
	absChart, err := filepath.Abs(chartDir)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeArtifactPath, "failed to resolve chart directory")
	}
	absResolved, err := filepath.Abs(resolved)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeArtifactPath, "failed to resolve file path")
	}
	if absResolved != absChart && !strings.HasPrefix(absResolved, absChart+string(filepath.Separator)) {
		return "", errors.ArtifactPath(filePath, "path escapes the chart directory")
	}

	return resolved, nil
}
