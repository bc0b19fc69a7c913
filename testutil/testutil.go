// Package testutil provides shared helpers for helmwright tests: chart
// directory fixtures and an in-process push broker.
package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

// CreateChartDir lays out a minimal Helm chart under a temp directory and
// returns its path.
func CreateChartDir(t *testing.T, name string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(filepath.Join(dir, "templates"), 0755); err != nil {
		t.Fatalf("Failed to create chart layout: %v", err)
	}

	files := map[string]string{
		"Chart.yaml":  "apiVersion: v2\nname: " + name + "\nversion: 0.1.0\n",
		"values.yaml": "replicaCount: 1\nimage:\n  repository: nginx\n  tag: latest\n",
		filepath.Join("templates", "deployment.yaml"): "kind: Deployment\nmetadata:\n  name: " + name + "\n",
	}
	for rel, content := range files {
		if err := os.WriteFile(filepath.Join(dir, rel), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", rel, err)
		}
	}
	return dir
}

// WriteChartFile writes a file inside a chart directory, creating parent
// directories as needed.
func WriteChartFile(t *testing.T, chartDir, rel, content string) string {
	t.Helper()

	path := filepath.Join(chartDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", rel, err)
	}
	return path
}

// RandomString generates a random hex string of the specified length.
func RandomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)[:length]
}
