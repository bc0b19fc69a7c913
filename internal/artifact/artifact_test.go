package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/helmwright/helmwright/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name     string
		chartDir string
		filePath string
		want     string
		wantErr  bool
	}{
		{
			name:     "plain relative path",
			chartDir: "/work/mychart",
			filePath: "templates/deployment.yaml",
			want:     filepath.Join("/work/mychart", "templates", "deployment.yaml"),
		},
		{
			name:     "duplicated chart dir segment is stripped",
			chartDir: "/work/mychart",
			filePath: "mychart/templates/deployment.yaml",
			want:     filepath.Join("/work/mychart", "templates", "deployment.yaml"),
		},
		{
			name:     "segment matching chart dir deeper in the path is kept",
			chartDir: "/work/mychart",
			filePath: "templates/mychart/notes.txt",
			want:     filepath.Join("/work/mychart", "templates", "mychart", "notes.txt"),
		},
		{
			name:     "empty path",
			chartDir: "/work/mychart",
			filePath: "",
			wantErr:  true,
		},
		{
			name:     "absolute path",
			chartDir: "/work/mychart",
			filePath: "/etc/passwd",
			wantErr:  true,
		},
		{
			name:     "traversal out of the chart dir",
			chartDir: "/work/mychart",
			filePath: "../other/values.yaml",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePath(tt.chartDir, tt.filePath)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeArtifactPath, errors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAcceptWritesOnlyOnExplicitAccept(t *testing.T) {
	chartDir := t.TempDir()
	absPath := filepath.Join(chartDir, "templates", "deployment.yaml")

	s := NewStore()
	s.Put(Pending{
		WorkspaceID: "ws_a",
		PlanID:      "plan_1",
		FilePath:    "mychart/templates/deployment.yaml",
		AbsPath:     absPath,
		Content:     "replicas: 3",
	})

	// Nothing on disk until the user accepts
	_, err := os.Stat(absPath)
	assert.True(t, os.IsNotExist(err), "content must not be written before accept")

	require.NoError(t, s.Accept("mychart/templates/deployment.yaml", false))

	data, err := os.ReadFile(absPath)
	require.NoError(t, err)
	assert.Equal(t, "replicas: 3", string(data))

	// The entry is cleared once applied
	_, ok := s.Get("mychart/templates/deployment.yaml")
	assert.False(t, ok)
}

func TestRejectDiscardsWithoutWriting(t *testing.T) {
	chartDir := t.TempDir()
	absPath := filepath.Join(chartDir, "values.yaml")

	s := NewStore()
	s.Put(Pending{FilePath: "values.yaml", AbsPath: absPath, Content: "replicaCount: 2"})

	require.NoError(t, s.Reject("values.yaml"))

	_, err := os.Stat(absPath)
	assert.True(t, os.IsNotExist(err))
	assert.Zero(t, s.Len())
}

func TestAcceptUnknownPath(t *testing.T) {
	s := NewStore()
	err := s.Accept("nope.yaml", false)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePendingNotFound, errors.GetCode(err))
}

func TestAcceptRefusesDirtyFile(t *testing.T) {
	chartDir := t.TempDir()
	absPath := filepath.Join(chartDir, "values.yaml")
	require.NoError(t, os.WriteFile(absPath, []byte("replicaCount: 1"), 0644))

	s := NewStore()
	s.Put(Pending{FilePath: "values.yaml", AbsPath: absPath, Content: "replicaCount: 2"})

	// The user edits the file locally while the content awaits review
	require.NoError(t, os.WriteFile(absPath, []byte("replicaCount: 7"), 0644))
	s.MarkDirty(absPath)

	err := s.Accept("values.yaml", false)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeLocalEditNewer, errors.GetCode(err))

	// The local edit survives
	data, err := os.ReadFile(absPath)
	require.NoError(t, err)
	assert.Equal(t, "replicaCount: 7", string(data))

	// Force overrides
	require.NoError(t, s.Accept("values.yaml", true))
	data, err = os.ReadFile(absPath)
	require.NoError(t, err)
	assert.Equal(t, "replicaCount: 2", string(data))
}

func TestClearOnWorkspaceSwitch(t *testing.T) {
	s := NewStore()
	s.Put(Pending{FilePath: "a.yaml", AbsPath: "/tmp/a.yaml", Content: "a"})
	s.Put(Pending{FilePath: "b.yaml", AbsPath: "/tmp/b.yaml", Content: "b"})
	require.Equal(t, 2, s.Len())

	s.Clear()
	assert.Zero(t, s.Len())
}

func TestDiff(t *testing.T) {
	chartDir := t.TempDir()
	absPath := filepath.Join(chartDir, "values.yaml")
	require.NoError(t, os.WriteFile(absPath, []byte("replicaCount: 1\nimage: nginx\n"), 0644))

	s := NewStore()
	s.Put(Pending{FilePath: "values.yaml", AbsPath: absPath, Content: "replicaCount: 3\nimage: nginx\n"})

	lines, err := s.Diff("values.yaml")
	require.NoError(t, err)

	rendered := RenderDiff(lines)
	assert.Contains(t, rendered, "-replicaCount: 1")
	assert.Contains(t, rendered, "+replicaCount: 3")
	assert.Contains(t, rendered, " image: nginx")
}

func TestDiffAgainstMissingFile(t *testing.T) {
	s := NewStore()
	s.Put(Pending{FilePath: "new.yaml", AbsPath: filepath.Join(t.TempDir(), "new.yaml"), Content: "kind: Service\n"})

	lines, err := s.Diff("new.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, lines)
	assert.Equal(t, '+', lines[0].Op)
}

func TestEnsureFile(t *testing.T) {
	dir := t.TempDir()
	absPath := filepath.Join(dir, "templates", "empty.yaml")

	require.NoError(t, EnsureFile(absPath))
	info, err := os.Stat(absPath)
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	// Existing content is left alone
	require.NoError(t, os.WriteFile(absPath, []byte("kept"), 0644))
	require.NoError(t, EnsureFile(absPath))
	data, err := os.ReadFile(absPath)
	require.NoError(t, err)
	assert.Equal(t, "kept", string(data))
}
