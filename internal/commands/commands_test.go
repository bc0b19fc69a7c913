package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/helmwright/helmwright/config"
	"github.com/helmwright/helmwright/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "helmwright", "credentials")

	require.NoError(t, saveCredential(path, "hw_tok_abc123"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	token, err := loadCredential(path)
	require.NoError(t, err)
	assert.Equal(t, "hw_tok_abc123", token)
}

func TestLoadCredentialMissing(t *testing.T) {
	_, err := loadCredential(filepath.Join(t.TempDir(), "nope"))
	assert.Equal(t, errors.ErrCodeNotLoggedIn, errors.GetCode(err))
}

func TestLoadCredentialEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0600))

	_, err := loadCredential(path)
	assert.Equal(t, errors.ErrCodeNotLoggedIn, errors.GetCode(err))
}

func TestCredentialPathPrefersConfiguredTokenFile(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token")
	cfg := &config.Config{Push: &config.PushConfig{TokenFile: tokenFile}}

	assert.Equal(t, tokenFile, credentialPath(cfg))
}

func TestCredentialPathUsesXDGConfigHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "helmwright", "credentials"), credentialPath(nil))
}

func TestComponentFromLogFile(t *testing.T) {
	assert.Equal(t, "push", componentFromLogFile(".helmwright/logs/push-2026-08-30.log"))
	assert.Equal(t, "helmwright-cli", componentFromLogFile("helmwright-cli-2026-08-30.log"))
	assert.Equal(t, "router", componentFromLogFile("router.log"))
}

func TestFindLogFilesNewestPerComponent(t *testing.T) {
	dir := t.TempDir()

	old := filepath.Join(dir, "push-2026-08-29.log")
	newer := filepath.Join(dir, "push-2026-08-30.log")
	router := filepath.Join(dir, "router-2026-08-30.log")
	for _, path := range []string{old, newer, router} {
		require.NoError(t, os.WriteFile(path, []byte("line\n"), 0644))
	}
	past := time.Now().Add(-24 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	files, err := findLogFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{newer, router}, files)
}

func TestFindLogFilesComponentFilter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "push-2026-08-30.log"), []byte("a\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "router-2026-08-30.log"), []byte("b\n"), 0644))

	files, err := findLogFiles(dir, "router")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0], "router")
}

func TestFindLogFilesEmptyDir(t *testing.T) {
	_, err := findLogFiles(t.TempDir(), "")
	assert.Error(t, err)
}
