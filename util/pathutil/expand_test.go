package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := Expand("~/charts")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "charts"), got)
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("HELMWRIGHT_TEST_DIR", "/opt/charts")

	got, err := Expand("$HELMWRIGHT_TEST_DIR/mychart")
	require.NoError(t, err)
	assert.Equal(t, "/opt/charts/mychart", got)
}

func TestExpandRelativeIsAbsolute(t *testing.T) {
	got, err := Expand("charts/mychart")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}
