package commands

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/helmwright/helmwright/config"
	"github.com/helmwright/helmwright/errors"
	"github.com/helmwright/helmwright/util/pathutil"
)

// credentialPath returns where the API credential lives: the configured
// token_file when set, otherwise ~/.config/helmwright/credentials.
func credentialPath(cfg *config.Config) string {
	if cfg != nil && cfg.Push != nil && cfg.Push.TokenFile != "" {
		if expanded, err := pathutil.Expand(cfg.Push.TokenFile); err == nil {
			return expanded
		}
		return cfg.Push.TokenFile
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".helmwright", "credentials")
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "helmwright", "credentials")
}

// saveCredential writes the API token with owner-only permissions.
func saveCredential(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token+"\n"), 0600)
}

// loadCredential reads the stored API token.
func loadCredential(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", errors.NotLoggedIn()
	}
	if err != nil {
		return "", err
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", errors.NotLoggedIn()
	}
	return token, nil
}
