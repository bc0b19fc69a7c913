package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/helmwright/helmwright/errors"
)

// supportedVersions lists the configuration versions this build understands.
var supportedVersions = map[string]bool{
	"1.0": true,
}

// Validate performs semantic validation beyond what the JSON schema covers:
// URL shapes, delay ordering, and workspace mapping completeness.
func (c *Config) Validate() error {
	if !supportedVersions[c.Version] {
		return errors.New(errors.ErrCodeConfigValidation,
			fmt.Sprintf("unsupported configuration version: %s", c.Version)).
			WithDetail("version", c.Version)
	}

	if c.Server != nil {
		if c.Server.APIURL != "" {
			if err := validateURL(c.Server.APIURL, "http", "https"); err != nil {
				return errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid server.api_url").
					WithDetail("api_url", c.Server.APIURL)
			}
		}
		if c.Server.PushURL != "" {
			if err := validateURL(c.Server.PushURL, "ws", "wss"); err != nil {
				return errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid server.push_url").
					WithDetail("push_url", c.Server.PushURL)
			}
		}
	}

	if c.Push != nil {
		if c.Push.MaxAttempts < 0 || c.Push.BaseDelayMs < 0 || c.Push.MaxDelayMs < 0 || c.Push.PingIntervalMs < 0 {
			return errors.New(errors.ErrCodeConfigValidation, "push delays and attempts must not be negative")
		}
		if c.Push.MaxDelayMs != 0 && c.Push.BaseDelayMs != 0 && c.Push.MaxDelayMs < c.Push.BaseDelayMs {
			return errors.New(errors.ErrCodeConfigValidation, "push.max_delay_ms must be at least push.base_delay_ms").
				WithDetail("base_delay_ms", c.Push.BaseDelayMs).
				WithDetail("max_delay_ms", c.Push.MaxDelayMs)
		}
	}

	if c.Watcher != nil && c.Watcher.DebounceMs < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "watcher.debounce_ms must not be negative")
	}

	for id, mapping := range c.Workspaces {
		if strings.TrimSpace(id) == "" {
			return errors.New(errors.ErrCodeConfigValidation, "workspace id must not be empty")
		}
		if strings.TrimSpace(mapping.ChartDir) == "" {
			return errors.New(errors.ErrCodeConfigValidation,
				fmt.Sprintf("workspace %s has no chart_dir", id)).
				WithDetail("workspaceId", id)
		}
	}

	return nil
}

// validateURL checks the value parses and uses one of the allowed schemes.
func validateURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in URL: %s", raw)
	}
	for _, scheme := range schemes {
		if u.Scheme == scheme {
			return nil
		}
	}
	return fmt.Errorf("URL scheme must be one of %s, got %q", strings.Join(schemes, "/"), u.Scheme)
}
