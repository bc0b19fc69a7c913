package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

//go:generate go run ../tools/schema-generator/

// ServerConfig holds the endpoints for the hosted assistant.
type ServerConfig struct {
	APIURL  string `yaml:"api_url" json:"api_url" jsonschema:"description=Base URL of the assistant HTTP API" jsonschema_extras:"x-priority=1,x-important=true"`
	PushURL string `yaml:"push_url,omitempty" json:"push_url,omitempty" jsonschema:"description=WebSocket URL of the push broker (default: derived from api_url)" jsonschema_extras:"x-priority=2"`
}

// WorkspaceMapping binds a remote workspace to a local chart directory.
type WorkspaceMapping struct {
	ChartDir    string `yaml:"chart_dir" json:"chart_dir" jsonschema:"description=Local directory that receives chart files for this workspace" jsonschema_extras:"x-priority=1,x-important=true"`
	Name        string `yaml:"name,omitempty" json:"name,omitempty" jsonschema:"description=Display name for this workspace"`
	Description string `yaml:"description,omitempty" json:"description,omitempty" jsonschema:"description=Human-readable description of this workspace"`
}

// PushConfig tunes the push channel reconnect behavior. Zero values fall
// back to the built-in defaults.
type PushConfig struct {
	MaxAttempts    int    `yaml:"max_attempts,omitempty" json:"max_attempts,omitempty" jsonschema:"description=Reconnect attempts before giving up (default: 10)"`
	BaseDelayMs    int    `yaml:"base_delay_ms,omitempty" json:"base_delay_ms,omitempty" jsonschema:"description=Initial reconnect delay in milliseconds (default: 1000)"`
	MaxDelayMs     int    `yaml:"max_delay_ms,omitempty" json:"max_delay_ms,omitempty" jsonschema:"description=Reconnect delay ceiling in milliseconds (default: 30000)"`
	PingIntervalMs int    `yaml:"ping_interval_ms,omitempty" json:"ping_interval_ms,omitempty" jsonschema:"description=Keepalive ping interval in milliseconds (default: 25000)"`
	TokenFile      string `yaml:"token_file,omitempty" json:"token_file,omitempty" jsonschema:"description=Path to the API credential file (default: ~/.config/helmwright/credentials)"`
}

// WatcherConfig tunes the chart directory file watcher.
type WatcherConfig struct {
	Enabled    *bool `yaml:"enabled,omitempty" json:"enabled,omitempty" jsonschema:"description=Whether to watch chart directories for local edits (default: true)"`
	DebounceMs int   `yaml:"debounce_ms,omitempty" json:"debounce_ms,omitempty" jsonschema:"description=Debounce window for rapid file changes in milliseconds (default: 250)"`
}

// Config represents the helmwright.yml configuration
type Config struct {
	Version string `yaml:"version" json:"version" jsonschema:"description=Configuration version (e.g. 1.0)"`
	UserID  string `yaml:"user_id,omitempty" json:"user_id,omitempty" jsonschema:"description=Account identifier used for push channel subscriptions"`

	Server  *ServerConfig  `yaml:"server,omitempty" json:"server,omitempty" jsonschema:"description=Endpoints for the hosted assistant"`
	Push    *PushConfig    `yaml:"push,omitempty" json:"push,omitempty" jsonschema:"description=Push channel reconnect and keepalive tuning"`
	Watcher *WatcherConfig `yaml:"watcher,omitempty" json:"watcher,omitempty" jsonschema:"description=Chart directory watcher settings"`

	Workspaces map[string]WorkspaceMapping `yaml:"workspaces,omitempty" json:"workspaces,omitempty" jsonschema:"description=Map of workspace id to local chart directory mapping"`

	// Extensions captures all other top-level keys for extensibility.
	Extensions map[string]interface{} `yaml:",inline" json:"-" jsonschema:"-"`
}

// Default tuning values applied by SetDefaults.
const (
	DefaultMaxAttempts    = 10
	DefaultBaseDelayMs    = 1000
	DefaultMaxDelayMs     = 30000
	DefaultPingIntervalMs = 25000
	DefaultDebounceMs     = 250
)

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}

	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Push == nil {
		c.Push = &PushConfig{}
	}
	if c.Push.MaxAttempts == 0 {
		c.Push.MaxAttempts = DefaultMaxAttempts
	}
	if c.Push.BaseDelayMs == 0 {
		c.Push.BaseDelayMs = DefaultBaseDelayMs
	}
	if c.Push.MaxDelayMs == 0 {
		c.Push.MaxDelayMs = DefaultMaxDelayMs
	}
	if c.Push.PingIntervalMs == 0 {
		c.Push.PingIntervalMs = DefaultPingIntervalMs
	}

	if c.Watcher == nil {
		c.Watcher = &WatcherConfig{}
	}
	if c.Watcher.Enabled == nil {
		trueVal := true
		c.Watcher.Enabled = &trueVal
	}
	if c.Watcher.DebounceMs == 0 {
		c.Watcher.DebounceMs = DefaultDebounceMs
	}
}

// ChartDir returns the local chart directory mapped to the given workspace,
// or an empty string when no mapping exists.
func (c *Config) ChartDir(workspaceID string) string {
	if c.Workspaces == nil {
		return ""
	}
	return c.Workspaces[workspaceID].ChartDir
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded helmwright.yml into the provided target struct. The target must be
// a pointer. This provides a type-safe way for extensions to access their
// custom configuration sections.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		// The target struct will simply remain zero-valued.
		return nil
	}

	// Use mapstructure to decode the generic map[string]interface{}
	// into the strongly-typed target struct. We configure it to use
	// `yaml` tags for consistency.
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
