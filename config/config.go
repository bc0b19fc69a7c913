package config

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/helmwright/helmwright/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads and parses a helmwright configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	return LoadFromBytes(data)
}

// LoadDefault finds and loads the configuration with hierarchical merging:
// 1. Global config (~/.config/helmwright/helmwright.yml) - base layer
// 2. Project config (helmwright.yml) - overrides global
// 3. Local override (helmwright.override.yml) - overrides all
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}

	return LoadFrom(cwd)
}

// LoadFrom loads configuration with hierarchical merging starting from the given directory
func LoadFrom(startDir string) (*Config, error) {
	return LoadFromWithLogger(startDir, logrus.New())
}

// LoadFromWithLogger loads configuration with hierarchical merging and logging
func LoadFromWithLogger(startDir string, logger *logrus.Logger) (*Config, error) {
	// Find project config file first (it's required)
	projectPath, err := FindConfigFile(startDir)
	if err != nil {
		return nil, err
	}

	logger.WithField("path", projectPath).Debug("Loading project configuration")

	// Start with an empty config
	var finalConfig *Config

	// 1. Load global config if it exists (optional)
	globalPath := getXDGConfigPath()
	if globalPath != "" {
		if _, err := os.Stat(globalPath); err == nil {
			logger.WithField("path", globalPath).Debug("Loading global configuration")
			// Load global config without validation/defaults (raw load)
			globalData, err := os.ReadFile(globalPath)
			if err == nil {
				expanded := expandEnvVars(string(globalData))
				var globalConfig Config
				if err := yaml.Unmarshal([]byte(expanded), &globalConfig); err == nil {
					finalConfig = &globalConfig
				} else {
					logger.WithError(err).Warn("Failed to parse global configuration, continuing without it")
				}
			} else {
				logger.WithError(err).Warn("Failed to read global configuration, continuing without it")
			}
		}
	}

	// 2. Load and merge project config (required) - also without defaults/validation
	projectData, err := os.ReadFile(projectPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read project config").
			WithDetail("path", projectPath)
	}

	expanded := expandEnvVars(string(projectData))
	var projectConfig Config
	if err := yaml.Unmarshal([]byte(expanded), &projectConfig); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse project config").
			WithDetail("path", projectPath)
	}

	if finalConfig == nil {
		finalConfig = &projectConfig
	} else {
		logger.Debug("Merging project configuration over global configuration")
		finalConfig = mergeConfigs(finalConfig, &projectConfig)
	}

	// 3. Load and merge override files if they exist (optional)
	projectDir := filepath.Dir(projectPath)
	overrideFiles := []string{
		filepath.Join(projectDir, "helmwright.override.yml"),
		filepath.Join(projectDir, "helmwright.override.yaml"),
		filepath.Join(projectDir, ".helmwright.override.yml"),
		filepath.Join(projectDir, ".helmwright.override.yaml"),
	}

	for _, overridePath := range overrideFiles {
		if _, err := os.Stat(overridePath); err == nil {
			logger.WithField("path", overridePath).Debug("Loading local override configuration")

			overrideData, err := os.ReadFile(overridePath)
			if err != nil {
				logger.WithError(err).Warn("Failed to read override file, skipping")
				continue
			}

			// Expand environment variables
			expanded := expandEnvVars(string(overrideData))

			var overrideConfig Config
			if err := yaml.Unmarshal([]byte(expanded), &overrideConfig); err != nil {
				logger.WithError(err).Warn("Failed to parse override file, skipping")
				continue
			}

			finalConfig = mergeConfigs(finalConfig, &overrideConfig)
		}
	}

	// Set defaults and validate
	finalConfig.SetDefaults()

	// Validate configuration
	if err := finalConfig.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("Configuration loaded and validated successfully")

	return finalConfig, nil
}

// LoadFromBytes parses configuration from byte array
func LoadFromBytes(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}

	// Validate against schema
	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to create validator")
	}

	if err := validator.Validate(&config); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigValidation, "schema validation failed")
	}

	// Set defaults
	config.SetDefaults()

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err // Already returns structured error from validation
	}

	return &config, nil
}

// FindConfigFile searches for helmwright configuration files with the following precedence:
// 1. Current directory up to filesystem root
// 2. Git repository root (if in a git repo)
// 3. XDG config directory (~/.config/helmwright/helmwright.yml)
func FindConfigFile(startDir string) (string, error) {
	configNames := []string{
		"helmwright.yml",
		"helmwright.yaml",
		".helmwright.yml",
		".helmwright.yaml",
	}

	// 1. Search from current directory up to filesystem root
	dir := startDir
	for {
		// Check each possible config name
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	// 2. Check git repository root if we're in a git repo
	if gitRoot, err := getGitRoot(startDir); err == nil && gitRoot != "" {
		for _, name := range configNames {
			path := filepath.Join(gitRoot, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}
	}

	// 3. Check XDG config directory
	if xdgConfigPath := getXDGConfigPath(); xdgConfigPath != "" {
		if info, err := os.Stat(xdgConfigPath); err == nil && !info.IsDir() {
			return xdgConfigPath, nil
		}
	}

	return "", errors.ConfigNotFound(startDir).WithDetail("searchPath", startDir)
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// getGitRoot attempts to find the git repository root
func getGitRoot(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// getXDGConfigPath returns the XDG config path for helmwright
func getXDGConfigPath() string {
	// Check XDG_CONFIG_HOME first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "helmwright", "helmwright.yml")
	}

	// Fall back to ~/.config
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", "helmwright", "helmwright.yml")
	}

	return ""
}

// mergeConfigs overlays the overlay config on top of the base config.
// Scalar fields in the overlay win when set; maps merge key by key.
func mergeConfigs(base, overlay *Config) *Config {
	merged := *base

	if overlay.Version != "" {
		merged.Version = overlay.Version
	}
	if overlay.UserID != "" {
		merged.UserID = overlay.UserID
	}

	if overlay.Server != nil {
		if merged.Server == nil {
			merged.Server = &ServerConfig{}
		} else {
			serverCopy := *merged.Server
			merged.Server = &serverCopy
		}
		if overlay.Server.APIURL != "" {
			merged.Server.APIURL = overlay.Server.APIURL
		}
		if overlay.Server.PushURL != "" {
			merged.Server.PushURL = overlay.Server.PushURL
		}
	}

	if overlay.Push != nil {
		if merged.Push == nil {
			merged.Push = &PushConfig{}
		} else {
			pushCopy := *merged.Push
			merged.Push = &pushCopy
		}
		if overlay.Push.MaxAttempts != 0 {
			merged.Push.MaxAttempts = overlay.Push.MaxAttempts
		}
		if overlay.Push.BaseDelayMs != 0 {
			merged.Push.BaseDelayMs = overlay.Push.BaseDelayMs
		}
		if overlay.Push.MaxDelayMs != 0 {
			merged.Push.MaxDelayMs = overlay.Push.MaxDelayMs
		}
		if overlay.Push.PingIntervalMs != 0 {
			merged.Push.PingIntervalMs = overlay.Push.PingIntervalMs
		}
		if overlay.Push.TokenFile != "" {
			merged.Push.TokenFile = overlay.Push.TokenFile
		}
	}

	if overlay.Watcher != nil {
		if merged.Watcher == nil {
			merged.Watcher = &WatcherConfig{}
		} else {
			watcherCopy := *merged.Watcher
			merged.Watcher = &watcherCopy
		}
		if overlay.Watcher.Enabled != nil {
			merged.Watcher.Enabled = overlay.Watcher.Enabled
		}
		if overlay.Watcher.DebounceMs != 0 {
			merged.Watcher.DebounceMs = overlay.Watcher.DebounceMs
		}
	}

	if len(overlay.Workspaces) > 0 {
		workspaces := make(map[string]WorkspaceMapping, len(merged.Workspaces)+len(overlay.Workspaces))
		for id, mapping := range merged.Workspaces {
			workspaces[id] = mapping
		}
		for id, mapping := range overlay.Workspaces {
			workspaces[id] = mapping
		}
		merged.Workspaces = workspaces
	}

	if len(overlay.Extensions) > 0 {
		extensions := make(map[string]interface{}, len(merged.Extensions)+len(overlay.Extensions))
		for key, value := range merged.Extensions {
			extensions[key] = value
		}
		for key, value := range overlay.Extensions {
			extensions[key] = value
		}
		merged.Extensions = extensions
	}

	return &merged
}
