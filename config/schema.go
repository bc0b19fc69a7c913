package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the base JSON Schema for the helmwright configuration.
// It reflects the Config struct from types.go but excludes the 'Extensions' field,
// which is left open for extension sections like 'logging'.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Unknown fields inside known sections are rejected; top-level
		// extension sections are validated by their owners.
		AllowAdditionalProperties: false,
		// Expand struct references instead of using $ref for cleaner base schema.
		ExpandedStruct: true,
		// Use YAML field names for property names
		FieldNameTag: "yaml",
	}

	// Create a temporary struct that omits the Extensions field
	// so it's not included in the base schema.
	type BaseConfig struct {
		Version    string                      `yaml:"version" jsonschema:"required,description=Configuration version (e.g. '1.0')"`
		UserID     string                      `yaml:"user_id,omitempty" jsonschema:"description=Account identifier used for push channel subscriptions"`
		Server     *ServerConfig               `yaml:"server,omitempty" jsonschema:"description=Endpoints for the hosted assistant"`
		Push       *PushConfig                 `yaml:"push,omitempty" jsonschema:"description=Push channel reconnect and keepalive tuning"`
		Watcher    *WatcherConfig              `yaml:"watcher,omitempty" jsonschema:"description=Chart directory watcher settings"`
		Workspaces map[string]WorkspaceMapping `yaml:"workspaces,omitempty" jsonschema:"description=Map of workspace id to local chart directory mapping"`
	}

	schema := r.Reflect(&BaseConfig{})
	schema.Title = "Helmwright Configuration"
	schema.Description = "Base schema for core helmwright.yml properties."
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(schema, "", "  ")
}
