package schema

// ExtensionSchemaURLs maps helmwright extension keys to the canonical URL of
// their JSON schema. Extension sections live under top-level keys in
// helmwright.yml (for example 'logging') and are validated by their owners;
// this manifest is used to compose their published schemas into a unified
// schema for validation and IDE support.
//
// Extension schemas are currently not published. Once they are hosted as
// release assets or through a schema hosting service, they can be added here.
var ExtensionSchemaURLs = map[string]string{
	// "logging": "https://schemas.helmwright.io/logging/v1.schema.json",
}
