package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema reflects the JSON schema for arbor.yml. Additional top-level
// properties stay allowed because tools hang their own extension sections off
// the same file.
func GenerateSchema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
	}
	return reflector.Reflect(&Config{})
}

// SchemaJSON returns the generated schema as indented JSON.
func SchemaJSON() ([]byte, error) {
	schema := GenerateSchema()
	return json.MarshalIndent(schema, "", "  ")
}
