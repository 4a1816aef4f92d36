package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ValidateDocument checks a raw arbor.yml document against the generated
// schema. The YAML is converted to JSON-compatible values first since the
// validator speaks JSON.
func ValidateDocument(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if doc == nil {
		return nil // empty file is a valid config
	}

	// Round-trip through JSON to normalize yaml types (map keys, numbers).
	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("normalize document: %w", err)
	}
	var normalized interface{}
	if err := json.Unmarshal(jsonDoc, &normalized); err != nil {
		return fmt.Errorf("normalize document: %w", err)
	}

	schemaJSON, err := SchemaJSON()
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("arbor.yml.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	schema, err := compiler.Compile("arbor.yml.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	if err := schema.Validate(normalized); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
