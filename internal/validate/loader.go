package validate

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultSchemaFile is where projects keep their requirement schema,
// relative to the project root.
const DefaultSchemaFile = "env-schema.json"

// LoadFile reads a requirement schema from a JSON file.
func LoadFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("failed to read schema file: %w", err)
	}

	var schema Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return Schema{}, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}
	return schema, nil
}
