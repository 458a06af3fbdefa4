// Package schemadoc validates persisted migration documents against a
// JSON Schema before they are decoded, so structural mistakes surface
// with a precise field path instead of a zero-valued struct.
package schemadoc

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

const migrationSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["migration"],
  "properties": {
    "migration": {
      "type": "object",
      "required": ["name", "phases"],
      "properties": {
        "name": {"type": "string"},
        "database": {"type": "string", "enum": ["postgres", "mysql", "sqlite", ""]},
        "phases": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["phase", "operations"],
            "properties": {
              "phase": {"type": "integer", "minimum": 1},
              "description": {"type": "string"},
              "operations": {
                "type": "array",
                "items": {
                  "type": "object",
                  "required": ["type"],
                  "properties": {
                    "type": {"type": "string"},
                    "table": {"type": "string"},
                    "column": {"type": "string"},
                    "dataType": {"type": "string"},
                    "nullable": {"type": "boolean"},
                    "default": {"type": "string"},
                    "name": {"type": "string"},
                    "columns": {"type": "array", "items": {"type": "string"}},
                    "concurrent": {"type": "boolean"},
                    "constraint": {"type": "string"},
                    "refTable": {"type": "string"},
                    "refColumns": {"type": "array", "items": {"type": "string"}},
                    "set": {"type": "string"},
                    "flag": {"type": "string"}
                  }
                }
              },
              "validation": {
                "type": "array",
                "items": {
                  "type": "object",
                  "required": ["type", "table", "column"],
                  "properties": {
                    "type": {"type": "string"},
                    "table": {"type": "string"},
                    "column": {"type": "string"}
                  }
                }
              },
              "rollbackOperations": {"type": "array"}
            }
          }
        }
      }
    }
  }
}`

// Validate checks a YAML migration document against the embedded schema.
func Validate(doc []byte) error {
	var decoded any
	if err := yaml.Unmarshal(doc, &decoded); err != nil {
		return fmt.Errorf("failed to parse migration document: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(migrationSchema),
		gojsonschema.NewGoLoader(normalize(decoded)),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("invalid migration document: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// normalize rewrites yaml.v3 map types into JSON-compatible ones so the
// schema validator can marshal them.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprintf("%v", k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}
