package api

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// newSaveSchema compiles the JSON Schema for POST /chat/save bodies. The
// schema enforces request shape only: messages must be a non-empty array of
// {role, content} objects. Content is checked for non-emptiness, nothing more.
func newSaveSchema() (*gojsonschema.Schema, error) {
	schemaMap := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"sessionId": map[string]interface{}{
				"type": "string",
			},
			"timestamp": map[string]interface{}{
				"type": "string",
			},
			"metadata": map[string]interface{}{
				"type": "object",
			},
			"messages": map[string]interface{}{
				"type":     "array",
				"minItems": 1,
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"role": map[string]interface{}{
							"type": "string",
							"enum": []interface{}{"user", "model"},
						},
						"content": map[string]interface{}{
							"type":      "string",
							"minLength": 1,
						},
						"timestamp": map[string]interface{}{
							"type": "string",
						},
					},
					"required": []string{"role", "content"},
				},
			},
		},
		"required": []string{"messages"},
	}

	schemaLoader := gojsonschema.NewGoLoader(schemaMap)
	schema, err := gojsonschema.NewSchema(schemaLoader)
	if err != nil {
		return nil, fmt.Errorf("failed to compile save schema: %w", err)
	}

	return schema, nil
}

// validateSaveBody validates a raw request body against the save schema.
// A non-nil error describes every violation found.
func validateSaveBody(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}

	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, violation := range result.Errors() {
			violations = append(violations, violation.String())
		}
		return fmt.Errorf("validation errors: %s", strings.Join(violations, "; "))
	}

	return nil
}
