package llm

// BuildFactBatchSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass this to the model as a structured output constraint
// and also use it locally to validate before facts are accepted.
func BuildFactBatchSchema(allowedTypes []string) map[string]any {
	factProps := map[string]any{
		"type":    map[string]any{"type": "string", "enum": allowedTypes},
		"content": map[string]any{"type": "string", "minLength": 1},
		"confidence": map[string]any{
			"type": "number", "minimum": 0.0, "maximum": 1.0,
		},
		"structured_data": map[string]any{"type": "object"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"facts": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties":           factProps,
					"required":             []string{"type", "content"},
				},
			},
		},
		"required": []string{"facts"},
	}
}

// BuildClassificationSchema constrains the classification call to the closed
// category enum.
func BuildClassificationSchema(categories []string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"category": map[string]any{"type": "string", "enum": categories},
			"confidence": map[string]any{
				"type": "number", "minimum": 0.0, "maximum": 1.0,
			},
		},
		"required": []string{"category"},
	}
}
