package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// StripCodeFences removes a surrounding markdown code fence if the model
// wrapped its JSON despite the MIME constraint.
func StripCodeFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return []byte(s)
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return []byte(strings.TrimSpace(s))
}

// SanitizeFactBatch normalizes a raw fact-batch document so the overall
// response can still validate: a bare top-level array is wrapped, string
// confidences are parsed, out-of-enum facts and empty contents are removed.
// Returns the cleaned document and the list of dropped entries for logging.
func SanitizeFactBatch(doc []byte, allowedTypes []string) ([]byte, []string, error) {
	doc = StripCodeFences(doc)

	// Some models return the array without the wrapper object.
	if bytes.HasPrefix(bytes.TrimSpace(doc), []byte("[")) {
		doc = append(append([]byte(`{"facts":`), doc...), '}')
	}

	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, fmt.Errorf("parse fact batch: %w", err)
	}

	rawFacts, _ := m["facts"].([]any)
	allowed := make(map[string]struct{}, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = struct{}{}
	}

	var dropped []string
	kept := make([]any, 0, len(rawFacts))
	for i, rf := range rawFacts {
		fact, ok := rf.(map[string]any)
		if !ok {
			dropped = append(dropped, fmt.Sprintf("facts[%d]: not an object", i))
			continue
		}

		t, _ := fact["type"].(string)
		t = strings.ToUpper(strings.TrimSpace(t))
		if _, ok := allowed[t]; !ok {
			dropped = append(dropped, fmt.Sprintf("facts[%d]: type %q not in enum", i, t))
			continue
		}
		fact["type"] = t

		content, _ := fact["content"].(string)
		if strings.TrimSpace(content) == "" {
			dropped = append(dropped, fmt.Sprintf("facts[%d]: empty content", i))
			continue
		}
		fact["content"] = strings.TrimSpace(content)

		// confidence: tolerate strings, clamp to [0,1], drop when unparsable
		switch v := fact["confidence"].(type) {
		case nil:
			delete(fact, "confidence")
		case float64:
			fact["confidence"] = clamp01(v)
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				fact["confidence"] = clamp01(f)
			} else {
				delete(fact, "confidence")
			}
		default:
			delete(fact, "confidence")
		}

		if sd, present := fact["structured_data"]; present {
			if _, ok := sd.(map[string]any); !ok {
				delete(fact, "structured_data")
			}
		}

		kept = append(kept, fact)
	}

	out, err := json.Marshal(map[string]any{"facts": kept})
	if err != nil {
		return nil, nil, err
	}
	return out, dropped, nil
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// CompileSchema compiles a generic-map schema for local validation.
func CompileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return c.Compile("schema.json")
}

// ValidateDocument checks a JSON document against a compiled schema.
func ValidateDocument(sch *jsonschema.Schema, doc []byte) error {
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	return sch.Validate(v)
}
