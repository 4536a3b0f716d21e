package ner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/screenwiper/constants"
)

// EntitiesJSONSchema describes {"entities":[{"name":..., "type":...}]}.
func EntitiesJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"entities"},
		"properties": map[string]any{
			"entities": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"name", "type"},
					"properties": map[string]any{
						"name": map[string]any{"type": "string", "minLength": 1},
						"type": map[string]any{"type": "string", "enum": constants.EntityTypeLabels()},
					},
				},
			},
		},
	}
}

// ValidateJSONAgainstSchema validates data against schemaMap.
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// SanitizeEntities coerces a near-miss model answer toward the schema: unknown
// keys and nameless entries are dropped, type labels are upper-cased and
// unrecognized labels become OTHER.
func SanitizeEntities(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}
	var dropped []string
	for k := range m {
		if k != "entities" {
			delete(m, k)
			dropped = append(dropped, k)
		}
	}
	items, _ := m["entities"].([]any)
	clean := make([]any, 0, len(items))
	for i, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			dropped = append(dropped, fmt.Sprintf("entities[%d](type)", i))
			continue
		}
		name, _ := obj["name"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			dropped = append(dropped, fmt.Sprintf("entities[%d](name)", i))
			continue
		}
		label, _ := obj["type"].(string)
		clean = append(clean, map[string]any{
			"name": name,
			"type": string(constants.ParseEntityType(label)),
		})
	}
	m["entities"] = clean
	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, dropped, nil
}
