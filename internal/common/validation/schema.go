package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ClassifierResultSchema is the shape contract for the classification service.
// A result is usable when it carries at least one vehicle or an explicit
// product category; everything else is advisory and may be absent.
const ClassifierResultSchema = `{
	"type": "object",
	"properties": {
		"vehicles": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"type":  {"type": "string"},
					"brand": {"type": "string"},
					"model": {"type": "string"}
				}
			}
		},
		"productCategory":          {"type": "string"},
		"needsProductRecommendation": {"type": "boolean"},
		"searchKeywords":           {"type": "array", "items": {"type": "string"}},
		"searchTasks":              {"type": "array"},
		"certifications":           {"type": "array", "items": {"type": "string"}},
		"viscosity":                {"type": "string"},
		"usageScenario":            {"type": "string"},
		"intentType":               {"type": "string"}
	},
	"anyOf": [
		{"properties": {"vehicles": {"type": "array", "minItems": 1}}, "required": ["vehicles"]},
		{"properties": {"productCategory": {"type": "string", "minLength": 1}}, "required": ["productCategory"]}
	]
}`

// ValidateJSON validates a raw JSON document against a JSON schema string.
func ValidateJSON(document []byte, schema string) error {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("document invalid: %s", strings.Join(msgs, "; "))
	}

	return nil
}

// ValidateClassifierResult applies the shape contract to a raw classifier
// response. Callers treat any error as "classifier result unusable" and fall
// back to the deterministic rules.
func ValidateClassifierResult(document []byte) error {
	return ValidateJSON(document, ClassifierResultSchema)
}
