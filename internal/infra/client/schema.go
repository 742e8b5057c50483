package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/notainsight/nota-insight-bff-go/internal/domain"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// buildExtractionSchema returns the JSON Schema the backend's extraction
// payload must satisfy before it is admitted into a review session. The
// closed category table is embedded as an enum so unknown categories are
// rejected at the boundary instead of deep in the review flow.
func buildExtractionSchema() map[string]any {
	categories := domain.Categories()
	categoryEnum := make([]any, 0, len(categories)+1)
	categoryEnum = append(categoryEnum, "")
	for _, c := range categories {
		categoryEnum = append(categoryEnum, c)
	}

	itemSchema := map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"required":             []any{"description", "quantity", "unit_price", "total_price"},
		"properties": map[string]any{
			"description":     map[string]any{"type": "string"},
			"normalized_name": map[string]any{"type": "string"},
			"quantity":        map[string]any{"type": "number", "minimum": 0},
			"unit":            map[string]any{"type": "string"},
			"unit_price":      map[string]any{"type": "number", "minimum": 0},
			"total_price":     map[string]any{"type": "number", "minimum": 0},
			"category_name":   map[string]any{"enum": categoryEnum},
			"subcategory":     map[string]any{"type": "string"},
		},
	}

	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"additionalProperties": true,
		"required":             []any{"items", "total_value"},
		"properties": map[string]any{
			"issuer_name": map[string]any{"type": "string"},
			"issuer_cnpj": map[string]any{"type": "string"},
			"number":      map[string]any{"type": "string"},
			"series":      map[string]any{"type": "string"},
			"access_key":  map[string]any{"type": "string", "pattern": "^([0-9]{44})?$"},
			"issue_date":  map[string]any{"type": "string"},
			"confidence":  map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			"items":       map[string]any{"type": "array", "items": itemSchema},
			"total_value": map[string]any{"type": "number", "minimum": 0},
		},
	}
}

// extractionSchema is compiled once at startup.
var extractionSchema = mustCompileSchema(buildExtractionSchema())

func mustCompileSchema(def map[string]any) *jsonschema.Schema {
	raw, err := json.Marshal(def)
	if err != nil {
		panic(fmt.Sprintf("marshal extraction schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("extraction.json", strings.NewReader(string(raw))); err != nil {
		panic(fmt.Sprintf("add extraction schema: %v", err))
	}
	schema, err := compiler.Compile("extraction.json")
	if err != nil {
		panic(fmt.Sprintf("compile extraction schema: %v", err))
	}
	return schema
}

// validateExtractionPayload checks raw extraction JSON against the schema.
func validateExtractionPayload(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("extraction payload is not valid JSON: %w", err)
	}
	if err := extractionSchema.Validate(doc); err != nil {
		return fmt.Errorf("extraction payload failed schema validation: %w", err)
	}
	return nil
}
