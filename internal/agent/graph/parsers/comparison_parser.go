package parsers

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
)

var comparisonSchema = gojsonschema.NewStringLoader(`{
  "type": "object",
  "required": ["overall", "gaming", "photography", "value", "dailyUse", "summary"],
  "definitions": {
    "verdict": {
      "type": "object",
      "required": ["winner", "reasoning"],
      "properties": {
        "winner":    {"type": "string", "minLength": 1},
        "reasoning": {"type": "string"}
      }
    }
  },
  "properties": {
    "overall":     {"$ref": "#/definitions/verdict"},
    "gaming":      {"$ref": "#/definitions/verdict"},
    "photography": {"$ref": "#/definitions/verdict"},
    "value":       {"$ref": "#/definitions/verdict"},
    "dailyUse":    {"$ref": "#/definitions/verdict"},
    "summary":     {"type": "string"}
  }
}`)

// ParseComparisonAnalysis reads the per-category comparison verdicts of a
// model reply. Winner names are not checked here.
func ParseComparisonAnalysis(content string) (*model.ComparisonAnalysis, error) {
	m, err := decodeObject(content)
	if err != nil {
		return nil, err
	}
	if err := validate(comparisonSchema, m); err != nil {
		return nil, err
	}
	var a model.ComparisonAnalysis
	if err := remarshal(m, &a); err != nil {
		return nil, fmt.Errorf("comparison decode: %w", err)
	}
	return &a, nil
}
