package parsers

import (
	"fmt"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	errx "github.com/MobiAdvisor-core/server/internal/core/error"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

var intentSchema = gojsonschema.NewStringLoader(`{
  "type": "object",
  "required": ["task", "entities", "constraints", "comparison_type", "priority_features"],
  "properties": {
    "task": {"enum": ["query", "general_qa", "reject"]},
    "entities": {
      "type": "object",
      "required": ["company", "model", "features"],
      "properties": {
        "company":  {"type": "array", "items": {"type": "string"}},
        "model":    {"type": "array", "items": {"type": "string"}},
        "features": {"type": "array", "items": {"type": "string"}}
      }
    },
    "constraints": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "min_price":   {"type": "number", "minimum": 0},
        "max_price":   {"type": "number", "minimum": 0},
        "min_ram":     {"type": "number", "minimum": 0},
        "min_battery": {"type": "number", "minimum": 0},
        "min_camera":  {"type": "number", "minimum": 0},
        "min_storage": {"type": "number", "minimum": 0}
      }
    },
    "comparison_type": {"enum": ["single", "multi", "range"]},
    "priority_features": {"type": "array", "items": {"type": "string"}}
  }
}`)

var (
	validTasks           = []string{string(model.TaskQuery), string(model.TaskGeneralQA), string(model.TaskReject)}
	validComparisonTypes = []string{string(model.ComparisonSingle), string(model.ComparisonMulti), string(model.ComparisonRange)}
	constraintKeys       = []string{"min_price", "max_price", "min_ram", "min_battery", "min_camera", "min_storage"}
)

// ParseIntent reads the intent JSON of a model reply. The reply may be
// fenced or surrounded by prose. Recoverable shape problems are repaired;
// anything else is an error and the caller should use model.DefaultIntent.
func ParseIntent(content string) (intent model.ParsedIntent, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "intent_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("intent parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			intent = model.DefaultIntent()
		}
	}()

	m, err := decodeObject(content)
	if err != nil {
		return model.DefaultIntent(), err
	}
	repairIntent(m)
	if err := validate(intentSchema, m); err != nil {
		return model.DefaultIntent(), err
	}

	intent = model.DefaultIntent()
	if err := remarshal(m, &intent); err != nil {
		return model.DefaultIntent(), fmt.Errorf("intent decode: %w", err)
	}
	fillIntentDefaults(&intent)
	return intent, nil
}

// repairIntent coerces common model mistakes into the expected shape.
func repairIntent(m map[string]any) {
	m["task"] = enumOr(m["task"], validTasks, string(model.TaskQuery))
	m["comparison_type"] = enumOr(m["comparison_type"], validComparisonTypes, string(model.ComparisonSingle))

	ents, _ := m["entities"].(map[string]any)
	m["entities"] = map[string]any{
		"company":  stringList(ents["company"]),
		"model":    stringList(ents["model"]),
		"features": stringList(ents["features"]),
	}
	m["priority_features"] = stringList(m["priority_features"])

	cons, _ := m["constraints"].(map[string]any)
	clean := make(map[string]any, len(constraintKeys))
	for _, k := range constraintKeys {
		if v, ok := number(cons[k]); ok {
			clean[k] = v
		}
	}
	m["constraints"] = clean
}

func enumOr(v any, allowed []string, def string) string {
	s, _ := v.(string)
	s = strings.ToLower(strings.TrimSpace(s))
	if slices.Contains(allowed, s) {
		return s
	}
	return def
}

// stringList accepts a string or a list and returns a clean []any of strings.
func stringList(v any) []any {
	var items []any
	switch t := v.(type) {
	case string:
		items = []any{t}
	case []any:
		items = t
	}
	out := make([]any, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" || len(s) > maxItemLen {
			continue
		}
		out = append(out, s)
		if len(out) == maxListItems {
			break
		}
	}
	return out
}

// number accepts JSON numbers and numeric strings such as "20,000".
func number(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}

func fillIntentDefaults(i *model.ParsedIntent) {
	if i.Entities.Company == nil {
		i.Entities.Company = []string{}
	}
	if i.Entities.Model == nil {
		i.Entities.Model = []string{}
	}
	if i.Entities.Features == nil {
		i.Entities.Features = []string{}
	}
	if i.PriorityFeatures == nil {
		i.PriorityFeatures = []string{}
	}
}
