package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/MobiAdvisor-core/server/internal/agent/graph/tools"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

const maxToolLimit = 20

var (
	stringArgs = []string{"query", "sort_by", "use_case", "question"}
	intArgs    = []string{"min_price", "max_price", "min_battery", "max_budget", "min_budget", "phone_id"}
)

// SanitizeToolArguments coerces model-written tool arguments into the shapes
// the tools decode: trimmed strings, non-negative integers, string lists and
// id lists. It never fails; arguments that are not a JSON object pass through.
func SanitizeToolArguments(_ context.Context, name, arguments string) (string, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(arguments), &m); err != nil || m == nil {
		// keep original if not a JSON object
		return arguments, nil
	}

	for _, k := range stringArgs {
		if v, ok := m[k]; ok {
			switch vv := v.(type) {
			case string:
				m[k] = strings.TrimSpace(vv)
			case nil:
				delete(m, k)
			default:
				m[k] = strings.TrimSpace(fmt.Sprint(v))
			}
		}
	}
	for _, k := range intArgs {
		if v, ok := m[k]; ok {
			if n, ok := toInt(v); ok {
				m[k] = n
			} else {
				delete(m, k)
			}
		}
	}
	if v, ok := m["min_ram"]; ok {
		if f, ok := toFloat(v); ok {
			m["min_ram"] = f
		} else {
			delete(m, "min_ram")
		}
	}
	if v, ok := m["limit"]; ok {
		if n, ok := toInt(v); ok && n > 0 {
			m["limit"] = min(n, maxToolLimit)
		} else {
			delete(m, "limit")
		}
	}

	switch name {
	case tools.ToolSearchPhones:
		if v, ok := m["brands"]; ok {
			m["brands"] = toStrings(v)
		}
	case tools.ToolComparePhones:
		if v, ok := m["phone_ids"]; ok {
			m["phone_ids"] = toIDs(v)
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		logx.Warn().Err(err).Str("tool", name).Msg("tool argument re-encode failed, using original")
		return arguments, nil
	}
	return string(b), nil
}

// toFloat accepts JSON numbers and numeric strings such as "25,000" or "₹30000".
func toFloat(v any) (float64, bool) {
	var f float64
	switch vv := v.(type) {
	case float64:
		f = vv
	case string:
		s := strings.NewReplacer(",", "", "₹", "", " ", "").Replace(vv)
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}

func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func toStrings(v any) []string {
	var raw []any
	switch vv := v.(type) {
	case string:
		raw = []any{vv}
	case []any:
		raw = vv
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func toIDs(v any) []int64 {
	var raw []any
	switch vv := v.(type) {
	case string:
		for _, part := range strings.Split(vv, ",") {
			raw = append(raw, strings.TrimSpace(part))
		}
	case []any:
		raw = vv
	case float64:
		raw = []any{vv}
	}
	out := make([]int64, 0, len(raw))
	for _, r := range raw {
		if n, ok := toInt(r); ok && n > 0 {
			out = append(out, int64(n))
		}
	}
	return out
}
