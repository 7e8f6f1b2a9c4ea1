package parsers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"
)

// basic safety limits to avoid pathological model output
const (
	maxContentLen = 64 * 1024 // 64KB
	maxObjectLen  = 16 * 1024 // 16KB for the extracted JSON object
	maxListItems  = 10        // per entity / feature list
	maxItemLen    = 128
	maxErrSnippet = 200
)

var (
	ErrNoJSONObject  = errors.New("no json object in model output")
	ErrObjectTooLong = errors.New("json object too large")
	ErrSchema        = errors.New("json does not match schema")
)

// StripFences removes a surrounding markdown code fence, with or without a
// language tag.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line, if any
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "{[") {
			s = s[nl+1:]
		}
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// ExtractObject returns the first balanced top-level JSON object in s.
// Braces inside string literals are ignored.
func ExtractObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", ErrNoJSONObject
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				obj := s[start : i+1]
				if len(obj) > maxObjectLen {
					return "", ErrObjectTooLong
				}
				return obj, nil
			}
		}
		if i-start > maxObjectLen {
			return "", ErrObjectTooLong
		}
	}
	return "", ErrNoJSONObject
}

// decodeObject applies the content limits and decodes the first JSON object
// of a model reply.
func decodeObject(content string) (map[string]any, error) {
	if len(content) > maxContentLen {
		content = content[:maxContentLen]
	}
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "")
	}
	raw, err := ExtractObject(StripFences(content))
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("decode json %q: %w", safeSnippet(raw), err)
	}
	return m, nil
}

func validate(schema gojsonschema.JSONLoader, doc any) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %v", ErrSchema, errs)
	}
	return nil
}

// remarshal converts a decoded map into a typed value.
func remarshal(m map[string]any, out any) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
