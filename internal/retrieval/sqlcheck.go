package retrieval

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrUnsafeSQL = errors.New("generated sql rejected")

var (
	forbiddenSQL = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|truncate|grant|revoke|merge|replace|attach|detach|pragma|vacuum|copy|exec|execute|call)\b`)
	sourceTables = regexp.MustCompile(`(?i)\b(?:from|join)\s+("?[a-z_][a-z0-9_.]*"?)`)
)

// ValidateSelect accepts a single read-only SELECT over the phones table and
// returns it trimmed of a trailing semicolon.
func ValidateSelect(sql string) (string, error) {
	s := strings.TrimSpace(sql)
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	if s == "" {
		return "", fmt.Errorf("%w: empty statement", ErrUnsafeSQL)
	}
	if strings.Contains(s, ";") {
		return "", fmt.Errorf("%w: multiple statements", ErrUnsafeSQL)
	}
	if strings.Contains(s, "--") || strings.Contains(s, "/*") {
		return "", fmt.Errorf("%w: comments are not allowed", ErrUnsafeSQL)
	}
	if !strings.HasPrefix(strings.ToLower(s), "select") {
		return "", fmt.Errorf("%w: not a SELECT", ErrUnsafeSQL)
	}
	if kw := forbiddenSQL.FindString(s); kw != "" {
		return "", fmt.Errorf("%w: forbidden keyword %q", ErrUnsafeSQL, strings.ToLower(kw))
	}

	tables := sourceTables.FindAllStringSubmatch(s, -1)
	if len(tables) == 0 {
		return "", fmt.Errorf("%w: no source table", ErrUnsafeSQL)
	}
	for _, m := range tables {
		if t := strings.ToLower(strings.Trim(m[1], `"`)); t != "phones" {
			return "", fmt.Errorf("%w: table %q is not allowed", ErrUnsafeSQL, t)
		}
	}
	return s, nil
}
