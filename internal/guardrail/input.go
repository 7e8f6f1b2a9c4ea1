// Package guardrail holds the input safety gate and the output grounding
// checks of the advisory pipeline.
package guardrail

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var defaultPolicy []byte

type Category string

const (
	CategoryPromptInjection  Category = "prompt_injection"
	CategoryPromptExtraction Category = "prompt_extraction"
	CategorySecretExtraction Category = "secret_extraction"
	CategoryJailbreak        Category = "jailbreak"
	CategoryRoleConfusion    Category = "role_confusion"
	CategoryBrandAttack      Category = "brand_attack"
	CategoryToxic            Category = "toxic"
	CategoryBypass           Category = "bypass"
	CategoryOffTopic         Category = "off_topic"
)

type BlockedPattern struct {
	Pattern  string   `yaml:"pattern"`
	Category Category `yaml:"category"`
}

// Policy is the declarative input safety configuration.
type Policy struct {
	ShortQueryTokens int                 `yaml:"short_query_tokens"`
	DefaultRefusal   string              `yaml:"default_refusal"`
	OffTopicMessage  string              `yaml:"off_topic_message"`
	Refusals         map[Category]string `yaml:"refusals"`
	Blocked          []BlockedPattern    `yaml:"blocked"`
	AllowedTopics    []string            `yaml:"allowed_topics"`
}

// ParsePolicy decodes a YAML policy document.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse guardrail policy: %w", err)
	}
	if len(p.Blocked) == 0 {
		return nil, fmt.Errorf("parse guardrail policy: no blocked patterns")
	}
	if p.DefaultRefusal == "" {
		return nil, fmt.Errorf("parse guardrail policy: default_refusal is required")
	}
	return &p, nil
}

// DefaultPolicy returns the embedded policy.
func DefaultPolicy() *Policy {
	p, err := ParsePolicy(defaultPolicy)
	if err != nil {
		panic(err)
	}
	return p
}

// Verdict is the outcome of an input check. Message is set when the query
// is refused.
type Verdict struct {
	Allowed  bool     `json:"allowed"`
	Category Category `json:"category,omitempty"`
	Message  string   `json:"message,omitempty"`
}

type compiledPattern struct {
	re       *regexp.Regexp
	category Category
}

// InputGuard checks user queries against a Policy. It is pure and safe for
// concurrent use.
type InputGuard struct {
	policy   *Policy
	patterns []compiledPattern
	topics   map[string]struct{}
}

func NewInputGuard(p *Policy) (*InputGuard, error) {
	g := &InputGuard{policy: p, topics: make(map[string]struct{}, len(p.AllowedTopics))}
	for _, b := range p.Blocked {
		pat := strings.ToLower(strings.TrimSpace(b.Pattern))
		if pat == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(pat))
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", b.Pattern, err)
		}
		g.patterns = append(g.patterns, compiledPattern{re: re, category: b.Category})
	}
	for _, t := range p.AllowedTopics {
		g.topics[strings.ToLower(t)] = struct{}{}
	}
	return g, nil
}

// Check runs the blocked-pattern gate and then the topic check.
func (g *InputGuard) Check(query string) Verdict {
	for _, p := range g.patterns {
		if p.re.MatchString(query) {
			msg := g.policy.Refusals[p.category]
			if msg == "" {
				msg = g.policy.DefaultRefusal
			}
			return Verdict{Category: p.category, Message: msg}
		}
	}
	if !g.onTopic(query) {
		return Verdict{Category: CategoryOffTopic, Message: g.policy.OffTopicMessage}
	}
	return Verdict{Allowed: true}
}

// onTopic passes short utterances (follow-ups such as "tell me more") and
// anything naming an allowed topic word.
func (g *InputGuard) onTopic(query string) bool {
	words := Tokens(query)
	if len(words) <= g.policy.ShortQueryTokens {
		return true
	}
	for _, w := range words {
		if _, ok := g.topics[w]; ok {
			return true
		}
	}
	return false
}

var tokenRe = regexp.MustCompile(`[a-z0-9][a-z0-9+\-]*`)

// Tokens splits text into lowercase word tokens. Hyphens and plus signs stay
// inside a token so "type-c" and "1+" survive.
func Tokens(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}
