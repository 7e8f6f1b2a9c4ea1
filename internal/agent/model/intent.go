package model

import "strings"

type Task string

const (
	TaskQuery     Task = "query"
	TaskGeneralQA Task = "general_qa"
	TaskReject    Task = "reject"
)

type ComparisonType string

const (
	ComparisonSingle ComparisonType = "single"
	ComparisonMulti  ComparisonType = "multi"
	ComparisonRange  ComparisonType = "range"
)

type Entities struct {
	Company  []string `json:"company"`
	Model    []string `json:"model"`
	Features []string `json:"features"`
}

// Constraints are numeric bounds extracted from the utterance. Nil is unset.
type Constraints struct {
	MinPrice   *float64 `json:"min_price"`
	MaxPrice   *float64 `json:"max_price"`
	MinRAM     *float64 `json:"min_ram"`
	MinBattery *float64 `json:"min_battery"`
	MinCamera  *float64 `json:"min_camera"`
	MinStorage *float64 `json:"min_storage"`
}

// ParsedIntent is the structured reading of one user utterance.
type ParsedIntent struct {
	Task             Task           `json:"task"`
	Entities         Entities       `json:"entities"`
	Constraints      Constraints    `json:"constraints"`
	ComparisonType   ComparisonType `json:"comparison_type"`
	PriorityFeatures []string       `json:"priority_features"`
}

// DefaultIntent is used whenever parsing fails.
func DefaultIntent() ParsedIntent {
	return ParsedIntent{
		Task:             TaskQuery,
		Entities:         Entities{Company: []string{}, Model: []string{}, Features: []string{}},
		ComparisonType:   ComparisonSingle,
		PriorityFeatures: []string{},
	}
}

// HasPriority reports whether any priority feature contains one of keys.
func (i ParsedIntent) HasPriority(keys ...string) bool {
	for _, f := range i.PriorityFeatures {
		f = strings.ToLower(f)
		for _, k := range keys {
			if strings.Contains(f, k) {
				return true
			}
		}
	}
	return false
}

// HasEntities reports whether a brand or model was named.
func (i ParsedIntent) HasEntities() bool {
	return len(i.Entities.Company) > 0 || len(i.Entities.Model) > 0
}
