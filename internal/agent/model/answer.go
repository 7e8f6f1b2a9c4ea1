package model

import (
	errx "github.com/MobiAdvisor-core/server/internal/core/error"
)

type AnswerSource string

const (
	SourceAgent        AnswerSource = "agent"
	SourcePipeline     AnswerSource = "pipeline"
	SourceContext      AnswerSource = "context"
	SourceGeneralQA    AnswerSource = "general_qa"
	SourceFallback     AnswerSource = "fallback"
	SourceSafetyFilter AnswerSource = "safety_filter"
	SourceInvalidInput AnswerSource = "invalid_input"
)

// GroundedAnswer is the result of one conversation turn.
type GroundedAnswer struct {
	Message   string             `json:"message"`
	Phones    []Phone            `json:"phones"`
	Validated bool               `json:"validated"`
	Warning   string             `json:"warning,omitempty"`
	Source    AnswerSource       `json:"source"`
	Blocked   bool               `json:"blocked,omitempty"`
	ErrorKind errx.Kind          `json:"error_kind,omitempty"`
	History   []ConversationTurn `json:"history,omitempty"`
}

// ComparisonWinners holds the phone id winning each deterministic category.
type ComparisonWinners struct {
	Camera  int64 `json:"camera"`
	Battery int64 `json:"battery"`
	Value   int64 `json:"value"`
	Overall int64 `json:"overall"`
}

type CategoryVerdict struct {
	Winner    string `json:"winner"`
	Reasoning string `json:"reasoning"`
}

// ComparisonAnalysis is the model-written verdict per use case.
type ComparisonAnalysis struct {
	Overall     CategoryVerdict `json:"overall"`
	Gaming      CategoryVerdict `json:"gaming"`
	Photography CategoryVerdict `json:"photography"`
	Value       CategoryVerdict `json:"value"`
	DailyUse    CategoryVerdict `json:"dailyUse"`
	Summary     string          `json:"summary"`
}

// Verdicts lists the per-category verdicts in a fixed order.
func (a ComparisonAnalysis) Verdicts() []CategoryVerdict {
	return []CategoryVerdict{a.Overall, a.Gaming, a.Photography, a.Value, a.DailyUse}
}

type Comparison struct {
	Phones    []Phone             `json:"phones"`
	Winners   *ComparisonWinners  `json:"winners,omitempty"`
	Analysis  *ComparisonAnalysis `json:"analysis,omitempty"`
	Truncated bool                `json:"truncated,omitempty"`
	Warning   string              `json:"warning,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// FactCheck is the verdict on a free-text claim about one phone.
type FactCheck struct {
	PhoneID    int64  `json:"phone_id"`
	Claim      string `json:"claim"`
	Accurate   bool   `json:"accurate"`
	Correction string `json:"correction,omitempty"`
}

// ComputeWinners picks the deterministic category winners among phones:
// highest rear camera, largest battery, lowest price per rating point (rating
// floored at 1) and highest rating. Ties go to the earlier phone.
func ComputeWinners(phones []Phone) *ComparisonWinners {
	if len(phones) == 0 {
		return nil
	}
	value := func(p Phone) float64 { return float64(p.PriceINR) / max(p.UserRating, 1) }

	camera, battery, best, overall := phones[0], phones[0], phones[0], phones[0]
	for _, p := range phones[1:] {
		if p.BackCameraMP > camera.BackCameraMP {
			camera = p
		}
		if p.BatteryMAH > battery.BatteryMAH {
			battery = p
		}
		if value(p) < value(best) {
			best = p
		}
		if p.UserRating > overall.UserRating {
			overall = p
		}
	}
	return &ComparisonWinners{Camera: camera.ID, Battery: battery.ID, Value: best.ID, Overall: overall.ID}
}
