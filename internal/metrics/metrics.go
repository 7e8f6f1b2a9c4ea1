// Package metrics holds the Prometheus collectors of the advisory pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsTotal counts answered turns by answer source
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mobiadvisor_turns_total",
		Help: "Conversation turns by answer source",
	}, []string{"source"})

	// TurnDuration tracks end-to-end turn latency
	TurnDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mobiadvisor_turn_duration_seconds",
		Help:    "Turn duration in seconds by answer source",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
	}, []string{"source"})

	// FallbackTotal counts fallback transitions by the stage that gave up
	FallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mobiadvisor_fallback_total",
		Help: "Fallback transitions by failing stage",
	}, []string{"stage"})

	// GuardrailFailures counts input refusals and output grounding failures
	GuardrailFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mobiadvisor_guardrail_failures_total",
		Help: "Guardrail failures by kind",
	}, []string{"kind"})

	// ToolCalls counts agent tool invocations
	ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mobiadvisor_tool_calls_total",
		Help: "Agent tool calls by tool and status",
	}, []string{"tool", "status"})

	// LLMCostUSD accumulates priced token usage per model
	LLMCostUSD = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mobiadvisor_llm_cost_usd_total",
		Help: "Accumulated LLM cost in USD by model",
	}, []string{"model"})
)

func Fallback(stage string) {
	FallbackTotal.WithLabelValues(stage).Inc()
}

func GuardrailFailure(kind string) {
	GuardrailFailures.WithLabelValues(kind).Inc()
}

func ToolCall(tool, status string) {
	ToolCalls.WithLabelValues(tool, status).Inc()
}

// ObserveTurn records one answered turn.
func ObserveTurn(source string, took time.Duration) {
	TurnsTotal.WithLabelValues(source).Inc()
	TurnDuration.WithLabelValues(source).Observe(took.Seconds())
}

func AddCost(model string, usd float64) {
	if usd > 0 {
		LLMCostUSD.WithLabelValues(model).Add(usd)
	}
}
