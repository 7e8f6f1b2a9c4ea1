package model

import (
	"github.com/cloudwego/eino/schema"
)

// AppState stores per-invocation state for the Eino Graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
type AppState struct {
	ConversationID       string
	History              []*schema.Message // mutated only inside Eino state handlers
	Phones               []Phone           // records surfaced by tool results, deduplicated by id
	ToolCallCount        int               // maintained in handlers (reset/increment)
	ToolCallLimitReached bool              // set when tool call limit is exceeded
	ToolCallIDSeq        int               // local sequence to synthesize tool_call_id when provider omits

	// Accumulated total LLM cost (USD) across model invocations for this turn
	TotalCostUSD float64
}

// AgentInput is the input of the tool-calling agent graph.
type AgentInput struct {
	ConversationID string             `json:"conversation_id"`
	Query          string             `json:"query"`
	History        []ConversationTurn `json:"history"`
	Filters        Filters            `json:"filters"`
}

// AgentResult is the final output of the agent graph.
type AgentResult struct {
	Message   string  `json:"message"`
	Phones    []Phone `json:"phones"`
	ToolCalls int     `json:"tool_calls"`
	CostUSD   float64 `json:"cost_usd"`
}
