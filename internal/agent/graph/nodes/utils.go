package nodes

import (
	"github.com/MobiAdvisor-core/server/internal/agent/model"
)

const (
	NodeContextAssembler = "ContextAssembler"
	NodeAgentChatModel   = "AgentChatModel"
	NodeToolExecutor     = "ToolExecutor"
	NodePhoneExtractor   = "PhoneExtractor"
	NodeAnswerAssembler  = "AnswerAssembler"
)

const DefaultMaxToolCalls = 10

// ===== Small helpers to keep handlers simple/readable =====
// NormalizeMaxToolCalls returns the default when the provided value is invalid.
func NormalizeMaxToolCalls(n int) int {
	if n <= 0 {
		return DefaultMaxToolCalls
	}
	return n
}

// checkAndMarkToolLimit marks the state once the tool budget is spent.
// Returns true only on the call that marks it.
func checkAndMarkToolLimit(state *model.AppState, max int) bool {
	max = NormalizeMaxToolCalls(max)
	if !state.ToolCallLimitReached && state.ToolCallCount >= max {
		state.ToolCallLimitReached = true
		return true
	}
	return false
}

// reserveToolCalls charges n calls against the budget and returns how many
// of them may run.
func reserveToolCalls(state *model.AppState, n, max int) int {
	max = NormalizeMaxToolCalls(max)
	allowed := min(n, max-state.ToolCallCount)
	if allowed < 0 {
		allowed = 0
	}
	state.ToolCallCount += allowed
	return allowed
}

// mergePhones appends phones not yet seen by id.
func mergePhones(state *model.AppState, phones []model.Phone) int {
	before := len(state.Phones)
	state.Phones = model.UniquePhones(state.Phones, phones)
	return len(state.Phones) - before
}
