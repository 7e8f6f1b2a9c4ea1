package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/MobiAdvisor-core/server/internal/agent/graph/conversations"
	"github.com/MobiAdvisor-core/server/internal/agent/graph/parsers"
	"github.com/MobiAdvisor-core/server/internal/agent/graph/prompts"
	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/guardrail"
	"github.com/MobiAdvisor-core/server/internal/metrics"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

// ErrEmptyAnswer is returned when the agent finishes without any text.
var ErrEmptyAnswer = errors.New("agent produced an empty answer")

// NewContextAssemblerPreHandler resets the per-turn state. A follow-up turn
// starts with the phones of the previous answer, so the agent may talk about
// them without calling a tool again.
func NewContextAssemblerPreHandler() func(context.Context, model.AgentInput, *model.AppState) (model.AgentInput, error) {
	return func(ctx context.Context, in model.AgentInput, s *model.AppState) (model.AgentInput, error) {
		s.ConversationID = in.ConversationID
		s.History = nil
		s.Phones = nil
		if guardrail.IsFollowUp(in.Query) {
			s.Phones = append(s.Phones, model.ContextPhones(in.History)...)
		}
		// Reset tool call counter and limit flag for each new query
		s.ToolCallCount = 0
		s.ToolCallLimitReached = false
		s.ToolCallIDSeq = 0
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewContextAssemblerNode renders the agent system prompt and lays out the
// conversation for the agent model.
func NewContextAssemblerNode(mm *conversations.MessagesManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.AgentInput) ([]*schema.Message, error) {
		// Generate system prompt via Eino prompt component (enables prompt callbacks)
		systemPrompt, err := prompts.RenderAgentSystem(ctx)
		if err != nil {
			return nil, fmt.Errorf("render agent system prompt: %w", err)
		}
		return mm.BuildAgentContext(systemPrompt, in), nil
	})
}

// NewAgentChatModelPreHandler feeds the whole turn so far to the model and
// tells it to wrap up once the tool budget is spent.
func NewAgentChatModelPreHandler(maxToolCalls int) func(context.Context, []*schema.Message, *model.AppState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.AppState) ([]*schema.Message, error) {
		// Some providers drop tool_call_id on tool results; restore it from the
		// latest assistant tool call.
		if len(in) > 0 {
			last := in[len(in)-1]
			if last != nil && last.Role == schema.Tool && strings.TrimSpace(last.ToolCallID) == "" {
				for i := len(state.History) - 1; i >= 0; i-- {
					msg := state.History[i]
					if msg == nil || msg.Role != schema.Assistant || len(msg.ToolCalls) == 0 {
						continue
					}
					if id := msg.ToolCalls[0].ID; strings.TrimSpace(id) != "" {
						last.ToolCallID = id
					}
					break
				}
			}
		}

		state.History = append(state.History, in...)

		if checkAndMarkToolLimit(state, maxToolCalls) {
			wrapUp := &schema.Message{
				Role: schema.System,
				Content: fmt.Sprintf(
					"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
						"Answer now using only the phones already returned by tools. "+
						"Say so if you could not look something up.",
					NormalizeMaxToolCalls(maxToolCalls),
				),
			}
			state.History = append(state.History, wrapUp)
		}

		return state.History, nil
	}
}

// NewAgentChatModelPostHandler prices the call, fills missing tool call ids
// and records the reply in the turn history.
func NewAgentChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		if out == nil {
			return nil, fmt.Errorf("agent model returned no message")
		}

		if cost, ok := model.MessageCost(out, modelName); ok {
			if out.Extra == nil {
				out.Extra = map[string]any{}
			}
			out.Extra["usage_cost"] = cost
			state.TotalCostUSD += cost.TotalCost
			metrics.AddCost(modelName, cost.TotalCost)
			logx.Debug().
				Str("conversation_id", state.ConversationID).
				Str("node", NodeAgentChatModel).
				Str("model", modelName).
				Int("prompt_tokens", cost.PromptTokens).
				Int("completion_tokens", cost.CompletionTokens).
				Float64("total_cost_usd", cost.TotalCost).
				Msg("LLM usage")
		}

		for i := range out.ToolCalls {
			if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
				state.ToolCallIDSeq++
				out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
			}
		}

		state.History = append(state.History, out)

		if len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
		}
		return out, nil
	}
}

// NewToolExecutorCondition routes tool calls to the executor while budget
// remains and everything else to the answer.
func NewToolExecutorCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		var limitReached bool
		_ = compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			limitReached = state.ToolCallLimitReached
			return nil
		})

		if limitReached {
			logx.Debug().Msg("Tool limit reached - routing to answer")
			return NodeAnswerAssembler, nil
		}
		if input != nil && len(input.ToolCalls) > 0 {
			return NodeToolExecutor, nil
		}
		return NodeAnswerAssembler, nil
	}
}

// NewToolExecutorPreHandler charges the requested calls against the budget
// and drops the calls that do not fit.
func NewToolExecutorPreHandler(maxToolCalls int) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *model.AppState) (*schema.Message, error) {
		requested := len(in.ToolCalls)
		allowed := reserveToolCalls(state, requested, maxToolCalls)
		if allowed < requested {
			logx.Warn().
				Int("requested", requested).
				Int("allowed", allowed).
				Int("max_tool_calls", NormalizeMaxToolCalls(maxToolCalls)).
				Str("conversation_id", state.ConversationID).
				Msg("Tool call budget exceeded - dropping extra calls")
			// the same message sits in History, so both stay consistent
			in.ToolCalls = in.ToolCalls[:allowed]
		}

		logx.Debug().
			Int("tool_call_count", state.ToolCallCount).
			Str("conversation_id", state.ConversationID).
			Msg("Tool execution attempt")
		return in, nil
	}
}

// NewPhoneExtractorNode collects the phones tool results surfaced so the
// answer can be grounded on them.
func NewPhoneExtractorNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, msgs []*schema.Message) ([]*schema.Message, error) {
		var found []model.Phone
		for _, m := range msgs {
			if m == nil || m.Role != schema.Tool {
				continue
			}
			phones, err := parsers.ParsePhonePayload(m.Content)
			if err != nil {
				logx.Warn().Err(err).Str("tool", m.ToolName).Msg("tool payload not parsed for phones")
				continue
			}
			found = append(found, phones...)
		}
		if len(found) == 0 {
			return msgs, nil
		}
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			added := mergePhones(state, found)
			logx.Debug().Int("added", added).Int("total", len(state.Phones)).Msg("phones collected from tools")
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		return msgs, nil
	})
}

// NewAnswerAssemblerNode turns the final model message into an AgentResult.
func NewAnswerAssemblerNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, out *schema.Message) (*model.AgentResult, error) {
		result := &model.AgentResult{Phones: []model.Phone{}}
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			if len(state.Phones) > 0 {
				result.Phones = append(result.Phones, state.Phones...)
			}
			result.ToolCalls = state.ToolCallCount
			result.CostUSD = state.TotalCostUSD
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		if out != nil {
			result.Message = conversations.StripContext(out.Content)
		}
		if result.Message == "" {
			return nil, ErrEmptyAnswer
		}
		return result, nil
	})
}
