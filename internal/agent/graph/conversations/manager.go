package conversations

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/dustin/go-humanize"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/guardrail"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

const (
	contextBlockHeader = "[CONTEXT - Previously mentioned phones:"
	reminderHeader     = "CONTEXT REMINDER:"
	defaultMaxTurns    = 6
)

type MessagesManager struct {
	conversationRepo model.ConversationRepository
	maxTurns         int
}

// NewMessagesManager builds a manager. conversationRepo may be nil when
// history always arrives with the request.
func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	maxTurns := config.HistoryTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	return &MessagesManager{conversationRepo: conversationRepo, maxTurns: maxTurns}
}

// LoadTurns returns given when non-empty, otherwise the stored history of
// conversationID. Store failures degrade to an empty history.
func (cm *MessagesManager) LoadTurns(ctx context.Context, conversationID string, given []model.ConversationTurn) []model.ConversationTurn {
	if len(given) > 0 || conversationID == "" || cm.conversationRepo == nil {
		return given
	}
	history, err := cm.conversationRepo.LoadHistory(ctx, conversationID)
	if err != nil {
		logx.Warn().Err(err).Str("conversation_id", conversationID).Msg("conversation history unavailable")
		return given
	}
	return history.Turns
}

// SaveTurns appends turns to the stored conversation. It is a no-op without a
// repository or a conversation id.
func (cm *MessagesManager) SaveTurns(ctx context.Context, conversationID string, turns ...model.ConversationTurn) error {
	if cm.conversationRepo == nil || conversationID == "" {
		return nil
	}
	return cm.conversationRepo.AddTurns(ctx, conversationID, turns...)
}

// =========== Agent context ===========

// BuildAgentContext lays out the agent model input: the system prompt, recent
// history with the phones each assistant turn showed, a reminder of the
// context phones on follow-ups, and the user query.
func (cm *MessagesManager) BuildAgentContext(systemPrompt string, in model.AgentInput) []*schema.Message {
	messages := []*schema.Message{schema.SystemMessage(systemPrompt)}

	for _, t := range model.LastTurns(in.History, cm.maxTurns) {
		switch t.Role {
		case model.RoleAssistant:
			content := t.Content
			if block := contextBlock(t.Phones); block != "" {
				content += "\n\n" + block
			}
			messages = append(messages, schema.AssistantMessage(content, nil))
		default:
			messages = append(messages, schema.UserMessage(t.Content))
		}
	}

	if ctxPhones := model.ContextPhones(in.History); len(ctxPhones) > 0 && guardrail.IsFollowUp(in.Query) {
		messages = append(messages, schema.SystemMessage(reminder(ctxPhones)))
	}

	query := in.Query
	if f := describeFilters(in.Filters); f != "" {
		query += "\n\n" + f
	}
	messages = append(messages, schema.UserMessage(query))
	return messages
}

func contextBlock(phones []model.Phone) string {
	if len(phones) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(contextBlockHeader)
	b.WriteByte('\n')
	for i, p := range phones {
		fmt.Fprintf(&b, "  %d. %s (ID: %d, ₹%s)\n", i+1, p.DisplayName(), p.ID, humanize.Comma(int64(p.PriceINR)))
	}
	b.WriteString("]")
	return b.String()
}

func reminder(phones []model.Phone) string {
	var b strings.Builder
	b.WriteString(reminderHeader)
	b.WriteString(" The user is asking about phones from the previous answer. ")
	b.WriteString("\"First\" means #1, \"second\" means #2, and so on.\n")
	for i, p := range phones {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.SpecLine())
	}
	b.WriteString("Use these IDs when calling tools.")
	return b.String()
}

func describeFilters(f model.Filters) string {
	if f.IsZero() {
		return ""
	}
	var parts []string
	if f.Company != "" {
		parts = append(parts, "brand "+f.Company)
	}
	if f.MinPrice > 0 {
		parts = append(parts, "min price ₹"+humanize.Comma(int64(f.MinPrice)))
	}
	if f.MaxPrice > 0 {
		parts = append(parts, "max price ₹"+humanize.Comma(int64(f.MaxPrice)))
	}
	if f.MinRAM > 0 {
		parts = append(parts, fmt.Sprintf("min RAM %gGB", f.MinRAM))
	}
	if f.MinBattery > 0 {
		parts = append(parts, fmt.Sprintf("min battery %dmAh", f.MinBattery))
	}
	if f.MinCamera > 0 {
		parts = append(parts, fmt.Sprintf("min camera %gMP", f.MinCamera))
	}
	return "[Active filters: " + strings.Join(parts, ", ") + "]"
}

// StripContext removes context blocks a model may echo back into its answer.
func StripContext(s string) string {
	for {
		start := strings.Index(s, contextBlockHeader)
		if start < 0 {
			break
		}
		// block lines never contain ']', so the first one closes the block
		end := strings.IndexByte(s[start:], ']')
		if end < 0 {
			s = s[:start]
			break
		}
		s = s[:start] + s[start+end+1:]
	}
	return strings.TrimSpace(s)
}
