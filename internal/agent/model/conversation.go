package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one message of the dialogue. Assistant turns carry the
// phones their answer was grounded on.
type ConversationTurn struct {
	Role    Role    `json:"role" validate:"required,oneof=user assistant"`
	Content string  `json:"content"`
	Phones  []Phone `json:"phones,omitempty"`
}

type ConversationRepository interface {
	// AddTurns appends turns to the conversation history
	AddTurns(ctx context.Context, conversationID string, turns ...ConversationTurn) error

	// LoadHistory retrieves the conversation history for a conversation
	LoadHistory(ctx context.Context, conversationID string) (*ConversationHistory, error)

	// ClearHistory removes all conversation history for a conversation
	ClearHistory(ctx context.Context, conversationID string) error

	// GetTurnCount returns the number of turns in the conversation
	GetTurnCount(ctx context.Context, conversationID string) (int, error)
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	ConversationID string
	Turns          []ConversationTurn
}

// ContextPhones returns the phones of the most recent assistant turn that has any.
func ContextPhones(history []ConversationTurn) []Phone {
	for i := len(history) - 1; i >= 0; i-- {
		t := history[i]
		if t.Role == RoleAssistant && len(t.Phones) > 0 {
			return t.Phones
		}
	}
	return nil
}

// LastTurns returns at most n trailing turns with non-empty content.
func LastTurns(history []ConversationTurn, n int) []ConversationTurn {
	out := make([]ConversationTurn, 0, n)
	for _, t := range history {
		if t.Content == "" {
			continue
		}
		out = append(out, t)
	}
	if n > 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

// HistoryMessages converts turns into chat messages, skipping empty ones.
func HistoryMessages(turns []ConversationTurn) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		if t.Content == "" {
			continue
		}
		if t.Role == RoleAssistant {
			msgs = append(msgs, schema.AssistantMessage(t.Content, nil))
		} else {
			msgs = append(msgs, schema.UserMessage(t.Content))
		}
	}
	return msgs
}
