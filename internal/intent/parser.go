// Package intent turns a user utterance into a structured ParsedIntent.
package intent

import (
	"context"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/MobiAdvisor-core/server/internal/agent/graph/parsers"
	"github.com/MobiAdvisor-core/server/internal/agent/graph/prompts"
	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/guardrail"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

const defaultHistoryTurns = 4

// Parser classifies utterances with a language model. It never fails: any
// model or decoding problem yields model.DefaultIntent.
type Parser struct {
	chat         einomodel.BaseChatModel
	historyTurns int
}

// NewParser returns a parser. chat may be nil, in which case every call
// returns the default intent.
func NewParser(chat einomodel.BaseChatModel, historyTurns int) *Parser {
	if historyTurns <= 0 {
		historyTurns = defaultHistoryTurns
	}
	return &Parser{chat: chat, historyTurns: historyTurns}
}

func (p *Parser) Parse(ctx context.Context, query string, history []model.ConversationTurn) model.ParsedIntent {
	if p == nil || p.chat == nil {
		return model.DefaultIntent()
	}

	msgs, err := p.messages(ctx, query, history)
	if err != nil {
		logx.Warn().Err(err).Msg("intent prompt render failed, using default intent")
		return model.DefaultIntent()
	}

	out, err := p.chat.Generate(ctx, msgs)
	if err != nil {
		logx.Warn().Err(err).Str("stage", "intent").Msg("intent model call failed, using default intent")
		return model.DefaultIntent()
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		logx.Warn().Str("stage", "intent").Msg("intent model returned empty content, using default intent")
		return model.DefaultIntent()
	}

	parsed, err := parsers.ParseIntent(out.Content)
	if err != nil {
		logx.Warn().Err(err).Str("stage", "intent").Msg("intent reply rejected at json boundary, using default intent")
		return model.DefaultIntent()
	}
	return ApplyPostRules(query, parsed)
}

func (p *Parser) messages(ctx context.Context, query string, history []model.ConversationTurn) ([]*schema.Message, error) {
	user, err := prompts.RenderIntent(ctx, query)
	if err != nil {
		return nil, err
	}
	msgs := []*schema.Message{schema.SystemMessage(prompts.IntentSystem)}
	msgs = append(msgs, model.HistoryMessages(model.LastTurns(history, p.historyTurns))...)
	msgs = append(msgs, schema.UserMessage(user))
	return msgs, nil
}

// ApplyPostRules biases rejections toward query: an utterance that refers to
// earlier phones or names a phone term is never rejected.
func ApplyPostRules(query string, in model.ParsedIntent) model.ParsedIntent {
	if in.Task != model.TaskReject {
		return in
	}
	if guardrail.HasReference(query) || guardrail.HasDomainTerm(query) {
		logx.Debug().Str("query", query).Msg("reject overridden to query")
		in.Task = model.TaskQuery
	}
	return in
}
