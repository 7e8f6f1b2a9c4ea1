// Package composer writes the natural-language answer over retrieved phones.
package composer

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/dustin/go-humanize"

	"github.com/MobiAdvisor-core/server/internal/agent/graph/prompts"
	"github.com/MobiAdvisor-core/server/internal/agent/model"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

const (
	NoPhonesMessage     = "I couldn't find any phones matching your criteria."
	GeneralErrorMessage = "I'm sorry, I couldn't process your question. Please try again."

	defaultHistoryTurns = 4
	maxTemplatePhones   = 5
)

type Composer struct {
	chat         einomodel.BaseChatModel
	historyTurns int
}

// New returns a composer. With a nil chat model every answer is the template
// fallback.
func New(chat einomodel.BaseChatModel, historyTurns int) *Composer {
	if historyTurns <= 0 {
		historyTurns = defaultHistoryTurns
	}
	return &Composer{chat: chat, historyTurns: historyTurns}
}

// Compose answers query over phones. The bool reports whether the template
// fallback was used instead of the model.
func (c *Composer) Compose(ctx context.Context, query string, phones []model.Phone, history []model.ConversationTurn) (string, bool) {
	if len(phones) == 0 {
		return NoPhonesMessage, false
	}
	if c == nil || c.chat == nil {
		return Fallback(phones), true
	}

	user, err := prompts.RenderSummary(ctx, query, phones)
	if err != nil {
		logx.Warn().Err(err).Str("stage", "compose").Msg("summary prompt render failed")
		return Fallback(phones), true
	}
	msgs := []*schema.Message{schema.SystemMessage(prompts.Persona)}
	msgs = append(msgs, model.HistoryMessages(model.LastTurns(history, c.historyTurns))...)
	msgs = append(msgs, schema.UserMessage(user))

	out, err := c.chat.Generate(ctx, msgs)
	if err != nil {
		logx.Warn().Err(err).Str("stage", "compose").Msg("response model failed, using template")
		return Fallback(phones), true
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		logx.Warn().Str("stage", "compose").Msg("response model returned nothing, using template")
		return Fallback(phones), true
	}
	return strings.TrimSpace(out.Content), false
}

// AnswerGeneral answers a technology question that needs no catalog data.
func (c *Composer) AnswerGeneral(ctx context.Context, query string, history []model.ConversationTurn) (string, error) {
	if c == nil || c.chat == nil {
		return GeneralErrorMessage, fmt.Errorf("general answer: no chat model")
	}
	user, err := prompts.RenderGeneralQA(ctx, query)
	if err != nil {
		return GeneralErrorMessage, err
	}
	msgs := []*schema.Message{schema.SystemMessage(prompts.Persona)}
	msgs = append(msgs, model.HistoryMessages(model.LastTurns(history, c.historyTurns))...)
	msgs = append(msgs, schema.UserMessage(user))

	out, err := c.chat.Generate(ctx, msgs)
	if err != nil {
		logx.Warn().Err(err).Str("stage", "general_qa").Msg("general answer failed")
		return GeneralErrorMessage, err
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return GeneralErrorMessage, fmt.Errorf("general answer: empty reply")
	}
	return strings.TrimSpace(out.Content), nil
}

// Fallback renders the fixed list answer used when no model is reachable.
func Fallback(phones []model.Phone) string {
	if len(phones) == 0 {
		return NoPhonesMessage
	}
	n := min(len(phones), maxTemplatePhones)
	var b strings.Builder
	fmt.Fprintf(&b, "Here are %d phones I found:\n\n", n)
	for i, p := range phones[:n] {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- **%s** - ₹%s", p.DisplayName(), humanize.Comma(int64(p.PriceINR)))
	}
	return b.String()
}
