// Package comparison builds side-by-side phone comparisons with deterministic
// category winners and an optional model-written analysis.
package comparison

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/MobiAdvisor-core/server/internal/agent/graph/parsers"
	"github.com/MobiAdvisor-core/server/internal/agent/graph/prompts"
	"github.com/MobiAdvisor-core/server/internal/agent/model"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

const (
	MinPhones = 2
	MaxPhones = 4

	ErrTooFewPhones = "At least 2 phones required for comparison"
	WarningAnalysis = "Detailed analysis unavailable"
)

type Service struct {
	chat einomodel.BaseChatModel
}

// NewService returns a comparison service. Without a chat model comparisons
// carry winners only.
func NewService(chat einomodel.BaseChatModel) *Service {
	return &Service{chat: chat}
}

// Compare accepts two to four phones; extra phones are dropped.
func (s *Service) Compare(ctx context.Context, phones []model.Phone) model.Comparison {
	if len(phones) < MinPhones {
		return model.Comparison{Phones: []model.Phone{}, Error: ErrTooFewPhones}
	}
	out := model.Comparison{}
	if len(phones) > MaxPhones {
		phones = phones[:MaxPhones]
		out.Truncated = true
	}
	out.Phones = phones
	out.Winners = model.ComputeWinners(phones)

	if s == nil || s.chat == nil {
		return out
	}
	analysis, err := s.analyze(ctx, phones)
	if err != nil {
		logx.Warn().Err(err).Str("stage", "compare").Msg("comparison analysis dropped")
		out.Warning = WarningAnalysis
		return out
	}
	out.Analysis = analysis
	return out
}

func (s *Service) analyze(ctx context.Context, phones []model.Phone) (*model.ComparisonAnalysis, error) {
	user, err := prompts.RenderCompare(ctx, phones)
	if err != nil {
		return nil, err
	}
	reply, err := s.chat.Generate(ctx, []*schema.Message{
		schema.SystemMessage(prompts.CompareSystem),
		schema.UserMessage(user),
	})
	if err != nil {
		return nil, fmt.Errorf("compare model: %w", err)
	}
	if reply == nil {
		return nil, fmt.Errorf("compare model: empty reply")
	}
	analysis, err := parsers.ParseComparisonAnalysis(reply.Content)
	if err != nil {
		return nil, err
	}
	if err := checkWinners(analysis, phones); err != nil {
		return nil, err
	}
	return analysis, nil
}

// checkWinners requires every verdict to name one of the compared phones.
func checkWinners(a *model.ComparisonAnalysis, phones []model.Phone) error {
	names := make(map[string]struct{}, len(phones)*2)
	for _, p := range phones {
		names[strings.ToLower(p.DisplayName())] = struct{}{}
		names[strings.ToLower(strings.TrimSpace(p.ModelName))] = struct{}{}
	}
	for _, v := range a.Verdicts() {
		if _, ok := names[strings.ToLower(strings.TrimSpace(v.Winner))]; !ok {
			return fmt.Errorf("winner %q is not a compared phone", v.Winner)
		}
	}
	return nil
}
