package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/MobiAdvisor-core/server/internal/catalog"
)

const (
	ToolSearchPhones          = "search_phones"
	ToolGetPhoneDetails       = "get_phone_details"
	ToolComparePhones         = "compare_phones"
	ToolGetRecommendations    = "get_recommendations"
	ToolGetAvailableBrands    = "get_available_brands"
	ToolGetPriceRange         = "get_price_range"
	ToolAnswerGeneralQuestion = "answer_general_question"
)

const (
	defaultSearchLimit    = 10
	maxSearchLimit        = 20
	defaultRecommendLimit = 5
	maxComparePhones      = 4
)

// GetQueryTools returns every catalog-backed tool exposed to the agent model.
func GetQueryTools(cat catalog.Catalog) []tool.BaseTool {
	return []tool.BaseTool{
		createSearchPhonesTool(cat),
		createGetPhoneDetailsTool(cat),
		createComparePhonesTool(cat),
		createGetRecommendationsTool(cat),
		createGetAvailableBrandsTool(cat),
		createGetPriceRangeTool(cat),
		createAnswerGeneralQuestionTool(),
	}
}

// GetToolInfos collects tool schemas for binding to a chat model.
func GetToolInfos(ctx context.Context, ts []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(ts))
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func clampLimit(n, def, hi int) int {
	if n <= 0 {
		return def
	}
	return min(n, hi)
}
