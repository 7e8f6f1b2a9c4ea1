package tools

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/catalog"
)

type GetRecommendationsInput struct {
	UseCase   string `json:"use_case"`
	MaxBudget int    `json:"max_budget,omitempty"`
	MinBudget int    `json:"min_budget,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// useCaseOrder maps a free-text use case to catalog ordering. The first
// matching keyword group wins.
func useCaseOrder(useCase string) []catalog.Order {
	u := strings.ToLower(useCase)
	has := func(keys ...string) bool {
		for _, k := range keys {
			if strings.Contains(u, k) {
				return true
			}
		}
		return false
	}
	switch {
	case has("gaming", "performance"):
		return []catalog.Order{catalog.Desc(catalog.FieldPerformanceRating), catalog.Desc(catalog.FieldRAM), catalog.Desc(catalog.FieldRating)}
	case has("camera", "photo"):
		return []catalog.Order{catalog.Desc(catalog.FieldCameraRating), catalog.Desc(catalog.FieldBackCamera), catalog.Desc(catalog.FieldRating)}
	case has("battery"):
		return []catalog.Order{catalog.Desc(catalog.FieldBattery), catalog.Desc(catalog.FieldBatteryRating), catalog.Desc(catalog.FieldRating)}
	case has("budget", "cheap"):
		return []catalog.Order{catalog.Asc(catalog.FieldPrice), catalog.Desc(catalog.FieldRating)}
	case has("premium", "flagship"):
		return []catalog.Order{catalog.Desc(catalog.FieldPrice), catalog.Desc(catalog.FieldRating)}
	default:
		return []catalog.Order{catalog.Desc(catalog.FieldRating), catalog.Desc(catalog.FieldPrice)}
	}
}

func createGetRecommendationsTool(cat catalog.Catalog) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetRecommendations,
			Desc: "Get phone recommendations for a use case within an optional budget. Returns catalog phones ranked for that use case.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"use_case": {
					Type:     schema.String,
					Desc:     "Use case: gaming, camera, battery, budget, premium",
					Required: true,
				},
				"max_budget": {Type: schema.Integer, Desc: "Maximum budget in INR"},
				"min_budget": {Type: schema.Integer, Desc: "Minimum budget in INR"},
				"limit":      {Type: schema.Integer, Desc: "Number of recommendations (default 5)"},
			}),
		},
		func(ctx context.Context, in *GetRecommendationsInput) (*model.PhoneList, error) {
			phones, err := cat.Find(ctx, catalog.Query{
				MinPrice: in.MinBudget,
				MaxPrice: in.MaxBudget,
				OrderBy:  useCaseOrder(in.UseCase),
				Limit:    clampLimit(in.Limit, defaultRecommendLimit, maxSearchLimit),
			})
			if err != nil {
				return nil, err
			}
			return &model.PhoneList{Phones: nonNil(phones), Total: len(phones)}, nil
		},
	)
}
