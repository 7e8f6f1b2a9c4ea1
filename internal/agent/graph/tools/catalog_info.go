package tools

import (
	"context"
	"slices"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/catalog"
)

type emptyInput struct{}

type GeneralQuestionInput struct {
	Question string `json:"question"`
}

func createGetAvailableBrandsTool(cat catalog.Catalog) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetAvailableBrands,
			Desc: "List every phone brand available in the catalog. Use it to check a brand name before searching.",
		},
		func(ctx context.Context, _ *emptyInput) (*model.BrandList, error) {
			values, err := cat.DistinctValues(ctx, catalog.FieldCompany)
			if err != nil {
				return nil, err
			}
			brands := make([]string, 0, len(values))
			for _, v := range values {
				if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
					brands = append(brands, v)
				}
			}
			slices.Sort(brands)
			brands = slices.Compact(brands)
			return &model.BrandList{Brands: brands, Count: len(brands)}, nil
		},
	)
}

func createGetPriceRangeTool(cat catalog.Catalog) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetPriceRange,
			Desc: "Get the lowest and highest phone price in the catalog, in INR. Use it to sanity check price expectations.",
		},
		func(ctx context.Context, _ *emptyInput) (*model.PriceRange, error) {
			stats, err := cat.Aggregate(ctx)
			if err != nil {
				return nil, err
			}
			return &model.PriceRange{
				MinPrice: int(stats.Price.Min),
				MaxPrice: int(stats.Price.Max),
				Currency: "INR",
			}, nil
		},
	)
}

func createAnswerGeneralQuestionTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolAnswerGeneralQuestion,
			Desc: "Answer general questions about mobile phones and technology that need no catalog lookup, such as: What is 5G? How does wireless charging work? AMOLED vs LCD? What is IP68? Do not use it for specific phones or recommendations.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"question": {
					Type:     schema.String,
					Desc:     "The general technology or mobile phone question to answer",
					Required: true,
				},
			}),
		},
		func(_ context.Context, in *GeneralQuestionInput) (*model.GeneralAnswer, error) {
			return &model.GeneralAnswer{
				Answer: "Please provide a helpful, accurate answer from general knowledge about: " + strings.TrimSpace(in.Question),
			}, nil
		},
	)
}
