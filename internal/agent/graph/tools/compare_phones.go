package tools

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/catalog"
)

type ComparePhonesInput struct {
	PhoneIDs []int64 `json:"phone_ids"`
}

func createComparePhonesTool(cat catalog.Catalog) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolComparePhones,
			Desc: "Compare 2 to 4 phones side by side by catalog ID. Returns their real specs and the winner ID for camera, battery, value and overall rating.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"phone_ids": {
					Type:     schema.Array,
					Desc:     "Catalog IDs of the phones to compare (2-4)",
					ElemInfo: &schema.ParameterInfo{Type: schema.Integer},
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *ComparePhonesInput) (*model.PhoneComparison, error) {
			ids := in.PhoneIDs
			if len(ids) < 2 {
				return &model.PhoneComparison{Phones: []model.Phone{}, Error: "Need at least 2 phones to compare"}, nil
			}
			if len(ids) > maxComparePhones {
				ids = ids[:maxComparePhones]
			}

			found, err := cat.Find(ctx, catalog.Query{IDs: ids})
			if err != nil {
				return nil, err
			}
			// keep the caller's order
			byID := make(map[int64]model.Phone, len(found))
			for _, p := range found {
				byID[p.ID] = p
			}
			phones := make([]model.Phone, 0, len(ids))
			for _, id := range ids {
				if p, ok := byID[id]; ok {
					phones = append(phones, p)
					delete(byID, id)
				}
			}
			if len(phones) < 2 {
				return &model.PhoneComparison{Phones: nonNil(phones), Error: "Not enough valid phones found"}, nil
			}
			return &model.PhoneComparison{Phones: phones, Winners: model.ComputeWinners(phones)}, nil
		},
	)
}
