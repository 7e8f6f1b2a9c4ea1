package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/catalog"
)

type GetPhoneDetailsInput struct {
	PhoneID int64 `json:"phone_id"`
}

type GetPhoneDetailsOutput struct {
	Phones []model.Phone `json:"phones"`
	Error  string        `json:"error,omitempty"`
}

func createGetPhoneDetailsTool(cat catalog.Catalog) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetPhoneDetails,
			Desc: "Get the full specifications of one phone by its catalog ID, including ratings, weight, screen size and the user review summary.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"phone_id": {
					Type:     schema.Integer,
					Desc:     "Catalog ID of the phone, taken from earlier tool results or the conversation context",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *GetPhoneDetailsInput) (*GetPhoneDetailsOutput, error) {
			if in.PhoneID <= 0 {
				return &GetPhoneDetailsOutput{Phones: []model.Phone{}, Error: "phone_id is required"}, nil
			}
			p, err := cat.GetByID(ctx, in.PhoneID)
			if errors.Is(err, catalog.ErrNotFound) {
				return &GetPhoneDetailsOutput{Phones: []model.Phone{}, Error: fmt.Sprintf("phone %d not found", in.PhoneID)}, nil
			}
			if err != nil {
				return nil, err
			}
			return &GetPhoneDetailsOutput{Phones: []model.Phone{*p}}, nil
		},
	)
}
