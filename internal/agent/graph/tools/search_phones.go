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

// ===================================
// Search Phones Tool
// ===================================

type SearchPhonesInput struct {
	Query      string   `json:"query"`
	Brands     []string `json:"brands,omitempty"`
	MinPrice   int      `json:"min_price,omitempty"`
	MaxPrice   int      `json:"max_price,omitempty"`
	MinRAM     float64  `json:"min_ram,omitempty"`
	MinBattery int      `json:"min_battery,omitempty"`
	SortBy     string   `json:"sort_by,omitempty"`
	Limit      int      `json:"limit,omitempty"`
}

var sortOrders = map[string][]catalog.Order{
	"rating":     {catalog.Desc(catalog.FieldRating)},
	"price":      {catalog.Asc(catalog.FieldPrice)},
	"price_desc": {catalog.Desc(catalog.FieldPrice)},
	"battery":    {catalog.Desc(catalog.FieldBattery)},
	"camera":     {catalog.Desc(catalog.FieldBackCamera)},
}

// searchStopwords are dropped when a phrase query is split into keywords.
var searchStopwords = map[string]struct{}{
	"phone": {}, "phones": {}, "mobile": {}, "mobiles": {}, "smartphone": {},
	"best": {}, "good": {}, "with": {}, "for": {}, "and": {}, "the": {}, "under": {},
}

func createSearchPhonesTool(cat catalog.Catalog) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolSearchPhones,
			Desc: "Search phones in the catalog with filters. Matches model, brand and processor names. Returns real catalog records with their IDs, never fabricated data.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type: schema.String,
					Desc: "Search text such as a model, brand or processor name (e.g. 'galaxy s24', 'snapdragon'). May be empty when only filters apply.",
				},
				"brands": {
					Type:     schema.Array,
					Desc:     "Filter by brand names",
					ElemInfo: &schema.ParameterInfo{Type: schema.String},
				},
				"min_price":   {Type: schema.Integer, Desc: "Minimum price in INR"},
				"max_price":   {Type: schema.Integer, Desc: "Maximum price in INR"},
				"min_ram":     {Type: schema.Number, Desc: "Minimum RAM in GB"},
				"min_battery": {Type: schema.Integer, Desc: "Minimum battery in mAh"},
				"sort_by": {
					Type: schema.String,
					Desc: "Sort order",
					Enum: []string{"rating", "price", "price_desc", "battery", "camera"},
				},
				"limit": {Type: schema.Integer, Desc: "Max results to return (default 10, max 20)"},
			}),
		},
		func(ctx context.Context, in *SearchPhonesInput) (*model.PhoneList, error) {
			order, ok := sortOrders[strings.ToLower(strings.TrimSpace(in.SortBy))]
			if !ok {
				order = sortOrders["rating"]
			}
			q := catalog.Query{
				AnyCompany:     in.Brands,
				MinPrice:       in.MinPrice,
				MaxPrice:       in.MaxPrice,
				MinRAM:         in.MinRAM,
				MinBattery:     in.MinBattery,
				MatchProcessor: true,
				OrderBy:        order,
				Limit:          clampLimit(in.Limit, defaultSearchLimit, maxSearchLimit),
			}

			text := strings.TrimSpace(in.Query)
			if text != "" {
				q.Keywords = []string{text}
			}
			phones, err := cat.Find(ctx, q)
			if err != nil {
				return nil, err
			}

			// A phrase rarely matches a single column; retry word by word.
			if len(phones) == 0 && strings.Contains(text, " ") {
				if kws := keywords(text); len(kws) > 0 {
					q.Keywords = kws
					if phones, err = cat.Find(ctx, q); err != nil {
						return nil, err
					}
				}
			}
			return &model.PhoneList{Phones: nonNil(phones), Total: len(phones)}, nil
		},
	)
}

func keywords(text string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if len(w) < 3 {
			continue
		}
		if _, stop := searchStopwords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

func nonNil(phones []model.Phone) []model.Phone {
	if phones == nil {
		return []model.Phone{}
	}
	return phones
}
