package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/catalog"
	"github.com/MobiAdvisor-core/server/internal/catalog/catalogtest"
)

func findTool(t *testing.T, cat catalog.Catalog, name string) tool.InvokableTool {
	t.Helper()
	for _, bt := range GetQueryTools(cat) {
		info, err := bt.Info(context.Background())
		require.NoError(t, err)
		if info.Name == name {
			inv, ok := bt.(tool.InvokableTool)
			require.True(t, ok, "tool %s must be invokable", name)
			return inv
		}
	}
	t.Fatalf("tool %s not registered", name)
	return nil
}

func run[T any](t *testing.T, cat catalog.Catalog, name, args string) T {
	t.Helper()
	out, err := findTool(t, cat, name).InvokableRun(context.Background(), args)
	require.NoError(t, err)
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestGetToolInfos(t *testing.T) {
	infos, err := GetToolInfos(context.Background(), GetQueryTools(catalogtest.NewStore()))
	require.NoError(t, err)

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{
		ToolSearchPhones, ToolGetPhoneDetails, ToolComparePhones, ToolGetRecommendations,
		ToolGetAvailableBrands, ToolGetPriceRange, ToolAnswerGeneralQuestion,
	}, names)
}

func TestSearchPhones(t *testing.T) {
	cat := catalogtest.NewStore()

	t.Run("processor match sorted by price", func(t *testing.T) {
		got := run[model.PhoneList](t, cat, ToolSearchPhones, `{"query":"snapdragon","sort_by":"price"}`)
		assert.Equal(t, []int64{4, 8, 5, 1}, model.PhoneIDs(got.Phones))
		assert.Equal(t, 4, got.Total)
	})

	t.Run("phrase falls back to keywords", func(t *testing.T) {
		got := run[model.PhoneList](t, cat, ToolSearchPhones, `{"query":"samsung galaxy phone"}`)
		assert.Equal(t, []int64{1, 2}, model.PhoneIDs(got.Phones))
	})

	t.Run("filters only", func(t *testing.T) {
		got := run[model.PhoneList](t, cat, ToolSearchPhones, `{"max_price":20000,"min_battery":5100,"sort_by":"battery"}`)
		assert.Equal(t, []int64{6, 8}, model.PhoneIDs(got.Phones))
	})

	t.Run("brands and limit", func(t *testing.T) {
		got := run[model.PhoneList](t, cat, ToolSearchPhones, `{"brands":["xiaomi","google"],"limit":2}`)
		assert.Equal(t, []int64{7, 8}, model.PhoneIDs(got.Phones))
	})

	t.Run("no match is an empty list", func(t *testing.T) {
		got := run[model.PhoneList](t, cat, ToolSearchPhones, `{"query":"nokia"}`)
		assert.NotNil(t, got.Phones)
		assert.Empty(t, got.Phones)
	})
}

func TestGetPhoneDetails(t *testing.T) {
	cat := catalogtest.NewStore()

	got := run[GetPhoneDetailsOutput](t, cat, ToolGetPhoneDetails, `{"phone_id":3}`)
	require.Len(t, got.Phones, 1)
	assert.Equal(t, "iPhone 15", got.Phones[0].ModelName)
	assert.Empty(t, got.Error)

	missing := run[GetPhoneDetailsOutput](t, cat, ToolGetPhoneDetails, `{"phone_id":99}`)
	assert.Empty(t, missing.Phones)
	assert.Equal(t, "phone 99 not found", missing.Error)

	invalid := run[GetPhoneDetailsOutput](t, cat, ToolGetPhoneDetails, `{}`)
	assert.Equal(t, "phone_id is required", invalid.Error)
}

func TestComparePhones(t *testing.T) {
	cat := catalogtest.NewStore()

	got := run[model.PhoneComparison](t, cat, ToolComparePhones, `{"phone_ids":[1,4,6]}`)
	assert.Equal(t, []int64{1, 4, 6}, model.PhoneIDs(got.Phones))
	require.NotNil(t, got.Winners)
	assert.Equal(t, model.ComparisonWinners{Camera: 1, Battery: 6, Value: 4, Overall: 1}, *got.Winners)

	t.Run("keeps caller order and caps at four", func(t *testing.T) {
		got := run[model.PhoneComparison](t, cat, ToolComparePhones, `{"phone_ids":[8,2,7,3,1]}`)
		assert.Equal(t, []int64{8, 2, 7, 3}, model.PhoneIDs(got.Phones))
	})

	t.Run("too few ids", func(t *testing.T) {
		got := run[model.PhoneComparison](t, cat, ToolComparePhones, `{"phone_ids":[1]}`)
		assert.Equal(t, "Need at least 2 phones to compare", got.Error)
		assert.Nil(t, got.Winners)
	})

	t.Run("unknown ids", func(t *testing.T) {
		got := run[model.PhoneComparison](t, cat, ToolComparePhones, `{"phone_ids":[1,99]}`)
		assert.Equal(t, "Not enough valid phones found", got.Error)
	})
}

func TestGetRecommendations(t *testing.T) {
	cat := catalogtest.NewStore()

	tests := []struct {
		name string
		args string
		want []int64
	}{
		{"camera under budget", `{"use_case":"camera","max_budget":20000}`, []int64{4, 8, 6, 2}},
		{"gaming", `{"use_case":"Gaming","limit":2}`, []int64{1, 5}},
		{"battery", `{"use_case":"long battery","limit":3}`, []int64{6, 5, 8}},
		{"budget", `{"use_case":"cheap phone","limit":3}`, []int64{2, 6, 4}},
		{"premium", `{"use_case":"flagship","limit":2}`, []int64{1, 3}},
		{"unknown use case ranks by rating", `{"use_case":"everyday","limit":3}`, []int64{1, 3, 5}},
		{"budget window", `{"use_case":"photo","min_budget":30000,"max_budget":80000}`, []int64{7, 3, 5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := run[model.PhoneList](t, cat, ToolGetRecommendations, tc.args)
			assert.Equal(t, tc.want, model.PhoneIDs(got.Phones))
		})
	}
}

func TestCatalogInfoTools(t *testing.T) {
	cat := catalogtest.NewStore()

	brands := run[model.BrandList](t, cat, ToolGetAvailableBrands, `{}`)
	assert.Equal(t, []string{"apple", "google", "oneplus", "realme", "samsung", "xiaomi"}, brands.Brands)
	assert.Equal(t, 6, brands.Count)

	pr := run[model.PriceRange](t, cat, ToolGetPriceRange, `{}`)
	assert.Equal(t, model.PriceRange{MinPrice: 14999, MaxPrice: 129999, Currency: "INR"}, pr)

	ans := run[model.GeneralAnswer](t, cat, ToolAnswerGeneralQuestion, `{"question":" What is 5G? "}`)
	assert.Contains(t, ans.Answer, "about: What is 5G?")
}

func TestToolsSurfaceCatalogFailure(t *testing.T) {
	cat := catalogtest.FailingCatalog{}
	for _, name := range []string{ToolSearchPhones, ToolGetPhoneDetails, ToolComparePhones, ToolGetRecommendations, ToolGetAvailableBrands, ToolGetPriceRange} {
		t.Run(name, func(t *testing.T) {
			_, err := findTool(t, cat, name).InvokableRun(context.Background(), `{"query":"x","phone_id":1,"phone_ids":[1,2],"use_case":"camera"}`)
			assert.ErrorIs(t, err, catalogtest.ErrCatalogDown)
		})
	}
}
