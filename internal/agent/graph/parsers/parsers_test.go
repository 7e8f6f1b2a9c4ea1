package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"no tag", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"inline", "```{\"a\":1}```", `{"a":1}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripFences(tc.in))
		})
	}
}

func TestExtractObject(t *testing.T) {
	got, err := ExtractObject(`Sure! Here you go: {"a": {"b": "}"}, "c": "\"{"} trailing {"x":1}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a": {"b": "}"}, "c": "\"{"}`, got)

	_, err = ExtractObject("no json here")
	assert.ErrorIs(t, err, ErrNoJSONObject)

	_, err = ExtractObject(`{"a": 1`)
	assert.ErrorIs(t, err, ErrNoJSONObject)

	_, err = ExtractObject(`{"a": "` + strings.Repeat("x", maxObjectLen+10) + `"}`)
	assert.ErrorIs(t, err, ErrObjectTooLong)
}

func TestParseIntent(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		in := "```json\n" + `{
  "task": "query",
  "entities": {"company": ["samsung"], "model": ["s24 ultra"], "features": ["camera"]},
  "constraints": {"min_price": null, "max_price": 20000, "min_ram": 8, "min_battery": null, "min_camera": null, "min_storage": null},
  "comparison_type": "single",
  "priority_features": ["camera"]
}` + "\n```"
		got, err := ParseIntent(in)
		require.NoError(t, err)
		assert.Equal(t, model.TaskQuery, got.Task)
		assert.Equal(t, []string{"samsung"}, got.Entities.Company)
		assert.Equal(t, []string{"s24 ultra"}, got.Entities.Model)
		require.NotNil(t, got.Constraints.MaxPrice)
		assert.Equal(t, 20000.0, *got.Constraints.MaxPrice)
		require.NotNil(t, got.Constraints.MinRAM)
		assert.Equal(t, 8.0, *got.Constraints.MinRAM)
		assert.Nil(t, got.Constraints.MinPrice)
		assert.Equal(t, model.ComparisonSingle, got.ComparisonType)
		assert.Equal(t, []string{"camera"}, got.PriorityFeatures)
	})

	t.Run("repairs shape", func(t *testing.T) {
		in := `Parsed: {"task": "SEARCH", "entities": {"company": "apple", "model": [1, "iphone 15", ""]},
"constraints": {"max_price": "30,000", "min_ram": "lots", "min_battery": -5, "color": "red"},
"comparison_type": "versus"}`
		got, err := ParseIntent(in)
		require.NoError(t, err)
		assert.Equal(t, model.TaskQuery, got.Task)
		assert.Equal(t, []string{"apple"}, got.Entities.Company)
		assert.Equal(t, []string{"iphone 15"}, got.Entities.Model)
		assert.Equal(t, []string{}, got.Entities.Features)
		require.NotNil(t, got.Constraints.MaxPrice)
		assert.Equal(t, 30000.0, *got.Constraints.MaxPrice)
		assert.Nil(t, got.Constraints.MinRAM)
		assert.Nil(t, got.Constraints.MinBattery)
		assert.Equal(t, model.ComparisonSingle, got.ComparisonType)
		assert.Equal(t, []string{}, got.PriorityFeatures)
	})

	t.Run("general qa and reject kept", func(t *testing.T) {
		got, err := ParseIntent(`{"task":"general_qa"}`)
		require.NoError(t, err)
		assert.Equal(t, model.TaskGeneralQA, got.Task)

		got, err = ParseIntent(`{"task":" Reject "}`)
		require.NoError(t, err)
		assert.Equal(t, model.TaskReject, got.Task)
	})

	t.Run("caps list length", func(t *testing.T) {
		models := make([]string, 0, 20)
		for range 20 {
			models = append(models, `"m"`)
		}
		got, err := ParseIntent(`{"entities":{"model":[` + strings.Join(models, ",") + `]}}`)
		require.NoError(t, err)
		assert.Len(t, got.Entities.Model, maxListItems)
	})

	t.Run("garbage returns default", func(t *testing.T) {
		got, err := ParseIntent("I could not understand that.")
		assert.Error(t, err)
		assert.Equal(t, model.DefaultIntent(), got)

		got, err = ParseIntent(`{"task": "query",}`)
		assert.Error(t, err)
		assert.Equal(t, model.DefaultIntent(), got)
	})
}

func TestParseComparisonAnalysis(t *testing.T) {
	valid := `{
  "overall": {"winner": "Samsung Galaxy S24 Ultra", "reasoning": "Best all rounder"},
  "gaming": {"winner": "Samsung Galaxy S24 Ultra", "reasoning": "Fastest chip"},
  "photography": {"winner": "Samsung Galaxy S24 Ultra", "reasoning": "200MP"},
  "value": {"winner": "Xiaomi Redmi Note 13", "reasoning": "Cheapest"},
  "dailyUse": {"winner": "Xiaomi Redmi Note 13", "reasoning": "Big battery"},
  "summary": "Two good phones."
}`
	got, err := ParseComparisonAnalysis("```json\n" + valid + "\n```")
	require.NoError(t, err)
	assert.Equal(t, "Xiaomi Redmi Note 13", got.Value.Winner)
	assert.Equal(t, "Big battery", got.DailyUse.Reasoning)
	assert.Equal(t, "Two good phones.", got.Summary)
	assert.Len(t, got.Verdicts(), 5)

	_, err = ParseComparisonAnalysis(`{"overall": {"winner": "X", "reasoning": "y"}, "summary": "s"}`)
	assert.ErrorIs(t, err, ErrSchema)

	_, err = ParseComparisonAnalysis(strings.Replace(valid, `"winner": "Xiaomi Redmi Note 13", "reasoning": "Cheapest"`, `"winner": "", "reasoning": "Cheapest"`, 1))
	assert.ErrorIs(t, err, ErrSchema)
}

func TestParsePhonePayload(t *testing.T) {
	t.Run("object with phones", func(t *testing.T) {
		got, err := ParsePhonePayload(`{"phones":[{"id":3,"company_name":"Apple","model_name":"iPhone 15","price_inr":79999}],"total":1}`)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, int64(3), got[0].ID)
		assert.Equal(t, 79999, got[0].PriceINR)
	})

	t.Run("bare list with phone_id", func(t *testing.T) {
		got, err := ParsePhonePayload(`[{"phone_id":7,"company_name":"Google","model_name":"Pixel 8"},{"company_name":"NoID"}]`)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, int64(7), got[0].ID)
	})

	t.Run("payload without phones", func(t *testing.T) {
		got, err := ParsePhonePayload(`{"brands":["apple"],"count":1}`)
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = ParsePhonePayload(`plain text answer`)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParsePhonePayload(`{"phones": [`)
		assert.Error(t, err)
	})
}
