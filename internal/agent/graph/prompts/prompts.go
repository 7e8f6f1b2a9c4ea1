package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/dustin/go-humanize"

	"github.com/MobiAdvisor-core/server/internal/agent/graph/tools"
	"github.com/MobiAdvisor-core/server/internal/agent/model"
)

var (
	//go:embed template/persona.txt
	Persona string

	//go:embed template/agent_system.txt
	agentSystemPrompt string

	//go:embed template/intent.txt
	intentPrompt string

	//go:embed template/summary.txt
	summaryPrompt string

	//go:embed template/general_qa.txt
	generalQAPrompt string

	//go:embed template/nl2sql.txt
	nl2sqlPrompt string

	//go:embed template/compare.txt
	comparePrompt string
)

const (
	IntentSystem  = "You are a query parser. Respond only with valid JSON."
	SQLSystem     = "You generate SQL queries. Respond only with the SQL query, no explanation."
	CompareSystem = "You are a helpful phone comparison assistant. Always respond in valid JSON."

	maxAgentPhones = 5
)

// render formats a Go template through the Eino prompt component so prompt
// callbacks fire for every rendered prompt.
func render(ctx context.Context, name, tpl string, vars map[string]any) (string, error) {
	t := prompt.FromMessages(schema.GoTemplate, schema.SystemMessage(tpl))
	msgs, err := t.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("%s prompt render: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("%s prompt render: empty result", name)
	}
	return msgs[0].Content, nil
}

// RenderAgentSystem renders the system prompt of the tool-calling agent.
func RenderAgentSystem(ctx context.Context) (string, error) {
	return render(ctx, "agent", agentSystemPrompt, map[string]any{
		"SearchTool":     tools.ToolSearchPhones,
		"DetailsTool":    tools.ToolGetPhoneDetails,
		"CompareTool":    tools.ToolComparePhones,
		"RecommendTool":  tools.ToolGetRecommendations,
		"BrandsTool":     tools.ToolGetAvailableBrands,
		"PriceRangeTool": tools.ToolGetPriceRange,
		"GeneralTool":    tools.ToolAnswerGeneralQuestion,
		"MaxPhones":      maxAgentPhones,
	})
}

func RenderIntent(ctx context.Context, query string) (string, error) {
	return render(ctx, "intent", intentPrompt, map[string]any{"Query": query})
}

// RenderSummary renders the grounded answer prompt over phones.
func RenderSummary(ctx context.Context, query string, phones []model.Phone) (string, error) {
	data := PhoneData(phones)
	if data == "" {
		data = "No phones found matching your criteria."
	}
	return render(ctx, "summary", summaryPrompt, map[string]any{"Query": query, "PhoneData": data})
}

func RenderGeneralQA(ctx context.Context, query string) (string, error) {
	return render(ctx, "general_qa", generalQAPrompt, map[string]any{"Query": query})
}

// RenderNL2SQL renders the query generation prompt. intentJSON is the merged
// intent and filters, already serialized.
func RenderNL2SQL(ctx context.Context, intentJSON string, limit int) (string, error) {
	return render(ctx, "nl2sql", nl2sqlPrompt, map[string]any{"Intent": intentJSON, "Limit": limit})
}

func RenderCompare(ctx context.Context, phones []model.Phone) (string, error) {
	return render(ctx, "compare", comparePrompt, map[string]any{"PhoneData": PhoneData(phones)})
}

// PhoneData lists phones with the fields answers may cite.
func PhoneData(phones []model.Phone) string {
	var b strings.Builder
	for i, p := range phones {
		processor := p.Processor
		if processor == "" {
			processor = "N/A"
		}
		fmt.Fprintf(&b, "Phone %d: %s (ID: %d)\n", i+1, p.DisplayName(), p.ID)
		fmt.Fprintf(&b, "- Price: ₹%s\n", humanize.Comma(int64(p.PriceINR)))
		fmt.Fprintf(&b, "- RAM: %gGB | Storage: %dGB\n", p.RAMGB, p.MemoryGB)
		fmt.Fprintf(&b, "- Camera: %gMP rear, %gMP front\n", p.BackCameraMP, p.FrontCameraMP)
		fmt.Fprintf(&b, "- Battery: %dmAh\n", p.BatteryMAH)
		if p.ScreenSize > 0 {
			fmt.Fprintf(&b, "- Screen: %.2f\"\n", p.ScreenSize)
		}
		fmt.Fprintf(&b, "- Rating: %.1f/5\n", p.UserRating)
		fmt.Fprintf(&b, "- Processor: %s\n\n", processor)
	}
	return strings.TrimSpace(b.String())
}
