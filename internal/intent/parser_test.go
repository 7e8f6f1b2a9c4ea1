package intent

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MobiAdvisor-core/server/internal/agent/graph/prompts"
	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/llmtest"
)

const cameraIntent = `{"task":"query","entities":{"company":[],"model":[],"features":["camera"]},
"constraints":{"max_price":20000},"comparison_type":"range","priority_features":["camera"]}`

func TestParse_ModelReply(t *testing.T) {
	chat := llmtest.New(llmtest.Text("```json\n" + cameraIntent + "\n```"))
	p := NewParser(chat, 4)

	got := p.Parse(context.Background(), "best camera phone under 20000", nil)
	assert.Equal(t, model.TaskQuery, got.Task)
	assert.Equal(t, model.ComparisonRange, got.ComparisonType)
	require.NotNil(t, got.Constraints.MaxPrice)
	assert.Equal(t, 20000.0, *got.Constraints.MaxPrice)
	assert.True(t, got.HasPriority("camera"))
}

func TestParse_PromptCarriesLastHistoryTurns(t *testing.T) {
	chat := llmtest.New(llmtest.Text(cameraIntent))
	p := NewParser(chat, 4)

	history := []model.ConversationTurn{
		{Role: model.RoleUser, Content: "turn 1"},
		{Role: model.RoleAssistant, Content: "turn 2"},
		{Role: model.RoleUser, Content: ""},
		{Role: model.RoleUser, Content: "turn 3"},
		{Role: model.RoleAssistant, Content: "turn 4"},
		{Role: model.RoleUser, Content: "turn 5"},
	}
	p.Parse(context.Background(), "and the cheapest?", history)

	in := chat.Input(0)
	require.Len(t, in, 6)
	assert.Equal(t, schema.System, in[0].Role)
	assert.Equal(t, prompts.IntentSystem, in[0].Content)
	assert.Equal(t, []string{"turn 2", "turn 3", "turn 4", "turn 5"},
		[]string{in[1].Content, in[2].Content, in[3].Content, in[4].Content})
	assert.Equal(t, schema.Assistant, in[1].Role)
	assert.Equal(t, schema.User, in[5].Role)
	assert.Contains(t, in[5].Content, "User query: and the cheapest?")
}

func TestParse_FailuresReturnDefault(t *testing.T) {
	tests := []struct {
		name  string
		reply llmtest.Reply
	}{
		{"model error", llmtest.Fail(llmtest.ErrModelDown)},
		{"empty reply", llmtest.Text("  ")},
		{"not json", llmtest.Text("Sorry, I cannot help.")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewParser(llmtest.New(tc.reply), 4)
			assert.Equal(t, model.DefaultIntent(), p.Parse(context.Background(), "anything", nil))
		})
	}

	var nilParser *Parser
	assert.Equal(t, model.DefaultIntent(), nilParser.Parse(context.Background(), "x", nil))
	assert.Equal(t, model.DefaultIntent(), NewParser(nil, 0).Parse(context.Background(), "x", nil))
}

func TestApplyPostRules(t *testing.T) {
	reject := model.DefaultIntent()
	reject.Task = model.TaskReject

	tests := []struct {
		query string
		want  model.Task
	}{
		{"compare them", model.TaskQuery},
		{"what about the second?", model.TaskQuery},
		{"is that one any good", model.TaskQuery},
		{"does the galaxy have a good camera", model.TaskQuery},
		{"write me a poem", model.TaskReject},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			assert.Equal(t, tc.want, ApplyPostRules(tc.query, reject).Task)
		})
	}

	general := model.DefaultIntent()
	general.Task = model.TaskGeneralQA
	assert.Equal(t, model.TaskGeneralQA, ApplyPostRules("compare them", general).Task)
}

func TestParse_RejectOverriddenForReference(t *testing.T) {
	chat := llmtest.New(llmtest.Text(`{"task":"reject"}`))
	got := NewParser(chat, 0).Parse(context.Background(), "tell me about the first one", nil)
	assert.Equal(t, model.TaskQuery, got.Task)
}
