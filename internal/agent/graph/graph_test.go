package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MobiAdvisor-core/server/internal/agent/graph/conversations"
	"github.com/MobiAdvisor-core/server/internal/agent/graph/nodes"
	"github.com/MobiAdvisor-core/server/internal/agent/graph/tools"
	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/catalog/catalogtest"
	"github.com/MobiAdvisor-core/server/internal/llmtest"
)

func newRunner(t *testing.T, chat *llmtest.ChatModel, maxCalls int) Runner {
	t.Helper()
	r, err := BuildAgent(context.Background(), &GraphConfig{
		ChatModel:       chat,
		ModelName:       "gemini-2.5-flash",
		Catalog:         catalogtest.NewStore(),
		MessagesManager: conversations.NewMessagesManager(nil, model.ConversationConfig{HistoryTurns: 6}),
		ToolMaxCalls:    maxCalls,
	})
	require.NoError(t, err)
	return r
}

func toolMessages(msgs []*schema.Message) []*schema.Message {
	var out []*schema.Message
	for _, m := range msgs {
		if m.Role == schema.Tool {
			out = append(out, m)
		}
	}
	return out
}

func TestAgentAnswersDirectly(t *testing.T) {
	chat := llmtest.New(llmtest.Text("Hello! Tell me your budget and I'll find a phone."))
	res, err := newRunner(t, chat, 10).Invoke(context.Background(), model.AgentInput{Query: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "Hello! Tell me your budget and I'll find a phone.", res.Message)
	assert.Empty(t, res.Phones)
	assert.Zero(t, res.ToolCalls)
	assert.Len(t, chat.BoundTools(), 7)

	in := chat.Input(0)
	require.Len(t, in, 2)
	assert.Equal(t, schema.System, in[0].Role)
	assert.Contains(t, in[0].Content, tools.ToolSearchPhones)
	assert.Equal(t, "hi", in[1].Content)
}

func TestAgentToolLoopCollectsPhones(t *testing.T) {
	chat := llmtest.New(
		llmtest.ToolCalls(llmtest.Call("", tools.ToolSearchPhones, `{"query":" snapdragon ","sort_by":"price","limit":"3"}`)),
		llmtest.Text("The **Xiaomi Redmi Note 13** (ID: 4) - ₹17,999 is the cheapest Snapdragon phone."),
	)
	res, err := newRunner(t, chat, 10).Invoke(context.Background(), model.AgentInput{
		ConversationID: "c1",
		Query:          "cheapest snapdragon phones",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, chat.CallCount())
	assert.Equal(t, 1, res.ToolCalls)
	assert.Equal(t, []int64{4, 8, 5}, model.PhoneIDs(res.Phones))
	assert.Contains(t, res.Message, "(ID: 4)")

	second := chat.Input(1)
	results := toolMessages(second)
	require.Len(t, results, 1)
	assert.Equal(t, "call_1", results[0].ToolCallID)
	assert.Contains(t, results[0].Content, "Redmi Note 13")
}

func TestAgentMergesPhonesAcrossRounds(t *testing.T) {
	chat := llmtest.New(
		llmtest.ToolCalls(
			llmtest.Call("a", tools.ToolGetPhoneDetails, `{"phone_id":"3"}`),
			llmtest.Call("b", tools.ToolComparePhones, `{"phone_ids":"3, 7"}`),
		),
		llmtest.ToolCalls(llmtest.Call("c", tools.ToolGetPhoneDetails, `{"phone_id":7}`)),
		llmtest.Text("Apple iPhone 15 (ID: 3) against Google Pixel 8 (ID: 7)."),
	)
	res, err := newRunner(t, chat, 10).Invoke(context.Background(), model.AgentInput{Query: "iphone 15 vs pixel 8"})
	require.NoError(t, err)

	assert.Equal(t, 3, res.ToolCalls)
	assert.Equal(t, []int64{3, 7}, model.PhoneIDs(res.Phones))
}

func TestAgentToolBudget(t *testing.T) {
	chat := llmtest.New(
		llmtest.ToolCalls(
			llmtest.Call("a", tools.ToolGetPhoneDetails, `{"phone_id":1}`),
			llmtest.Call("b", tools.ToolGetPhoneDetails, `{"phone_id":2}`),
		),
		llmtest.Text("Samsung Galaxy S24 Ultra (ID: 1) is the flagship."),
	)
	res, err := newRunner(t, chat, 1).Invoke(context.Background(), model.AgentInput{Query: "samsung phones"})
	require.NoError(t, err)

	assert.Equal(t, 1, res.ToolCalls)
	assert.Equal(t, []int64{1}, model.PhoneIDs(res.Phones))

	second := chat.Input(1)
	require.NotEmpty(t, second)
	assert.Equal(t, schema.System, second[len(second)-1].Role)
	assert.Contains(t, second[len(second)-1].Content, "SYSTEM NOTICE")
	assert.Len(t, toolMessages(second), 1)
}

func TestAgentStopsCallingToolsAfterBudget(t *testing.T) {
	chat := llmtest.New(
		llmtest.ToolCalls(llmtest.Call("a", tools.ToolGetAvailableBrands, `{}`)),
		llmtest.ToolCalls(llmtest.Call("b", tools.ToolGetPriceRange, `{}`)),
	)
	_, err := newRunner(t, chat, 1).Invoke(context.Background(), model.AgentInput{Query: "what brands do you have"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), nodes.ErrEmptyAnswer.Error())
	assert.Equal(t, 2, chat.CallCount())
}

func TestAgentUnknownTool(t *testing.T) {
	chat := llmtest.New(
		llmtest.ToolCalls(llmtest.Call("x", "launch_rocket", `{}`)),
		llmtest.Text("I can only look up phones."),
	)
	res, err := newRunner(t, chat, 10).Invoke(context.Background(), model.AgentInput{Query: "launch"})
	require.NoError(t, err)

	assert.Equal(t, "I can only look up phones.", res.Message)
	results := toolMessages(chat.Input(1))
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Content, "unknown_tool")
}

func TestAgentFailures(t *testing.T) {
	t.Run("model down", func(t *testing.T) {
		_, err := newRunner(t, llmtest.New(llmtest.Fail(llmtest.ErrModelDown)), 10).
			Invoke(context.Background(), model.AgentInput{Query: "hi"})
		assert.Error(t, err)
	})

	t.Run("empty answer", func(t *testing.T) {
		_, err := newRunner(t, llmtest.New(llmtest.Text("  ")), 10).
			Invoke(context.Background(), model.AgentInput{Query: "hi"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), nodes.ErrEmptyAnswer.Error())
	})

	t.Run("answer is only an echoed context block", func(t *testing.T) {
		chat := llmtest.New(llmtest.Text("[CONTEXT - Previously mentioned phones:\n  1. Apple iPhone 15 (ID: 3, ₹79,999)\n]"))
		_, err := newRunner(t, chat, 10).Invoke(context.Background(), model.AgentInput{Query: "hi"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), nodes.ErrEmptyAnswer.Error())
	})
}

func TestAgentFollowUpContext(t *testing.T) {
	history := []model.ConversationTurn{
		{Role: model.RoleUser, Content: "best camera phone under 20000"},
		{Role: model.RoleAssistant, Content: "Here are two picks.", Phones: []model.Phone{catalogtest.ByID(4), catalogtest.ByID(8)}},
	}
	chat := llmtest.New(llmtest.Text("The Xiaomi Redmi Note 13 (ID: 4) has a 108MP camera.\n\n[CONTEXT - Previously mentioned phones:\n  1. Xiaomi Redmi Note 13 (ID: 4, ₹17,999)\n]"))

	res, err := newRunner(t, chat, 10).Invoke(context.Background(), model.AgentInput{
		Query:   "tell me more about the first one",
		History: history,
		Filters: model.Filters{MaxPrice: 20000},
	})
	require.NoError(t, err)
	assert.Equal(t, "The Xiaomi Redmi Note 13 (ID: 4) has a 108MP camera.", res.Message)
	assert.Equal(t, []int64{4, 8}, model.PhoneIDs(res.Phones))
	assert.Zero(t, res.ToolCalls)

	in := chat.Input(0)
	require.Len(t, in, 5)
	assert.Contains(t, in[2].Content, "[CONTEXT - Previously mentioned phones:\n  1. Xiaomi Redmi Note 13 (ID: 4, ₹17,999)\n  2. Xiaomi Poco X6 (ID: 8, ₹19,999)\n]")
	assert.Equal(t, schema.System, in[3].Role)
	assert.True(t, strings.HasPrefix(in[3].Content, "CONTEXT REMINDER:"))
	assert.Contains(t, in[3].Content, "1. Xiaomi Redmi Note 13 (ID: 4)")
	assert.Contains(t, in[4].Content, "[Active filters: max price ₹20,000]")
}

func TestAgentFreshQueryIgnoresContextPhones(t *testing.T) {
	history := []model.ConversationTurn{
		{Role: model.RoleAssistant, Content: "Here are two picks.", Phones: []model.Phone{catalogtest.ByID(4), catalogtest.ByID(8)}},
	}
	chat := llmtest.New(llmtest.Text("Tell me your budget first."))

	res, err := newRunner(t, chat, 10).Invoke(context.Background(), model.AgentInput{
		Query:   "samsung phones with big battery",
		History: history,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Phones)
}

func TestBuildGraphValidation(t *testing.T) {
	ctx := context.Background()
	mm := conversations.NewMessagesManager(nil, model.ConversationConfig{})

	_, err := BuildGraph(ctx, nil)
	assert.Error(t, err)
	_, err = BuildGraph(ctx, &GraphConfig{Catalog: catalogtest.NewStore(), MessagesManager: mm})
	assert.Error(t, err)
	_, err = BuildGraph(ctx, &GraphConfig{ChatModel: llmtest.New(), MessagesManager: mm})
	assert.Error(t, err)
	_, err = BuildGraph(ctx, &GraphConfig{ChatModel: llmtest.New(), Catalog: catalogtest.NewStore()})
	assert.Error(t, err)
}

func TestMaxRunSteps(t *testing.T) {
	assert.Equal(t, 40, MaxRunSteps(0))
	assert.Equal(t, 20, MaxRunSteps(2))
	assert.Equal(t, 70, MaxRunSteps(20))
}
