package composer

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/catalog/catalogtest"
	"github.com/MobiAdvisor-core/server/internal/llmtest"
)

func TestFallback(t *testing.T) {
	got := Fallback([]model.Phone{catalogtest.ByID(3), catalogtest.ByID(2)})
	assert.Equal(t, "Here are 2 phones I found:\n\n- **Apple iPhone 15** - ₹79,999\n- **Samsung Galaxy A15** - ₹14,999", got)

	got = Fallback(catalogtest.Phones())
	assert.Contains(t, got, "Here are 5 phones I found:")
	assert.NotContains(t, got, "Narzo 70")

	assert.Equal(t, NoPhonesMessage, Fallback(nil))
}

func TestCompose(t *testing.T) {
	phones := []model.Phone{catalogtest.ByID(4), catalogtest.ByID(8)}
	history := []model.ConversationTurn{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: ""},
		{Role: model.RoleAssistant, Content: "Hello! What are you looking for?"},
	}

	t.Run("model answer", func(t *testing.T) {
		chat := llmtest.New(llmtest.Text("  **Xiaomi Redmi Note 13** (ID: 4) - ₹17,999 is my pick.  "))
		msg, fallback := New(chat, 4).Compose(context.Background(), "camera phone under 20k", phones, history)

		assert.False(t, fallback)
		assert.Equal(t, "**Xiaomi Redmi Note 13** (ID: 4) - ₹17,999 is my pick.", msg)

		in := chat.Input(0)
		require.Len(t, in, 4)
		assert.Equal(t, schema.System, in[0].Role)
		assert.Equal(t, schema.User, in[1].Role)
		assert.Equal(t, schema.Assistant, in[2].Role)
		assert.Contains(t, in[3].Content, "camera phone under 20k")
		assert.Contains(t, in[3].Content, "Phone 2: Xiaomi Poco X6 (ID: 8)")
	})

	t.Run("model failure uses template", func(t *testing.T) {
		msg, fallback := New(llmtest.New(llmtest.Fail(llmtest.ErrModelDown)), 4).Compose(context.Background(), "q", phones, nil)
		assert.True(t, fallback)
		assert.Equal(t, Fallback(phones), msg)
	})

	t.Run("empty reply uses template", func(t *testing.T) {
		msg, fallback := New(llmtest.New(llmtest.Text("   ")), 4).Compose(context.Background(), "q", phones, nil)
		assert.True(t, fallback)
		assert.Equal(t, Fallback(phones), msg)
	})

	t.Run("no phones", func(t *testing.T) {
		chat := llmtest.New()
		msg, fallback := New(chat, 4).Compose(context.Background(), "q", nil, nil)
		assert.False(t, fallback)
		assert.Equal(t, NoPhonesMessage, msg)
		assert.Zero(t, chat.CallCount())
	})

	t.Run("no model", func(t *testing.T) {
		msg, fallback := New(nil, 0).Compose(context.Background(), "q", phones, nil)
		assert.True(t, fallback)
		assert.Equal(t, Fallback(phones), msg)
	})
}

func TestAnswerGeneral(t *testing.T) {
	chat := llmtest.New(llmtest.Text("OIS keeps the lens steady."))
	msg, err := New(chat, 4).AnswerGeneral(context.Background(), "what is OIS?", nil)
	require.NoError(t, err)
	assert.Equal(t, "OIS keeps the lens steady.", msg)
	assert.Contains(t, chat.Input(0)[1].Content, "User question: what is OIS?")

	msg, err = New(llmtest.New(llmtest.Fail(llmtest.ErrModelDown)), 4).AnswerGeneral(context.Background(), "what is OIS?", nil)
	assert.Error(t, err)
	assert.Equal(t, GeneralErrorMessage, msg)

	msg, err = New(nil, 4).AnswerGeneral(context.Background(), "what is OIS?", nil)
	assert.Error(t, err)
	assert.Equal(t, GeneralErrorMessage, msg)
}
