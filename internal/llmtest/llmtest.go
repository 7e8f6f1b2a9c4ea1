// Package llmtest provides a scripted chat model for tests of components
// that call a language model.
package llmtest

import (
	"context"
	"errors"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ErrNoReply is returned once the script is exhausted.
var ErrNoReply = errors.New("llmtest: no scripted reply left")

// ErrModelDown is a convenience failure for scripts.
var ErrModelDown = errors.New("llmtest: model unavailable")

type Reply struct {
	Msg *schema.Message
	Err error
}

// Text is an assistant reply with content.
func Text(content string) Reply {
	return Reply{Msg: schema.AssistantMessage(content, nil)}
}

// Fail is a failed call.
func Fail(err error) Reply {
	return Reply{Err: err}
}

// ToolCalls is an assistant reply requesting tool calls.
func ToolCalls(calls ...schema.ToolCall) Reply {
	return Reply{Msg: schema.AssistantMessage("", calls)}
}

// Call builds a tool call. id may be empty to mimic providers that omit it.
func Call(id, name, args string) schema.ToolCall {
	return schema.ToolCall{ID: id, Type: "function", Function: schema.FunctionCall{Name: name, Arguments: args}}
}

// ChatModel replays scripted replies in order and records every input.
// Respond, when set, replaces the script.
type ChatModel struct {
	Respond func(ctx context.Context, in []*schema.Message) (*schema.Message, error)

	mu      sync.Mutex
	replies []Reply
	calls   [][]*schema.Message
	tools   []*schema.ToolInfo
}

func New(replies ...Reply) *ChatModel {
	return &ChatModel{replies: replies}
}

func (m *ChatModel) Generate(ctx context.Context, in []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]*schema.Message(nil), in...))
	respond := m.Respond
	var next *Reply
	if respond == nil {
		if len(m.replies) == 0 {
			m.mu.Unlock()
			return nil, ErrNoReply
		}
		next = &m.replies[0]
		m.replies = m.replies[1:]
	}
	m.mu.Unlock()

	if respond != nil {
		return respond(ctx, in)
	}
	if next.Err != nil {
		return nil, next.Err
	}
	// hand out a copy so handlers may mutate it
	cp := *next.Msg
	cp.ToolCalls = append([]schema.ToolCall(nil), next.Msg.ToolCalls...)
	return &cp, nil
}

func (m *ChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *ChatModel) BindTools(tools []*schema.ToolInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tools = tools
	return nil
}

func (m *ChatModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	if err := m.BindTools(tools); err != nil {
		return nil, err
	}
	return m, nil
}

// CallCount is the number of Generate or Stream calls so far.
func (m *ChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Input returns the messages of call i.
func (m *ChatModel) Input(i int) []*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.calls) {
		return nil
	}
	return m.calls[i]
}

// BoundTools returns the tool infos last bound.
func (m *ChatModel) BoundTools() []*schema.ToolInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tools
}

var (
	_ einomodel.ChatModel            = (*ChatModel)(nil)
	_ einomodel.ToolCallingChatModel = (*ChatModel)(nil)
)
