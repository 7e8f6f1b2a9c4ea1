package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	LLM      model.LLMConfig
	Intent   model.IntentModelConfig
	Response model.ResponseModelConfig
	Agent    model.AgentModelConfig
}

// ChatModels holds the three Gemini models of the advisor: a cold intent
// parser, the answer writer and the tool-calling agent.
type ChatModels struct {
	Intent   *gemini.ChatModel
	Response *gemini.ChatModel
	Agent    *gemini.ChatModel

	IntentModelName   string
	ResponseModelName string
	AgentModelName    string
}

// NewChatModels creates all chat models on one Gemini client.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	if config.LLM.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is not set")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  config.LLM.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.LLM.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.LLM.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	newModel := func(name string, temperature float32, maxTokens int) (*gemini.ChatModel, error) {
		cfg := &gemini.Config{
			Client:      client,
			Model:       name,
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
		}
		if budget := config.LLM.ThinkingBudget; budget > 0 {
			cfg.ThinkingConfig = &genai.ThinkingConfig{
				IncludeThoughts: false,
				ThinkingBudget:  genai.Ptr(budget),
			}
		}
		return gemini.NewChatModel(ctx, cfg)
	}

	intent, err := newModel(config.Intent.Model, config.Intent.Temperature, config.Intent.MaxTokens)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating intent model")
		return nil, fmt.Errorf("error creating intent model: %w", err)
	}
	response, err := newModel(config.Response.Model, config.Response.Temperature, config.Response.MaxTokens)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating response model")
		return nil, fmt.Errorf("error creating response model: %w", err)
	}
	agent, err := newModel(config.Agent.Model, config.Agent.Temperature, config.Agent.MaxTokens)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating agent model")
		return nil, fmt.Errorf("error creating agent model: %w", err)
	}

	return &ChatModels{
		Intent:            intent,
		Response:          response,
		Agent:             agent,
		IntentModelName:   config.Intent.Model,
		ResponseModelName: config.Response.Model,
		AgentModelName:    config.Agent.Model,
	}, nil
}

// BindTools returns a model that may call tools. Models offering WithTools
// are copied; older ChatModel implementations are bound in place.
func BindTools(cm einomodel.BaseChatModel, tools []*schema.ToolInfo) (einomodel.BaseChatModel, error) {
	switch m := cm.(type) {
	case einomodel.ToolCallingChatModel:
		bound, err := m.WithTools(tools)
		if err != nil {
			return nil, fmt.Errorf("failed to bind tools: %w", err)
		}
		logx.Debug().Int("tools", len(tools)).Msg("Successfully bound tools to agent model")
		return bound, nil
	case einomodel.ChatModel:
		if err := m.BindTools(tools); err != nil {
			return nil, fmt.Errorf("failed to bind tools: %w", err)
		}
		logx.Debug().Int("tools", len(tools)).Msg("Successfully bound tools to agent model")
		return m, nil
	}
	return nil, fmt.Errorf("chat model %T cannot call tools", cm)
}
