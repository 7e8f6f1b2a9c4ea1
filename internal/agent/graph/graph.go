package graph

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	"github.com/MobiAdvisor-core/server/internal/agent/graph/conversations"
	"github.com/MobiAdvisor-core/server/internal/agent/graph/nodes"
	"github.com/MobiAdvisor-core/server/internal/agent/graph/observers"
	"github.com/MobiAdvisor-core/server/internal/agent/graph/tools"
	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/catalog"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

// Runner executes one agent turn.
type Runner interface {
	Invoke(ctx context.Context, in model.AgentInput) (*model.AgentResult, error)
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModel       einomodel.BaseChatModel
	ModelName       string
	Catalog         catalog.Catalog
	MessagesManager *conversations.MessagesManager
	ToolMaxCalls    int
}

// GraphBuilder handles the construction of the agent conversation graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.AgentInput, *model.AgentResult]
	model  einomodel.BaseChatModel
}

type graphRunner struct {
	runnable compose.Runnable[model.AgentInput, *model.AgentResult]
}

func (r *graphRunner) Invoke(ctx context.Context, in model.AgentInput) (*model.AgentResult, error) {
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nodes.ErrEmptyAnswer
	}
	return out, nil
}

// BuildAgent builds the tool-calling agent and returns a Runner.
func BuildAgent(ctx context.Context, config *GraphConfig) (Runner, error) {
	runnable, err := BuildGraph(ctx, config)
	if err != nil {
		return nil, err
	}
	logx.Debug().Msg("Agent graph built successfully")
	return &graphRunner{runnable: runnable}, nil
}

// BuildGraph constructs and returns the compiled agent graph:
//
//	START -> ContextAssembler -> AgentChatModel -+-> ToolExecutor -> PhoneExtractor -> AgentChatModel
//	                                             +-> AnswerAssembler -> END
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.AgentInput, *model.AgentResult], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModel == nil {
		return nil, fmt.Errorf("agent chat model is nil")
	}
	if config.Catalog == nil {
		return nil, fmt.Errorf("catalog is nil")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.AgentInput, *model.AgentResult](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	if err := builder.setupTools(ctx); err != nil {
		return nil, err
	}
	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}
	return builder.compile(ctx)
}

// setupTools binds the catalog tools to the agent model and adds the executor.
func (b *GraphBuilder) setupTools(ctx context.Context) error {
	queryTools := tools.GetQueryTools(b.config.Catalog)
	toolInfos, err := tools.GetToolInfos(ctx, queryTools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool infos")
		return fmt.Errorf("failed to get tool infos: %w", err)
	}

	b.model, err = nodes.BindTools(b.config.ChatModel, toolInfos)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools to agent model")
		return err
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:                queryTools,
		ExecuteSequentially:  true,
		UnknownToolsHandler:  unknownTool,
		ToolArgumentsHandler: nodes.SanitizeToolArguments,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	return b.graph.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
		compose.WithStatePreHandler(nodes.NewToolExecutorPreHandler(b.config.ToolMaxCalls)),
	)
}

// unknownTool answers hallucinated or malformed tool calls with a structured
// error the model can read and move past.
func unknownTool(ctx context.Context, name, input string) (string, error) {
	logx.Warn().
		Str("tool_name", name).
		Str("arguments", input).
		Msg("Unknown or invalid tool call; returning fallback result")
	return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q,\"note\":\"ignored\"}", name), nil
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	steps := []func() error{
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeContextAssembler,
				nodes.NewContextAssemblerNode(b.config.MessagesManager),
				compose.WithStatePreHandler(nodes.NewContextAssemblerPreHandler()),
			)
		},
		func() error {
			return b.graph.AddChatModelNode(nodes.NodeAgentChatModel, b.model,
				compose.WithStatePreHandler(nodes.NewAgentChatModelPreHandler(b.config.ToolMaxCalls)),
				compose.WithStatePostHandler(nodes.NewAgentChatModelPostHandler(b.config.ModelName)),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodePhoneExtractor, nodes.NewPhoneExtractorNode())
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeAnswerAssembler, nodes.NewAnswerAssemblerNode())
		},
	}
	for _, add := range steps {
		if err := add(); err != nil {
			logx.Error().Err(err).Msg("Error adding graph node")
			return fmt.Errorf("error adding graph node: %w", err)
		}
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeContextAssembler},
		{nodes.NodeContextAssembler, nodes.NodeAgentChatModel},
		{nodes.NodeToolExecutor, nodes.NodePhoneExtractor},
		{nodes.NodePhoneExtractor, nodes.NodeAgentChatModel},
		{nodes.NodeAnswerAssembler, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	decisionBranch := compose.NewGraphBranch(
		nodes.NewToolExecutorCondition(),
		map[string]bool{
			nodes.NodeToolExecutor:    true,
			nodes.NodeAnswerAssembler: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeAgentChatModel, decisionBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding decision branch")
		return fmt.Errorf("error adding decision branch: %w", err)
	}
	return nil
}

// MaxRunSteps bounds graph execution: every tool round costs three steps
// (model, executor, extractor) on top of the fixed entry and exit nodes.
func MaxRunSteps(toolMaxCalls int) int {
	return max(20, 10+3*nodes.NormalizeMaxToolCalls(toolMaxCalls))
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.AgentInput, *model.AgentResult], error) {
	runnable, err := b.graph.Compile(ctx,
		compose.WithGraphName("mobiadvisor_agent"),
		compose.WithMaxRunSteps(MaxRunSteps(b.config.ToolMaxCalls)),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
