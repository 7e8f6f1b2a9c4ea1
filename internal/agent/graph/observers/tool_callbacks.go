package observers

import (
	"context"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/tool"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	"github.com/MobiAdvisor-core/server/internal/metrics"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

const (
	StatusOK       = "ok"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// newToolHandler logs tool calls and counts them by outcome. A tool that
// answers with an error payload counts as rejected.
func newToolHandler() *callbackHelper.ToolCallbackHandler {
	return &callbackHelper.ToolCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *tool.CallbackInput) context.Context {
			if input != nil {
				logx.Debug().Str("tool", info.Name).Str("arguments", input.ArgumentsInJSON).Msg("tool start")
			}
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *tool.CallbackOutput) context.Context {
			status := StatusOK
			if output != nil && strings.Contains(output.Response, `"error":`) {
				status = StatusRejected
			}
			metrics.ToolCall(info.Name, status)
			var size int
			if output != nil {
				size = len(output.Response)
			}
			logx.Debug().Str("tool", info.Name).Str("status", status).Int("bytes", size).Msg("tool end")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			metrics.ToolCall(info.Name, StatusError)
			logx.Warn().Err(err).Str("tool", info.Name).Msg("tool execution failed")
			return ctx
		},
	}
}
