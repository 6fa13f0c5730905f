// Package mcptool exposes the completion client as a Model Context Protocol
// tool so other agents can ask the configured model a single question.
package mcptool

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/simplechat/pkg/completion"
	"github.com/papercomputeco/simplechat/pkg/llm"
	"github.com/papercomputeco/simplechat/pkg/logger"
)

const (
	ToolName        = "chat"
	toolDescription = "Send one message, optionally with an image (data URI or http(s) URL), " +
		"to the configured chat model and return its reply. No history is kept between calls."
)

// ChatInput are the tool arguments.
type ChatInput struct {
	Message string `json:"message" jsonschema:"the prompt to send"`
	Image   string `json:"image,omitempty" jsonschema:"optional image as a data URI or http(s) URL"`
}

// ChatOutput is the structured tool result.
type ChatOutput struct {
	Reply string `json:"reply"`
}

// NewServer builds an MCP server with the chat tool registered.
func NewServer(completer completion.Completer, version string, log *zap.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "simplechat", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{Name: ToolName, Description: toolDescription}, chatHandler(completer, log))

	return server
}

func chatHandler(completer completion.Completer, log *zap.Logger) mcp.ToolHandlerFor[ChatInput, ChatOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ChatInput) (*mcp.CallToolResult, ChatOutput, error) {
		startTime := time.Now()

		if err := completion.ValidatePrompt(in.Message); err != nil {
			return errorResult(err), ChatOutput{}, nil
		}

		var image *llm.Image
		if in.Image != "" {
			img, err := llm.ParseImage(in.Image)
			if err != nil {
				return errorResult(err), ChatOutput{}, nil
			}
			image = &img
		}

		reply, err := completer.Complete(ctx, in.Message, image)
		if err != nil {
			log.Error("tool completion failed", zap.Error(err))
			return errorResult(err), ChatOutput{}, nil
		}

		log.Debug("tool completion",
			zap.String("reply_preview", logger.Preview(reply, 50)),
			zap.Duration("duration", time.Since(startTime)),
		)

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: reply}},
		}, ChatOutput{Reply: reply}, nil
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}

// Serve runs the server over stdin/stdout until the client disconnects or ctx
// is cancelled.
func Serve(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
