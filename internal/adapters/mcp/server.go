package mcpadapter

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/neura-assistant/internal/core/ports"
)

const (
	serverName       = "neura-assistant"
	serverVersion    = "1.0.0"
	answerToolName   = "answer_question"
	queryArgumentKey = "query"
)

// NewServer exposes the query router as a single MCP tool.
func NewServer(answerer ports.QueryAnswerer) *server.MCPServer {
	s := server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false))
	s.AddTool(answerTool(), answerHandler(answerer))
	return s
}

func answerTool() mcp.Tool {
	return mcp.NewTool(answerToolName,
		mcp.WithDescription("Answer a question using weather data, indexed documents or web search, whichever fits the question."),
		mcp.WithString(queryArgumentKey,
			mcp.Required(),
			mcp.Description("Natural-language question"),
		),
	)
}

func answerHandler(answerer ports.QueryAnswerer) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString(queryArgumentKey)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result := answerer.Answer(ctx, strings.TrimSpace(query))
		slog.InfoContext(ctx, "mcp_answer_completed",
			"classification", result.Classification,
			"errors", len(result.Metadata.Errors),
		)
		return mcp.NewToolResultStructured(result, result.Answer), nil
	}
}
