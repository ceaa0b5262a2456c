package mcpadapter

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
)

type answererStub struct {
	queries []string
}

func (s *answererStub) Answer(_ context.Context, query string) domain.AnswerResult {
	s.queries = append(s.queries, query)
	count := 2
	return domain.AnswerResult{
		Answer:         "The report covers Q3 revenue.",
		Classification: domain.ClassificationDocumentRetrieval,
		Metadata:       domain.AnswerMetadata{RetrievedDocumentCount: &count},
	}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = answerToolName
	req.Params.Arguments = args
	return req
}

func TestAnswerHandlerReturnsAnswerAndClassification(t *testing.T) {
	stub := &answererStub{}
	handler := answerHandler(stub)

	result, err := handler(context.Background(), callRequest(map[string]any{"query": "  what does the report say?  "}))
	if err != nil {
		t.Fatalf("handler() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error result: %+v", result)
	}
	if len(stub.queries) != 1 || stub.queries[0] != "what does the report say?" {
		t.Fatalf("unexpected forwarded queries %q", stub.queries)
	}
	if len(result.Content) == 0 {
		t.Fatalf("expected text content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok || text.Text != "The report covers Q3 revenue." {
		t.Fatalf("unexpected content %#v", result.Content[0])
	}

	structured, ok := result.StructuredContent.(domain.AnswerResult)
	if !ok {
		t.Fatalf("expected AnswerResult structured content, got %T", result.StructuredContent)
	}
	if structured.Classification != domain.ClassificationDocumentRetrieval || *structured.Metadata.RetrievedDocumentCount != 2 {
		t.Fatalf("unexpected structured content %+v", structured)
	}
}

func TestAnswerHandlerRequiresQuery(t *testing.T) {
	stub := &answererStub{}
	result, err := answerHandler(stub)(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler() error = %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error result for missing query")
	}
	if len(stub.queries) != 0 {
		t.Fatalf("router must not be called without a query")
	}
}

func TestNewServerRegistersTool(t *testing.T) {
	s := NewServer(&answererStub{})
	if s == nil {
		t.Fatalf("expected server")
	}
	tool := answerTool()
	if tool.Name != answerToolName {
		t.Fatalf("unexpected tool name %q", tool.Name)
	}
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != queryArgumentKey {
		t.Fatalf("expected query to be required, got %v", tool.InputSchema.Required)
	}
}
