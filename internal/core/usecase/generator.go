package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
	"github.com/kirillkom/neura-assistant/internal/core/ports"
)

const emptyReplyAnswer = "I could not produce an answer to this question. Please try rephrasing it."

type LLMResponseGenerator struct {
	llm       ports.ChatModel
	templates PromptTemplates
}

func NewLLMResponseGenerator(llm ports.ChatModel, templates PromptTemplates) *LLMResponseGenerator {
	return &LLMResponseGenerator{
		llm:       llm,
		templates: templates.Merge(DefaultPromptTemplates()),
	}
}

// Generate calls the model once. The reply is returned verbatim; failures
// become the answer text.
func (g *LLMResponseGenerator) Generate(ctx context.Context, query string, bundle domain.ContextBundle) string {
	if g.llm == nil {
		return "Error generating response: language model is not configured"
	}

	systemPrompt := g.templates.For(bundle.Source)
	reply, err := g.llm.Complete(ctx, systemPrompt, buildAnswerPrompt(bundle.Text, query))
	if err != nil {
		slog.ErrorContext(ctx, "generation_failed", "classification", bundle.Source, "error", err.Error())
		return fmt.Sprintf("Error generating response: %v", err)
	}
	if strings.TrimSpace(reply) == "" {
		slog.WarnContext(ctx, "generation_empty_reply", "classification", bundle.Source)
		return emptyReplyAnswer
	}
	return reply
}
