package usecase

import (
	"fmt"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
)

// PromptTemplates holds the system instructions for each persona.
type PromptTemplates struct {
	Weather   string
	Document  string
	WebSearch string
}

func DefaultPromptTemplates() PromptTemplates {
	return PromptTemplates{
		Weather: "You are a helpful weather assistant.\n" +
			"Provide accurate and clear weather information based on the data provided.\n" +
			"Format the response in a friendly and easy-to-read manner.",
		Document: "You are a helpful document assistant.\n" +
			"Answer questions based on the provided context from the documents.\n" +
			"If the answer is not in the context, say so clearly.\n" +
			"Always cite the source document.",
		WebSearch: "You are a helpful AI assistant.\n" +
			"Answer the user's question based on the provided search results and context.\n" +
			"If information comes from web sources, cite them appropriately.\n" +
			"Be accurate, clear, and concise.",
	}
}

// Merge returns t with empty fields filled from fallback.
func (t PromptTemplates) Merge(fallback PromptTemplates) PromptTemplates {
	if t.Weather == "" {
		t.Weather = fallback.Weather
	}
	if t.Document == "" {
		t.Document = fallback.Document
	}
	if t.WebSearch == "" {
		t.WebSearch = fallback.WebSearch
	}
	return t
}

func (t PromptTemplates) For(classification domain.Classification) string {
	switch classification {
	case domain.ClassificationWeather:
		return t.Weather
	case domain.ClassificationDocumentRetrieval:
		return t.Document
	default:
		return t.WebSearch
	}
}

const cityExtractionSystemPrompt = "You extract city names from weather questions."

func buildCityExtractionPrompt(query, fallbackCity string) string {
	return fmt.Sprintf(`Extract the city name from this weather query.
Return ONLY the city name, nothing else.
If no city is mentioned, return '%s'.

Query: %s
City:`, fallbackCity, query)
}

func buildAnswerPrompt(contextText, query string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, query)
}
