package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

func (rt *Router) listModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, modelListResponse{
		Object: "list",
		Data: []modelObject{
			{
				ID:      rt.openAICompatModelID,
				Object:  "model",
				Created: time.Now().Unix(),
				OwnedBy: "neura-assistant",
			},
		},
	})
}

// chatCompletions routes the latest user message through the query router.
// Earlier turns are not forwarded; classification works on a single query.
func (rt *Router) chatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	if len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "messages are required"})
		return
	}
	lastUser, ok := latestUserMessageContent(req.Messages)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "at least one user message with text content is required"})
		return
	}

	modelID := strings.TrimSpace(req.Model)
	if modelID == "" {
		modelID = rt.openAICompatModelID
	}

	completionID := newCompletionID()
	created := time.Now().Unix()

	result := rt.answerer.Answer(r.Context(), lastUser)
	slog.InfoContext(r.Context(), "chat_completion_answered",
		"classification", result.Classification,
		"stream", req.Stream,
		"errors", len(result.Metadata.Errors),
	)

	if req.Stream {
		chunks := buildTextStreamChunks(completionID, created, modelID, result.Answer, rt.openAICompatStreamChunkChars)
		if err := writeSSE(w, chunks); err != nil {
			slog.WarnContext(r.Context(), "chat_completion_stream_failed", "error", err)
		}
		return
	}

	response := buildTextChatCompletionResponse(completionID, created, modelID, lastUser, result.Answer)
	response.Routing = &routingInfo{
		Classification: result.Classification,
		Metadata:       result.Metadata,
	}
	writeJSON(w, http.StatusOK, response)
}
