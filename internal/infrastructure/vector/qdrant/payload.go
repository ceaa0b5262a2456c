package qdrant

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
)

const (
	payloadDocumentID  = "doc_id"
	payloadSource      = "source"
	payloadChunkIndex  = "chunk_index"
	payloadTotalChunks = "total_chunks"
	payloadText        = "text"
)

func encodePayload(doc *domain.Document, chunk domain.Chunk) map[string]any {
	source := chunk.SourceName
	if source == "" {
		source = doc.Filename
	}
	return map[string]any{
		payloadDocumentID:  doc.ID,
		payloadSource:      source,
		payloadChunkIndex:  chunk.ChunkIndex,
		payloadTotalChunks: chunk.TotalChunks,
		payloadText:        chunk.Content,
	}
}

func decodeRetrievedDocument(score float64, payload map[string]any) domain.RetrievedDocument {
	return domain.RetrievedDocument{
		DocumentID: getStringPayload(payload, payloadDocumentID),
		Content:    getStringPayload(payload, payloadText),
		SourceName: getStringPayload(payload, payloadSource),
		ChunkIndex: getIntPayload(payload, payloadChunkIndex),
		Score:      score,
	}
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// getIntPayload accepts the numeric shapes a JSON round trip can produce.
func getIntPayload(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
