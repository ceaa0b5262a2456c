package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/neura-assistant/internal/config"
	"github.com/kirillkom/neura-assistant/internal/core/ports"
	"github.com/kirillkom/neura-assistant/internal/observability/metrics"
)

const (
	maxUploadBytes        = 50 << 20
	defaultModelID        = "neura-router-v1"
	backpressureWaitLimit = 250 * time.Millisecond
)

type Router struct {
	answerer ports.QueryAnswerer
	ingestor ports.DocumentIngestor
	docs     ports.DocumentReader
	stats    ports.IndexStats

	httpMetrics *metrics.HTTPServerMetrics
	validator   *requestValidator

	openAICompatAPIKey           string
	openAICompatModelID          string
	openAICompatStreamChunkChars int

	rateLimitRPS   float64
	rateLimitBurst int
	maxInFlight    int
}

// NewRouter wires the HTTP surface. ingestor, docs, stats and httpMetrics may
// be nil; the matching endpoints then answer 503 or are omitted.
func NewRouter(
	cfg config.Config,
	answerer ports.QueryAnswerer,
	ingestor ports.DocumentIngestor,
	docs ports.DocumentReader,
	stats ports.IndexStats,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	modelID := strings.TrimSpace(cfg.OpenAICompatModelID)
	if modelID == "" {
		modelID = defaultModelID
	}
	return &Router{
		answerer:                     answerer,
		ingestor:                     ingestor,
		docs:                         docs,
		stats:                        stats,
		httpMetrics:                  httpMetrics,
		validator:                    mustRequestValidator(),
		openAICompatAPIKey:           cfg.OpenAICompatAPIKey,
		openAICompatModelID:          modelID,
		openAICompatStreamChunkChars: cfg.OpenAICompatStreamChunkChars,
		rateLimitRPS:                 cfg.APIRateLimitRPS,
		rateLimitBurst:               cfg.APIRateLimitBurst,
		maxInFlight:                  cfg.APIMaxInFlight,
	}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware)
	if rt.httpMetrics != nil {
		r.Use(func(next http.Handler) http.Handler {
			return rt.httpMetrics.Middleware("api", next)
		})
	}

	r.Get("/healthz", rt.healthz)
	if rt.httpMetrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.httpMetrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return rateLimitMiddleware(next, rt.rateLimitRPS, rt.rateLimitBurst, rt.recordRejected)
		})
		r.Use(func(next http.Handler) http.Handler {
			return backpressureMiddleware(next, rt.maxInFlight, backpressureWaitLimit)
		})
		r.Use(rt.validator.middleware)

		r.Post("/v1/answer", rt.answer)
		r.Post("/v1/documents", rt.uploadDocument)
		r.Get("/v1/documents/{documentID}", rt.getDocumentByID)
		r.Get("/v1/index/stats", rt.indexStats)

		r.Group(func(r chi.Router) {
			r.Use(rt.openAICompatAuthMiddleware)
			r.Get("/v1/models", rt.listModels)
			r.Post("/v1/chat/completions", rt.chatCompletions)
		})
	})
	return r
}

func (rt *Router) recordRejected(reason string) {
	if rt.httpMetrics != nil {
		rt.httpMetrics.RecordRejected("api", reason)
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// answer returns 200 for any query string; routing failures are reported in
// the result metadata.
func (rt *Router) answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}
	writeJSON(w, http.StatusOK, rt.answerer.Answer(r.Context(), req.Query))
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if rt.ingestor == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "document ingestion is not configured"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "file is too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingestor.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if rt.docs == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "document registry is not configured"})
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "documentID"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "document id is required"})
		return
	}

	doc, err := rt.docs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) indexStats(w http.ResponseWriter, r *http.Request) {
	if rt.stats == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "retrieval index is not configured"})
		return
	}
	count, err := rt.stats.Count(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, indexStatsResponse{IndexedChunks: count})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
