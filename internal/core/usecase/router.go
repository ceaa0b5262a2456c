package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
	"github.com/kirillkom/neura-assistant/internal/core/ports"
)

const (
	StageClassify = "classify"
	StageFetch    = "fetch_context"
	StageGenerate = "generate"
)

type RouterLimits struct {
	FetchTimeout      time.Duration
	GenerationTimeout time.Duration
}

// QueryRouter runs classify, fetch and generate once per query. Exactly one
// context source is invoked and Answer always returns a result.
type QueryRouter struct {
	classifier ports.QueryClassifier
	sources    map[domain.Classification]ports.ContextSource
	generator  ports.ResponseGenerator
	observer   ports.AnswerObserver
	limits     RouterLimits
}

func NewQueryRouter(
	classifier ports.QueryClassifier,
	weather ports.ContextSource,
	documents ports.ContextSource,
	web ports.ContextSource,
	generator ports.ResponseGenerator,
	observer ports.AnswerObserver,
	limits RouterLimits,
) *QueryRouter {
	if limits.FetchTimeout <= 0 {
		limits.FetchTimeout = 10 * time.Second
	}
	if limits.GenerationTimeout <= 0 {
		limits.GenerationTimeout = 60 * time.Second
	}
	if observer == nil {
		observer = noopObserver{}
	}
	observer = guardedObserver{inner: observer}

	sources := make(map[domain.Classification]ports.ContextSource, 3)
	for classification, source := range map[domain.Classification]ports.ContextSource{
		domain.ClassificationWeather:           weather,
		domain.ClassificationDocumentRetrieval: documents,
		domain.ClassificationWebSearch:         web,
	} {
		if source != nil {
			sources[classification] = source
		}
	}

	return &QueryRouter{
		classifier: classifier,
		sources:    sources,
		generator:  generator,
		observer:   observer,
		limits:     limits,
	}
}

func (r *QueryRouter) Answer(ctx context.Context, query string) (result domain.AnswerResult) {
	result.Classification = domain.ClassificationUnclassified
	started := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "answer_panic", "panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
			result = failedAnswer(result.Classification, result.Metadata, fmt.Errorf("unexpected failure: %v", rec))
		}
		r.observer.ObserveAnswer(result)
		slog.InfoContext(ctx, "answer_completed",
			"classification", result.Classification,
			"errors", len(result.Metadata.Errors),
			"duration_ms", time.Since(started).Milliseconds(),
		)
	}()

	if r.classifier == nil || r.generator == nil {
		return failedAnswer(result.Classification, result.Metadata, errors.New("query router is not fully configured"))
	}

	classification := r.classify(ctx, query)
	result.Classification = classification

	source, ok := r.sources[classification]
	if !ok {
		return failedAnswer(classification, result.Metadata, fmt.Errorf("no context source for classification %q", classification))
	}
	if err := ctx.Err(); err != nil {
		return failedAnswer(classification, result.Metadata, fmt.Errorf("request aborted before context fetch: %w", err))
	}

	bundle := r.fetch(ctx, source, classification, query)
	result.Metadata = collectMetadata(bundle)

	if err := ctx.Err(); err != nil {
		return failedAnswer(classification, result.Metadata, fmt.Errorf("request aborted before generation: %w", err))
	}

	result.Answer = r.generate(ctx, query, bundle)
	return result
}

func (r *QueryRouter) classify(ctx context.Context, query string) domain.Classification {
	stageStarted := time.Now()
	classification := r.classifier.Classify(ctx, query)
	r.observer.ObserveStage(StageClassify, time.Since(stageStarted))

	if !classification.Valid() {
		slog.WarnContext(ctx, "classification_fallback", "classification", classification)
		classification = domain.ClassificationWebSearch
	}
	r.observer.ObserveClassification(classification)
	return classification
}

func (r *QueryRouter) fetch(ctx context.Context, source ports.ContextSource, classification domain.Classification, query string) domain.ContextBundle {
	fetchCtx, cancel := context.WithTimeout(ctx, r.limits.FetchTimeout)
	defer cancel()

	stageStarted := time.Now()
	bundle := source.Fetch(fetchCtx, query)
	r.observer.ObserveStage(StageFetch, time.Since(stageStarted))

	bundle.Source = classification
	if bundle.FetchError != "" {
		r.observer.ObserveContextError(classification)
	}
	return bundle
}

func (r *QueryRouter) generate(ctx context.Context, query string, bundle domain.ContextBundle) string {
	genCtx, cancel := context.WithTimeout(ctx, r.limits.GenerationTimeout)
	defer cancel()

	stageStarted := time.Now()
	answer := r.generator.Generate(genCtx, query, bundle)
	r.observer.ObserveStage(StageGenerate, time.Since(stageStarted))
	return answer
}

func collectMetadata(bundle domain.ContextBundle) domain.AnswerMetadata {
	var metadata domain.AnswerMetadata
	switch bundle.Source {
	case domain.ClassificationDocumentRetrieval:
		if bundle.Err == nil {
			count := len(bundle.Documents)
			metadata.RetrievedDocumentCount = &count
		}
	case domain.ClassificationWebSearch:
		if bundle.Search != nil {
			count := len(bundle.Search.Results)
			metadata.SearchResultCount = &count
		}
	case domain.ClassificationWeather:
		if bundle.Weather != nil {
			metadata.City = bundle.Weather.City
		}
	}
	if bundle.FetchError != "" {
		metadata.Errors = append(metadata.Errors, bundle.FetchError)
	}
	return metadata
}

func failedAnswer(classification domain.Classification, metadata domain.AnswerMetadata, err error) domain.AnswerResult {
	metadata.Errors = append(metadata.Errors, err.Error())
	return domain.AnswerResult{
		Answer:         fmt.Sprintf("Error: %v", err),
		Classification: classification,
		Metadata:       metadata,
	}
}

// guardedObserver drops observer panics so telemetry can never change or
// abort an answer.
type guardedObserver struct {
	inner ports.AnswerObserver
}

func (g guardedObserver) ObserveClassification(classification domain.Classification) {
	defer recoverObserver("classification")
	g.inner.ObserveClassification(classification)
}

func (g guardedObserver) ObserveStage(stage string, elapsed time.Duration) {
	defer recoverObserver("stage")
	g.inner.ObserveStage(stage, elapsed)
}

func (g guardedObserver) ObserveContextError(source domain.Classification) {
	defer recoverObserver("context_error")
	g.inner.ObserveContextError(source)
}

func (g guardedObserver) ObserveAnswer(result domain.AnswerResult) {
	defer recoverObserver("answer")
	g.inner.ObserveAnswer(result)
}

func recoverObserver(hook string) {
	if rec := recover(); rec != nil {
		slog.Error("answer_observer_panic", "hook", hook, "panic", fmt.Sprint(rec))
	}
}

type noopObserver struct{}

func (noopObserver) ObserveClassification(domain.Classification) {}
func (noopObserver) ObserveStage(string, time.Duration) {}
func (noopObserver) ObserveContextError(domain.Classification) {}
func (noopObserver) ObserveAnswer(domain.AnswerResult) {}
