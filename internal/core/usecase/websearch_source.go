package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
	"github.com/kirillkom/neura-assistant/internal/core/ports"
)

const (
	DefaultSearchMaxResults = 5

	searchNotConfiguredText = "Unable to search. Please try asking about uploaded PDFs or weather instead."
)

type WebSearchContextSource struct {
	searcher   ports.WebSearcher
	maxResults int
}

func NewWebSearchContextSource(searcher ports.WebSearcher, maxResults int) *WebSearchContextSource {
	if maxResults <= 0 {
		maxResults = DefaultSearchMaxResults
	}
	return &WebSearchContextSource{
		searcher:   searcher,
		maxResults: maxResults,
	}
}

func (s *WebSearchContextSource) Fetch(ctx context.Context, query string) domain.ContextBundle {
	bundle := domain.ContextBundle{Source: domain.ClassificationWebSearch}

	if s.searcher == nil {
		return searchNotConfigured(ctx, bundle, domain.ErrSearchNotConfigured)
	}

	resp, err := s.searcher.Search(ctx, query, s.maxResults)
	if err != nil {
		if domain.IsKind(err, domain.ErrSearchNotConfigured) {
			return searchNotConfigured(ctx, bundle, err)
		}
		slog.WarnContext(ctx, "context_fetch_failed", "source", bundle.Source, "error", err.Error())
		bundle.Text = fmt.Sprintf("Error fetching information: %v", err)
		bundle.FetchError = err.Error()
		bundle.Err = err
		return bundle
	}
	if resp == nil {
		resp = &domain.SearchResponse{}
	}
	if resp.Query == "" {
		resp.Query = query
	}
	if len(resp.Results) > s.maxResults {
		resp.Results = resp.Results[:s.maxResults]
	}

	bundle.Search = resp
	bundle.Text = formatSearchContext(resp)
	return bundle
}

func searchNotConfigured(ctx context.Context, bundle domain.ContextBundle, err error) domain.ContextBundle {
	slog.WarnContext(ctx, "search_not_configured", "error", err.Error())
	bundle.Text = searchNotConfiguredText
	bundle.FetchError = err.Error()
	bundle.Err = err
	return bundle
}
