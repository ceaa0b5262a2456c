package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/resilience"
)

const DefaultBaseURL = "https://api.tavily.com"

// Client calls the Tavily search API. Without an API key every search
// returns domain.ErrSearchNotConfigured.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey string, executor *resilience.Executor) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		slog.Warn("tavily_api_key_missing", "detail", "web search is disabled")
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		executor:   executor,
	}
}

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

type searchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		URL     string `json:"url"`
	} `json:"results"`
}

func (c *Client) Search(ctx context.Context, query string, maxResults int) (*domain.SearchResponse, error) {
	if c.apiKey == "" {
		return nil, domain.ErrSearchNotConfigured
	}

	body, err := json.Marshal(searchRequest{
		APIKey:        c.apiKey,
		Query:         query,
		MaxResults:    maxResults,
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	payload, err := resilience.Call(ctx, c.executor, "tavily.search", func(callCtx context.Context) (*searchResponse, error) {
		return c.post(callCtx, body)
	}, resilience.ClassifyHTTPError)
	if err != nil {
		return nil, resilience.WrapTemporaryIfNeeded("tavily search", err, resilience.ClassifyHTTPError)
	}

	out := &domain.SearchResponse{
		Query:   query,
		Answer:  payload.Answer,
		Results: make([]domain.SearchHit, 0, len(payload.Results)),
	}
	for _, r := range payload.Results {
		out.Results = append(out.Results, domain.SearchHit{Title: r.Title, Content: r.Content, URL: r.URL})
	}
	slog.InfoContext(ctx, "web_search_completed", "provider", "tavily", "results", len(out.Results))
	return out, nil
}

func (c *Client) post(ctx context.Context, body []byte) (*searchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, resilience.NewHTTPStatusError("tavily", "search", resp)
	}
	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &payload, nil
}
