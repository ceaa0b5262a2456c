package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/resilience"
)

const DefaultBaseURL = "https://api.groq.com/openai/v1"

// Config holds settings for any OpenAI-compatible endpoint (Groq, OpenAI, vLLM).
type Config struct {
	APIKey      string
	BaseURL     string
	ChatModel   string
	EmbedModel  string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

type Client struct {
	client   *openai.Client
	cfg      Config
	executor *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, domain.WrapError(domain.ErrConfiguration, "openai client", errors.New("api key is required"))
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		client:   openai.NewClientWithConfig(clientCfg),
		cfg:      cfg,
		executor: executor,
	}, nil
}

type ChatModel struct {
	c *Client
}

func NewChatModel(c *Client) *ChatModel {
	return &ChatModel{c: c}
}

func (m *ChatModel) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: m.c.cfg.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: m.c.cfg.Temperature,
		MaxTokens:   m.c.cfg.MaxTokens,
	}

	resp, err := resilience.Call(ctx, m.c.executor, "openai.chat", func(callCtx context.Context) (openai.ChatCompletionResponse, error) {
		resp, err := m.c.client.CreateChatCompletion(callCtx, req)
		if err != nil {
			return openai.ChatCompletionResponse{}, parseAPIError("chat", err)
		}
		return resp, nil
	}, resilience.ClassifyHTTPError)
	if err != nil {
		return "", resilience.WrapTemporaryIfNeeded("openai chat", err, resilience.ClassifyHTTPError)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat: empty choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

type Embedder struct {
	c *Client
}

func NewEmbedder(c *Client) *Embedder {
	return &Embedder{c: c}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          openai.EmbeddingModel(e.c.cfg.EmbedModel),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}

	resp, err := resilience.Call(ctx, e.c.executor, "openai.embed", func(callCtx context.Context) (openai.EmbeddingResponse, error) {
		resp, err := e.c.client.CreateEmbeddings(callCtx, req)
		if err != nil {
			return openai.EmbeddingResponse{}, parseAPIError("embed", err)
		}
		return resp, nil
	}, resilience.ClassifyHTTPError)
	if err != nil {
		return nil, resilience.WrapTemporaryIfNeeded("openai embed", err, resilience.ClassifyHTTPError)
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	vectors := make([][]float32, 0, len(data))
	for _, item := range data {
		vectors = append(vectors, item.Embedding)
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.WrapError(domain.ErrDataUnavailable, "embed query", errors.New("empty embedding response"))
	}
	return vectors[0], nil
}

func (e *Embedder) ModelName() string {
	return "openai/" + e.c.cfg.EmbedModel
}

// parseAPIError maps go-openai failures onto resilience.HTTPStatusError so
// the shared classifier can decide on retries.
func parseAPIError(operation string, err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := extractDetail(reqErr.Body)
		if body == "" {
			body = string(reqErr.Body)
		}
		return &resilience.HTTPStatusError{
			Service:    "openai",
			Operation:  operation,
			StatusCode: reqErr.HTTPStatusCode,
			Status:     fmt.Sprintf("%d %s", reqErr.HTTPStatusCode, http.StatusText(reqErr.HTTPStatusCode)),
			Body:       body,
		}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &resilience.HTTPStatusError{
			Service:    "openai",
			Operation:  operation,
			StatusCode: apiErr.HTTPStatusCode,
			Status:     fmt.Sprintf("%d %s", apiErr.HTTPStatusCode, http.StatusText(apiErr.HTTPStatusCode)),
			Body:       apiErr.Message,
		}
	}

	return fmt.Errorf("openai %s request: %w", operation, err)
}

func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
