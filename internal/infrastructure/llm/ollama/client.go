package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/resilience"
)

type Options struct {
	ChatModel   string
	EmbedModel  string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type Client struct {
	baseURL    string
	opts       Options
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL string, opts Options, executor *resilience.Executor) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		executor:   executor,
	}
}

// ChatModel answers system/user prompt pairs through /api/chat.
type ChatModel struct {
	client *Client
}

func NewChatModel(client *Client) *ChatModel {
	return &ChatModel{client: client}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (m *ChatModel) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	options := map[string]any{"temperature": m.client.opts.Temperature}
	if m.client.opts.MaxTokens > 0 {
		options["num_predict"] = m.client.opts.MaxTokens
	}
	request := map[string]any{
		"model": m.client.opts.ChatModel,
		"messages": []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		"stream":  false,
		"options": options,
	}

	var response struct {
		Message chatMessage `json:"message"`
	}
	if err := m.client.postJSON(ctx, "/api/chat", request, &response, "chat"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Message.Content), nil
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.opts.EmbedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.postJSON(ctx, "/api/embed", request, &response, "embed"); err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.WrapError(domain.ErrDataUnavailable, "embed query", fmt.Errorf("empty embedding result"))
	}
	return vectors[0], nil
}

// ModelName identifies the embedding model for cache keys.
func (e *Embedder) ModelName() string {
	return "ollama/" + e.client.opts.EmbedModel
}
