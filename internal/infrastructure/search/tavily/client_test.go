package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
)

func TestSearchSendsKeyAndMapsResults(t *testing.T) {
	var captured searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"answer":"Go is a language.","results":[
			{"title":"The Go Programming Language","content":"Go is open source","url":"https://go.dev"},
			{"title":"Go (wiki)","content":"Designed at Google","url":"https://en.wikipedia.org/wiki/Go"}
		]}`))
	}))
	defer server.Close()

	resp, err := New(server.URL, "tvly-key", nil).Search(context.Background(), "what is go", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if captured.APIKey != "tvly-key" || captured.MaxResults != 5 || !captured.IncludeAnswer || captured.Query != "what is go" {
		t.Fatalf("unexpected request %+v", captured)
	}
	if resp.Answer != "Go is a language." || len(resp.Results) != 2 || resp.Results[0].URL != "https://go.dev" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestSearchWithoutKeyIsNotConfigured(t *testing.T) {
	_, err := New("", "", nil).Search(context.Background(), "q", 5)
	if !domain.IsKind(err, domain.ErrSearchNotConfigured) {
		t.Fatalf("expected ErrSearchNotConfigured, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("search-not-configured must be a configuration error")
	}
}

func TestSearchServerErrorIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(server.URL, "k", nil).Search(context.Background(), "q", 5)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}
