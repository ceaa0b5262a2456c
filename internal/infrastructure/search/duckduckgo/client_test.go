package duckduckgo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const resultsPage = `<html><body>
<div class="result results_links web-result">
  <h2 class="result__title">
    <a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F&amp;rut=abc">The <b>Go</b> Programming Language</a>
  </h2>
  <a class="result__snippet" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F">Go is an   open source
  programming language.</a>
</div>
<div class="result results_links web-result">
  <h2 class="result__title"><a class="result__a" href="https://pkg.go.dev/">Go Packages</a></h2>
  <a class="result__snippet">Discover packages.</a>
</div>
<div class="result results_links web-result">
  <h2 class="result__title"><a class="result__a" href="https://go.dev/blog">Go Blog</a></h2>
</div>
</body></html>`

func TestSearchParsesResults(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer server.Close()

	resp, err := New(server.URL+"/html/", nil).Search(context.Background(), "golang docs", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if gotQuery != "golang docs" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if resp.Answer != "" || len(resp.Results) != 2 {
		t.Fatalf("expected two capped results without answer, got %+v", resp)
	}
	first := resp.Results[0]
	if first.Title != "The Go Programming Language" || first.URL != "https://go.dev/" {
		t.Fatalf("unexpected first hit %+v", first)
	}
	if first.Content != "Go is an open source programming language." {
		t.Fatalf("unexpected snippet %q", first.Content)
	}
	if resp.Results[1].URL != "https://pkg.go.dev/" || resp.Results[1].Content != "Discover packages." {
		t.Fatalf("unexpected second hit %+v", resp.Results[1])
	}
}

func TestSearchRateLimitedFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	if _, err := New(server.URL, nil).Search(context.Background(), "q", 5); err == nil {
		t.Fatalf("expected error")
	}
}
