package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
)

type timeoutError struct{}

func (timeoutError) Error() string { return "i/o timeout" }
func (timeoutError) Timeout() bool { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyHTTPError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{"cancelled", context.Canceled, false, false},
		{"throttled", &HTTPStatusError{StatusCode: http.StatusTooManyRequests}, true, true},
		{"bad request", &HTTPStatusError{StatusCode: http.StatusBadRequest}, false, false},
		{"network", fmt.Errorf("dial: %w", timeoutError{}), true, true},
		{"not found", domain.WrapError(domain.ErrNotFound, "lookup", errors.New("city")), false, false},
		{"unknown", errors.New("decode failure"), false, true},
	}
	for _, tc := range cases {
		got := ClassifyHTTPError(tc.err)
		if got.Retryable != tc.retryable || got.RecordFailure != tc.record {
			t.Fatalf("%s: got %+v", tc.name, got)
		}
	}
}

func TestNewHTTPStatusErrorLimitsBody(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusBadGateway,
		Status:     "502 Bad Gateway",
		Body:       io.NopCloser(strings.NewReader(strings.Repeat("x", 5000))),
	}
	err := NewHTTPStatusError("tavily", "search", resp)
	if len(err.Body) != 2048 {
		t.Fatalf("expected truncated body, got %d bytes", len(err.Body))
	}
	if !strings.HasPrefix(err.Error(), "tavily search status: 502 Bad Gateway") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	err := WrapTemporaryIfNeeded("search", &HTTPStatusError{StatusCode: 503}, nil)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	err = WrapTemporaryIfNeeded("search", &HTTPStatusError{StatusCode: 401}, nil)
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("401 must not be temporary")
	}
}
