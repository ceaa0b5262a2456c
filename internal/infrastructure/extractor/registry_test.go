package extractor

import (
	"context"
	"testing"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
)

type fixedExtractor string

func (f fixedExtractor) Extract(context.Context, *domain.Document) (string, error) {
	return string(f), nil
}

func TestRegistryDispatchesByExtension(t *testing.T) {
	r := NewRegistry().
		Register(fixedExtractor("pdf text"), ".pdf").
		Register(fixedExtractor("plain text"), ".txt", ".md")

	cases := map[string]string{
		"report.PDF": "pdf text",
		"notes.md":   "plain text",
		"readme.txt": "plain text",
	}
	for name, want := range cases {
		got, err := r.Extract(context.Background(), &domain.Document{Filename: name})
		if err != nil || got != want {
			t.Fatalf("%s: got %q, %v", name, got, err)
		}
	}
}

func TestRegistryRejectsUnknownExtension(t *testing.T) {
	_, err := NewRegistry().Extract(context.Background(), &domain.Document{Filename: "image.png"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
