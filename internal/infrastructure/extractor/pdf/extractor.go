package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
	"github.com/kirillkom/neura-assistant/internal/core/ports"
)

// Extractor concatenates the plain text of every page. A page that fails to
// decode is logged and skipped.
type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	parsed, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "parse pdf", fmt.Errorf("%s: %w", doc.Filename, err))
	}
	pages := parsed.NumPage()
	if pages == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "parse pdf", fmt.Errorf("%s has no pages", doc.Filename))
	}

	var b strings.Builder
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= pages; i++ {
		page := parsed.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			slog.WarnContext(ctx, "pdf_page_extract_failed", "document_id", doc.ID, "page", i, "error", err)
			continue
		}
		b.WriteString(text)
	}

	slog.InfoContext(ctx, "pdf_loaded", "document_id", doc.ID, "pages", pages, "chars", b.Len())
	return strings.TrimSpace(b.String()), nil
}
