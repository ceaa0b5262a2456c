package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
	"github.com/kirillkom/neura-assistant/internal/core/ports"
)

// Registry dispatches extraction by file extension.
type Registry struct {
	byExt map[string]ports.TextExtractor
}

func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]ports.TextExtractor)}
}

// Register binds extractor to each extension (with leading dot).
func (r *Registry) Register(extractor ports.TextExtractor, exts ...string) *Registry {
	for _, ext := range exts {
		r.byExt[strings.ToLower(ext)] = extractor
	}
	return r
}

func (r *Registry) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	ext := strings.ToLower(filepath.Ext(doc.Filename))
	extractor, ok := r.byExt[ext]
	if !ok {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", fmt.Errorf("no extractor for %q", ext))
	}
	return extractor.Extract(ctx, doc)
}
