package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
	"github.com/kirillkom/neura-assistant/internal/core/ports"
)

var DefaultWeatherKeywords = []string{
	"weather", "temperature", "rain", "snow", "wind", "forecast", "climate",
	"humid", "pressure", "cloud", "storm", "thunder", "lightning", "fog",
	"drizzle", "sleet", "hail", "degree", "celsius", "fahrenheit", "sunny",
	"cloudy", "windy", "rainy", "snowy", "cold", "hot", "warm", "cool",
	"humidity", "visibility", "sunset", "sunrise", "dew", "frost",
}

// nonWeatherPrefixes start with a vocabulary word but are not about weather.
// A token beginning with one of them never matches.
var nonWeatherPrefixes = []string{
	"window", "windsor", "hotel", "hotline", "hotkey", "hotspot", "hotdog", "coolant",
}

type KeywordClassifier struct {
	vocabulary   []string
	counter      ports.DocumentCounter
	countTimeout time.Duration
}

func NewKeywordClassifier(counter ports.DocumentCounter, keywords []string, countTimeout time.Duration) *KeywordClassifier {
	if len(keywords) == 0 {
		keywords = DefaultWeatherKeywords
	}
	if countTimeout <= 0 {
		countTimeout = 3 * time.Second
	}
	vocabulary := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" {
			vocabulary = append(vocabulary, keyword)
		}
	}
	return &KeywordClassifier{
		vocabulary:   vocabulary,
		counter:      counter,
		countTimeout: countTimeout,
	}
}

func (c *KeywordClassifier) Classify(ctx context.Context, query string) domain.Classification {
	if keyword, ok := c.matchWeatherKeyword(query); ok {
		slog.InfoContext(ctx, "query_classified", "classification", domain.ClassificationWeather, "keyword", keyword)
		return domain.ClassificationWeather
	}

	count, err := c.indexedCount(ctx)
	if err != nil {
		slog.WarnContext(ctx, "index_count_failed", "error", err.Error())
		count = 0
	}
	if count > 0 {
		slog.InfoContext(ctx, "query_classified", "classification", domain.ClassificationDocumentRetrieval, "indexed_chunks", count)
		return domain.ClassificationDocumentRetrieval
	}

	slog.InfoContext(ctx, "query_classified", "classification", domain.ClassificationWebSearch)
	return domain.ClassificationWebSearch
}

// matchWeatherKeyword reports the first vocabulary word that starts a query
// token, so "foggy", "thunderstorm" and "hottest" match while "photo" and
// "school" do not.
func (c *KeywordClassifier) matchWeatherKeyword(query string) (string, bool) {
	for _, token := range splitAlphaNumLower(query) {
		if hasAnyPrefix(token, nonWeatherPrefixes) {
			continue
		}
		for _, keyword := range c.vocabulary {
			if strings.HasPrefix(token, keyword) {
				return keyword, true
			}
		}
	}
	return "", false
}

func hasAnyPrefix(token string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(token, prefix) {
			return true
		}
	}
	return false
}

func (c *KeywordClassifier) indexedCount(ctx context.Context) (count int, err error) {
	if c.counter == nil {
		return 0, nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			count, err = 0, fmt.Errorf("index count panicked: %v", rec)
		}
	}()

	countCtx, cancel := context.WithTimeout(ctx, c.countTimeout)
	defer cancel()
	return c.counter.Count(countCtx)
}

func splitAlphaNumLower(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}
