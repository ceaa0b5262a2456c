package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
	"github.com/kirillkom/neura-assistant/internal/core/ports"
)

const (
	DefaultWeatherCity = "London"
	maxCityNameLength  = 85
)

type WeatherContextSource struct {
	llm         ports.ChatModel
	provider    ports.WeatherProvider
	defaultCity string
}

func NewWeatherContextSource(llm ports.ChatModel, provider ports.WeatherProvider, defaultCity string) *WeatherContextSource {
	defaultCity = strings.TrimSpace(defaultCity)
	if defaultCity == "" {
		defaultCity = DefaultWeatherCity
	}
	return &WeatherContextSource{
		llm:         llm,
		provider:    provider,
		defaultCity: defaultCity,
	}
}

func (s *WeatherContextSource) Fetch(ctx context.Context, query string) domain.ContextBundle {
	bundle := domain.ContextBundle{Source: domain.ClassificationWeather}

	city, err := s.extractCity(ctx, query)
	if err != nil {
		return weatherFailure(ctx, bundle, fmt.Errorf("extract city: %w", err))
	}

	if s.provider == nil {
		return weatherFailure(ctx, bundle, domain.WrapError(domain.ErrConfiguration, "lookup weather", errors.New("weather provider is not configured")))
	}
	slog.InfoContext(ctx, "weather_lookup", "city", city)
	report, err := s.provider.Lookup(ctx, city)
	if err != nil {
		return weatherFailure(ctx, bundle, fmt.Errorf("lookup weather for %q: %w", city, err))
	}
	if report == nil {
		return weatherFailure(ctx, bundle, domain.WrapError(domain.ErrDataUnavailable, "lookup weather", fmt.Errorf("empty report for %q", city)))
	}

	bundle.Weather = report
	bundle.Text = formatWeatherReport(report)
	return bundle
}

func (s *WeatherContextSource) extractCity(ctx context.Context, query string) (string, error) {
	if s.llm == nil {
		return "", domain.WrapError(domain.ErrConfiguration, "extract city", errors.New("language model is not configured"))
	}
	reply, err := s.llm.Complete(ctx, cityExtractionSystemPrompt, buildCityExtractionPrompt(query, s.defaultCity))
	if err != nil {
		return "", err
	}
	return s.normalizeCity(reply), nil
}

// normalizeCity keeps the first line of the model reply and strips quoting.
func (s *WeatherContextSource) normalizeCity(reply string) string {
	city := strings.TrimSpace(reply)
	if idx := strings.IndexAny(city, "\r\n"); idx >= 0 {
		city = city[:idx]
	}
	city = strings.TrimPrefix(city, "City:")
	city = strings.Trim(city, " \t\"'`.,;:!?*")
	if city == "" || len(city) > maxCityNameLength {
		return s.defaultCity
	}
	return city
}

func weatherFailure(ctx context.Context, bundle domain.ContextBundle, err error) domain.ContextBundle {
	slog.WarnContext(ctx, "context_fetch_failed", "source", bundle.Source, "error", err.Error())
	bundle.Text = fmt.Sprintf("Error fetching weather: %v", err)
	bundle.FetchError = err.Error()
	bundle.Err = err
	return bundle
}
