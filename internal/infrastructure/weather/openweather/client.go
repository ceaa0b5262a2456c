package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
	"github.com/kirillkom/neura-assistant/internal/infrastructure/resilience"
)

const DefaultBaseURL = "https://api.openweathermap.org"

type Client struct {
	baseURL    string
	apiKey     string
	units      string
	httpClient *http.Client
	executor   *resilience.Executor
}

// New fails with domain.ErrConfiguration when apiKey is empty.
func New(baseURL, apiKey string, executor *resilience.Executor) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, domain.WrapError(domain.ErrConfiguration, "openweather client", errors.New("api key is required"))
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		units:      "metric",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		executor:   executor,
	}, nil
}

type currentWeatherResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Visibility int `json:"visibility"`
}

func (c *Client) Lookup(ctx context.Context, city string) (*domain.WeatherReport, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "lookup weather", errors.New("city is empty"))
	}

	payload, err := resilience.Call(ctx, c.executor, "openweather.current", func(callCtx context.Context) (*currentWeatherResponse, error) {
		return c.fetchCurrent(callCtx, city)
	}, resilience.ClassifyHTTPError)
	if err != nil {
		return nil, resilience.WrapTemporaryIfNeeded("openweather lookup", err, resilience.ClassifyHTTPError)
	}
	return toReport(payload), nil
}

func (c *Client) fetchCurrent(ctx context.Context, city string) (*currentWeatherResponse, error) {
	query := url.Values{}
	query.Set("q", city)
	query.Set("appid", c.apiKey)
	query.Set("units", c.units)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/2.5/weather?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openweather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.WrapError(domain.ErrNotFound, "lookup weather", fmt.Errorf("city '%s' not found", city))
	}
	if resp.StatusCode >= 300 {
		return nil, resilience.NewHTTPStatusError("openweather", "lookup", resp)
	}

	var payload currentWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}
	return &payload, nil
}

func toReport(p *currentWeatherResponse) *domain.WeatherReport {
	report := &domain.WeatherReport{
		City:          p.Name,
		Country:       p.Sys.Country,
		Temperature:   p.Main.Temp,
		FeelsLike:     p.Main.FeelsLike,
		Humidity:      p.Main.Humidity,
		Pressure:      p.Main.Pressure,
		WindSpeed:     p.Wind.Speed,
		WindDirection: p.Wind.Deg,
		Cloudiness:    p.Clouds.All,
		Visibility:    p.Visibility,
	}
	if len(p.Weather) > 0 {
		report.Description = p.Weather[0].Description
		report.MainWeather = p.Weather[0].Main
	}
	if p.Sys.Sunrise > 0 {
		report.Sunrise = time.Unix(p.Sys.Sunrise, 0).UTC()
	}
	if p.Sys.Sunset > 0 {
		report.Sunset = time.Unix(p.Sys.Sunset, 0).UTC()
	}
	return report
}
