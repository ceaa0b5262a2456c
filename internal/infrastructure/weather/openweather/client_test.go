package openweather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
)

const londonPayload = `{
	"name": "London",
	"sys": {"country": "GB", "sunrise": 1700000000, "sunset": 1700030000},
	"main": {"temp": 15.5, "feels_like": 14.9, "humidity": 72, "pressure": 1012},
	"wind": {"speed": 4.1, "deg": 230},
	"clouds": {"all": 75},
	"weather": [{"main": "Clouds", "description": "broken clouds"}],
	"visibility": 10000
}`

func TestLookupMapsCurrentConditions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/2.5/weather" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("q") != "London" || q.Get("appid") != "key" || q.Get("units") != "metric" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(londonPayload))
	}))
	defer server.Close()

	client, err := New(server.URL, "key", nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	report, err := client.Lookup(context.Background(), " London ")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if report.City != "London" || report.Country != "GB" || report.Temperature != 15.5 || report.Humidity != 72 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Description != "broken clouds" || report.MainWeather != "Clouds" || report.WindDirection != 230 {
		t.Fatalf("unexpected condition fields %+v", report)
	}
	if report.Sunrise.Unix() != 1700000000 {
		t.Fatalf("unexpected sunrise %v", report.Sunrise)
	}
}

func TestLookupCityNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"cod":"404","message":"city not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client, _ := New(server.URL, "key", nil)
	_, err := client.Lookup(context.Background(), "Atlantis")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !strings.Contains(err.Error(), "city 'Atlantis' not found") {
		t.Fatalf("unexpected message %v", err)
	}
}

func TestLookupUnauthorizedIsNotTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"cod":401,"message":"Invalid API key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client, _ := New(server.URL, "bad", nil)
	_, err := client.Lookup(context.Background(), "London")
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid API key") {
		t.Fatalf("expected provider message, got %v", err)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New("", "", nil); !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
