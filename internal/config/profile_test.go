package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRoutingProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.yaml")
	content := `
weather_keywords: [" Weather ", monsoon, ""]
prompts:
  document: "You answer from the company handbook."
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	profile, err := LoadRoutingProfile(path)
	if err != nil {
		t.Fatalf("LoadRoutingProfile() error = %v", err)
	}
	if len(profile.WeatherKeywords) != 2 || profile.WeatherKeywords[0] != "weather" || profile.WeatherKeywords[1] != "monsoon" {
		t.Fatalf("unexpected keywords %q", profile.WeatherKeywords)
	}
	if profile.Prompts.Document != "You answer from the company handbook." || profile.Prompts.Weather != "" {
		t.Fatalf("unexpected prompts %+v", profile.Prompts)
	}
}

func TestLoadRoutingProfileMissingIsEmpty(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "absent.yaml")} {
		profile, err := LoadRoutingProfile(path)
		if err != nil || len(profile.WeatherKeywords) != 0 {
			t.Fatalf("path %q: %+v, %v", path, profile, err)
		}
	}
}

func TestLoadRoutingProfileRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.yaml")
	if err := os.WriteFile(path, []byte("weather_keywords: {not: [a list\n"), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	if _, err := LoadRoutingProfile(path); err == nil {
		t.Fatalf("expected parse error")
	}

	if err := os.WriteFile(path, []byte("unknown_field: 1\n"), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	if _, err := LoadRoutingProfile(path); err == nil {
		t.Fatalf("expected unknown field error")
	}
}
