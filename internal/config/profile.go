package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RoutingProfile overrides the classifier vocabulary and persona templates.
// Empty fields keep the built-in defaults.
type RoutingProfile struct {
	WeatherKeywords []string        `yaml:"weather_keywords"`
	Prompts         PromptOverrides `yaml:"prompts"`
}

type PromptOverrides struct {
	Weather   string `yaml:"weather"`
	Document  string `yaml:"document"`
	WebSearch string `yaml:"web_search"`
}

// LoadRoutingProfile returns an empty profile for an empty path or a missing
// file. A malformed file is an error.
func LoadRoutingProfile(path string) (RoutingProfile, error) {
	var profile RoutingProfile
	if strings.TrimSpace(path) == "" {
		return profile, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return profile, nil
		}
		return profile, fmt.Errorf("read routing profile: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&profile); err != nil && !errors.Is(err, io.EOF) {
		return RoutingProfile{}, fmt.Errorf("parse routing profile %s: %w", path, err)
	}

	cleaned := profile.WeatherKeywords[:0]
	for _, kw := range profile.WeatherKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			cleaned = append(cleaned, kw)
		}
	}
	profile.WeatherKeywords = cleaned
	return profile, nil
}
