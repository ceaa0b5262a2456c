package usecase

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kirillkom/neura-assistant/internal/core/domain"
)

func formatWeatherReport(report *domain.WeatherReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weather for %s, %s:\n", report.City, report.Country)
	fmt.Fprintf(&b, "- Temperature: %s°C (feels like %s°C)\n", formatMeasurement(report.Temperature), formatMeasurement(report.FeelsLike))
	fmt.Fprintf(&b, "- Condition: %s\n", capitalize(report.Description))
	fmt.Fprintf(&b, "- Humidity: %d%%\n", report.Humidity)
	fmt.Fprintf(&b, "- Pressure: %d hPa\n", report.Pressure)
	fmt.Fprintf(&b, "- Wind Speed: %s m/s\n", formatMeasurement(report.WindSpeed))
	fmt.Fprintf(&b, "- Cloudiness: %d%%\n", report.Cloudiness)
	fmt.Fprintf(&b, "- Visibility: %d meters", report.Visibility)
	return b.String()
}

// formatRetrievedDocuments keeps the order the index returned.
func formatRetrievedDocuments(docs []domain.RetrievedDocument) string {
	parts := make([]string, 0, len(docs))
	for i, doc := range docs {
		source := doc.SourceName
		if source == "" {
			source = "Unknown"
		}
		var b strings.Builder
		fmt.Fprintf(&b, "[Document %d] (Score: %.4f)\n", i+1, doc.Score)
		fmt.Fprintf(&b, "Source: %s (chunk %d)\n", source, doc.ChunkIndex)
		fmt.Fprintf(&b, "Content:\n%s\n", doc.Content)
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n")
}

func formatSearchContext(resp *domain.SearchResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search Query: %s\n\n", resp.Query)
	if resp.Answer != "" {
		fmt.Fprintf(&b, "Answer: %s\n\n", resp.Answer)
	}
	b.WriteString("Sources:\n")
	for i, hit := range resp.Results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, orDefault(hit.Title, "No Title"))
		fmt.Fprintf(&b, "   %s\n", orDefault(hit.Content, "No content"))
		fmt.Fprintf(&b, "   URL: %s\n\n", orDefault(hit.URL, "No URL"))
	}
	return b.String()
}

// formatMeasurement prints whole numbers with one decimal place and keeps
// the natural precision otherwise: 15 -> "15.0", 15.5 -> "15.5".
func formatMeasurement(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
