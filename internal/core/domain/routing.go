package domain

import "time"

// Classification names the context source chosen for a query.
type Classification string

const (
	ClassificationUnclassified      Classification = "unclassified"
	ClassificationWeather           Classification = "weather"
	ClassificationDocumentRetrieval Classification = "document_retrieval"
	ClassificationWebSearch         Classification = "web_search"
)

func (c Classification) Valid() bool {
	switch c {
	case ClassificationWeather, ClassificationDocumentRetrieval, ClassificationWebSearch:
		return true
	default:
		return false
	}
}

type RetrievedDocument struct {
	DocumentID string  `json:"document_id,omitempty"`
	Content    string  `json:"content"`
	SourceName string  `json:"source_name"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

type WeatherReport struct {
	City          string    `json:"city"`
	Country       string    `json:"country"`
	Temperature   float64   `json:"temperature"`
	FeelsLike     float64   `json:"feels_like"`
	Humidity      int       `json:"humidity"`
	Pressure      int       `json:"pressure"`
	WindSpeed     float64   `json:"wind_speed"`
	WindDirection int       `json:"wind_direction"`
	Cloudiness    int       `json:"cloudiness"`
	Description   string    `json:"description"`
	MainWeather   string    `json:"main_weather"`
	Visibility    int       `json:"visibility"`
	Sunrise       time.Time `json:"sunrise"`
	Sunset        time.Time `json:"sunset"`
}

type SearchHit struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

type SearchResponse struct {
	Query   string      `json:"query"`
	Answer  string      `json:"answer,omitempty"`
	Results []SearchHit `json:"results"`
}

// ContextBundle is the output of a context source. Text is always set,
// possibly to an explanatory message when the fetch failed.
type ContextBundle struct {
	Source     Classification      `json:"source"`
	Text       string              `json:"text"`
	Weather    *WeatherReport      `json:"weather,omitempty"`
	Documents  []RetrievedDocument `json:"documents,omitempty"`
	Search     *SearchResponse     `json:"search,omitempty"`
	FetchError string              `json:"fetch_error,omitempty"`
	Err        error               `json:"-"`
}

type AnswerMetadata struct {
	RetrievedDocumentCount *int     `json:"retrieved_document_count,omitempty"`
	SearchResultCount      *int     `json:"search_result_count,omitempty"`
	City                   string   `json:"city,omitempty"`
	Errors                 []string `json:"errors,omitempty"`
}

type AnswerResult struct {
	Answer         string         `json:"answer"`
	Classification Classification `json:"classification"`
	Metadata       AnswerMetadata `json:"metadata"`
}
