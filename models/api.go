package models

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse is the GET /api/v1/health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

// DatasetInfo describes one feed's dataset on disk.
type DatasetInfo struct {
	Feed    string `json:"feed"`
	Present bool   `json:"present"`
	Rows    int    `json:"rows"`
}

// SentimentSummary is the label distribution of a dataset that has been
// through the external sentiment classifier. It is omitted entirely when
// the sentiment columns are absent; the API degrades, it does not fail.
type SentimentSummary struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Other    int `json:"other"`
}

// DateCoverage reports how many rows carry a parseable date. Unparsable
// entries are surfaced as missing, never silently dropped.
type DateCoverage struct {
	Column  string `json:"column"`
	Parsed  int    `json:"parsed"`
	Missing int    `json:"missing"`
}

// DatasetSummary is the GET /api/v1/datasets/:feed/summary payload.
type DatasetSummary struct {
	Feed      string            `json:"feed"`
	Rows      int               `json:"rows"`
	Columns   []string          `json:"columns"`
	Sentiment *SentimentSummary `json:"sentiment,omitempty"`
	Dates     *DateCoverage     `json:"dates,omitempty"`
}
