// Package types defines core domain types used throughout the application.
package types

// MediaSource is a playable URL discovered during extraction.
// Uniqueness is by exact URL match within one ExtractionResult.
type MediaSource struct {
	URL        string `json:"url"`
	Quality    string `json:"quality"`
	Type       string `json:"type"`
	Player     string `json:"player"`
	Bandwidth  int    `json:"bandwidth,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	IsMaster   bool   `json:"isMaster,omitempty"`
}

// PageInfo describes the page an extraction ran against.
type PageInfo struct {
	Title          string `json:"title"`
	FinalURL       string `json:"finalURL"`
	PageSize       int    `json:"pageSize"`
	Status         int    `json:"status"`
	DetectedPlayer string `json:"detectedPlayer"`
	PackedScripts  int    `json:"packedScripts"`
	IframesFound   int    `json:"iframesFound"`
}

// ExtractionResult is the complete output of one extraction run.
// Sources are ordered by descending leading numeric quality.
type ExtractionResult struct {
	PageInfo PageInfo      `json:"pageInfo"`
	Sources  []MediaSource `json:"sources"`
}
