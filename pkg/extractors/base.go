// Package extractors provides host extractor implementations. Each
// extractor pattern-matches one hosting platform's page markup or script
// conventions to recover direct media URLs.
//
// Extractors share one contract: they never fail. A parse miss, a
// malformed JSON blob, or a dead secondary endpoint yields an empty
// result, never an error, so one broken host cannot abort a pipeline run.
package extractors

import (
	"strings"

	"video-extractor-go/pkg/httpclient"
	"video-extractor-go/pkg/logging"
	"video-extractor-go/pkg/types"
)

// BaseExtractor provides common functionality for extractors.
type BaseExtractor struct {
	client *httpclient.Client
	log    *logging.Logger
}

// NewBaseExtractor creates a new base extractor.
func NewBaseExtractor(client *httpclient.Client, log *logging.Logger) *BaseExtractor {
	return &BaseExtractor{
		client: client,
		log:    log,
	}
}

// source builds a MediaSource, normalizing protocol-relative URLs and
// JSON-escaped slashes.
func source(rawURL, quality, mimeType, player string) types.MediaSource {
	u := cleanURL(rawURL)
	if quality == "" {
		quality = DetectQuality(u)
	}
	if mimeType == "" {
		mimeType = DetectType(u)
	}
	return types.MediaSource{
		URL:     u,
		Quality: quality,
		Type:    mimeType,
		Player:  player,
	}
}

func cleanURL(rawURL string) string {
	u := strings.TrimSpace(rawURL)
	u = strings.ReplaceAll(u, `\/`, "/")
	u = strings.ReplaceAll(u, `\u0026`, "&")
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	}
	return u
}
