package extractors

import (
	"context"
	"regexp"
	"strings"

	"video-extractor-go/pkg/httpclient"
	"video-extractor-go/pkg/logging"
	"video-extractor-go/pkg/types"
)

var (
	sibnetPlayerSrcRe = regexp.MustCompile(`player\.src\(\[\{src:\s*["']([^"']+)["']`)
	sibnetRelSrcRe    = regexp.MustCompile(`src:\s*["'](/v/[^"']+)["']`)
	sibnetDirectRe    = regexp.MustCompile(`https?://video\d*\.sibnet\.ru/[^"'\s]+\.mp4[^"'\s]*`)
	sibnetFileRe      = regexp.MustCompile(`file:\s*["']([^"']+)["']`)
)

// SibnetExtractor extracts streams from video.sibnet.ru. The page
// assigns a relative /v/ path to the player; the CDN requires the site
// referer.
type SibnetExtractor struct {
	*BaseExtractor
	log *logging.Logger
}

// NewSibnetExtractor creates a new Sibnet extractor.
func NewSibnetExtractor(client *httpclient.Client, log *logging.Logger) *SibnetExtractor {
	return &SibnetExtractor{
		BaseExtractor: NewBaseExtractor(client, log),
		log:           log.WithComponent("sibnet-extractor"),
	}
}

// Name returns the extractor name.
func (e *SibnetExtractor) Name() string {
	return "sibnet"
}

// Match returns true for Sibnet URLs.
func (e *SibnetExtractor) Match(url string) bool {
	return strings.Contains(strings.ToLower(url), "sibnet.ru")
}

// Referer returns the referer Sibnet's CDN expects.
func (e *SibnetExtractor) Referer() string {
	return "https://video.sibnet.ru/"
}

// Extract scans the page for Sibnet player sources.
func (e *SibnetExtractor) Extract(ctx context.Context, pageURL, combined, referer string) []types.MediaSource {
	var found []string

	if m := sibnetPlayerSrcRe.FindStringSubmatch(combined); m != nil {
		found = append(found, m[1])
	}
	if m := sibnetRelSrcRe.FindStringSubmatch(combined); m != nil {
		found = append(found, m[1])
	}
	found = append(found, sibnetDirectRe.FindAllString(combined, -1)...)
	if m := sibnetFileRe.FindStringSubmatch(combined); m != nil {
		found = append(found, m[1])
	}

	var sources []types.MediaSource
	seen := make(map[string]bool)
	for _, u := range found {
		if strings.HasPrefix(u, "/") {
			u = "https://video.sibnet.ru" + u
		}
		if seen[u] {
			continue
		}
		seen[u] = true
		sources = append(sources, source(u, "Default", "video/mp4", "Sibnet"))
	}
	return sources
}
