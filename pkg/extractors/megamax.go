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
	megamaxKeyedRe = regexp.MustCompile(`(?:file|src|source)\s*[:=]\s*["']((?:https?:)?//[^"']+)["']`)
	megamaxBareRe  = regexp.MustCompile(`["']((?:https?:)?//[^"']+\.(?:mp4|m3u8)[^"']*)["']`)
)

// MegamaxExtractor extracts streams from Megamax mirrors. The pages use
// several player frameworks, so both keyed assignments and bare media
// URLs are collected.
type MegamaxExtractor struct {
	*BaseExtractor
	log *logging.Logger
}

// NewMegamaxExtractor creates a new Megamax extractor.
func NewMegamaxExtractor(client *httpclient.Client, log *logging.Logger) *MegamaxExtractor {
	return &MegamaxExtractor{
		BaseExtractor: NewBaseExtractor(client, log),
		log:           log.WithComponent("megamax-extractor"),
	}
}

// Name returns the extractor name.
func (e *MegamaxExtractor) Name() string {
	return "megamax"
}

// Match returns true for Megamax URLs.
func (e *MegamaxExtractor) Match(url string) bool {
	return strings.Contains(strings.ToLower(url), "megamax")
}

// Referer returns the referer to present to Megamax's CDN.
func (e *MegamaxExtractor) Referer() string {
	return ""
}

// Extract scans the page for media assignments and bare media URLs.
func (e *MegamaxExtractor) Extract(ctx context.Context, pageURL, combined, referer string) []types.MediaSource {
	var found []string
	for _, m := range megamaxKeyedRe.FindAllStringSubmatch(combined, -1) {
		found = append(found, m[1])
	}
	for _, m := range megamaxBareRe.FindAllStringSubmatch(combined, -1) {
		found = append(found, m[1])
	}

	var sources []types.MediaSource
	seen := make(map[string]bool)
	for _, u := range found {
		u = cleanURL(u)
		if seen[u] {
			continue
		}
		seen[u] = true
		sources = append(sources, source(u, "", "", "Megamax"))
	}
	return sources
}
