package extractors

import (
	"context"
	"regexp"
	"strings"

	"video-extractor-go/pkg/httpclient"
	"video-extractor-go/pkg/logging"
	"video-extractor-go/pkg/types"
)

var filemoonFileRe = regexp.MustCompile(`file:\s*"([^"]+\.m3u8[^"]*)"`)

// FilemoonExtractor extracts streams from Filemoon. The HLS manifest
// URL sits in a packed jwplayer setup, so it only appears after the
// page scripts are unpacked.
type FilemoonExtractor struct {
	*BaseExtractor
	log *logging.Logger
}

// NewFilemoonExtractor creates a new Filemoon extractor.
func NewFilemoonExtractor(client *httpclient.Client, log *logging.Logger) *FilemoonExtractor {
	return &FilemoonExtractor{
		BaseExtractor: NewBaseExtractor(client, log),
		log:           log.WithComponent("filemoon-extractor"),
	}
}

// Name returns the extractor name.
func (e *FilemoonExtractor) Name() string {
	return "filemoon"
}

// Match returns true for Filemoon URLs.
func (e *FilemoonExtractor) Match(url string) bool {
	lower := strings.ToLower(url)
	return strings.Contains(lower, "filemoon") || strings.Contains(lower, "moonplayer")
}

// Referer returns the referer Filemoon's CDN expects.
func (e *FilemoonExtractor) Referer() string {
	return "https://filemoon.sx/"
}

// Extract scans the unpacked player setup for the HLS manifest.
func (e *FilemoonExtractor) Extract(ctx context.Context, pageURL, combined, referer string) []types.MediaSource {
	m := filemoonFileRe.FindStringSubmatch(combined)
	if m == nil {
		return nil
	}
	return []types.MediaSource{source(m[1], "", "application/x-mpegURL", "Filemoon")}
}
