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
	mixdropWurlRe = regexp.MustCompile(`MDCore\.wurl\s*=\s*["']([^"']+)["']`)
	mixdropVsrcRe = regexp.MustCompile(`MDCore\.vsrc\s*=\s*["']([^"']+)["']`)
)

// MixdropExtractor extracts streams from Mixdrop. The packed player
// script assigns the delivery URL to MDCore.wurl.
type MixdropExtractor struct {
	*BaseExtractor
	log *logging.Logger
}

// NewMixdropExtractor creates a new Mixdrop extractor.
func NewMixdropExtractor(client *httpclient.Client, log *logging.Logger) *MixdropExtractor {
	return &MixdropExtractor{
		BaseExtractor: NewBaseExtractor(client, log),
		log:           log.WithComponent("mixdrop-extractor"),
	}
}

// Name returns the extractor name.
func (e *MixdropExtractor) Name() string {
	return "mixdrop"
}

// Match returns true for Mixdrop URLs.
func (e *MixdropExtractor) Match(url string) bool {
	lower := strings.ToLower(url)
	for _, d := range []string{"mixdrop", "mixdrp", "mdy48tn97", "mdzsmutpcvykb"} {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

// Referer returns the referer Mixdrop's CDN expects.
func (e *MixdropExtractor) Referer() string {
	return "https://mixdrop.co/"
}

// Extract scans the unpacked player script for MDCore assignments.
func (e *MixdropExtractor) Extract(ctx context.Context, pageURL, combined, referer string) []types.MediaSource {
	var sources []types.MediaSource
	if m := mixdropWurlRe.FindStringSubmatch(combined); m != nil {
		sources = append(sources, source(m[1], "Default", "video/mp4", "Mixdrop"))
	}
	if len(sources) == 0 {
		if m := mixdropVsrcRe.FindStringSubmatch(combined); m != nil {
			sources = append(sources, source(m[1], "Default", "video/mp4", "Mixdrop"))
		}
	}
	return sources
}
