package extractors

import (
	"context"
	"regexp"
	"strings"

	"video-extractor-go/pkg/httpclient"
	"video-extractor-go/pkg/logging"
	"video-extractor-go/pkg/types"
)

// vkQualities lists the progressive MP4 keys VK embeds in its player
// params, highest first.
var vkQualities = []string{"2160", "1440", "1080", "720", "480", "360", "240", "144"}

var (
	vkURLKeyRe  = regexp.MustCompile(`"url(\d{3,4})"\s*:\s*"((?:[^"\\]|\\.)+)"`)
	vkHLSRe     = regexp.MustCompile(`"hls"\s*:\s*"((?:[^"\\]|\\.)+)"`)
	vkDashRe    = regexp.MustCompile(`"dash_webm"\s*:\s*"((?:[^"\\]|\\.)+)"`)
	vkOGVideoRe = regexp.MustCompile(`<meta[^>]+property="og:video"[^>]+content="([^"]+)"`)
)

// VKExtractor extracts streams from VK video pages. The player params
// blob carries per-quality MP4 URLs plus HLS and DASH manifests, all
// JSON-escaped.
type VKExtractor struct {
	*BaseExtractor
	log *logging.Logger
}

// NewVKExtractor creates a new VK extractor.
func NewVKExtractor(client *httpclient.Client, log *logging.Logger) *VKExtractor {
	return &VKExtractor{
		BaseExtractor: NewBaseExtractor(client, log),
		log:           log.WithComponent("vk-extractor"),
	}
}

// Name returns the extractor name.
func (e *VKExtractor) Name() string {
	return "vk"
}

// Match returns true for VK video URLs.
func (e *VKExtractor) Match(url string) bool {
	lower := strings.ToLower(url)
	return strings.Contains(lower, "vk.com") ||
		strings.Contains(lower, "vkvideo.ru") ||
		strings.Contains(lower, "vk.ru")
}

// Referer returns the referer VK's CDN expects.
func (e *VKExtractor) Referer() string {
	return "https://vk.com/"
}

// Extract scans the page for VK player params.
func (e *VKExtractor) Extract(ctx context.Context, pageURL, combined, referer string) []types.MediaSource {
	var sources []types.MediaSource

	urls := make(map[string]string)
	for _, m := range vkURLKeyRe.FindAllStringSubmatch(combined, -1) {
		if _, ok := urls[m[1]]; !ok {
			urls[m[1]] = m[2]
		}
	}
	for _, q := range vkQualities {
		if u, ok := urls[q]; ok {
			sources = append(sources, source(u, q+"p", "video/mp4", "VK"))
		}
	}

	if m := vkHLSRe.FindStringSubmatch(combined); m != nil {
		sources = append(sources, source(m[1], "HLS Master", "application/x-mpegURL", "VK"))
	}
	if m := vkDashRe.FindStringSubmatch(combined); m != nil {
		sources = append(sources, source(m[1], "DASH", "application/dash+xml", "VK"))
	}

	if len(sources) == 0 {
		if m := vkOGVideoRe.FindStringSubmatch(combined); m != nil {
			sources = append(sources, source(m[1], "", "", "VK (OG)"))
		}
	}

	e.log.Debug("vk extraction finished", "sources", len(sources))
	return sources
}
