package extractors

import (
	"context"
	"regexp"
	"strings"

	"video-extractor-go/pkg/httpclient"
	"video-extractor-go/pkg/logging"
	"video-extractor-go/pkg/types"
)

// Hosts whose pages yield to one or two regex passes share this
// implementation; each instance differs only in its match domains,
// referer, and URL patterns.

// patternRule pairs a URL-capturing regex with the quality and type to
// assign when the defaults do not apply.
type patternRule struct {
	re      *regexp.Regexp
	quality string
	mime    string
}

// SimpleExtractor is a regex-driven host extractor.
type SimpleExtractor struct {
	*BaseExtractor
	log     *logging.Logger
	name    string
	player  string
	domains []string
	referer string
	rules   []patternRule
}

func newSimpleExtractor(client *httpclient.Client, log *logging.Logger, name, player, referer string, domains []string, rules []patternRule) *SimpleExtractor {
	return &SimpleExtractor{
		BaseExtractor: NewBaseExtractor(client, log),
		log:           log.WithComponent(name + "-extractor"),
		name:          name,
		player:        player,
		domains:       domains,
		referer:       referer,
		rules:         rules,
	}
}

// Name returns the extractor name.
func (e *SimpleExtractor) Name() string {
	return e.name
}

// Match returns true when the URL contains one of the host's domains.
func (e *SimpleExtractor) Match(url string) bool {
	lower := strings.ToLower(url)
	for _, d := range e.domains {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

// Referer returns the referer this host's CDN expects.
func (e *SimpleExtractor) Referer() string {
	return e.referer
}

// Extract runs each pattern over the combined page text.
func (e *SimpleExtractor) Extract(ctx context.Context, pageURL, combined, referer string) []types.MediaSource {
	var sources []types.MediaSource
	seen := make(map[string]bool)
	for _, rule := range e.rules {
		for _, m := range rule.re.FindAllStringSubmatch(combined, -1) {
			u := cleanURL(m[1])
			if len(u) < 10 || seen[u] {
				continue
			}
			seen[u] = true
			sources = append(sources, source(u, rule.quality, rule.mime, e.player))
		}
	}
	return sources
}

// NewMP4UploadExtractor creates the Mp4upload extractor.
func NewMP4UploadExtractor(client *httpclient.Client, log *logging.Logger) *SimpleExtractor {
	return newSimpleExtractor(client, log, "mp4upload", "Mp4upload", "https://mp4upload.com/",
		[]string{"mp4upload"},
		[]patternRule{
			{re: regexp.MustCompile(`player\.src\(\s*["']([^"']+)["']\s*\)`)},
			{re: regexp.MustCompile(`src:\s*["'](https?://[^"']+\.mp4[^"']*)["']`)},
		})
}

// NewUqloadExtractor creates the Uqload extractor.
func NewUqloadExtractor(client *httpclient.Client, log *logging.Logger) *SimpleExtractor {
	return newSimpleExtractor(client, log, "uqload", "Uqload", "https://uqload.to/",
		[]string{"uqload"},
		[]patternRule{
			{re: regexp.MustCompile(`sources:\s*\[\s*["']([^"']+)["']`)},
			{re: regexp.MustCompile(`src:\s*["'](https?://[^"']+\.mp4[^"']*)["']`)},
			{re: regexp.MustCompile(`video_link\s*=\s*["']([^"']+)["']`)},
		})
}

// NewSendvidExtractor creates the Sendvid extractor.
func NewSendvidExtractor(client *httpclient.Client, log *logging.Logger) *SimpleExtractor {
	return newSimpleExtractor(client, log, "sendvid", "Sendvid", "https://sendvid.com/",
		[]string{"sendvid"},
		[]patternRule{
			{re: regexp.MustCompile(`<source[^>]+src=["']([^"']+)["'][^>]+type=["']video`)},
			{re: regexp.MustCompile(`var\s+video_source\s*=\s*["']([^"']+)["']`)},
		})
}

// NewMyviExtractor creates the Myvi extractor.
func NewMyviExtractor(client *httpclient.Client, log *logging.Logger) *SimpleExtractor {
	return newSimpleExtractor(client, log, "myvi", "Myvi", "https://www.myvi.tv/",
		[]string{"myvi.tv", "myvi.top"},
		[]patternRule{
			{re: regexp.MustCompile(`(?:hlsSource|source)\s*[:=]\s*["']([^"']+)["']`)},
			{re: regexp.MustCompile(`["'](https?://[^"']+\.m3u8[^"']*)["']`), quality: "HLS", mime: "application/x-mpegURL"},
		})
}

// NewVidmolyExtractor creates the Vidmoly extractor.
func NewVidmolyExtractor(client *httpclient.Client, log *logging.Logger) *SimpleExtractor {
	return newSimpleExtractor(client, log, "vidmoly", "Vidmoly", "https://vidmoly.to/",
		[]string{"vidmoly"},
		[]patternRule{
			{re: regexp.MustCompile(`sources:\s*\[\s*\{\s*file:\s*["']([^"']+)["']`), quality: "HLS", mime: "application/x-mpegURL"},
		})
}

// NewYourUploadExtractor creates the YourUpload extractor.
func NewYourUploadExtractor(client *httpclient.Client, log *logging.Logger) *SimpleExtractor {
	return newSimpleExtractor(client, log, "yourupload", "YourUpload", "https://www.yourupload.com/",
		[]string{"yourupload"},
		[]patternRule{
			{re: regexp.MustCompile(`file:\s*'([^']+)'`)},
		})
}

// JWPlayerExtractor is a fallback for pages driving a bare jwplayer
// setup. It never matches by URL; the orchestrator only reaches it by
// name when no host matched but a jwplayer setup is present.
type JWPlayerExtractor struct {
	*SimpleExtractor
}

// NewJWPlayerExtractor creates the generic jwplayer extractor.
func NewJWPlayerExtractor(client *httpclient.Client, log *logging.Logger) *JWPlayerExtractor {
	return &JWPlayerExtractor{
		SimpleExtractor: newSimpleExtractor(client, log, "jwplayer", "JWPlayer", "",
			nil,
			[]patternRule{
				{re: regexp.MustCompile(`jwplayer\([^)]*\)\.setup\(\s*\{[^}]*file:\s*["']([^"']+)["']`)},
			}),
	}
}

// Match always returns false; jwplayer is not tied to a domain.
func (e *JWPlayerExtractor) Match(url string) bool {
	return false
}
