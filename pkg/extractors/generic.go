package extractors

import (
	"context"
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"video-extractor-go/pkg/httpclient"
	"video-extractor-go/pkg/logging"
	"video-extractor-go/pkg/types"
)

var (
	genericSourceTagRe = regexp.MustCompile(`<source[^>]+src=["']([^"']+)["'][^>]*>`)

	// sources: [{file: "...", label: "720p"}, ...] style arrays used by
	// jwplayer, videojs and clones. The window is capped at the regexp
	// package's repeat limit; longer arrays fall through to the other
	// passes.
	genericSourcesArrRe = regexp.MustCompile(`(?s)sources\s*[:=]\s*(\[.{0,1000}?\])`)
	genericEntryURLRe   = regexp.MustCompile(`(?:file|src|source|url)\s*[:=]?\s*["']([^"']+)["']`)
	genericEntryLabelRe = regexp.MustCompile(`(?:label|quality|res)\s*[:=]?\s*["']?([^"',}\s]+)`)
	genericEntryTypeRe  = regexp.MustCompile(`type\s*[:=]?\s*["']([^"']+)["']`)

	genericAssignRe = regexp.MustCompile(`(?:file|source|src|video_?[uU]rl|stream_?[uU]rl|mp4_?[uU]rl)\s*[:=]\s*["']([^"']+)["']`)
	genericPlayerCallRe = regexp.MustCompile(`\.src\(\s*["']([^"']+)["']\s*\)`)
	genericSetupRe      = regexp.MustCompile(`(?s)\.setup\(\s*\{[^)]{0,300}?file\s*:\s*["']([^"']+)["']`)
	genericDataSrc      = regexp.MustCompile(`data-src=["'](https?://[^"']+)["']`)

	genericBareRe = regexp.MustCompile(`["']((?:https?:)?//[^"'\s]+\.(?:m3u8|mp4|webm)[^"'\s]*)["']`)
	genericAtobRe = regexp.MustCompile(`atob\(\s*["']([A-Za-z0-9+/=]{20,})["']\s*\)`)

	// Asset extensions that are never media, unless a media extension
	// also appears in the URL.
	genericRejectRe = regexp.MustCompile(`\.(js|css|png|jpe?g|gif|svg|ico|woff2?|ttf|php|html?)(\?|$)`)
)

var mediaExtensions = []string{".mp4", ".m3u8", ".webm", ".ts", ".mkv", ".flv"}

// GenericExtractor finds media sources on pages no host extractor
// claims, and supplements host results. It combines a structural pass
// over the raw HTML with regex passes over the combined text, which
// includes unpacked scripts.
type GenericExtractor struct {
	*BaseExtractor
	log *logging.Logger
}

// NewGenericExtractor creates the generic extractor.
func NewGenericExtractor(client *httpclient.Client, log *logging.Logger) *GenericExtractor {
	return &GenericExtractor{
		BaseExtractor: NewBaseExtractor(client, log),
		log:           log.WithComponent("generic-extractor"),
	}
}

// Extract scans rawHTML structurally and combined textually. It never
// fails; an unparseable page yields an empty result.
func (e *GenericExtractor) Extract(ctx context.Context, pageURL, rawHTML, combined string) []types.MediaSource {
	var sources []types.MediaSource
	seen := make(map[string]bool)

	add := func(u, quality, mime string) {
		u = cleanURL(u)
		if !acceptMediaURL(u) || seen[u] {
			return
		}
		seen[u] = true
		sources = append(sources, source(u, quality, mime, "Generic"))
	}

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML)); err == nil {
		doc.Find("source[src], video[src]").Each(func(_ int, s *goquery.Selection) {
			if src, ok := s.Attr("src"); ok {
				add(src, "", s.AttrOr("type", ""))
			}
		})
	}

	for _, m := range genericSourceTagRe.FindAllStringSubmatch(combined, -1) {
		add(m[1], "", "")
	}

	for _, arr := range genericSourcesArrRe.FindAllStringSubmatch(combined, -1) {
		for _, entry := range splitArrayEntries(arr[1]) {
			um := genericEntryURLRe.FindStringSubmatch(entry)
			if um == nil {
				continue
			}
			quality := ""
			if lm := genericEntryLabelRe.FindStringSubmatch(entry); lm != nil {
				quality = lm[1]
			}
			mime := ""
			if tm := genericEntryTypeRe.FindStringSubmatch(entry); tm != nil {
				mime = tm[1]
			}
			add(um[1], quality, mime)
		}
	}

	for _, m := range genericAssignRe.FindAllStringSubmatch(combined, -1) {
		add(m[1], "", "")
	}
	for _, m := range genericPlayerCallRe.FindAllStringSubmatch(combined, -1) {
		add(m[1], "", "")
	}
	for _, m := range genericSetupRe.FindAllStringSubmatch(combined, -1) {
		add(m[1], "", "")
	}
	for _, m := range genericDataSrc.FindAllStringSubmatch(combined, -1) {
		add(m[1], "", "")
	}
	for _, m := range genericBareRe.FindAllStringSubmatch(combined, -1) {
		add(m[1], "", "")
	}

	for _, m := range genericAtobRe.FindAllStringSubmatch(combined, -1) {
		decoded, err := base64.StdEncoding.DecodeString(m[1])
		if err != nil {
			continue
		}
		if s := string(decoded); strings.HasPrefix(s, "http") {
			add(s, "", "")
		}
	}

	return sources
}

// acceptMediaURL filters candidates down to plausible absolute media
// URLs.
func acceptMediaURL(u string) bool {
	if len(u) < 10 {
		return false
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return false
	}
	if genericRejectRe.MatchString(u) {
		lower := strings.ToLower(u)
		for _, ext := range mediaExtensions {
			if strings.Contains(lower, ext) {
				return true
			}
		}
		return false
	}
	return true
}

// splitArrayEntries breaks a JS array literal into its object entries.
// Quoted string entries come back as-is.
func splitArrayEntries(arr string) []string {
	arr = strings.TrimSpace(arr)
	arr = strings.TrimPrefix(arr, "[")
	arr = strings.TrimSuffix(arr, "]")

	var entries []string
	depth := 0
	start := 0
	for i := 0; i < len(arr); i++ {
		switch arr[i] {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		case ',':
			if depth == 0 {
				entries = append(entries, arr[start:i])
				start = i + 1
			}
		}
	}
	if start < len(arr) {
		entries = append(entries, arr[start:])
	}
	return entries
}
