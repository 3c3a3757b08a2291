package extractors

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"video-extractor-go/pkg/httpclient"
	"video-extractor-go/pkg/logging"
	"video-extractor-go/pkg/types"
)

var (
	okDataOptionsRe = regexp.MustCompile(`data-options="([^"]+)"`)
	okFlashvarsRe   = regexp.MustCompile(`"videos"\s*:\s*(\[[^\]]+\])`)
	okDirectRe      = regexp.MustCompile(`https://[a-z0-9-]+\.mycdn\.me/[^"'\s\\]+`)
)

// okQualityNames maps OK.ru's internal rendition names to resolution
// labels.
var okQualityNames = map[string]string{
	"mobile": "144p",
	"lowest": "240p",
	"low":    "360p",
	"sd":     "480p",
	"hd":     "720p",
	"full":   "1080p",
	"quad":   "1440p",
	"ultra":  "2160p",
}

// OKRuExtractor extracts streams from OK.ru (Odnoklassniki). The player
// config lives HTML-entity-encoded in a data-options attribute; its
// flashvars.metadata field is JSON that may itself be double-encoded as
// a string.
type OKRuExtractor struct {
	*BaseExtractor
	log *logging.Logger
}

// NewOKRuExtractor creates a new OK.ru extractor.
func NewOKRuExtractor(client *httpclient.Client, log *logging.Logger) *OKRuExtractor {
	return &OKRuExtractor{
		BaseExtractor: NewBaseExtractor(client, log),
		log:           log.WithComponent("okru-extractor"),
	}
}

// Name returns the extractor name.
func (e *OKRuExtractor) Name() string {
	return "okru"
}

// Match returns true for OK.ru URLs.
func (e *OKRuExtractor) Match(url string) bool {
	lower := strings.ToLower(url)
	return strings.Contains(lower, "ok.ru") || strings.Contains(lower, "odnoklassniki.ru")
}

// Referer returns the referer OK.ru's CDN expects.
func (e *OKRuExtractor) Referer() string {
	return "https://ok.ru/"
}

type okMetadata struct {
	Videos []struct {
		URL  string `json:"url"`
		Name string `json:"name"`
	} `json:"videos"`
	HLSManifestURL  string `json:"hlsManifestUrl"`
	DashManifestURL string `json:"dashManifestUrl"`
}

// Extract scans the page for OK.ru player metadata.
func (e *OKRuExtractor) Extract(ctx context.Context, pageURL, combined, referer string) []types.MediaSource {
	if m := okDataOptionsRe.FindStringSubmatch(combined); m != nil {
		if sources := e.fromOptions(decodeEntities(m[1])); len(sources) > 0 {
			return sources
		}
	}

	// Some embeds inline the flashvars JSON directly.
	if m := okFlashvarsRe.FindStringSubmatch(combined); m != nil {
		var meta okMetadata
		if json.Unmarshal([]byte(`{"videos":`+m[1]+`}`), &meta) == nil {
			if sources := e.fromMetadata(meta); len(sources) > 0 {
				return sources
			}
		}
	}

	var sources []types.MediaSource
	seen := make(map[string]bool)
	for _, u := range okDirectRe.FindAllString(combined, -1) {
		if !seen[u] {
			seen[u] = true
			sources = append(sources, source(u, "", "", "OK.ru (Direct)"))
		}
	}
	return sources
}

// fromOptions parses the decoded data-options JSON down to the video
// metadata.
func (e *OKRuExtractor) fromOptions(opts string) []types.MediaSource {
	var root struct {
		Flashvars struct {
			Metadata json.RawMessage `json:"metadata"`
		} `json:"flashvars"`
	}
	if err := json.Unmarshal([]byte(opts), &root); err != nil || len(root.Flashvars.Metadata) == 0 {
		return nil
	}

	raw := root.Flashvars.Metadata
	// metadata is sometimes a JSON string containing JSON.
	if raw[0] == '"' {
		var inner string
		if json.Unmarshal(raw, &inner) != nil {
			return nil
		}
		raw = json.RawMessage(inner)
	}

	var meta okMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		e.log.Debug("okru metadata parse failed", "error", err)
		return nil
	}
	return e.fromMetadata(meta)
}

func (e *OKRuExtractor) fromMetadata(meta okMetadata) []types.MediaSource {
	var sources []types.MediaSource
	for _, v := range meta.Videos {
		if v.URL == "" {
			continue
		}
		quality := okQualityNames[strings.ToLower(v.Name)]
		if quality == "" {
			quality = v.Name
		}
		sources = append(sources, source(v.URL, quality, "video/mp4", "OK.ru"))
	}
	if meta.HLSManifestURL != "" {
		sources = append(sources, source(meta.HLSManifestURL, "HLS Master", "application/x-mpegURL", "OK.ru"))
	}
	if meta.DashManifestURL != "" {
		sources = append(sources, source(meta.DashManifestURL, "DASH", "application/dash+xml", "OK.ru"))
	}
	return sources
}

// decodeEntities reverses the HTML attribute encoding OK.ru applies to
// its embedded JSON.
func decodeEntities(s string) string {
	r := strings.NewReplacer(
		"&quot;", `"`,
		"&amp;", "&",
		"&#39;", "'",
		"&lt;", "<",
		"&gt;", ">",
	)
	return r.Replace(s)
}
