package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"video-extractor-go/pkg/httpclient"
	"video-extractor-go/pkg/logging"
	"video-extractor-go/pkg/urlutil"
)

// refererRule maps a target URL pattern to the referer its CDN
// requires. First match wins.
type refererRule struct {
	pattern string
	referer string
}

// refererTable covers hosts whose CDNs check the Referer header. The
// proxy applies these regardless of what the caller supplied, because
// the caller's referer is usually the extraction page, not what the
// CDN wants.
var refererTable = []refererRule{
	{"mycdn.me", "https://ok.ru/"},
	{"ok.ru", "https://ok.ru/"},
	{"vkvideo", "https://vk.com/"},
	{"vk.com", "https://vk.com/"},
	{"sibnet", "https://video.sibnet.ru/"},
	{"mp4upload", "https://mp4upload.com/"},
	{"dood", "https://dood.to/"},
	{"streamtape", "https://streamtape.com/"},
	{"mixdrop", "https://mixdrop.co/"},
	{"sendvid", "https://sendvid.com/"},
	{"uqload", "https://uqload.to/"},
	{"vidmoly", "https://vidmoly.to/"},
	{"streamwish", "https://streamwish.to/"},
	{"filemoon", "https://filemoon.sx/"},
}

var uriAttrRe = regexp.MustCompile(`URI="([^"]+)"`)

// PlaylistResponse is a rewritten or relayed playlist body.
type PlaylistResponse struct {
	Status      int
	ContentType string
	Body        string
}

// StreamResponse relays an upstream media response.
type StreamResponse struct {
	Status        int
	ContentType   string
	ContentLength string
	ContentRange  string
	Disposition   string
	AcceptRanges  string
	Body          io.ReadCloser
}

// ProxyService re-streams remote media through the local origin,
// spoofing referers and rewriting playlists so every URI a player
// follows comes back through the proxy.
type ProxyService struct {
	client *httpclient.Client
	log    *logging.Logger
}

// NewProxyService creates a new proxy service.
func NewProxyService(client *httpclient.Client, log *logging.Logger) *ProxyService {
	return &ProxyService{
		client: client,
		log:    log.WithComponent("proxy-service"),
	}
}

// ResolveReferer picks the referer to present upstream: the static
// table first, then the caller's value, then the target's own origin.
func (s *ProxyService) ResolveReferer(targetURL, callerReferer string) string {
	lower := strings.ToLower(targetURL)
	for _, rule := range refererTable {
		if strings.Contains(lower, rule.pattern) {
			return rule.referer
		}
	}
	if callerReferer != "" {
		return callerReferer
	}
	return urlutil.Origin(targetURL) + "/"
}

// IsPlaylist reports whether the target should go through playlist
// rewriting, either by explicit type hint or by URL extension.
func (s *ProxyService) IsPlaylist(targetURL, typeParam string) bool {
	return typeParam == "m3u8" || strings.Contains(strings.ToLower(targetURL), ".m3u8")
}

// HandlePlaylist fetches the playlist and rewrites every URI through
// the proxy. Upstream failures after connect are relayed transparently.
func (s *ProxyService) HandlePlaylist(ctx context.Context, targetURL, referer string) (*PlaylistResponse, error) {
	res, err := s.client.Fetch(ctx, targetURL, httpclient.Options{
		Referer: referer,
		Origin:  urlutil.Origin(referer),
	})
	if err != nil {
		return nil, fmt.Errorf("playlist fetch: %w", err)
	}

	if res.Status < 200 || res.Status >= 300 {
		return &PlaylistResponse{
			Status:      res.Status,
			ContentType: res.Header.Get("Content-Type"),
			Body:        res.Text,
		}, nil
	}

	return &PlaylistResponse{
		Status:      http.StatusOK,
		ContentType: "application/vnd.apple.mpegurl",
		Body:        s.RewritePlaylist(res.Text, res.FinalURL, referer),
	}, nil
}

// RewritePlaylist routes every URI in an HLS playlist back through the
// proxy. Segment and variant lines are resolved against finalURL; tag
// lines keep their structure with only URI attributes rewritten.
func (s *ProxyService) RewritePlaylist(content, finalURL, referer string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			lines[i] = uriAttrRe.ReplaceAllStringFunc(line, func(attr string) string {
				m := uriAttrRe.FindStringSubmatch(attr)
				abs := urlutil.ResolveURL(m[1], finalURL)
				return `URI="` + urlutil.BuildProxyPath(abs, referer, strings.Contains(strings.ToLower(abs), ".m3u8")) + `"`
			})
			continue
		}
		abs := urlutil.ResolveURL(trimmed, finalURL)
		lines[i] = urlutil.BuildProxyPath(abs, referer, strings.Contains(strings.ToLower(abs), ".m3u8"))
	}
	return strings.Join(lines, "\n")
}

// HandleStream opens the upstream response for relay. Range headers
// pass through verbatim so players can seek. When the upstream turns
// out to be a playlist despite the URL, it is rewritten instead.
func (s *ProxyService) HandleStream(ctx context.Context, targetURL, referer, rangeHeader string) (*StreamResponse, *PlaylistResponse, error) {
	headers := map[string]string{
		"User-Agent": s.client.UserAgent(),
		"Referer":    referer,
		"Origin":     urlutil.Origin(referer),
		"Accept":     "*/*",
	}
	if rangeHeader != "" {
		headers["Range"] = rangeHeader
	}

	resp, err := s.client.Stream(ctx, targetURL, headers)
	if err != nil {
		return nil, nil, fmt.Errorf("stream open: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(strings.ToLower(contentType), "mpegurl") {
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("playlist read: %w", err)
		}
		final := targetURL
		if resp.Request != nil && resp.Request.URL != nil {
			final = resp.Request.URL.String()
		}
		return nil, &PlaylistResponse{
			Status:      http.StatusOK,
			ContentType: "application/vnd.apple.mpegurl",
			Body:        s.RewritePlaylist(string(body), final, referer),
		}, nil
	}

	if contentType == "" {
		contentType = guessContentType(targetURL)
	}
	acceptRanges := resp.Header.Get("Accept-Ranges")
	if acceptRanges == "" {
		acceptRanges = "bytes"
	}

	return &StreamResponse{
		Status:        resp.StatusCode,
		ContentType:   contentType,
		ContentLength: resp.Header.Get("Content-Length"),
		ContentRange:  resp.Header.Get("Content-Range"),
		Disposition:   resp.Header.Get("Content-Disposition"),
		AcceptRanges:  acceptRanges,
		Body:          resp.Body,
	}, nil, nil
}

// guessContentType maps a media URL extension to a content type for
// upstreams that omit one.
func guessContentType(u string) string {
	lower := strings.ToLower(u)
	switch {
	case strings.Contains(lower, ".m3u8"):
		return "application/vnd.apple.mpegurl"
	case strings.Contains(lower, ".ts"):
		return "video/mp2t"
	case strings.Contains(lower, ".mp4"):
		return "video/mp4"
	case strings.Contains(lower, ".webm"):
		return "video/webm"
	case strings.Contains(lower, ".mkv"):
		return "video/x-matroska"
	case strings.Contains(lower, ".flv"):
		return "video/x-flv"
	case strings.Contains(lower, ".mpd"):
		return "application/dash+xml"
	default:
		return "application/octet-stream"
	}
}
