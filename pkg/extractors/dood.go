package extractors

import (
	"context"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"video-extractor-go/pkg/httpclient"
	"video-extractor-go/pkg/logging"
	"video-extractor-go/pkg/types"
	"video-extractor-go/pkg/urlutil"
)

var doodPassMD5Re = regexp.MustCompile(`/pass_md5/([^'"]+)`)

const doodTokenChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DoodExtractor extracts streams from DoodStream. The page exposes a
// /pass_md5/ endpoint that returns a partial CDN URL; the player
// completes it with a random suffix, the md5 token, and an expiry
// timestamp.
type DoodExtractor struct {
	*BaseExtractor
	log *logging.Logger
}

// NewDoodExtractor creates a new DoodStream extractor.
func NewDoodExtractor(client *httpclient.Client, log *logging.Logger) *DoodExtractor {
	return &DoodExtractor{
		BaseExtractor: NewBaseExtractor(client, log),
		log:           log.WithComponent("dood-extractor"),
	}
}

// Name returns the extractor name.
func (e *DoodExtractor) Name() string {
	return "dood"
}

// Match returns true for DoodStream URLs.
func (e *DoodExtractor) Match(url string) bool {
	lower := strings.ToLower(url)
	for _, d := range []string{"dood", "ds2play", "ds2video", "d0o0d", "do0od", "d000d", "vide0.net"} {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

// Referer returns the referer DoodStream's CDN expects.
func (e *DoodExtractor) Referer() string {
	return "https://dood.to/"
}

// Extract resolves the pass_md5 endpoint to a playable URL.
func (e *DoodExtractor) Extract(ctx context.Context, pageURL, combined, referer string) []types.MediaSource {
	m := doodPassMD5Re.FindStringSubmatch(combined)
	if m == nil {
		return nil
	}

	tokenURL := urlutil.ResolveURL("/pass_md5/"+m[1], pageURL)
	res, err := e.client.Fetch(ctx, tokenURL, httpclient.Options{Referer: pageURL})
	if err != nil {
		e.log.Debug("dood pass_md5 fetch failed", "error", err)
		return nil
	}

	base := strings.TrimSpace(res.Text)
	if !strings.HasPrefix(base, "http") {
		return nil
	}

	parts := strings.Split(m[1], "/")
	token := parts[len(parts)-1]
	expiry := strconv.FormatInt(time.Now().UnixMilli(), 10)
	final := base + randomToken(10) + "?token=" + token + "&expiry=" + expiry

	return []types.MediaSource{source(final, "Default", "video/mp4", "DoodStream")}
}

func randomToken(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = doodTokenChars[rand.Intn(len(doodTokenChars))]
	}
	return string(b)
}
