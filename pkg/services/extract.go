// Package services implements the extraction and proxy pipelines that
// the HTTP handlers drive.
package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"video-extractor-go/pkg/extractors"
	"video-extractor-go/pkg/httpclient"
	"video-extractor-go/pkg/logging"
	"video-extractor-go/pkg/playlist"
	"video-extractor-go/pkg/registry"
	"video-extractor-go/pkg/types"
	"video-extractor-go/pkg/unpacker"
	"video-extractor-go/pkg/urlutil"
)

// maxFrameFollows bounds how many embedded frames one extraction will
// descend into. Frames are followed one level deep only.
const maxFrameFollows = 5

// frameDenyRe filters out frames that never carry players.
var frameDenyRe = regexp.MustCompile(`(?i)ads|banner|social|facebook|twitter|google|analytics`)

// ExtractService runs the full extraction pipeline: fetch, unpack,
// host and generic extraction, frame descent, playlist expansion, and
// quality ordering.
type ExtractService struct {
	client  *httpclient.Client
	reg     *registry.Registry
	generic *extractors.GenericExtractor
	log     *logging.Logger
}

// NewExtractService creates a new extraction service.
func NewExtractService(client *httpclient.Client, reg *registry.Registry, generic *extractors.GenericExtractor, log *logging.Logger) *ExtractService {
	return &ExtractService{
		client:  client,
		reg:     reg,
		generic: generic,
		log:     log.WithComponent("extract-service"),
	}
}

// Extract fetches pageURL and returns everything playable it finds.
// Only the initial fetch can fail; every later stage degrades to an
// empty contribution.
func (s *ExtractService) Extract(ctx context.Context, pageURL, referer string) (*types.ExtractionResult, error) {
	res, err := s.client.Fetch(ctx, pageURL, httpclient.Options{Referer: referer})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}

	unpacked := unpacker.FindAndUnpackAll(res.Text)
	combined := combine(res.Text, unpacked)

	seen := make(map[string]bool)
	var sources []types.MediaSource
	merge := func(batch []types.MediaSource) {
		for _, src := range batch {
			if src.URL == "" || seen[src.URL] {
				continue
			}
			seen[src.URL] = true
			sources = append(sources, src)
		}
	}

	host := s.reg.Detect(pageURL, res.FinalURL)
	if host != nil {
		merge(host.Extract(ctx, res.FinalURL, combined, referer))
	}
	merge(s.generic.Extract(ctx, res.FinalURL, res.Text, combined))

	frames, iframesFound := s.collectFrames(res.Text, res.FinalURL)
	for _, frameURL := range frames {
		merge(s.extractFrame(ctx, frameURL, res.FinalURL))
	}

	sources = s.expandPlaylists(ctx, sources, res.FinalURL, seen)

	sort.SliceStable(sources, func(i, j int) bool {
		return leadingNumber(sources[i].Quality) > leadingNumber(sources[j].Quality)
	})

	detected := "Unknown"
	if host != nil {
		detected = host.Name()
	}

	return &types.ExtractionResult{
		PageInfo: types.PageInfo{
			Title:          pageTitle(res.Text),
			FinalURL:       res.FinalURL,
			PageSize:       len(res.Text),
			Status:         res.Status,
			DetectedPlayer: detected,
			PackedScripts:  len(unpacked),
			IframesFound:   iframesFound,
		},
		Sources: sources,
	}, nil
}

// Fetch returns the raw text of a page, following redirects. It backs
// the debugging /fetch endpoint.
func (s *ExtractService) Fetch(ctx context.Context, pageURL, referer string) (string, error) {
	res, err := s.client.Fetch(ctx, pageURL, httpclient.Options{Referer: referer})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// extractFrame runs one level of the pipeline against an embedded
// frame. Frame failures contribute nothing.
func (s *ExtractService) extractFrame(ctx context.Context, frameURL, parentURL string) []types.MediaSource {
	res, err := s.client.Fetch(ctx, frameURL, httpclient.Options{Referer: parentURL})
	if err != nil {
		s.log.Debug("frame fetch failed", "url", frameURL, "error", err)
		return nil
	}

	combined := combine(res.Text, unpacker.FindAndUnpackAll(res.Text))

	var sources []types.MediaSource
	if host := s.reg.Detect(frameURL, res.FinalURL); host != nil {
		sources = append(sources, host.Extract(ctx, res.FinalURL, combined, parentURL)...)
	}
	sources = append(sources, s.generic.Extract(ctx, res.FinalURL, res.Text, combined)...)
	return sources
}

// collectFrames returns up to maxFrameFollows frame URLs worth
// following, plus the total count of candidate frames on the page.
func (s *ExtractService) collectFrames(html, baseURL string) ([]string, int) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0
	}

	var frames []string
	found := 0
	doc.Find("iframe[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		src = strings.TrimSpace(src)
		if src == "" || strings.HasPrefix(src, "about:") || frameDenyRe.MatchString(src) {
			return
		}
		abs := urlutil.ResolveURL(src, baseURL)
		if !urlutil.IsAbsoluteHTTP(abs) {
			return
		}
		found++
		if len(frames) < maxFrameFollows {
			frames = append(frames, abs)
		}
	})
	return frames, found
}

// expandPlaylists fetches each HLS source and, when it turns out to be
// a master playlist, inserts its variants ahead of it and marks it.
// Variants already present in the result (a page listing both a master
// and one of its renditions directly) are not inserted twice.
func (s *ExtractService) expandPlaylists(ctx context.Context, sources []types.MediaSource, pageURL string, seen map[string]bool) []types.MediaSource {
	out := make([]types.MediaSource, 0, len(sources))
	for _, src := range sources {
		if !strings.Contains(strings.ToLower(src.URL), ".m3u8") {
			out = append(out, src)
			continue
		}

		res, err := s.client.Fetch(ctx, src.URL, httpclient.Options{Referer: pageURL})
		if err != nil {
			out = append(out, src)
			continue
		}

		variants := playlist.Expand(res.Text, res.FinalURL)
		if len(variants) == 0 {
			out = append(out, src)
			continue
		}

		player := src.Player
		if player == "" {
			player = "HLS"
		}
		src.IsMaster = true
		src.Quality = "Master"

		for _, v := range variants {
			if seen[v.URL] {
				continue
			}
			seen[v.URL] = true
			v.Player = player
			out = append(out, v)
		}
		out = append(out, src)
	}
	return out
}

// combine joins the raw page text with every unpacked script so one
// scan covers both.
func combine(text string, unpacked []string) string {
	if len(unpacked) == 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	for _, u := range unpacked {
		b.WriteString("\n")
		b.WriteString(u)
	}
	return b.String()
}

// leadingNumber parses the leading digits of a quality label; labels
// without one sort last.
func leadingNumber(quality string) int {
	n := 0
	ok := false
	for _, c := range quality {
		if c < '0' || c > '9' {
			break
		}
		ok = true
		n = n*10 + int(c-'0')
	}
	if !ok {
		return 0
	}
	return n
}

func pageTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
