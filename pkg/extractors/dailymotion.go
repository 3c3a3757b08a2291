package extractors

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"video-extractor-go/pkg/httpclient"
	"video-extractor-go/pkg/logging"
	"video-extractor-go/pkg/types"
)

var dailymotionQualitiesRe = regexp.MustCompile(`(?s)"qualities"\s*:\s*(\{.*?\})\s*,\s*"`)

// DailymotionExtractor extracts streams from Dailymotion. The player
// config embeds a qualities map keyed by resolution, each entry listing
// typed media URLs.
type DailymotionExtractor struct {
	*BaseExtractor
	log *logging.Logger
}

// NewDailymotionExtractor creates a new Dailymotion extractor.
func NewDailymotionExtractor(client *httpclient.Client, log *logging.Logger) *DailymotionExtractor {
	return &DailymotionExtractor{
		BaseExtractor: NewBaseExtractor(client, log),
		log:           log.WithComponent("dailymotion-extractor"),
	}
}

// Name returns the extractor name.
func (e *DailymotionExtractor) Name() string {
	return "dailymotion"
}

// Match returns true for Dailymotion URLs.
func (e *DailymotionExtractor) Match(url string) bool {
	lower := strings.ToLower(url)
	return strings.Contains(lower, "dailymotion.com") || strings.Contains(lower, "dai.ly")
}

// Referer returns the referer to present to Dailymotion's CDN.
func (e *DailymotionExtractor) Referer() string {
	return "https://www.dailymotion.com/"
}

// Extract parses the qualities map from the player config.
func (e *DailymotionExtractor) Extract(ctx context.Context, pageURL, combined, referer string) []types.MediaSource {
	m := dailymotionQualitiesRe.FindStringSubmatch(combined)
	if m == nil {
		return nil
	}

	var qualities map[string][]struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	}
	if err := json.Unmarshal([]byte(m[1]), &qualities); err != nil {
		e.log.Debug("dailymotion qualities parse failed", "error", err)
		return nil
	}

	keys := make([]string, 0, len(qualities))
	for k := range qualities {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a > b
	})

	var sources []types.MediaSource
	for _, q := range keys {
		for _, entry := range qualities[q] {
			if entry.URL == "" {
				continue
			}
			label := q
			if _, err := strconv.Atoi(q); err == nil {
				label = q + "p"
			}
			sources = append(sources, source(entry.URL, label, entry.Type, "Dailymotion"))
		}
	}
	return sources
}
