package extractors

import (
	"regexp"
	"strings"
)

var resolutionTokenRe = regexp.MustCompile(`(?i)(\d{3,4})p`)

// DetectQuality infers a quality label from a media URL. A numeric
// resolution token wins; master playlists and plain HLS manifests get
// fixed labels; common hi/lo markers map to coarse labels.
func DetectQuality(url string) string {
	if m := resolutionTokenRe.FindStringSubmatch(url); m != nil {
		return m[1] + "p"
	}
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "master.m3u8"):
		return "Master"
	case strings.Contains(lower, ".m3u8"):
		return "HLS"
	case strings.Contains(lower, "high"), strings.Contains(lower, "hd"), strings.Contains(lower, "1080"):
		return "HD"
	case strings.Contains(lower, "med"), strings.Contains(lower, "sd"), strings.Contains(lower, "480"):
		return "SD"
	case strings.Contains(lower, "low"), strings.Contains(lower, "360"):
		return "Low"
	}
	return "Default"
}

var extensionTypes = []struct {
	ext  string
	mime string
}{
	{".m3u8", "application/x-mpegURL"},
	{".mp4", "video/mp4"},
	{".webm", "video/webm"},
	{".mkv", "video/x-matroska"},
	{".ts", "video/mp2t"},
	{".flv", "video/x-flv"},
}

// DetectType infers a MIME type from a media URL extension, defaulting
// to video/mp4.
func DetectType(url string) string {
	lower := strings.ToLower(url)
	for _, et := range extensionTypes {
		if strings.Contains(lower, et.ext) {
			return et.mime
		}
	}
	return "video/mp4"
}
