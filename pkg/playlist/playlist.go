// Package playlist expands HLS master playlists into their variant
// streams.
package playlist

import (
	"strconv"
	"strings"

	"github.com/grafov/m3u8"

	"video-extractor-go/pkg/types"
	"video-extractor-go/pkg/urlutil"
)

// Expand parses content as an HLS playlist and, when it is a master
// playlist, returns one MediaSource per variant with URIs resolved
// against baseURL. Media playlists and unparseable content yield nil.
func Expand(content, baseURL string) []types.MediaSource {
	pl, listType, err := m3u8.DecodeFrom(strings.NewReader(content), false)
	if err != nil || listType != m3u8.MASTER {
		return nil
	}
	master, ok := pl.(*m3u8.MasterPlaylist)
	if !ok {
		return nil
	}

	var sources []types.MediaSource
	for _, v := range master.Variants {
		if v == nil || v.URI == "" || v.Iframe {
			continue
		}
		sources = append(sources, types.MediaSource{
			URL:        urlutil.ResolveURL(v.URI, baseURL),
			Quality:    qualityLabel(v),
			Type:       "application/x-mpegURL",
			Bandwidth:  int(v.Bandwidth),
			Resolution: v.Resolution,
		})
	}
	return sources
}

// qualityLabel derives a human label for a variant: resolution height,
// then the NAME attribute, then bandwidth.
func qualityLabel(v *m3u8.Variant) string {
	if v.Resolution != "" {
		if idx := strings.IndexByte(v.Resolution, 'x'); idx >= 0 {
			return v.Resolution[idx+1:] + "p"
		}
	}
	if v.Name != "" {
		return v.Name
	}
	if v.Bandwidth > 0 {
		return strconv.FormatUint(uint64(v.Bandwidth+500)/1000, 10) + "kbps"
	}
	return "Unknown"
}
