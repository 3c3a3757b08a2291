package playlist

import (
	"testing"
)

const masterSample = `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=2149280,RESOLUTION=1280x720,CODECS="avc1.64001f,mp4a.40.2"
720/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=1040000,RESOLUTION=854x480
480/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=246440,NAME="audio only"
audio/index.m3u8
#EXT-X-I-FRAME-STREAM-INF:BANDWIDTH=86000,URI="iframe/index.m3u8"
`

const mediaSample = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXTINF:9.009,
segment0.ts
#EXTINF:9.009,
segment1.ts
#EXT-X-ENDLIST
`

func TestExpand_Master(t *testing.T) {
	base := "https://cdn.example.com/hls/master.m3u8"
	sources := Expand(masterSample, base)

	if len(sources) != 3 {
		t.Fatalf("expected 3 variants (iframe excluded), got %d: %+v", len(sources), sources)
	}

	if sources[0].URL != "https://cdn.example.com/hls/720/index.m3u8" {
		t.Errorf("variant URL = %q", sources[0].URL)
	}
	if sources[0].Quality != "720p" {
		t.Errorf("quality = %q, want 720p (from resolution)", sources[0].Quality)
	}
	if sources[0].Bandwidth != 2149280 {
		t.Errorf("bandwidth = %d", sources[0].Bandwidth)
	}
	if sources[0].Resolution != "1280x720" {
		t.Errorf("resolution = %q", sources[0].Resolution)
	}
	if sources[1].Quality != "480p" {
		t.Errorf("quality = %q, want 480p", sources[1].Quality)
	}
	// No resolution: falls back to the NAME attribute.
	if sources[2].Quality != "audio only" {
		t.Errorf("quality = %q, want NAME fallback", sources[2].Quality)
	}
	for i, s := range sources {
		if s.Type != "application/x-mpegURL" {
			t.Errorf("sources[%d].Type = %q", i, s.Type)
		}
	}
}

func TestExpand_MediaPlaylist(t *testing.T) {
	if sources := Expand(mediaSample, "https://cdn.example.com/hls/720/index.m3u8"); sources != nil {
		t.Errorf("media playlist should not expand, got %v", sources)
	}
}

func TestExpand_Garbage(t *testing.T) {
	for _, content := range []string{"", "not a playlist", "<html></html>"} {
		if sources := Expand(content, "https://cdn.example.com/x.m3u8"); sources != nil {
			t.Errorf("Expand(%q) = %v, want nil", content, sources)
		}
	}
}

func TestExpand_Idempotent(t *testing.T) {
	base := "https://cdn.example.com/hls/master.m3u8"
	first := Expand(masterSample, base)
	second := Expand(masterSample, base)
	if len(first) != len(second) {
		t.Fatalf("repeat expansion differs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("variant %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestExpand_BandwidthLabel(t *testing.T) {
	content := `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=1536500
stream.m3u8
`
	sources := Expand(content, "https://cdn.example.com/master.m3u8")
	if len(sources) != 1 {
		t.Fatalf("expected 1 variant, got %d", len(sources))
	}
	if sources[0].Quality != "1537kbps" {
		t.Errorf("quality = %q, want 1537kbps", sources[0].Quality)
	}
}
