package extractors

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"testing"

	"video-extractor-go/pkg/httpclient"
	"video-extractor-go/pkg/logging"
)

func testDeps() (*httpclient.Client, *logging.Logger) {
	log := logging.New("error", false, io.Discard)
	return httpclient.New(httpclient.Settings{}, log), log
}

func TestAcceptMediaURL(t *testing.T) {
	tests := []struct {
		url      string
		expected bool
	}{
		{"https://cdn.example.com/video.mp4", true},
		{"https://cdn.example.com/hls/index.m3u8?token=a", true},
		{"http://cdn.example.com/clip.webm", true},
		// Media extension buried behind an asset-looking suffix.
		{"https://cdn.example.com/video.mp4/app.html", true},
		// Asset files.
		{"https://cdn.example.com/player/v.js", false},
		{"https://cdn.example.com/style.css?v=2", false},
		{"https://cdn.example.com/poster.jpg", false},
		{"https://cdn.example.com/embed.php", false},
		// Not absolute.
		{"//cdn.example.com/video.mp4", false},
		{"/local/video.mp4", false},
		// Too short.
		{"https://x", false},
	}
	for _, tt := range tests {
		if got := acceptMediaURL(tt.url); got != tt.expected {
			t.Errorf("acceptMediaURL(%q) = %v, want %v", tt.url, got, tt.expected)
		}
	}
}

func TestGenericExtractor_SourcesArray(t *testing.T) {
	client, log := testDeps()
	g := NewGenericExtractor(client, log)

	combined := `jwplayer("player").setup({
		sources: [
			{file: "https://cdn.example.com/hls/720.m3u8", label: "720p"},
			{file: "https://cdn.example.com/hls/480.m3u8", label: "480p", type: "application/x-mpegURL"}
		]
	});`

	sources := g.Extract(context.Background(), "https://host.example.com/e/1", "", combined)
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d: %+v", len(sources), sources)
	}
	if sources[0].URL != "https://cdn.example.com/hls/720.m3u8" {
		t.Errorf("url = %q", sources[0].URL)
	}
	if sources[0].Quality != "720p" {
		t.Errorf("quality = %q, want 720p", sources[0].Quality)
	}
	if sources[1].Type != "application/x-mpegURL" {
		t.Errorf("type = %q", sources[1].Type)
	}
}

func TestGenericExtractor_OversizedSourcesArray(t *testing.T) {
	client, log := testDeps()
	g := NewGenericExtractor(client, log)

	// An array wider than the regex window still yields its entries
	// through the assignment pass.
	var b strings.Builder
	b.WriteString("sources: [\n")
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, `{file: "https://cdn.example.com/v/part%02d.mp4", label: "720p"},`+"\n", i)
	}
	b.WriteString("]")

	sources := g.Extract(context.Background(), "https://host.example.com/e/1", "", b.String())
	if len(sources) != 50 {
		t.Fatalf("expected 50 sources, got %d", len(sources))
	}
}

func TestGenericExtractor_DirectAssignments(t *testing.T) {
	client, log := testDeps()
	g := NewGenericExtractor(client, log)

	combined := `
		var videoUrl = "https://cdn.example.com/direct.mp4";
		file: "https:\/\/cdn.example.com\/escaped.mp4",
		player.src("https://cdn.example.com/player.mp4");
	`
	sources := g.Extract(context.Background(), "https://host.example.com/", "", combined)

	urls := make(map[string]bool)
	for _, s := range sources {
		urls[s.URL] = true
	}
	for _, want := range []string{
		"https://cdn.example.com/direct.mp4",
		"https://cdn.example.com/escaped.mp4",
		"https://cdn.example.com/player.mp4",
	} {
		if !urls[want] {
			t.Errorf("missing %q in %v", want, sources)
		}
	}
}

func TestGenericExtractor_VideoTag(t *testing.T) {
	client, log := testDeps()
	g := NewGenericExtractor(client, log)

	raw := `<html><body>
		<video src="https://cdn.example.com/tagged.mp4"></video>
		<video><source src="https://cdn.example.com/inner.webm" type="video/webm"></video>
	</body></html>`

	sources := g.Extract(context.Background(), "https://host.example.com/", raw, raw)
	urls := make(map[string]string)
	for _, s := range sources {
		urls[s.URL] = s.Type
	}
	if _, ok := urls["https://cdn.example.com/tagged.mp4"]; !ok {
		t.Errorf("video[src] not found: %v", sources)
	}
	if typ, ok := urls["https://cdn.example.com/inner.webm"]; !ok || typ != "video/webm" {
		t.Errorf("source[src] type = %q, found=%v", typ, ok)
	}
}

func TestGenericExtractor_Base64(t *testing.T) {
	client, log := testDeps()
	g := NewGenericExtractor(client, log)

	hidden := "https://cdn.example.com/secret/stream.m3u8"
	combined := `var u = atob("` + base64.StdEncoding.EncodeToString([]byte(hidden)) + `");`

	sources := g.Extract(context.Background(), "https://host.example.com/", "", combined)
	found := false
	for _, s := range sources {
		if s.URL == hidden {
			found = true
		}
	}
	if !found {
		t.Errorf("base64 URL not decoded: %v", sources)
	}
}

func TestGenericExtractor_Dedupe(t *testing.T) {
	client, log := testDeps()
	g := NewGenericExtractor(client, log)

	combined := `
		file: "https://cdn.example.com/once.mp4",
		src: "https://cdn.example.com/once.mp4",
		"https://cdn.example.com/once.mp4",
	`
	sources := g.Extract(context.Background(), "https://host.example.com/", "", combined)
	if len(sources) != 1 {
		t.Errorf("expected 1 deduplicated source, got %d: %v", len(sources), sources)
	}
}

func TestGenericExtractor_RejectsAssets(t *testing.T) {
	client, log := testDeps()
	g := NewGenericExtractor(client, log)

	combined := `
		src: "https://cdn.example.com/assets/player.js",
		file: "https://cdn.example.com/poster.png",
	`
	if sources := g.Extract(context.Background(), "https://host.example.com/", "", combined); len(sources) != 0 {
		t.Errorf("asset URLs should be rejected: %v", sources)
	}
}
