package registry

import (
	"context"
	"strings"
	"testing"

	"video-extractor-go/pkg/types"
)

type fakeExtractor struct {
	name   string
	domain string
}

func (f *fakeExtractor) Name() string          { return f.name }
func (f *fakeExtractor) Match(url string) bool { return strings.Contains(url, f.domain) }
func (f *fakeExtractor) Referer() string       { return "" }
func (f *fakeExtractor) Extract(ctx context.Context, pageURL, combined, referer string) []types.MediaSource {
	return nil
}

func TestRegistry_DetectFirstMatchWins(t *testing.T) {
	r := New()
	r.Register(&fakeExtractor{name: "broad", domain: "example"})
	r.Register(&fakeExtractor{name: "narrow", domain: "video.example.com"})

	got := r.Detect("https://video.example.com/watch")
	if got == nil || got.Name() != "broad" {
		t.Errorf("Detect returned %v, want first-registered match", got)
	}
}

func TestRegistry_DetectMultipleURLs(t *testing.T) {
	r := New()
	r.Register(&fakeExtractor{name: "host", domain: "realhost.com"})

	// The original URL missed but the redirect target matches.
	got := r.Detect("https://shortener.io/x", "https://realhost.com/e/1")
	if got == nil || got.Name() != "host" {
		t.Errorf("Detect = %v, want host via second URL", got)
	}
}

func TestRegistry_DetectNoMatch(t *testing.T) {
	r := New()
	r.Register(&fakeExtractor{name: "host", domain: "realhost.com"})

	if got := r.Detect("https://unrelated.com/page", ""); got != nil {
		t.Errorf("Detect = %v, want nil", got)
	}
}

func TestRegistry_NamesInOrder(t *testing.T) {
	r := New()
	for _, n := range []string{"alpha", "beta", "gamma"} {
		r.Register(&fakeExtractor{name: n, domain: n})
	}

	names := r.Names()
	want := []string{"alpha", "beta", "gamma"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestRegistry_GetByName(t *testing.T) {
	r := New()
	r.Register(&fakeExtractor{name: "host", domain: "realhost.com"})

	if got := r.GetByName("host"); got == nil {
		t.Error("GetByName returned nil for registered extractor")
	}
	if got := r.GetByName("missing"); got != nil {
		t.Errorf("GetByName = %v, want nil", got)
	}
}
