package httpclient

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"video-extractor-go/pkg/logging"
)

func testClient() *Client {
	return New(Settings{}, logging.New("error", false, io.Discard))
}

func TestFetch_InvalidURL(t *testing.T) {
	c := testClient()
	tests := []string{"", "not a url", "ftp//missing", "/relative/only"}
	for _, u := range tests {
		if _, err := c.Fetch(context.Background(), u, Options{}); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("Fetch(%q) error = %v, want ErrInvalidURL", u, err)
		}
	}
}

func TestFetch_FollowsRedirectsAndMergesCookies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "first", Value: "1"})
		http.Redirect(w, r, "/middle", http.StatusFound)
	})
	mux.HandleFunc("/middle", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "second", Value: "2"})
		http.Redirect(w, r, "/final", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "cookies=%s", r.Header.Get("Cookie"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := testClient()
	res, err := c.Fetch(context.Background(), ts.URL+"/start", Options{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", res.Status)
	}
	if res.FinalURL != ts.URL+"/final" {
		t.Errorf("FinalURL = %q, want %q", res.FinalURL, ts.URL+"/final")
	}
	if !strings.Contains(res.Text, "first=1") || !strings.Contains(res.Text, "second=2") {
		t.Errorf("cookies not accumulated across hops: %q", res.Text)
	}
	if !strings.Contains(res.Cookies, "first=1") || !strings.Contains(res.Cookies, "second=2") {
		t.Errorf("result cookies = %q", res.Cookies)
	}
}

func TestFetch_RedirectBound(t *testing.T) {
	var hops int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hops++
		http.Redirect(w, r, fmt.Sprintf("/hop/%d", hops), http.StatusFound)
	}))
	defer ts.Close()

	c := testClient()
	_, err := c.Fetch(context.Background(), ts.URL, Options{MaxRedirects: 3})
	if !errors.Is(err, ErrTooManyRedirects) {
		t.Fatalf("error = %v, want ErrTooManyRedirects", err)
	}
	// Initial request plus 3 allowed redirects.
	if hops != 4 {
		t.Errorf("hops = %d, want 4", hops)
	}
}

func TestFetch_ConfiguredRedirectBound(t *testing.T) {
	var hops int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hops++
		http.Redirect(w, r, fmt.Sprintf("/hop/%d", hops), http.StatusFound)
	}))
	defer ts.Close()

	// The client-level setting applies when the request doesn't set its
	// own bound.
	c := New(Settings{MaxRedirects: 2}, logging.New("error", false, io.Discard))
	_, err := c.Fetch(context.Background(), ts.URL, Options{})
	if !errors.Is(err, ErrTooManyRedirects) {
		t.Fatalf("error = %v, want ErrTooManyRedirects", err)
	}
	if hops != 3 {
		t.Errorf("hops = %d, want 3", hops)
	}
}

func TestFetch_DefaultRedirectBound(t *testing.T) {
	// A chain of exactly 10 redirects succeeds with the default bound;
	// an 11-hop chain fails.
	newChain := func(redirects int) *httptest.Server {
		mux := http.NewServeMux()
		for i := 0; i < redirects; i++ {
			next := fmt.Sprintf("/hop/%d", i+1)
			if i == redirects-1 {
				next = "/done"
			}
			target := next
			mux.HandleFunc(fmt.Sprintf("/hop/%d", i), func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, target, http.StatusFound)
			})
		}
		mux.HandleFunc("/done", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "ok")
		})
		return httptest.NewServer(mux)
	}

	c := testClient()

	ts10 := newChain(10)
	defer ts10.Close()
	res, err := c.Fetch(context.Background(), ts10.URL+"/hop/0", Options{})
	if err != nil {
		t.Fatalf("10 redirects should succeed: %v", err)
	}
	if res.Text != "ok" {
		t.Errorf("Text = %q", res.Text)
	}

	ts11 := newChain(11)
	defer ts11.Close()
	if _, err := c.Fetch(context.Background(), ts11.URL+"/hop/0", Options{}); !errors.Is(err, ErrTooManyRedirects) {
		t.Fatalf("11 redirects error = %v, want ErrTooManyRedirects", err)
	}
}

func TestFetch_DecodesGzip(t *testing.T) {
	body := "<html><title>gzip page</title></html>"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		io.WriteString(gz, body)
		gz.Close()
	}))
	defer ts.Close()

	c := testClient()
	res, err := c.Fetch(context.Background(), ts.URL, Options{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Text != body {
		t.Errorf("Text = %q, want %q", res.Text, body)
	}
}

func TestFetch_SendsBrowserHeaders(t *testing.T) {
	var got http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer ts.Close()

	c := testClient()
	if _, err := c.Fetch(context.Background(), ts.URL, Options{Referer: "https://host.example.com/"}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if ua := got.Get("User-Agent"); !strings.Contains(ua, "Mozilla/5.0") {
		t.Errorf("User-Agent = %q", ua)
	}
	if ref := got.Get("Referer"); ref != "https://host.example.com/" {
		t.Errorf("Referer = %q", ref)
	}
	if enc := got.Get("Accept-Encoding"); !strings.Contains(enc, "gzip") {
		t.Errorf("Accept-Encoding = %q", enc)
	}
}

func TestStream_RelaysRangeHeader(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Range") != "bytes=100-199" {
			t.Errorf("Range = %q", r.Header.Get("Range"))
		}
		w.Header().Set("Content-Range", "bytes 100-199/1000")
		w.WriteHeader(http.StatusPartialContent)
		w.Write(make([]byte, 100))
	}))
	defer ts.Close()

	c := testClient()
	resp, err := c.Stream(context.Background(), ts.URL, map[string]string{"Range": "bytes=100-199"})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent {
		t.Errorf("status = %d, want 206", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 100 {
		t.Errorf("body length = %d, want 100", len(body))
	}
}

func TestMergeCookies(t *testing.T) {
	tests := []struct {
		name       string
		existing   string
		setCookies []string
		want       string
	}{
		{"empty to one", "", []string{"a=1; Path=/; HttpOnly"}, "a=1"},
		{"append", "a=1", []string{"b=2; Secure"}, "a=1; b=2"},
		{"multiple headers", "", []string{"a=1", "b=2"}, "a=1; b=2"},
		{"no new cookies", "a=1", nil, "a=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mergeCookies(tt.existing, tt.setCookies); got != tt.want {
				t.Errorf("mergeCookies = %q, want %q", got, tt.want)
			}
		})
	}
}
