package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"video-extractor-go/pkg/appctx"
	"video-extractor-go/pkg/config"
	"video-extractor-go/pkg/extractors"
	"video-extractor-go/pkg/httpclient"
	"video-extractor-go/pkg/logging"
	"video-extractor-go/pkg/registry"
	"video-extractor-go/pkg/services"
)

func testHandler() http.Handler {
	log := logging.New("error", false, io.Discard)
	client := httpclient.New(httpclient.Settings{}, log)
	reg := registry.New()
	generic := extractors.NewGenericExtractor(client, log)

	h := New(&appctx.Context{
		Config:    &config.Config{Port: 10000},
		Log:       log,
		Extract:   services.NewExtractService(client, reg, generic, log),
		Proxy:     services.NewProxyService(client, log),
		Registry:  reg,
		StartedAt: time.Now(),
	})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux
}

func TestHealthEndpoint(t *testing.T) {
	srv := httptest.NewServer(testHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	var body struct {
		Status string `json:"status"`
		Port   int    `json:"port"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Port != 10000 {
		t.Errorf("body = %+v", body)
	}
}

func TestExtractGet_MissingURL(t *testing.T) {
	srv := httptest.NewServer(testHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/extract")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestExtractPost_InvalidBodyStillOK(t *testing.T) {
	srv := httptest.NewServer(testHandler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/extract", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	// The POST surface always answers 200 with an envelope.
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.OK || body.Error == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestExtractPost_EndToEnd(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><head><title>Embed</title></head>
			<script>file: "https://cdn.example.com/v/720p.mp4"</script></html>`)
	}))
	defer upstream.Close()

	srv := httptest.NewServer(testHandler())
	defer srv.Close()

	payload := `{"url":"` + upstream.URL + `/e/1"}`
	resp, err := http.Post(srv.URL+"/extract", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		OK       bool `json:"ok"`
		PageInfo struct {
			Title          string `json:"title"`
			DetectedPlayer string `json:"detectedPlayer"`
		} `json:"pageInfo"`
		Sources []struct {
			URL     string `json:"url"`
			Quality string `json:"quality"`
		} `json:"sources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.OK {
		t.Fatalf("extraction failed: %+v", body)
	}
	if body.PageInfo.Title != "Embed" {
		t.Errorf("title = %q", body.PageInfo.Title)
	}
	if len(body.Sources) != 1 || body.Sources[0].Quality != "720p" {
		t.Errorf("sources = %+v", body.Sources)
	}
}

func TestProxy_MissingURL(t *testing.T) {
	srv := httptest.NewServer(testHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/proxy")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestProxy_InvalidTargetURL(t *testing.T) {
	srv := httptest.NewServer(testHandler())
	defer srv.Close()

	for _, path := range []string{"/proxy", "/fetch"} {
		resp, err := http.Get(srv.URL + path + "?url=" + url.QueryEscape("not-a-url"))
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()

		// An unusable target is the caller's fault, not the upstream's.
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", path, resp.StatusCode)
		}
		var body struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Error == "" {
			t.Errorf("%s error message missing", path)
		}
	}
}

func TestProxy_UpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(nil)
	upstream.Close() // nothing listening at this address anymore

	srv := httptest.NewServer(testHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/proxy?url=" + url.QueryEscape(upstream.URL+"/v/file.mp4"))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
}

func TestProxy_PlaylistRewrite(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "#EXTM3U\n#EXTINF:10,\nsegment0.ts\n")
	}))
	defer upstream.Close()

	srv := httptest.NewServer(testHandler())
	defer srv.Close()

	target := upstream.URL + "/hls/index.m3u8"
	resp, err := http.Get(srv.URL + "/proxy?url=" + url.QueryEscape(target))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/vnd.apple.mpegurl" {
		t.Errorf("content type = %q", ct)
	}
	data, _ := io.ReadAll(resp.Body)
	text := string(data)
	if !strings.Contains(text, "/proxy?url="+url.QueryEscape(upstream.URL+"/hls/segment0.ts")) {
		t.Errorf("segment not rewritten:\n%s", text)
	}
}

func TestProxy_StreamRelay(t *testing.T) {
	payload := []byte{0x00, 0x01, 0x02, 0x03, 0xff}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write(payload)
	}))
	defer upstream.Close()

	srv := httptest.NewServer(testHandler())
	defer srv.Close()

	target := upstream.URL + "/v/file.mp4"
	resp, err := http.Get(srv.URL + "/proxy?url=" + url.QueryEscape(target))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "video/mp4" {
		t.Errorf("content type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != string(payload) {
		t.Errorf("body = %v, want %v", body, payload)
	}
}

func TestPlayersEndpoint(t *testing.T) {
	srv := httptest.NewServer(testHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/players")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	var body struct {
		Players []string `json:"players"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
}
