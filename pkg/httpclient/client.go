// Package httpclient provides the page fetcher used by the extraction
// pipeline and the streaming proxy. It follows redirects manually so
// cookies can be accumulated across hops, and decodes gzip/deflate
// bodies before exposing text.
package httpclient

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"video-extractor-go/pkg/logging"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
	"golang.org/x/net/proxy"
)

// Fetch-layer error taxonomy.
var (
	ErrInvalidURL       = errors.New("invalid url")
	ErrTimeout          = errors.New("request timed out")
	ErrTooManyRedirects = errors.New("too many redirects")
)

const (
	// DefaultMaxRedirects bounds the redirect chase.
	DefaultMaxRedirects = 10

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// Options configures a single fetch.
type Options struct {
	Method       string
	Headers      map[string]string
	Cookies      string
	Referer      string
	Origin       string
	Body         []byte
	ContentType  string
	MaxRedirects int
}

// FetchResult is the terminal response of a fetch. Owned by the caller;
// never shared across concurrent fetches.
type FetchResult struct {
	Status   int
	Header   http.Header
	Body     []byte
	Text     string
	Cookies  string
	FinalURL string
}

// Client performs HTTP fetches with browser-like headers. It keeps a
// pooled transport for ordinary hosts, a utls transport for domains
// behind TLS fingerprint checks, and a deadline-free client for
// long-lived stream relays.
type Client struct {
	defaultClient *http.Client
	streamClient  *http.Client
	utlsClient    *http.Client
	utlsDomains   []string
	timeout       time.Duration
	maxRedirects  int
	userAgent     string
	log           *logging.Logger
}

// Settings configures a Client.
type Settings struct {
	FetchTimeout time.Duration
	MaxRedirects int
	UserAgent    string
	GlobalProxy  string
	UTLSDomains  []string
}

// New creates a new HTTP client.
func New(s Settings, log *logging.Logger) *Client {
	timeout := s.FetchTimeout
	if timeout == 0 {
		timeout = 25 * time.Second
	}
	ua := s.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	maxRedirects := s.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}

	transport := newTransport(s.GlobalProxy, log)

	c := &Client{
		// Redirects are chased manually so Set-Cookie values survive hops.
		defaultClient: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		// No overall deadline: stream relays may run for hours.
		streamClient: &http.Client{
			Transport: transport,
		},
		utlsClient: &http.Client{
			Transport: newUTLSRoundTripper(),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		utlsDomains:  s.UTLSDomains,
		timeout:      timeout,
		maxRedirects: maxRedirects,
		userAgent:    ua,
		log:          log.WithComponent("httpclient"),
	}
	return c
}

func newTransport(proxyURL string, log *logging.Logger) *http.Transport {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		// Many video hosts serve expired or self-signed certificates.
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		// Bodies are decoded manually based on Content-Encoding.
		DisableCompression: true,
	}

	if proxyURL == "" {
		return transport
	}

	parsed, err := url.Parse(proxyURL)
	if err != nil {
		log.Error("failed to parse proxy URL", "url", proxyURL, "error", err)
		return transport
	}

	switch parsed.Scheme {
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(parsed, proxy.Direct)
		if err != nil {
			log.Error("failed to create SOCKS5 dialer", "error", err)
			return transport
		}
		if contextDialer, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = contextDialer.DialContext
		} else {
			transport.Dial = dialer.Dial
		}
	case "http", "https":
		transport.Proxy = http.ProxyURL(parsed)
	default:
		log.Warn("unsupported proxy scheme", "scheme", parsed.Scheme)
	}

	return transport
}

// Fetch performs a GET (or Options.Method) request against rawURL,
// following up to MaxRedirects redirects while accumulating cookies,
// and returns the decoded terminal response.
func (c *Client) Fetch(ctx context.Context, rawURL string, opts Options) (*FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	maxRedirects := opts.MaxRedirects
	if maxRedirects == 0 {
		maxRedirects = c.maxRedirects
	}

	cookies := opts.Cookies
	current := rawURL

	for hop := 0; ; hop++ {
		if hop > maxRedirects {
			return nil, fmt.Errorf("%w: %s", ErrTooManyRedirects, rawURL)
		}

		parsed, err := url.Parse(current)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidURL, current)
		}

		resp, err := c.do(ctx, current, parsed, opts, cookies)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s", ErrTimeout, current)
			}
			return nil, fmt.Errorf("fetch %s: %w", current, err)
		}

		cookies = mergeCookies(cookies, resp.Header.Values("Set-Cookie"))

		if isRedirect(resp.StatusCode) {
			location := resp.Header.Get("Location")
			drain(resp)
			if location == "" {
				return nil, fmt.Errorf("fetch %s: redirect without location", current)
			}
			next, err := parsed.Parse(location)
			if err != nil {
				return nil, fmt.Errorf("%w: redirect target %q", ErrInvalidURL, location)
			}
			c.log.Debug("following redirect", "status", resp.StatusCode, "to", next.String())
			current = next.String()
			continue
		}

		body, err := decodeBody(resp)
		resp.Body.Close()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s", ErrTimeout, current)
			}
			return nil, fmt.Errorf("read %s: %w", current, err)
		}

		return &FetchResult{
			Status:   resp.StatusCode,
			Header:   resp.Header,
			Body:     body,
			Text:     string(body),
			Cookies:  cookies,
			FinalURL: current,
		}, nil
	}
}

// Post performs a POST request with the given body. Content type defaults
// to application/x-www-form-urlencoded.
func (c *Client) Post(ctx context.Context, rawURL string, body []byte, opts Options) (*FetchResult, error) {
	opts.Method = http.MethodPost
	opts.Body = body
	if opts.ContentType == "" {
		opts.ContentType = "application/x-www-form-urlencoded"
	}
	return c.Fetch(ctx, rawURL, opts)
}

// Stream issues a request without an overall deadline and returns the raw
// response for the caller to relay. The caller owns resp.Body; cancelling
// ctx aborts the upstream transfer.
func (c *Client) Stream(ctx context.Context, rawURL string, headers map[string]string) (*http.Response, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return c.streamClient.Do(req)
}

// UserAgent returns the browser user agent used for outgoing requests.
func (c *Client) UserAgent() string {
	return c.userAgent
}

func (c *Client) do(ctx context.Context, rawURL string, parsed *url.URL, opts Options, cookies string) (*http.Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if len(opts.Body) > 0 {
		bodyReader = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, err
	}

	origin := parsed.Scheme + "://" + parsed.Host

	referer := opts.Referer
	if referer == "" {
		referer = origin + "/"
	}
	reqOrigin := opts.Origin
	if reqOrigin == "" {
		reqOrigin = origin
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,ar;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Referer", referer)
	req.Header.Set("Origin", reqOrigin)
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	if opts.ContentType != "" {
		req.Header.Set("Content-Type", opts.ContentType)
	}
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}
	if cookies != "" {
		req.Header.Set("Cookie", cookies)
	}

	return c.clientFor(rawURL).Do(req)
}

// clientFor routes fingerprint-gated domains through the utls client.
func (c *Client) clientFor(rawURL string) *http.Client {
	lower := strings.ToLower(rawURL)
	for _, domain := range c.utlsDomains {
		if strings.Contains(lower, domain) {
			c.log.Debug("using utls client", "url", rawURL)
			return c.utlsClient
		}
	}
	return c.defaultClient
}

// decodeBody reads the response body, decoding gzip/deflate encodings.
func decodeBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body

	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	}

	return io.ReadAll(reader)
}

// mergeCookies appends name=value pairs from Set-Cookie headers to the
// accumulated cookie string.
func mergeCookies(cookies string, setCookies []string) string {
	parts := make([]string, 0, len(setCookies)+1)
	if cookies != "" {
		parts = append(parts, cookies)
	}
	for _, sc := range setCookies {
		if nv := strings.TrimSpace(strings.SplitN(sc, ";", 2)[0]); nv != "" {
			parts = append(parts, nv)
		}
	}
	return strings.Join(parts, "; ")
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	resp.Body.Close()
}

// utlsRoundTripper implements http.RoundTripper with utls and HTTP/2 support.
type utlsRoundTripper struct {
	dialer      *net.Dialer
	h2Transport *http2.Transport
}

func newUTLSRoundTripper() *utlsRoundTripper {
	return &utlsRoundTripper{
		dialer: &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 60 * time.Second,
		},
		h2Transport: &http2.Transport{},
	}
}

func (t *utlsRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return http.DefaultTransport.RoundTrip(req)
	}

	addr := req.URL.Host
	if !strings.Contains(addr, ":") {
		addr = addr + ":443"
	}

	conn, err := t.dialer.DialContext(req.Context(), "tcp", addr)
	if err != nil {
		return nil, err
	}

	tlsConfig := &utls.Config{
		ServerName:         req.URL.Hostname(),
		InsecureSkipVerify: true,
	}

	// Chrome 120 fingerprint with HTTP/2
	utlsConn := utls.UClient(conn, tlsConfig, utls.HelloChrome_120)
	if err := utlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, err
	}

	if utlsConn.ConnectionState().NegotiatedProtocol == "h2" {
		h2Conn, err := t.h2Transport.NewClientConn(utlsConn)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return h2Conn.RoundTrip(req)
	}

	return t.doHTTP1Request(utlsConn, req)
}

func (t *utlsRoundTripper) doHTTP1Request(conn net.Conn, req *http.Request) (*http.Response, error) {
	if err := req.Write(conn); err != nil {
		conn.Close()
		return nil, err
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		conn.Close()
		return nil, err
	}

	resp.Body = &connCloser{resp.Body, conn}
	return resp, nil
}

type connCloser struct {
	io.ReadCloser
	conn net.Conn
}

func (c *connCloser) Close() error {
	c.ReadCloser.Close()
	return c.conn.Close()
}
