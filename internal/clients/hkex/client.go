// Package hkex provides a document source for announcement files on hkexnews
package hkex

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/hkexdocs/internal/common"
	"github.com/bobmcallan/hkexdocs/internal/interfaces"
	"github.com/bobmcallan/hkexdocs/internal/models"
)

const (
	DefaultBaseURL   = "https://www1.hkexnews.hk"
	DefaultTimeout   = 60 * time.Second
	DefaultRateLimit = 5 // requests per second
	DefaultMaxBytes  = 100 << 20
)

var pdfMagic = []byte("%PDF-")

// Client implements interfaces.DocumentSource over HTTP
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	userAgent  string
	maxBytes   int64
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the host that root-relative links are resolved against
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if u, err := url.Parse(strings.TrimRight(baseURL, "/")); err == nil && u.Scheme != "" {
			c.baseURL = u
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxBytes caps the accepted response size
func WithMaxBytes(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
// The host's certificate chain has been known to fail validation on some systems.
func WithInsecureSkipVerify(skip bool) ClientOption {
	return func(c *Client) {
		if !skip {
			return
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // opt-in via config
			MinVersion:         tls.VersionTLS12,
		}
		c.httpClient.Transport = transport
	}
}

// NewClient creates a new hkexnews document client
func NewClient(opts ...ClientOption) *Client {
	base, _ := url.Parse(DefaultBaseURL)
	c := &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:   rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:    common.NewSilentLogger(),
		userAgent: common.DefaultUserAgent,
		maxBytes:  DefaultMaxBytes,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ResolveURL turns a root-relative link like "/listedco/...pdf" into an
// absolute URL on the base host. Absolute URLs are returned unchanged.
func (c *Client) ResolveURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty url")
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}

// Open requests the document and returns its body once the status and the
// PDF header have been checked. The caller must close the body.
func (c *Client) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	fullURL, err := c.ResolveURL(rawURL)
	if err != nil {
		return nil, &models.DownloadError{URL: rawURL, Err: err}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &models.DownloadError{URL: fullURL, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &models.DownloadError{URL: fullURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/pdf,*/*;q=0.8")

	c.logger.Debug().Str("url", fullURL).Msg("Document request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Error().Err(err).Str("url", fullURL).Dur("elapsed", elapsed).Msg("Document request failed")
		return nil, &models.DownloadError{URL: fullURL, Err: fmt.Errorf("failed to execute request: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		c.logger.Warn().Str("url", fullURL).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("Document non-OK response")
		return nil, &models.DownloadError{URL: fullURL, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	if resp.ContentLength > c.maxBytes {
		resp.Body.Close()
		return nil, &models.DownloadError{URL: fullURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("document size %d exceeds limit %d", resp.ContentLength, c.maxBytes)}
	}

	br := bufio.NewReader(resp.Body)
	head, _ := br.Peek(len(pdfMagic))
	if !bytes.Equal(head, pdfMagic) {
		resp.Body.Close()
		c.logger.Warn().Str("url", fullURL).Str("content_type", resp.Header.Get("Content-Type")).Msg("Response is not a PDF")
		return nil, &models.DownloadError{URL: fullURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("response is not a PDF (content-type %q)", resp.Header.Get("Content-Type"))}
	}

	c.logger.Debug().Str("url", fullURL).Int64("content_length", resp.ContentLength).Dur("elapsed", elapsed).Msg("Document response")

	return &cappedBody{r: br, c: resp.Body, remaining: c.maxBytes, limit: c.maxBytes, url: fullURL}, nil
}

// cappedBody fails the read once more than limit bytes have been seen
type cappedBody struct {
	r         io.Reader
	c         io.Closer
	remaining int64
	limit     int64
	url       string
}

func (b *cappedBody) Read(p []byte) (int, error) {
	if b.remaining <= 0 {
		var probe [1]byte
		n, err := b.r.Read(probe[:])
		if n > 0 {
			return 0, &models.DownloadError{URL: b.url, Err: fmt.Errorf("document exceeds limit %d bytes", b.limit)}
		}
		return 0, err
	}
	if int64(len(p)) > b.remaining {
		p = p[:b.remaining]
	}
	n, err := b.r.Read(p)
	b.remaining -= int64(n)
	return n, err
}

func (b *cappedBody) Close() error {
	return b.c.Close()
}

var _ interfaces.DocumentSource = (*Client)(nil)
