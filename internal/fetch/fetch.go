// Package fetch retrieves raw documents over HTTP for the scrapers and the
// posting enrichers. Every call is time-boxed and exposes the response
// content type and length so callers can reject pages before parsing them.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; InternshipRadar/1.0; Job Scraper)"

var (
	// ErrNotHTML is returned when RequireHTML is set and the response is not text/html.
	ErrNotHTML = errors.New("response is not HTML")
	// ErrBodyTooLarge is returned when the declared content length exceeds MaxBodyBytes.
	ErrBodyTooLarge = errors.New("response body too large")
)

// Result holds the raw content and response metadata from a URL fetch.
type Result struct {
	URL           string
	Body          string
	ContentType   string
	ContentLength int64
	StatusCode    int
	// Truncated is set when the body was cut at MaxBodyBytes.
	Truncated bool
}

// Error represents an error during URL fetching.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// MaxBodyBytes caps how much of the body is read. Zero means unlimited.
	MaxBodyBytes int64
	// RequireHTML rejects responses whose content type is not text/html.
	RequireHTML bool
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Fetcher retrieves a single URL.
type Fetcher interface {
	Fetch(ctx context.Context, urlStr string, opts *Options) (*Result, error)
}

// HTTPFetcher fetches over plain HTTP. A nil Client uses a fresh client per call.
type HTTPFetcher struct {
	Client *http.Client
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	return fetchWith(ctx, f.Client, urlStr, opts)
}

// URL retrieves the content at urlStr with a default client.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	return fetchWith(ctx, nil, urlStr, opts)
}

func fetchWith(ctx context.Context, client *http.Client, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := validateURL(urlStr); err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	result := &Result{
		URL:           urlStr,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		StatusCode:    resp.StatusCode,
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, &Error{
			URL:        urlStr,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}
	if opts.RequireHTML && !IsHTML(result.ContentType) {
		return result, &Error{
			URL:        urlStr,
			Message:    fmt.Sprintf("content type %q", result.ContentType),
			StatusCode: resp.StatusCode,
			Cause:      ErrNotHTML,
		}
	}
	if opts.MaxBodyBytes > 0 && resp.ContentLength > opts.MaxBodyBytes {
		return result, &Error{
			URL:        urlStr,
			Message:    fmt.Sprintf("declared length %d exceeds %d", resp.ContentLength, opts.MaxBodyBytes),
			StatusCode: resp.StatusCode,
			Cause:      ErrBodyTooLarge,
		}
	}

	var reader io.Reader = resp.Body
	if opts.MaxBodyBytes > 0 {
		// one extra byte tells us whether the body was cut
		reader = io.LimitReader(resp.Body, opts.MaxBodyBytes+1)
	}
	bodyBytes, err := io.ReadAll(reader)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}
	if opts.MaxBodyBytes > 0 && int64(len(bodyBytes)) > opts.MaxBodyBytes {
		bodyBytes = bodyBytes[:opts.MaxBodyBytes]
		result.Truncated = true
	}
	result.Body = string(bodyBytes)

	return result, nil
}

// IsHTML reports whether a Content-Type header value names an HTML document.
func IsHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "text/html")
	}
	return mediaType == "text/html"
}

func validateURL(urlStr string) error {
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &Error{URL: urlStr, Message: fmt.Sprintf("unsupported scheme %q", parsedURL.Scheme)}
	}
	return nil
}
