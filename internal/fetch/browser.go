package fetch

import (
	"context"
	"log"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders pages in headless Chrome before returning their HTML.
// Some career sites only emit their posting metadata from JavaScript, so the
// enrichers can be pointed at this fetcher instead of HTTPFetcher.
// Requires Chrome/Chromium to be installed on the system.
type BrowserFetcher struct {
	// Settle is how long to wait after the body is ready for scripts to run.
	Settle  time.Duration
	Verbose bool
}

// NewBrowserFetcher returns a browser fetcher with a one second settle time.
func NewBrowserFetcher(verbose bool) *BrowserFetcher {
	return &BrowserFetcher{Settle: time.Second, Verbose: verbose}
}

// Fetch implements Fetcher. The rendered document is always reported as
// text/html; MaxBodyBytes is applied to the rendered markup.
func (b *BrowserFetcher) Fetch(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
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

	if b.Verbose {
		log.Printf("[BROWSER] Starting headless browser for: %s", urlStr)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(urlStr),
		chromedp.WaitReady("body"),
		chromedp.Sleep(b.Settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "browser rendering failed", Cause: err}
	}

	result := &Result{
		URL:           urlStr,
		ContentType:   "text/html; charset=utf-8",
		ContentLength: int64(len(html)),
		StatusCode:    200,
	}
	if opts.MaxBodyBytes > 0 && int64(len(html)) > opts.MaxBodyBytes {
		html = html[:opts.MaxBodyBytes]
		result.Truncated = true
	}
	result.Body = html

	if b.Verbose {
		log.Printf("[BROWSER] Rendered HTML: %d bytes", len(html))
	}
	return result, nil
}

// NewFetcher returns a BrowserFetcher when useBrowser is set and an
// HTTPFetcher otherwise.
func NewFetcher(useBrowser bool) Fetcher {
	if useBrowser {
		return NewBrowserFetcher(false)
	}
	return &HTTPFetcher{}
}

