package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "addgene-scraper/0.1.0 (+https://github.com/plasmidtools/addgene-scraper)"

// FetchFailedError wraps the last underlying error after retries are
// exhausted, or a non-retryable HTTP status.
type FetchFailedError struct {
	URL string
	Err error
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("fetch failed for %s: %v", e.URL, e.Err)
}

func (e *FetchFailedError) Unwrap() error {
	return e.Err
}

// Options controls the HTTP client. Zero fields fall back to defaults.
type Options struct {
	UserAgent    string
	Timeout      time.Duration
	RetryCount   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// Client issues plain GETs against Addgene with the identifying headers the
// site expects. It retries transport errors and a short allow-list of
// transient statuses with increasing backoff; other HTTP errors fail
// immediately. It knows nothing about HTML structure.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

func NewClient(opts Options, logger *slog.Logger) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryCount == 0 {
		opts.RetryCount = 3
	}
	if opts.RetryWaitMin == 0 {
		opts.RetryWaitMin = 1 * time.Second
	}
	if opts.RetryWaitMax == 0 {
		opts.RetryWaitMax = 10 * time.Second
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeaders(map[string]string{
		"User-Agent":      opts.UserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en",
	})
	client.SetRetryCount(opts.RetryCount)
	client.SetRetryWaitTime(opts.RetryWaitMin)
	client.SetRetryMaxWaitTime(opts.RetryWaitMax)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return isTransientStatus(r.StatusCode())
	})

	return &Client{http: client, logger: logger}
}

// isTransientStatus is the allow-list of HTTP statuses worth retrying.
func isTransientStatus(code int) bool {
	switch code {
	case 429, 502, 503, 504:
		return true
	}
	return false
}

// GetHTML fetches a page and returns the raw body as text.
func (c *Client) GetHTML(ctx context.Context, url string) (string, error) {
	c.logger.Debug("fetching page", "url", url)

	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", &FetchFailedError{URL: url, Err: err}
	}
	if resp.IsError() {
		return "", &FetchFailedError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status())}
	}

	c.logger.Debug("fetched page", "url", url, "status", resp.StatusCode(), "bytes", len(resp.Body()))
	return resp.String(), nil
}

// GetBytes fetches a URL and returns the raw response body. Used for
// sequence file transfers, where the body is opaque.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, &FetchFailedError{URL: url, Err: err}
	}
	if resp.IsError() {
		return nil, &FetchFailedError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status())}
	}
	return resp.Body(), nil
}
