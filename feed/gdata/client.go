// Package gdata implements feed.Client against the GData video feed API
// using its JSON representation.
package gdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mwantia/feedtree/data"
	"github.com/mwantia/feedtree/feed"
	"github.com/mwantia/feedtree/log"
)

const (
	DefaultBaseURL = "https://gdata.youtube.com"
	videosPath     = "/feeds/api/videos"
	maxBodySize    = 8 << 20
)

type ClientOptions struct {
	BaseURL      string
	DeveloperKey string
	HTTPClient   *http.Client
	UserAgent    string
	MaxRetries   int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Logger       *log.Logger
}

type Client struct {
	baseURL      string
	developerKey string
	httpClient   *http.Client
	userAgent    string
	maxRetries   int
	baseDelay    time.Duration
	maxDelay     time.Duration
	log          *log.Logger
}

var _ feed.Client = (*Client)(nil)

func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}

	return &Client{
		baseURL:      baseURL,
		developerKey: strings.TrimSpace(opts.DeveloperKey),
		httpClient:   httpClient,
		userAgent:    strings.TrimSpace(opts.UserAgent),
		maxRetries:   maxRetries,
		baseDelay:    baseDelay,
		maxDelay:     maxDelay,
		log:          logger,
	}
}

func (c *Client) queryURL(q feed.Query) string {
	values := url.Values{}
	values.Set("author", q.Author)
	values.Set("max-results", strconv.Itoa(q.MaxResults))
	values.Set("safeSearch", string(q.Safety))
	values.Set("v", "2")
	values.Set("alt", "json")
	if c.developerKey != "" {
		values.Set("key", c.developerKey)
	}

	return c.baseURL + videosPath + "?" + values.Encode()
}

func (c *Client) Query(ctx context.Context, q feed.Query) ([]*data.RemoteEntry, error) {
	if c == nil {
		return nil, fmt.Errorf("gdata client is nil")
	}

	body, err := c.get(ctx, c.queryURL(q))
	if err != nil {
		return nil, err
	}
	if err := validateFeed(body); err != nil {
		return nil, err
	}

	return decodeFeed(body)
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("GData-Version", "2")
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt < c.maxRetries && ctx.Err() == nil {
				c.log.Debug("Retrying feed request after error: %v", err)
				if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return nil, waitErr
				}
				continue
			}
			return nil, err
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, readErr
		}
		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return body, nil
		}

		if (resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599)) && attempt < c.maxRetries {
			c.log.Debug("Retrying feed request after status %d", resp.StatusCode)
			if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return nil, waitErr
			}
			continue
		}

		return nil, fmt.Errorf("feed request failed: status=%d message=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

func (c *Client) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	if retryAfter := parseRetryAfterSeconds(retryAfterHeader); retryAfter > 0 {
		if retryAfter > c.maxDelay {
			return c.maxDelay
		}
		return retryAfter
	}
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}

	return min(delay, c.maxDelay)
}

func parseRetryAfterSeconds(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
