package youtube

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ytcarchiver/pkg/errors"
	"ytcarchiver/pkg/logger"
	"ytcarchiver/pkg/ratelimit"
	"ytcarchiver/pkg/retry"
	"ytcarchiver/pkg/session"
)

// Client performs all upstream HTTP traffic: the unauthenticated entry
// page fetch, authenticated browse calls, and image downloads.
type Client struct {
	httpClient *http.Client
	session    *session.Session
	userAgent  string
	baseURL    string
	limiter    ratelimit.Limiter
	retryCfg   *retry.Config
	logger     logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the upstream base URL (used by tests)
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithRateLimiter sets the limiter applied before every request
func WithRateLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithRetry sets the retry policy for transport-level failures
func WithRetry(maxAttempts int) Option {
	return func(c *Client) {
		cfg := retry.DefaultConfig()
		cfg.MaxAttempts = maxAttempts
		cfg.Logger = c.logger
		c.retryCfg = cfg
	}
}

// NewClient creates a new upstream client bound to a session
func NewClient(sess *session.Session, timeout time.Duration, log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		session:    sess,
		userAgent:  "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		baseURL:    BaseURL,
		logger:     log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the upstream base URL this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest applies session headers, rate limiting and retry, then
// performs the request. Only transport-level failures are retried.
func (c *Client) doRequest(method, url string, body []byte) (*http.Response, error) {
	op := func() (*http.Response, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequest(method, url, reader)
		if err != nil {
			return nil, &errors.Error{
				Type:    errors.ErrorTypeUnknown,
				Message: fmt.Sprintf("failed to create request: %v", err),
			}
		}

		req.Header.Set("User-Agent", c.userAgent)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for key, value := range c.session.Headers() {
			req.Header.Set(key, value)
		}

		if c.limiter != nil {
			c.limiter.Wait()
		}

		start := time.Now()
		c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
			"method": method,
			"url":    url,
		})

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
				"method": method,
				"url":    url,
				"error":  err.Error(),
			})
			return nil, &errors.Error{
				Type:    errors.ErrorTypeNetwork,
				Message: fmt.Sprintf("network error: %v", err),
			}
		}

		c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
			"method":   method,
			"url":      url,
			"status":   resp.StatusCode,
			"duration": time.Since(start),
		})

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return nil, &errors.Error{
				Type:    errors.ErrorTypeServerError,
				Message: fmt.Sprintf("server returned status %d", resp.StatusCode),
				Code:    resp.StatusCode,
			}
		}

		return resp, nil
	}

	if c.retryCfg != nil {
		return retry.DoWithResult(op, c.retryCfg)
	}
	return op()
}

// checkResponseStatus maps non-success statuses to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return &errors.Error{
			Type:    errors.ErrorTypeAuth,
			Message: "authentication required",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusNotFound:
		return &errors.Error{
			Type:    errors.ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode >= 500:
		return &errors.Error{
			Type:    errors.ErrorTypeServerError,
			Message: "server error",
			Code:    resp.StatusCode,
		}
	default:
		return &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}
}

// FetchPage performs a GET and returns the raw response body. Used for
// the feed entry page and direct post pages, which carry their payload
// embedded in HTML.
func (c *Client) FetchPage(url string) ([]byte, error) {
	resp, err := c.doRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return body, nil
}

// Browse issues an authenticated browse call and returns the raw JSON
// response body
func (c *Client) Browse(apiKey string, reqBody *BrowseRequest) ([]byte, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to encode browse request: %v", err),
		}
	}

	resp, err := c.doRequest(http.MethodPost, BrowseURL(c.baseURL, apiKey), payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return body, nil
}

// DownloadImage downloads an image from the given URL
func (c *Client) DownloadImage(imageURL string) ([]byte, error) {
	resp, err := c.doRequest(http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to download image: %v", err),
		}
	}

	c.logger.DebugWithFields("image downloaded", map[string]interface{}{
		"url":  imageURL,
		"size": len(data),
	})

	return data, nil
}
