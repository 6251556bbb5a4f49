package patreon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ptscraper/pkg/auth"
	"ptscraper/pkg/cache"
	"ptscraper/pkg/config"
	errs "ptscraper/pkg/errors"
	"ptscraper/pkg/logger"
	"ptscraper/pkg/ratelimit"
	"ptscraper/pkg/retry"
)

const bodyPreviewLimit = 200

// Client talks to the Patreon website and its JSON:API endpoints with a
// cookie session
type Client struct {
	httpClient *http.Client
	session    *auth.Session
	cfg        config.PatreonConfig
	baseURL    string
	retry      *retry.Config
	limiter    ratelimit.Limiter
	cache      cache.Store
	logger     logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetry sets the retry policy for transient failures
func WithRetry(cfg *retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithLimiter paces every outgoing request
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithCache serves repeated API GETs from a response cache
func WithCache(s cache.Store) Option {
	return func(c *Client) { c.cache = s }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for session. cfg.BaseURL may point at a test
// server.
func NewClient(session *auth.Session, cfg config.PatreonConfig, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		session:    session,
		cfg:        cfg,
		baseURL:    cfg.BaseURL,
		retry:      retry.DefaultConfig(),
		limiter:    ratelimit.Unlimited(),
		logger:     logger.GetLogger(),
	}
	if c.baseURL == "" {
		c.baseURL = BaseURL
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.Logger == nil {
		rc := *c.retry
		rc.Logger = c.logger
		c.retry = &rc
	}
	return c
}

// Session returns the current session
func (c *Client) Session() *auth.Session {
	return c.session
}

// BaseURL returns the site root requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// response is a fully read HTTP response
type response struct {
	status   int
	finalURL string
	body     []byte
}

type requestKind int

const (
	pageRequest requestKind = iota
	apiRequest
)

// fetch sends one request with retries and returns the read body. Non-2xx
// statuses are returned as classified errors.
func (c *Client) fetch(ctx context.Context, method, rawURL string, kind requestKind, referer string) (*response, error) {
	if kind == apiRequest && method == http.MethodGet && c.cache != nil {
		if body, ok, err := c.cache.Get(ctx, rawURL); err == nil && ok {
			c.logger.DebugWithFields("serving response from cache", map[string]interface{}{
				"url": rawURL,
			})
			return &response{status: http.StatusOK, finalURL: rawURL, body: body}, nil
		}
	}

	resp, err := retry.DoWithResult(ctx, c.retry, func(ctx context.Context) (*response, error) {
		return c.doRequest(ctx, method, rawURL, kind, referer)
	})
	if err != nil {
		return nil, err
	}

	if kind == apiRequest && method == http.MethodGet && c.cache != nil {
		if err := c.cache.Put(ctx, rawURL, resp.body); err != nil {
			c.logger.WarnWithFields("failed to cache response", map[string]interface{}{
				"url":   rawURL,
				"error": err.Error(),
			})
		}
	}
	return resp, nil
}

// doRequest performs a single attempt with the session headers
func (c *Client) doRequest(ctx context.Context, method, rawURL string, kind requestKind, referer string) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}

	c.session.Apply(req)
	if referer == "" {
		referer = c.baseURL + "/"
	}
	req.Header.Set("Referer", referer)
	if kind == apiRequest {
		req.Header.Set("Accept", "application/json")
		if token := c.session.CSRF(); token != "" {
			req.Header.Set("x-csrf-signature", token)
		}
	} else {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	}

	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": method,
		"url":    rawURL,
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   method,
			"url":      rawURL,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "request failed")
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, method, rawURL, resp.StatusCode, duration)

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "failed to read response body")
	}

	return &response{
		status:   resp.StatusCode,
		finalURL: resp.Request.URL.String(),
		body:     body,
	}, nil
}

// checkResponseStatus maps non-2xx statuses onto classified errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}

	fields := map[string]interface{}{
		"status": code,
		"url":    resp.Request.URL.String(),
	}

	switch errs.ClassifyStatus(code) {
	case errs.ErrorTypeAuth:
		c.logger.WarnWithFields("authentication rejected", fields)
		return errs.NewAuthError(code, "session rejected; re-export your Patreon cookies")
	case errs.ErrorTypeNotFound:
		c.logger.WarnWithFields("resource not found", fields)
		return errs.New(errs.ErrorTypeNotFound, code, "resource not found")
	case errs.ErrorTypeTransient:
		c.logger.WarnWithFields("transient server error", fields)
		if code == http.StatusTooManyRequests {
			return errs.NewTransientError(code, "rate limit exceeded")
		}
		return errs.NewTransientError(code, "server error")
	default:
		c.logger.ErrorWithFields("unexpected API error", fields)
		return errs.New(errs.ErrorTypeUnknown, code, fmt.Sprintf("unexpected status code: %d", code))
	}
}

// getJSON fetches an API URL and decodes the body into target
func (c *Client) getJSON(ctx context.Context, rawURL, referer string, target interface{}) error {
	resp, err := c.fetch(ctx, http.MethodGet, rawURL, apiRequest, referer)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(resp.body, target); err != nil {
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          rawURL,
			"status":       resp.status,
			"error":        err.Error(),
			"body_preview": bodyPreview(resp.body),
		})
		return errs.Wrap(errs.ErrorTypeParsing, err, "failed to parse JSON")
	}
	return nil
}

// getPage fetches an HTML page
func (c *Client) getPage(ctx context.Context, rawURL string) (*response, error) {
	return c.fetch(ctx, http.MethodGet, rawURL, pageRequest, "")
}

func bodyPreview(body []byte) string {
	preview := string(body)
	if len(preview) > bodyPreviewLimit {
		preview = preview[:bodyPreviewLimit] + "..."
	}
	return preview
}
