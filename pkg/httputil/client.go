package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/wonny/soywatch/backend/pkg/config"
	"github.com/wonny/soywatch/backend/pkg/logger"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// Client is an HTTP client wrapper with logging
// Retrying is left to callers: the collector owns backoff, so resty never retries.
// ⭐ SSOT: 모든 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	rc     *resty.Client
	logger *logger.Logger
}

// New creates a new HTTP client from config
// ⭐ SSOT: resty 인스턴스는 여기서만 생성
func New(cfg *config.Config, log *logger.Logger) *Client {
	timeout := cfg.Provider.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second // Default timeout
	}

	rc := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", defaultUserAgent)

	return &Client{
		rc:     rc,
		logger: log,
	}
}

// WithHeader sets a header sent on every request
func (c *Client) WithHeader(key, value string) *Client {
	c.rc.SetHeader(key, value)
	return c
}

// Get performs a GET request with query parameters
func (c *Client) Get(ctx context.Context, url string, params map[string]string) (*resty.Response, error) {
	startTime := time.Now()

	c.logger.WithFields(map[string]interface{}{
		"method": http.MethodGet,
		"url":    url,
	}).Debug("HTTP request started")

	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(url)

	duration := time.Since(startTime)

	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"method":   http.MethodGet,
			"url":      url,
			"duration": duration,
			"error":    err.Error(),
		}).Error("HTTP request failed")
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"method":      http.MethodGet,
		"url":         url,
		"status_code": resp.StatusCode(),
		"duration":    duration,
	}).Debug("HTTP request completed")

	return resp, nil
}

// GetJSON performs a GET request and decodes a 200 response into out
func (c *Client) GetJSON(ctx context.Context, url string, params map[string]string, out interface{}) error {
	resp, err := c.Get(ctx, url, params)
	if err != nil {
		return err
	}

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
