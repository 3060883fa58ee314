// Package renderer converts post Markdown to HTML through the frontend's
// render endpoint.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const renderPath = "/api/markdown/render"

// Defaults applied by New.
const (
	DefaultTimeout    = 15 * time.Second
	DefaultRetryCount = 2
)

// ErrRenderFailed signals a render endpoint that answered with an error.
var ErrRenderFailed = errors.New("markdown render failed")

// Config holds the renderer client settings.
type Config struct {
	FrontendURL string
	Timeout     time.Duration
	RetryCount  int
}

type renderRequest struct {
	Content string        `json:"content"`
	Options renderOptions `json:"options"`
}

type renderOptions struct {
	AllowUnsafe bool `json:"allowUnsafe"`
}

type renderResponse struct {
	FrontMatter map[string]any `json:"frontmatter"`
	HTML        *string        `json:"html"`
	Error       any            `json:"error"`
}

// Client calls the frontend render endpoint.
type Client struct {
	http *resty.Client
}

// New creates a renderer client rooted at cfg.FrontendURL.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.FrontendURL), "/")
	if base == "" {
		return nil, errors.New("renderer: frontend url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retries := cfg.RetryCount
	if retries < 0 {
		retries = DefaultRetryCount
	}

	client := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(retries).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
	client.AddRetryCondition(retryCondition)

	return &Client{http: client}, nil
}

// Render returns the HTML for markdown. Unsafe HTML in the source is kept.
func (c *Client) Render(ctx context.Context, markdown string) (string, error) {
	var out renderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(renderRequest{Content: markdown, Options: renderOptions{AllowUnsafe: true}}).
		SetResult(&out).
		SetError(&out).
		Post(renderPath)
	if err != nil {
		return "", fmt.Errorf("render request: %w", err)
	}

	if out.Error != nil {
		return "", fmt.Errorf("%w: %v", ErrRenderFailed, out.Error)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: status %d", ErrRenderFailed, resp.StatusCode())
	}
	if out.HTML == nil {
		return "", fmt.Errorf("%w: response has no html", ErrRenderFailed)
	}
	return *out.HTML, nil
}

// retryCondition retries transport failures and server errors.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
