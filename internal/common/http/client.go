package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	userAgent       = "scholarship-portal/1.0"
)

// Client is a thin wrapper around *http.Client bound to one backend base URL.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// NewClientWithHTTP lets tests inject an *http.Client (for example httptest.Server.Client()).
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{httpClient: hc, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// NewRequest builds a request against the base URL. A non-empty token is sent
// as a bearer credential; every request carries a fresh X-Request-ID.
func (c *Client) NewRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set(HeaderRequestID, uuid.New().String())
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// IsSuccess reports a 2xx status.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
