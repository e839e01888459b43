package clients

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"noisemap/backend/services/laeq-service/internal/models"
)

const maxResponseBytes = 32 << 20

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// BaseClient sends requests to one upstream and returns status and body.
type BaseClient struct {
	service  string
	baseURL  string
	client   HTTPDoer
	user     string
	password string
}

// NewBaseClient builds client with base URL. service names the upstream in errors.
func NewBaseClient(service, baseURL string, client HTTPDoer) *BaseClient {
	return &BaseClient{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// WithBasicAuth sets credentials sent on every request.
func (c *BaseClient) WithBasicAuth(user, password string) *BaseClient {
	c.user = user
	c.password = password
	return c
}

// Get issues a GET with query parameters appended to the base URL.
func (c *BaseClient) Get(ctx context.Context, query url.Values) (int, []byte, error) {
	target := c.baseURL
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + query.Encode()
	}
	return c.do(ctx, http.MethodGet, target, nil)
}

// PostJSON posts body to the base URL.
func (c *BaseClient) PostJSON(ctx context.Context, body []byte) (int, []byte, error) {
	return c.do(ctx, http.MethodPost, c.baseURL, body)
}

func (c *BaseClient) do(ctx context.Context, method, target string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, c.transportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, c.transportError(err)
	}
	return resp.StatusCode, respBody, nil
}

func (c *BaseClient) transportError(err error) error {
	code := models.CodeConnection
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		code = models.CodeTimeout
	}
	return &models.UpstreamError{Service: c.service, Code: code, Err: err}
}

func (c *BaseClient) statusError(status int, body []byte) error {
	code := models.CodeAPI
	if status == http.StatusNotFound {
		code = models.CodeNotFound
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return &models.UpstreamError{Service: c.service, Code: code, Status: status, Err: errors.New(msg)}
}

// NewDefaultHTTPClient returns *http.Client with timeout.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
