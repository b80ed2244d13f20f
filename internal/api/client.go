// Package api provides the completion endpoint client.
package api

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"go.uber.org/zap"

	"github.com/diogo/supportchat/internal/models"
)

// DefaultTimeout bounds a single request when no timeout is configured
const DefaultTimeout = 120 * time.Second

// HTTPDoer is the subset of tls_client.HttpClient the client needs
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ChatClientInterface is implemented by Client and by test doubles
type ChatClientInterface interface {
	Complete(ctx context.Context, messages []models.Message) (string, error)
	Endpoint() string
	Close()
}

// Client posts conversations to a completion endpoint
type Client struct {
	httpClient HTTPDoer
	endpoint   string
	timeout    time.Duration
	proxy      string
	headers    map[string]string
	logger     *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// Ensure Client implements ChatClientInterface
var _ ChatClientInterface = (*Client)(nil)

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithEndpoint sets the completion endpoint URL
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithTimeout sets the transport timeout; zero keeps the default
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithProxy routes requests through an HTTP or SOCKS5 proxy
func WithProxy(proxy string) ClientOption {
	return func(c *Client) {
		c.proxy = proxy
	}
}

// WithHeaders adds static headers to every request
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithHTTPClient replaces the transport (used by tests)
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Client. Without WithHTTPClient a tls-client transport
// with a browser profile is built.
func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		endpoint: models.DefaultEndpoint,
		timeout:  DefaultTimeout,
		headers:  models.DefaultHeaders(),
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if err := ValidateEndpoint(client.endpoint); err != nil {
		return nil, err
	}

	if client.httpClient == nil {
		httpClient, err := newTLSClient(client.timeout, client.proxy)
		if err != nil {
			return nil, err
		}
		client.httpClient = httpClient
	}

	return client, nil
}

func newTLSClient(timeout time.Duration, proxy string) (tls_client.HttpClient, error) {
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(int(timeout / time.Second)),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithNotFollowRedirects(),
	}
	if proxy != "" {
		options = append(options, tls_client.WithProxyUrl(proxy))
	}

	httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return httpClient, nil
}

// ValidateEndpoint checks that endpoint is an absolute http(s) URL
func ValidateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}
	return nil
}

// Endpoint returns the configured endpoint URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Close marks the client closed; later requests fail
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
