package backend

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultPort        = 8000
	DefaultIdleTimeout = 60 * time.Second

	textStreamPath  = "/api/chat/stream"
	audioStreamPath = "/api/chat/audio/stream"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	ErrStreamIdle       = errors.New("stream idle timeout")
)

// AddressForHost returns the backend address colocated with host.
func AddressForHost(host string) string {
	if host == "" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(DefaultPort))
}

type Client struct {
	baseURL     string
	httpClient  *http.Client
	idleTimeout time.Duration
}

type ClientOption func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithIdleTimeout aborts a stream when no bytes arrive for d. Zero disables
// the timeout.
func WithIdleTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.idleTimeout = d
	}
}

func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("backend address is empty")
	}

	client := &Client{
		baseURL:     baseURL,
		idleTimeout: DefaultIdleTimeout,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}
