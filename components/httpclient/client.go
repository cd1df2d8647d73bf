package httpclient

import (
	"fmt"
	"net/http"
	"time"
)

// Settings configures the client's timeout and connection pool.
type Settings struct {
	TimeoutMS           int64 `hcl:"timeout_ms,optional"`
	MaxIdleConns        int   `hcl:"max_idle_conns,optional"`
	MaxIdleConnsPerHost int   `hcl:"max_idle_conns_per_host,optional"`
}

// Client is a configured HTTP client that releases its idle connections when
// the container shuts down.
type Client struct {
	*http.Client
}

// Close implements io.Closer for container-managed shutdown.
func (c *Client) Close() error {
	c.CloseIdleConnections()
	return nil
}

// New builds a pooled HTTP client. Zero-valued settings fall back to a 10s
// timeout and the pool sizes below.
func New(s Settings) (*Client, error) {
	if s.TimeoutMS < 0 {
		return nil, fmt.Errorf("timeout_ms must not be negative, got %d", s.TimeoutMS)
	}

	timeout := 10 * time.Second
	if s.TimeoutMS > 0 {
		timeout = time.Duration(s.TimeoutMS) * time.Millisecond
	}

	maxIdle := s.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 100
	}
	maxIdlePerHost := s.MaxIdleConnsPerHost
	if maxIdlePerHost == 0 {
		maxIdlePerHost = 10
	}

	return &Client{
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        maxIdle,
				MaxIdleConnsPerHost: maxIdlePerHost,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}
