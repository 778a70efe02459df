// Package http is the request client used by simulated users. It adds a
// per-request timeout and per-phase timing on top of net/http.
package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"
)

// DefaultTimeout is used for both the request and the network timeout
// unless overridden.
const DefaultTimeout = 30 * time.Second

// Client represents an HTTP client with customizable options
type Client struct {
	httpClient     *http.Client
	transport      http.RoundTripper
	baseURL        string
	requestTimeout time.Duration
	networkTimeout time.Duration
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// NewClient creates a new HTTP client with the given options
func NewClient(options ...ClientOption) *Client {
	client := &Client{
		requestTimeout: DefaultTimeout,
		networkTimeout: DefaultTimeout,
	}

	for _, option := range options {
		option(client)
	}

	if client.transport == nil {
		client.transport = newTransport(client.networkTimeout)
	}

	client.httpClient = &http.Client{
		Transport: client.transport,
		Timeout:   client.networkTimeout,
	}

	return client
}

// newTransport builds a pooled transport whose dial and TLS handshake are
// bounded by the network timeout.
func newTransport(networkTimeout time.Duration) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   networkTimeout,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: networkTimeout,
		MaxIdleConns:        1000,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
}

// WithBaseURL sets the base URL for the client
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the timeout applied to each call. Zero disables it.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.requestTimeout = timeout
	}
}

// WithNetworkTimeout sets the connection-level timeout: dial, TLS handshake
// and the overall http.Client timeout.
func WithNetworkTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.networkTimeout = timeout
	}
}

// WithTransport replaces the default pooled transport
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.transport = rt
	}
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RequestTimeout returns the per-call timeout
func (c *Client) RequestTimeout() time.Duration {
	return c.requestTimeout
}

// Do executes an HTTP request, drains the body and returns the response with
// detailed timing information. The request timeout covers the whole call,
// body included.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	timing := TimingInfo{
		StartTime: time.Now(),
	}

	var dnsStart, connectStart, tlsHandshakeStart time.Time
	lastPhaseEnd := timing.StartTime

	trace := &httptrace.ClientTrace{
		DNSStart: func(info httptrace.DNSStartInfo) {
			dnsStart = time.Now()
		},
		DNSDone: func(info httptrace.DNSDoneInfo) {
			lastPhaseEnd = time.Now()
			timing.DNSLookupTime = lastPhaseEnd.Sub(dnsStart)
		},
		ConnectStart: func(network, addr string) {
			connectStart = time.Now()
		},
		ConnectDone: func(network, addr string, err error) {
			if err == nil {
				lastPhaseEnd = time.Now()
				timing.TCPConnectTime = lastPhaseEnd.Sub(connectStart)
			}
		},
		TLSHandshakeStart: func() {
			tlsHandshakeStart = time.Now()
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			if err == nil {
				lastPhaseEnd = time.Now()
				timing.TLSHandshakeTime = lastPhaseEnd.Sub(tlsHandshakeStart)
			}
		},
		GotFirstResponseByte: func() {
			timing.TimeToFirstByte = time.Since(lastPhaseEnd)
		},
	}

	httpReq, err := req.Build(httptrace.WithClientTrace(ctx, trace), c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    httpResp.Header,
	}

	contentTransferStart := time.Now()
	n, err := io.Copy(io.Discard, httpResp.Body)
	resp.BytesReceived = n
	timing.ContentTransferTime = time.Since(contentTransferStart)
	timing.TotalTime = time.Since(timing.StartTime)
	resp.Timing = timing

	if err != nil {
		return resp, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp, nil
}

// CloseIdleConnections closes pooled connections that are not in use
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}
