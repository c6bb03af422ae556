// Package transport owns the process-wide pooled HTTP client shared by the
// image fetcher and the prediction dispatcher.
package transport

import (
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"
)

var Config = struct {
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ExpectContinueTimeout time.Duration
	DialTimeout           time.Duration
	KeepAlive             time.Duration
	H2ReadIdleTimeout     time.Duration
	H2PingTimeout         time.Duration
}{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 16,
	IdleConnTimeout:     90 * time.Second,

	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	DialTimeout:           5 * time.Second,
	KeepAlive:             30 * time.Second,

	H2ReadIdleTimeout: 30 * time.Second,
	H2PingTimeout:     15 * time.Second,
}

var sharedTransport = sync.OnceValue(func() *http.Transport {
	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        Config.MaxIdleConns,
		MaxIdleConnsPerHost: Config.MaxIdleConnsPerHost,
		IdleConnTimeout:     Config.IdleConnTimeout,

		TLSHandshakeTimeout:   Config.TLSHandshakeTimeout,
		ExpectContinueTimeout: Config.ExpectContinueTimeout,

		ForceAttemptHTTP2: true,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},

		DialContext: (&net.Dialer{
			Timeout:   Config.DialTimeout,
			KeepAlive: Config.KeepAlive,
		}).DialContext,
	}

	if h2, err := http2.ConfigureTransports(t); err == nil {
		h2.ReadIdleTimeout = Config.H2ReadIdleTimeout
		h2.PingTimeout = Config.H2PingTimeout
	}
	return t
})

// SharedTransport returns the pooled transport, built on first use.
func SharedTransport() *http.Transport {
	return sharedTransport()
}

// NewClient returns a client over the shared transport. Per-request deadlines
// come from the caller's context; timeout is an outer bound.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: SharedTransport(),
		Timeout:   timeout,
	}
}
