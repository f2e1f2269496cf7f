package transport

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a request when no client is supplied.
const DefaultTimeout = 30 * time.Second

// NewHTTPClient creates a tuned HTTP client. A nil tlsConfig uses the
// transport defaults.
func NewHTTPClient(tlsConfig *tls.Config, timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                  http.ProxyFromEnvironment,
		DialContext:            dialer.DialContext,
		TLSClientConfig:        tlsConfig,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		IdleConnTimeout:        60 * time.Second,
		MaxIdleConns:           100,
		MaxIdleConnsPerHost:    10,
		MaxConnsPerHost:        50,
		MaxResponseHeaderBytes: 1 << 20, // 1 MiB
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// newLimiter uses 0 or negative for no rate limiting.
func newLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}

	// burst of 1: one request immediately, the rest wait their turn
	return rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
}
