// Package transport issues asynchronous HTTP requests carrying a serialized
// form payload and delivers each outcome as a Response.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrStatus  = errors.New("unexpected status")
	ErrRequest = errors.New("request failed")
	ErrHandler = errors.New("response handler failed")
)

const (
	// FormContentType is sent with POST payloads.
	FormContentType = "application/x-www-form-urlencoded"
	// TextContentType is sent with payloads of other methods.
	TextContentType = "text/plain;charset=UTF-8"
	// RequestIDHeader carries the per-request correlation id.
	RequestIDHeader = "X-Request-Id"
)

// Request describes one call. Query is the serialized payload.
type Request struct {
	URL     string
	Method  string
	NoCache bool
	Query   string
	// Redact lists values masked in debug dumps.
	Redact []string
}

// Response is the outcome of a Request. Err is nil only when the request
// completed with status 200.
type Response struct {
	Method    string
	URL       string
	RequestID string
	Status    int
	Header    http.Header
	Body      []byte
	Duration  time.Duration
	Err       error
}

// OK reports whether the request completed successfully.
func (r Response) OK() bool {
	return r.Err == nil && r.Status == http.StatusOK
}

// Text returns the body as a string.
func (r Response) Text() string {
	return string(r.Body)
}

// Handler receives every Response. A returned error or a panic is reported to
// the client's error hook and never propagates.
type Handler func(Response) error

// Dispatcher runs handlers on a chosen goroutine.
type Dispatcher interface {
	Post(fn func())
}

// Call tracks one in-flight request.
type Call struct {
	done       chan struct{}
	resp       Response
	handlerErr error
}

// Done is closed after the handler returned.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the handler returned or ctx ends.
func (c *Call) Wait(ctx context.Context) (Response, error) {
	select {
	case <-c.done:
		return c.resp, c.handlerErr
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Client sends requests. The zero value is not usable; use New.
type Client struct {
	http       *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	dispatcher Dispatcher
	onError    func(Response, error)
	baseURL    *url.URL
	dump       bool
	salt       string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRateLimit throttles to requestsPerSecond. Zero or negative disables it.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(c *Client) {
		c.limiter = newLimiter(requestsPerSecond)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDispatcher routes handler invocations through d.
func WithDispatcher(d Dispatcher) Option {
	return func(c *Client) {
		c.dispatcher = d
	}
}

// WithErrorHook registers fn for handler failures.
func WithErrorHook(fn func(Response, error)) Option {
	return func(c *Client) {
		c.onError = fn
	}
}

// WithBaseURL resolves relative request URLs against base.
func WithBaseURL(base *url.URL) Option {
	return func(c *Client) {
		c.baseURL = base
	}
}

// WithDump logs redacted request and response dumps at debug level.
func WithDump(enabled bool) Option {
	return func(c *Client) {
		c.dump = enabled
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		http:    NewHTTPClient(nil, DefaultTimeout),
		limiter: newLimiter(0),
		logger:  zap.NewNop(),
		salt:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends req in the background and returns immediately. h may be nil.
func (c *Client) Do(ctx context.Context, req Request, h Handler) *Call {
	call := &Call{done: make(chan struct{})}

	go func() {
		resp := c.send(ctx, req)
		deliver := func() {
			call.resp = resp
			call.handlerErr = c.invoke(h, resp)
			close(call.done)
		}

		if c.dispatcher != nil {
			c.dispatcher.Post(deliver)
			return
		}
		deliver()
	}()

	return call
}

func (c *Client) invoke(h Handler, resp Response) (err error) {
	if h == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrHandler, r)
		}
		if err != nil {
			c.logger.Warn("response handler failed",
				zap.String("request_id", resp.RequestID),
				zap.String("url", resp.URL),
				zap.Error(err))
			if c.onError != nil {
				c.onError(resp, err)
			}
		}
	}()

	if herr := h(resp); herr != nil {
		return fmt.Errorf("%w: %w", ErrHandler, herr)
	}
	return nil
}

func (c *Client) send(ctx context.Context, req Request) Response {
	method := NormalizeMethod(req.Method)
	resp := Response{
		Method:    method,
		URL:       c.resolve(BuildURL(method, req.URL, req.Query, req.NoCache, Now())),
		RequestID: uuid.NewString(),
	}

	httpReq, err := newHTTPRequest(ctx, method, resp.URL, req.Query)
	if err != nil {
		resp.Err = fmt.Errorf("%w: %w", ErrRequest, err)
		return resp
	}
	httpReq.Header.Set(RequestIDHeader, resp.RequestID)

	if err := c.limiter.Wait(ctx); err != nil {
		resp.Err = fmt.Errorf("%w: rate limiting interrupted: %w", ErrRequest, err)
		return resp
	}

	c.logger.Debug("request started",
		zap.String("request_id", resp.RequestID),
		zap.String("method", method),
		zap.String("url", resp.URL))
	c.dumpRequest(httpReq, req.Redact)

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		resp.Duration = time.Since(start)
		resp.Err = fmt.Errorf("%w: %w", ErrRequest, err)
		c.logger.Debug("request failed",
			zap.String("request_id", resp.RequestID),
			zap.Error(err))
		return resp
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	resp.Duration = time.Since(start)
	resp.Status = httpResp.StatusCode
	resp.Header = httpResp.Header
	resp.Body = body

	switch {
	case err != nil:
		resp.Err = fmt.Errorf("%w: failed to read response body: %w", ErrRequest, err)
	case httpResp.StatusCode != http.StatusOK:
		resp.Err = fmt.Errorf("%w: %d", ErrStatus, httpResp.StatusCode)
	}

	c.logger.Debug("request finished",
		zap.String("request_id", resp.RequestID),
		zap.Int("status", resp.Status),
		zap.Duration("duration", resp.Duration))
	c.dumpResponse(httpResp, body, req.Redact)

	return resp
}

func (c *Client) resolve(raw string) string {
	if c.baseURL == nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil || ref.IsAbs() {
		return raw
	}
	return c.baseURL.ResolveReference(ref).String()
}

func newHTTPRequest(ctx context.Context, method, requestURL, query string) (*http.Request, error) {
	var body io.Reader
	if hasBody(method) {
		body = strings.NewReader(query)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	switch {
	case method == MethodPost:
		req.Header.Set("Content-Type", FormContentType)
	case body != nil:
		req.Header.Set("Content-Type", TextContentType)
	}

	return req, nil
}

func (c *Client) dumpRequest(req *http.Request, secrets []string) {
	if !c.dump {
		return
	}
	dump, err := DumpRequestRedacted(req, secrets, c.salt)
	if err != nil {
		c.logger.Debug("request dump failed", zap.Error(err))
		return
	}
	c.logger.Debug("request dump", zap.ByteString("dump", dump))
}

func (c *Client) dumpResponse(resp *http.Response, body []byte, secrets []string) {
	if !c.dump {
		return
	}
	dump, err := DumpResponseRedacted(resp, body, secrets, c.salt)
	if err != nil {
		c.logger.Debug("response dump failed", zap.Error(err))
		return
	}
	c.logger.Debug("response dump", zap.ByteString("dump", dump))
}
