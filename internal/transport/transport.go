// Package transport performs the HTTP exchanges of the client and translates
// transport failures into the apperr taxonomy.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"chirp/internal/apperr"
	"chirp/internal/logging"
	"chirp/internal/metrics"
	"golang.org/x/time/rate"
)

// Hook mutates a request just before dispatch, e.g. to sign it.
type Hook func(req *http.Request) error

// Request carries optional per-request settings.
type Request struct {
	Headers map[string]string
	Hook    Hook
}

// Requester is the operation set the client needs from HTTP.
type Requester interface {
	Get(ctx context.Context, rawURL string, r *Request) (string, error)
	Post(ctx context.Context, rawURL string, payload url.Values, r *Request) (string, error)
}

// Options configures the raw client.
type Options struct {
	Timeout time.Duration
	Proxy   *url.URL
	Limiter *rate.Limiter
}

// Client dispatches requests once, without retrying.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(opts Options) *Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = nil
	if opts.Proxy != nil {
		tr.Proxy = http.ProxyURL(opts.Proxy)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewLimiter(0, 0)
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout, Transport: tr},
		limiter:    limiter,
	}
}

func (c *Client) Get(ctx context.Context, rawURL string, r *Request) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &apperr.HTTPError{Message: err.Error()}
	}
	return c.do(req, r)
}

func (c *Client) Post(ctx context.Context, rawURL string, payload url.Values, r *Request) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(payload.Encode()))
	if err != nil {
		return "", &apperr.HTTPError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, r)
}

func (c *Client) do(req *http.Request, r *Request) (string, error) {
	req.Header.Set("Accept", "application/json")
	if r != nil {
		for k, v := range r.Headers {
			req.Header.Set(k, v)
		}
		if r.Hook != nil {
			if err := r.Hook(req); err != nil {
				return "", err
			}
		}
	}
	if err := c.limiter.Wait(req.Context()); err != nil {
		return "", err
	}
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveRequest(req.Method, 0, start)
		if ctxErr := req.Context().Err(); errors.Is(ctxErr, context.Canceled) {
			return "", ctxErr
		}
		return "", classify(err)
	}
	defer resp.Body.Close()
	metrics.ObserveRequest(req.Method, resp.StatusCode, start)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(err)
	}
	logging.Debug("http_response", map[string]any{"method": req.Method, "url": req.URL.Redacted(), "status": resp.StatusCode})
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &apperr.HTTPError{Code: resp.StatusCode, Message: statusMessage(resp, body)}
	}
	return string(body), nil
}

func statusMessage(resp *http.Response, body []byte) string {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return http.StatusText(resp.StatusCode)
	}
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// transientError marks a failure the retry decorator may retry. It matches
// both its kind (ErrConnection or ErrTimeout) and its cause.
type transientError struct {
	kind  error
	cause error
}

func (e *transientError) Error() string   { return fmt.Sprintf("%v: %v", e.kind, e.cause) }
func (e *transientError) Unwrap() []error { return []error{e.kind, e.cause} }

// IsRetryable reports whether err is a connection-reset or timeout failure.
func IsRetryable(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

func classify(err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return fmt.Errorf("%w: %w", apperr.ErrConnection, err)
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &transientError{kind: apperr.ErrTimeout, cause: err}
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &transientError{kind: apperr.ErrConnection, cause: err}
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%w: %w", apperr.ErrConnection, err)
	}
	return &apperr.HTTPError{Message: err.Error()}
}
