// Package shorten talks to a configurable URL shortening web service.
package shorten

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chirp/internal/apperr"
	"chirp/internal/config"
	"chirp/internal/logging"
	"chirp/internal/metrics"
	"github.com/Jeffail/gabs"
	"resty.dev/v3"
)

type Shortener struct {
	client  *resty.Client
	service string
	method  string
	param   string
	extra   map[string]string
	path    []string
}

// New validates cfg and builds a shortener. proxy may be nil.
func New(cfg config.ShortenConfig, timeout time.Duration, proxy *url.URL) (*Shortener, error) {
	method := strings.ToUpper(strings.TrimSpace(cfg.Method))
	if method == "" {
		method = http.MethodGet
	}
	if method != http.MethodGet && method != http.MethodPost {
		return nil, fmt.Errorf("%w: shorten.method must be get or post, not %q", apperr.ErrCommandLine, cfg.Method)
	}
	if cfg.ServiceURL == "" {
		return nil, &apperr.RequiredOptionError{Key: "serviceURL", Owner: "shorten"}
	}
	if cfg.URLParam == "" {
		return nil, &apperr.RequiredOptionError{Key: "urlParam", Owner: "shorten"}
	}
	client := resty.New()
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	if proxy != nil {
		client.SetProxy(proxy.String())
	}
	var path []string
	if cfg.ResponsePath != "" {
		path = strings.Split(cfg.ResponsePath, ".")
	}
	return &Shortener{
		client:  client,
		service: cfg.ServiceURL,
		method:  method,
		param:   cfg.URLParam,
		extra:   cfg.ExtraParams,
		path:    path,
	}, nil
}

func (s *Shortener) Close() error { return s.client.Close() }

// Shorten asks the service for a short form of longURL. An empty result
// means the reply did not contain one.
func (s *Shortener) Shorten(ctx context.Context, longURL string) (string, error) {
	params := make(map[string]string, len(s.extra)+1)
	for k, v := range s.extra {
		params[k] = v
	}
	params[s.param] = longURL

	req := s.client.R().WithContext(ctx)
	start := time.Now()
	var (
		resp *resty.Response
		err  error
	)
	if s.method == http.MethodPost {
		resp, err = req.SetFormData(params).Post(s.service)
	} else {
		resp, err = req.SetQueryParams(params).Get(s.service)
	}
	if err != nil {
		metrics.ObserveRequest(s.method, 0, start)
		return "", fmt.Errorf("%w: shortener: %w", apperr.ErrConnection, err)
	}
	metrics.ObserveRequest(s.method, resp.StatusCode(), start)
	body := resp.String()
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return "", &apperr.HTTPError{Code: resp.StatusCode(), Message: strings.TrimSpace(body)}
	}
	parsed, err := gabs.ParseJSON([]byte(body))
	if err != nil {
		return "", &apperr.HTTPError{Message: "shortener reply is not JSON: " + err.Error()}
	}
	short, _ := parsed.Search(s.path...).Data().(string)
	logging.Debug("url_shortened", map[string]any{"long": longURL, "short": short})
	return short, nil
}
