// Package xclient composes transport, authorization and normalization into
// the user-facing Twitter operations.
package xclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"chirp/internal/apperr"
	"chirp/internal/config"
	"chirp/internal/logging"
	"chirp/internal/metrics"
	"chirp/internal/oauth"
	"chirp/internal/obfuscate"
	"chirp/internal/shorten"
	"chirp/internal/store/journal"
	"chirp/internal/transport"
	"chirp/internal/tweet"
	"github.com/dghubble/oauth1"
)

// UI is the presentation collaborator.
type UI interface {
	Info(msg string)
	Warn(msg string)
	Prompt(text string) (string, error)
	Confirm(text string) (bool, error)
	ShowTweets(tweets []tweet.Tweet)
	ShowStatusPreview(text string)
}

type Shortener interface {
	Shorten(ctx context.Context, longURL string) (string, error)
}

type Journal interface {
	RecordUpdate(ctx context.Context, t tweet.Tweet, at time.Time) error
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// Op joins search words.
type Op int

const (
	OpAnd Op = iota
	OpOr
)

type Options struct {
	Config *config.Config
	UI     UI
	// Shortener overrides the configured service. When nil and shortening
	// is enabled, one is built from the config.
	Shortener Shortener
	// Journal is optional.
	Journal Journal
	// Requester overrides the retrying HTTP transport.
	Requester transport.Requester
}

type Client struct {
	cfg       *config.Config
	ui        UI
	auth      *oauth.Authorizer
	rest      transport.Resource
	search    transport.Resource
	shortener Shortener
	journal   Journal
	count     int
	page      int
}

func New(opts Options) (*Client, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, &apperr.RequiredOptionError{Key: "config", Owner: "xclient"}
	}
	if opts.UI == nil {
		return nil, &apperr.RequiredOptionError{Key: "ui", Owner: "xclient"}
	}
	if cfg.Timeline.Count < 1 {
		return nil, fmt.Errorf("%w: timeline.count must be at least 1, got %d", apperr.ErrCommandLine, cfg.Timeline.Count)
	}
	if cfg.Timeline.Page < 1 {
		return nil, fmt.Errorf("%w: timeline.page must be at least 1, got %d", apperr.ErrCommandLine, cfg.Timeline.Page)
	}
	proxy, err := transport.ParseProxy(cfg.Network.Proxy)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.API.TimeoutSeconds) * time.Second

	shortener := opts.Shortener
	if shortener == nil && cfg.Shorten.Enabled {
		s, err := shorten.New(cfg.Shorten, timeout, proxy)
		if err != nil {
			return nil, err
		}
		shortener = s
	}

	requester := opts.Requester
	if requester == nil {
		raw := transport.NewClient(transport.Options{
			Timeout: timeout,
			Proxy:   proxy,
			Limiter: transport.NewLimiter(cfg.API.RPS, cfg.API.Burst),
		})
		requester = transport.NewRetrying(raw, transport.DefaultPolicy, opts.UI)
	}

	var stored *oauth.Credential
	if cfg.Credentials.OAuthAccess != "" {
		plain, err := obfuscate.Read(cfg.Credentials.OAuthAccess)
		if err != nil {
			return nil, err
		}
		cred, err := oauth.ParseCredential(plain)
		if err != nil {
			return nil, err
		}
		stored = &cred
	}
	auth, err := oauth.New(oauth.Options{
		ConsumerKey:    cfg.Credentials.ConsumerKey,
		ConsumerSecret: cfg.Credentials.ConsumerSecret,
		Resource:       transport.NewResource(cfg.API.OAuthBase, requester),
		UI:             opts.UI,
		Credential:     stored,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		cfg:       cfg,
		ui:        opts.UI,
		auth:      auth,
		rest:      transport.NewResource(cfg.API.RestBase, requester).WithHook(auth.Signer()),
		search:    transport.NewResource(cfg.API.SearchBase, requester),
		shortener: shortener,
		journal:   opts.Journal,
		count:     cfg.Timeline.Count,
		page:      cfg.Timeline.Page,
	}, nil
}

// Authorizer exposes the OAuth state, mainly for the init command.
func (c *Client) Authorizer() *oauth.Authorizer { return c.auth }

// Authorize runs the PIN flow and stores the new access token in the config.
func (c *Client) Authorize(ctx context.Context) error {
	cred, err := c.auth.Authorize(ctx)
	if err != nil {
		return err
	}
	metrics.Reauthorizations.Inc()
	c.cfg.Credentials.OAuthAccess = obfuscate.Write(cred.Encode())
	c.cfg.AdoptUsername(c.auth.ScreenName())
	if err := c.cfg.Persist(); err != nil {
		logging.Error("config_persist_failed", map[string]any{"path": c.cfg.Path(), "error": err.Error()})
		c.ui.Warn("Could not save the access token to " + c.cfg.Path() + ": " + err.Error())
	}
	return nil
}

// withReauth runs f and, if the service rejects the credentials once,
// authorizes again and repeats f a single time.
func (c *Client) withReauth(ctx context.Context, f func() (string, error)) (string, error) {
	body, err := f()
	if err == nil {
		return body, nil
	}
	if !apperr.IsStatus(err, http.StatusUnauthorized) && !errors.Is(err, oauth.ErrNoAccessToken) {
		return "", err
	}
	logging.Info("reauthorize", map[string]any{"cause": err.Error()})
	if err := c.Authorize(ctx); err != nil {
		return "", err
	}
	return f()
}

// fetch GETs res and normalizes the reply. Only signed resources are
// re-authorized on a 401; the search host takes no credentials.
func (c *Client) fetch(ctx context.Context, res transport.Resource, signed bool, query string, listPath []string, paths tweet.FieldPaths) ([]tweet.Tweet, error) {
	get := func() (string, error) { return res.Get(ctx, query) }
	var (
		body string
		err  error
	)
	if signed {
		body, err = c.withReauth(ctx, get)
	} else {
		body, err = get()
	}
	if err != nil {
		return nil, err
	}
	tweets, err := tweet.FromJSON(body, listPath, paths, c.ui.Warn)
	if err != nil {
		return nil, err
	}
	c.ui.ShowTweets(tweets)
	return tweets, nil
}

func (c *Client) pageQuery(extra map[string]string) string {
	params := map[string]string{
		"count": strconv.Itoa(c.count),
		"page":  strconv.Itoa(c.page),
	}
	for k, v := range extra {
		params[k] = v
	}
	return encodeQuery(params)
}

func (c *Client) Home(ctx context.Context) ([]tweet.Tweet, error) {
	return c.fetch(ctx, c.rest.Sub("statuses", "home_timeline.json"), true, c.pageQuery(nil), nil, tweet.RESTStatusPaths)
}

func (c *Client) Mentions(ctx context.Context) ([]tweet.Tweet, error) {
	return c.fetch(ctx, c.rest.Sub("statuses", "mentions.json"), true, c.pageQuery(nil), nil, tweet.RESTStatusPaths)
}

// User lists the statuses of who, or of the configured account when who is empty.
func (c *Client) User(ctx context.Context, who string) ([]tweet.Tweet, error) {
	who = strings.TrimSpace(who)
	if who == "" {
		who = c.cfg.Account.Username
	}
	if who == "" {
		return nil, fmt.Errorf("%w: no user given and no account username configured", apperr.ErrArgument)
	}
	q := c.pageQuery(map[string]string{"screen_name": who})
	return c.fetch(ctx, c.rest.Sub("statuses", "user_timeline.json"), true, q, nil, tweet.RESTStatusPaths)
}

func (c *Client) Friends(ctx context.Context) ([]tweet.Tweet, error) {
	return c.fetch(ctx, c.rest.Sub("statuses", "friends.json"), true, c.pageQuery(nil), nil, tweet.RESTUserPaths)
}

func (c *Client) Followers(ctx context.Context) ([]tweet.Tweet, error) {
	return c.fetch(ctx, c.rest.Sub("statuses", "followers.json"), true, c.pageQuery(nil), nil, tweet.RESTUserPaths)
}

// Search finds statuses containing all words (OpAnd) or any of them (OpOr).
func (c *Client) Search(ctx context.Context, words []string, op Op) ([]tweet.Tweet, error) {
	var kept []string
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: at least one search word is required", apperr.ErrArgument)
	}
	sep := " "
	if op == OpOr {
		sep = " OR "
	}
	q := "q=" + oauth1.PercentEncode(strings.Join(kept, sep)) + "&" +
		encodeQuery(map[string]string{"page": strconv.Itoa(c.page), "rpp": strconv.Itoa(c.count)})
	return c.fetch(ctx, c.search.Sub("search.json"), false, q, []string{"results"}, tweet.SearchPaths)
}

// History lists journaled updates, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]tweet.Tweet, error) {
	if c.journal == nil {
		c.ui.Info("No update journal is configured.")
		return nil, nil
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: history limit must be at least 1", apperr.ErrArgument)
	}
	entries, err := c.journal.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	tweets := make([]tweet.Tweet, 0, len(entries))
	for _, e := range entries {
		tweets = append(tweets, e.Tweet())
	}
	c.ui.ShowTweets(tweets)
	return tweets, nil
}

// encodeQuery renders params sorted by key, percent-encoded with %20 for spaces.
func encodeQuery(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, oauth1.PercentEncode(k)+"="+oauth1.PercentEncode(m[k]))
	}
	return strings.Join(parts, "&")
}
