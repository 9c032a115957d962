// Package oauth runs the OAuth 1.0a PIN ("out of band") flow and signs
// API requests with the resulting access token.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"chirp/internal/apperr"
	"chirp/internal/logging"
	"chirp/internal/transport"
	"github.com/dghubble/oauth1"
)

// ErrNoAccessToken is returned by the signer before authorization has run.
var ErrNoAccessToken = errors.New("oauth: no access token")

// State is the position of the authorizer in the PIN flow.
type State int

const (
	Unauthorized State = iota
	RequestTokenObtained
	UserPromptedForPin
	AccessTokenObtained
)

func (s State) String() string {
	switch s {
	case Unauthorized:
		return "unauthorized"
	case RequestTokenObtained:
		return "request_token_obtained"
	case UserPromptedForPin:
		return "user_prompted_for_pin"
	case AccessTokenObtained:
		return "access_token_obtained"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// UI is the part of the terminal the flow talks to.
type UI interface {
	Info(msg string)
	Prompt(msg string) (string, error)
}

type Options struct {
	ConsumerKey    string
	ConsumerSecret string
	// Resource is the OAuth base, e.g. https://api.twitter.com.
	Resource transport.Resource
	UI       UI
	// Credential is a previously stored access token, if any.
	Credential *Credential
}

type Authorizer struct {
	config oauth1.Config
	base   transport.Resource
	ui     UI
	signer *signer

	mu         sync.Mutex
	state      State
	access     *Credential
	screenName string
}

func New(opts Options) (*Authorizer, error) {
	if opts.ConsumerKey == "" {
		return nil, &apperr.RequiredOptionError{Key: "consumer_key", Owner: "oauth"}
	}
	if opts.ConsumerSecret == "" {
		return nil, &apperr.RequiredOptionError{Key: "consumer_secret", Owner: "oauth"}
	}
	base := opts.Resource.URL()
	a := &Authorizer{
		config: oauth1.Config{
			ConsumerKey:    opts.ConsumerKey,
			ConsumerSecret: opts.ConsumerSecret,
			CallbackURL:    "oob",
			Endpoint: oauth1.Endpoint{
				RequestTokenURL: base + "/oauth/request_token",
				AuthorizeURL:    base + "/oauth/authorize",
				AccessTokenURL:  base + "/oauth/access_token",
			},
		},
		base:   opts.Resource,
		ui:     opts.UI,
		signer: newSigner(opts.ConsumerKey, opts.ConsumerSecret),
	}
	if opts.Credential != nil {
		c := *opts.Credential
		a.access = &c
		a.state = AccessTokenObtained
	}
	return a, nil
}

func (a *Authorizer) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// ScreenName is the account name reported by the last access-token exchange.
func (a *Authorizer) ScreenName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.screenName
}

// Signer returns a hook that signs requests with the current access token.
func (a *Authorizer) Signer() transport.Hook {
	return func(req *http.Request) error {
		a.mu.Lock()
		access := a.access
		a.mu.Unlock()
		if access == nil {
			return ErrNoAccessToken
		}
		return a.signer.sign(req, access.Key, access.Secret, nil)
	}
}

func (a *Authorizer) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
	logging.Debug("oauth_state", map[string]any{"state": s.String()})
}

// Authorize runs the PIN flow end to end and installs the new access token.
func (a *Authorizer) Authorize(ctx context.Context) (Credential, error) {
	a.setState(Unauthorized)

	// Request token
	body, err := a.base.Sub("oauth", "request_token").WithHook(func(req *http.Request) error {
		return a.signer.sign(req, "", "", map[string]string{"oauth_callback": "oob"})
	}).Post(ctx, nil)
	if err != nil {
		return Credential{}, danceError("request token", err)
	}
	vals, err := url.ParseQuery(body)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: unreadable request token response", apperr.ErrAuthorization)
	}
	reqToken, reqSecret := vals.Get("oauth_token"), vals.Get("oauth_token_secret")
	if reqToken == "" || reqSecret == "" || vals.Get("oauth_callback_confirmed") != "true" {
		return Credential{}, fmt.Errorf("%w: request token was not issued", apperr.ErrAuthorization)
	}
	a.setState(RequestTokenObtained)

	// User authorization
	authURL, err := a.config.AuthorizationURL(reqToken)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %w", apperr.ErrAuthorization, err)
	}
	a.ui.Info("Please authorize this client at " + authURL.String())
	a.setState(UserPromptedForPin)
	pin, err := a.ui.Prompt("Enter PIN")
	if err != nil {
		return Credential{}, err
	}
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return Credential{}, fmt.Errorf("%w: no PIN given", apperr.ErrAuthorization)
	}

	// Access token
	body, err = a.base.Sub("oauth", "access_token").WithHook(func(req *http.Request) error {
		return a.signer.sign(req, reqToken, reqSecret, map[string]string{"oauth_verifier": pin})
	}).Post(ctx, nil)
	if err != nil {
		return Credential{}, danceError("access token", err)
	}
	vals, err = url.ParseQuery(body)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: unreadable access token response", apperr.ErrAuthorization)
	}
	cred := Credential{Key: vals.Get("oauth_token"), Secret: vals.Get("oauth_token_secret")}
	if cred.Key == "" || cred.Secret == "" {
		return Credential{}, fmt.Errorf("%w: access token was not issued", apperr.ErrAuthorization)
	}

	a.mu.Lock()
	a.access = &cred
	a.screenName = vals.Get("screen_name")
	a.mu.Unlock()
	a.setState(AccessTokenObtained)
	logging.Info("oauth_authorized", map[string]any{"screen_name": a.ScreenName()})
	return cred, nil
}

// danceError marks rejected token exchanges as authorization failures.
func danceError(step string, err error) error {
	if apperr.IsClientError(err) {
		return fmt.Errorf("%w: %s rejected: %w", apperr.ErrAuthorization, step, err)
	}
	return err
}
