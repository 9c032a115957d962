package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"chirp/internal/apperr"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestClient(timeout time.Duration) *Client {
	return NewClient(Options{Timeout: timeout, Limiter: rate.NewLimiter(rate.Inf, 1)})
}

func TestGetReturnsBodyAndRunsHook(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "signed", r.Header.Get("Authorization"))
		require.Equal(t, "v", r.Header.Get("X-Extra"))
		require.Equal(t, "count=20&page=1", r.URL.RawQuery)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	c := newTestClient(time.Second)
	body, err := c.Get(context.Background(), ts.URL+"/x?count=20&page=1", &Request{
		Headers: map[string]string{"X-Extra": "v"},
		Hook: func(req *http.Request) error {
			req.Header.Set("Authorization", "signed")
			return nil
		},
	})
	require.NoError(t, err)
	require.Equal(t, "[]", body)
}

func TestPostSendsForm(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "hello world", r.PostForm.Get("status"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	body, err := newTestClient(time.Second).Post(context.Background(), ts.URL, url.Values{"status": {"hello world"}}, nil)
	require.NoError(t, err)
	require.Equal(t, "{}", body)
}

func TestHookErrorAbortsDispatch(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer ts.Close()

	boom := errors.New("no token")
	_, err := newTestClient(time.Second).Get(context.Background(), ts.URL, &Request{Hook: func(*http.Request) error { return boom }})
	require.ErrorIs(t, err, boom)
	require.False(t, called)
}

func TestStatusFailureIsHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Could not authenticate you.", http.StatusUnauthorized)
	}))
	defer ts.Close()

	_, err := newTestClient(time.Second).Get(context.Background(), ts.URL, nil)
	var he *apperr.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, 401, he.Code)
	require.Equal(t, "Could not authenticate you.", he.Message)
	require.False(t, IsRetryable(err))
}

func TestTimeoutIsRetryable(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	_, err := newTestClient(50*time.Millisecond).Get(context.Background(), ts.URL, nil)
	require.ErrorIs(t, err, apperr.ErrTimeout)
	require.True(t, IsRetryable(err))
}

func TestDroppedConnectionIsRetryable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _, err := w.(http.Hijacker).Hijack()
		require.NoError(t, err)
		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.SetLinger(0)
		}
		_ = conn.Close()
	}))
	defer ts.Close()

	_, err := newTestClient(time.Second).Get(context.Background(), ts.URL, nil)
	require.ErrorIs(t, err, apperr.ErrConnection)
	require.True(t, IsRetryable(err))
}

func TestClassifyNonRetryable(t *testing.T) {
	dns := classify(&url.Error{Op: "Get", URL: "http://nowhere.invalid", Err: &net.DNSError{Err: "no such host", Name: "nowhere.invalid"}})
	require.ErrorIs(t, dns, apperr.ErrConnection)
	require.False(t, IsRetryable(dns))

	other := classify(errors.New("malformed HTTP response"))
	var he *apperr.HTTPError
	require.ErrorAs(t, other, &he)
	require.Equal(t, 0, he.Code)
	require.False(t, IsRetryable(other))

	eof := classify(&url.Error{Op: "Get", URL: "http://x", Err: io.EOF})
	require.True(t, IsRetryable(eof))
	require.ErrorIs(t, eof, io.EOF)
}

func TestResourceSubKeepsHookAndRequester(t *testing.T) {
	var gotPath, gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	root := NewResource(ts.URL+"/", newTestClient(time.Second)).WithHook(func(req *http.Request) error {
		req.Header.Set("Authorization", "OAuth x")
		return nil
	})
	res := root.Sub("statuses").Sub("home_timeline.json")
	require.Equal(t, ts.URL+"/statuses/home_timeline.json", res.URL())

	body, err := res.Get(context.Background(), "count=1")
	require.NoError(t, err)
	require.Equal(t, "ok", body)
	require.Equal(t, "/statuses/home_timeline.json", gotPath)
	require.Equal(t, "OAuth x", gotAuth)
}

func TestParseProxy(t *testing.T) {
	u, err := ParseProxy("proxy.local")
	require.NoError(t, err)
	require.Equal(t, "http://proxy.local:8080", u.String())

	u, err = ParseProxy("http://user@proxy.local:3128")
	require.NoError(t, err)
	require.Equal(t, "proxy.local:3128", u.Host)

	u, err = ParseProxy("  ")
	require.NoError(t, err)
	require.Nil(t, u)

	for _, bad := range []string{"proxy.local:abc", "proxy.local:99999", "http://:80"} {
		_, err = ParseProxy(bad)
		require.ErrorIs(t, err, apperr.ErrCommandLine, bad)
	}
}

func TestProxyIsUsed(t *testing.T) {
	var sawAbsolute string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAbsolute = r.URL.String()
		_, _ = w.Write([]byte("via proxy"))
	}))
	defer proxy.Close()

	pu, err := ParseProxy(proxy.URL)
	require.NoError(t, err)
	c := NewClient(Options{Timeout: time.Second, Proxy: pu, Limiter: rate.NewLimiter(rate.Inf, 1)})
	body, err := c.Get(context.Background(), "http://api.example.test/1.1/x.json", nil)
	require.NoError(t, err)
	require.Equal(t, "via proxy", body)
	require.Equal(t, "http://api.example.test/1.1/x.json", sawAbsolute)
}

func TestNewLimiterDefaults(t *testing.T) {
	l := NewLimiter(0, -1)
	require.Equal(t, rate.Limit(2), l.Limit())
	require.Equal(t, 10, l.Burst())

	l = NewLimiter(0.5, 3)
	require.Equal(t, rate.Limit(0.5), l.Limit())
	require.Equal(t, 3, l.Burst())
}
