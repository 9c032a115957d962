package transport

import (
	"context"
	"net/url"
	"syscall"
	"testing"
	"time"

	"chirp/internal/apperr"
	"github.com/stretchr/testify/require"
)

type scriptedRequester struct {
	failures []error
	calls    int
}

func (s *scriptedRequester) next() (string, error) {
	s.calls++
	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		return "", err
	}
	return "ok", nil
}

func (s *scriptedRequester) Get(context.Context, string, *Request) (string, error) { return s.next() }
func (s *scriptedRequester) Post(context.Context, string, url.Values, *Request) (string, error) {
	return s.next()
}

type warnings []string

func (w *warnings) Warn(msg string) { *w = append(*w, msg) }

func reset() error { return &transientError{kind: apperr.ErrConnection, cause: syscall.ECONNRESET} }
func timeout() error {
	return &transientError{kind: apperr.ErrTimeout, cause: context.DeadlineExceeded}
}

func newRetrying(inner Requester, w Warner, waits *[]time.Duration) *Retrying {
	r := NewRetrying(inner, DefaultPolicy, w)
	r.Sleep = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return r
}

func TestRetryRecoversBeforeLimit(t *testing.T) {
	for k := 0; k <= DefaultPolicy.MaxRetries; k++ {
		failures := make([]error, k)
		for i := range failures {
			failures[i] = reset()
		}
		inner := &scriptedRequester{failures: failures}
		var warns warnings
		var waits []time.Duration
		body, err := newRetrying(inner, &warns, &waits).Get(context.Background(), "http://h/x", nil)
		require.NoError(t, err)
		require.Equal(t, "ok", body)
		require.Len(t, warns, k)
		require.Equal(t, k+1, inner.calls)
		want := []time.Duration{4 * time.Second, 16 * time.Second, 64 * time.Second}[:k]
		if k == 0 {
			require.Empty(t, waits)
		} else {
			require.Equal(t, want, waits)
		}
	}
}

func TestRetryGivesUpAfterMaxRetries(t *testing.T) {
	inner := &scriptedRequester{failures: []error{timeout(), timeout(), timeout(), timeout(), timeout()}}
	var warns warnings
	var waits []time.Duration
	_, err := newRetrying(inner, &warns, &waits).Post(context.Background(), "http://h/x", url.Values{}, nil)
	require.ErrorIs(t, err, apperr.ErrTimeout)
	require.Equal(t, 4, inner.calls)
	require.Equal(t, warnings{
		"Could not connect -- retrying in 4 seconds",
		"Could not connect -- retrying in 16 seconds",
		"Could not connect -- retrying in 64 seconds",
	}, warns)
	require.Equal(t, []time.Duration{4 * time.Second, 16 * time.Second, 64 * time.Second}, waits)
}

func TestRetrySkipsPermanentFailures(t *testing.T) {
	inner := &scriptedRequester{failures: []error{&apperr.HTTPError{Code: 500, Message: "boom"}}}
	var warns warnings
	var waits []time.Duration
	_, err := newRetrying(inner, &warns, &waits).Get(context.Background(), "http://h/x", nil)
	require.True(t, apperr.IsStatus(err, 500))
	require.Equal(t, 1, inner.calls)
	require.Empty(t, warns)
}

func TestRetrySleepHonoursContext(t *testing.T) {
	inner := &scriptedRequester{failures: []error{reset()}}
	r := NewRetrying(inner, Policy{MaxRetries: 3, Base: 4}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Get(ctx, "http://h/x", nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, inner.calls)
}

func TestPolicyWait(t *testing.T) {
	require.Equal(t, 4*time.Second, DefaultPolicy.Wait(1))
	require.Equal(t, 64*time.Second, DefaultPolicy.Wait(3))
	require.Equal(t, time.Second, Policy{Base: 1}.Wait(5))
}
