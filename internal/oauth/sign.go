package oauth

import (
	"fmt"
	"io"
	"math/rand"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
)

// signer produces OAuth 1.0a HMAC-SHA1 Authorization headers.
type signer struct {
	consumerKey string
	hmac        *oauth1.HMACSigner
	nowFn       func() time.Time
	nonceFn     func() string
}

func newSigner(consumerKey, consumerSecret string) *signer {
	return &signer{
		consumerKey: consumerKey,
		hmac:        &oauth1.HMACSigner{ConsumerSecret: consumerSecret},
		nowFn:       time.Now,
		nonceFn:     func() string { return strconv.FormatInt(rand.Int63(), 36) },
	}
}

// sign sets the Authorization header on req. The signature covers the query
// string, a form-encoded body, and the oauth_* parameters (extra included).
func (s *signer) sign(req *http.Request, token, tokenSecret string, extra map[string]string) error {
	oauth := map[string]string{
		"oauth_consumer_key":     s.consumerKey,
		"oauth_nonce":            s.nonceFn(),
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        strconv.FormatInt(s.nowFn().Unix(), 10),
		"oauth_version":          "1.0",
	}
	if token != "" {
		oauth["oauth_token"] = token
	}
	for k, v := range extra {
		oauth[k] = v
	}
	params, err := requestParams(req)
	if err != nil {
		return err
	}
	for k, v := range oauth {
		params = append(params, [2]string{k, v})
	}
	// Parameter string
	encoded := make([]string, 0, len(params))
	for _, p := range params {
		encoded = append(encoded, oauth1.PercentEncode(p[0])+"="+oauth1.PercentEncode(p[1]))
	}
	sort.Strings(encoded)
	paramStr := strings.Join(encoded, "&")
	base := strings.ToUpper(req.Method) + "&" + oauth1.PercentEncode(baseURL(req.URL)) + "&" + oauth1.PercentEncode(paramStr)
	sig, err := s.hmac.Sign(tokenSecret, base)
	if err != nil {
		return fmt.Errorf("oauth: sign: %w", err)
	}
	oauth["oauth_signature"] = sig
	// Authorization header
	hdrKeys := make([]string, 0, len(oauth))
	for k := range oauth {
		hdrKeys = append(hdrKeys, k)
	}
	sort.Strings(hdrKeys)
	authParts := make([]string, 0, len(hdrKeys))
	for _, k := range hdrKeys {
		authParts = append(authParts, fmt.Sprintf("%s=\"%s\"", oauth1.PercentEncode(k), oauth1.PercentEncode(oauth[k])))
	}
	req.Header.Set("Authorization", "OAuth "+strings.Join(authParts, ", "))
	return nil
}

// requestParams collects query and form-body parameters without consuming the body.
func requestParams(req *http.Request) ([][2]string, error) {
	var out [][2]string
	for k, vs := range req.URL.Query() {
		for _, v := range vs {
			out = append(out, [2]string{k, v})
		}
	}
	ct, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if ct != "application/x-www-form-urlencoded" || req.GetBody == nil {
		return out, nil
	}
	rc, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	form, err := url.ParseQuery(string(b))
	if err != nil {
		return nil, fmt.Errorf("oauth: form body: %w", err)
	}
	for k, vs := range form {
		for _, v := range vs {
			out = append(out, [2]string{k, v})
		}
	}
	return out, nil
}

func baseURL(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	if (scheme == "http" && strings.HasSuffix(host, ":80")) || (scheme == "https" && strings.HasSuffix(host, ":443")) {
		host = host[:strings.LastIndex(host, ":")]
	}
	return scheme + "://" + host + u.EscapedPath()
}
