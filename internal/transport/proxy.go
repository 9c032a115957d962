package transport

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"chirp/internal/apperr"
)

const defaultProxyPort = "8080"

// ParseProxy accepts "host", "host:port" or a full URL. An empty string means
// no proxy. A malformed port is a configuration error.
func ParseProxy(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: proxy %q: %v", apperr.ErrCommandLine, raw, err)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: proxy %q has no host", apperr.ErrCommandLine, raw)
	}
	port := u.Port()
	if port == "" {
		port = defaultProxyPort
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return nil, fmt.Errorf("%w: proxy %q has invalid port", apperr.ErrCommandLine, raw)
	}
	u.Host = net.JoinHostPort(host, port)
	return u, nil
}
