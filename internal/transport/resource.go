package transport

import (
	"context"
	"net/url"
	"strings"
)

// Resource is a Requester scoped to a base URL. Narrowing it with Sub keeps
// the requester (and so its retry policy and proxy) and any signing hook.
type Resource struct {
	base      string
	requester Requester
	hook      Hook
}

func NewResource(base string, r Requester) Resource {
	return Resource{base: strings.TrimRight(base, "/"), requester: r}
}

// Sub appends path segments to the resource URL.
func (r Resource) Sub(segments ...string) Resource {
	out := r
	for _, s := range segments {
		out.base += "/" + url.PathEscape(s)
	}
	return out
}

// WithHook returns a copy that runs h on every request.
func (r Resource) WithHook(h Hook) Resource {
	out := r
	out.hook = h
	return out
}

func (r Resource) URL() string { return r.base }

// Get fetches the resource; query is an already-encoded query string.
func (r Resource) Get(ctx context.Context, query string) (string, error) {
	u := r.base
	if query != "" {
		u += "?" + query
	}
	return r.requester.Get(ctx, u, r.request())
}

func (r Resource) Post(ctx context.Context, payload url.Values) (string, error) {
	return r.requester.Post(ctx, r.base, payload, r.request())
}

func (r Resource) request() *Request {
	if r.hook == nil {
		return nil
	}
	return &Request{Hook: r.hook}
}
