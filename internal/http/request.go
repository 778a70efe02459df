package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Request represents an HTTP request relative to the client's base URL
type Request struct {
	Name   string
	Method string
	Path   string
}

// NewRequest creates a new HTTP request. The name used for reporting
// defaults to the path.
func NewRequest(method, path string) *Request {
	return &Request{
		Name:   path,
		Method: method,
		Path:   path,
	}
}

// WithName overrides the name the request is reported under
func (r *Request) WithName(name string) *Request {
	r.Name = name
	return r
}

// URL joins the request path onto baseURL, keeping a trailing slash on the
// path and any query already present on the base.
func (r *Request) URL(baseURL string) (*url.URL, error) {
	reqURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	if reqURL.Path == "" {
		reqURL.Path = r.Path
	} else {
		reqURL.Path = strings.TrimRight(reqURL.Path, "/") + "/" + strings.TrimLeft(r.Path, "/")
	}

	return reqURL, nil
}

// Build constructs an http.Request bound to ctx
func (r *Request) Build(ctx context.Context, baseURL string) (*http.Request, error) {
	reqURL, err := r.URL(baseURL)
	if err != nil {
		return nil, err
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	return http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
}
