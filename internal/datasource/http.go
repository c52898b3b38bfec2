package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
)

// HTTP is a data source that fetches a URL with a plain GET.
type HTTP struct {
	u      *url.URL
	client *http.Client
}

// NewHTTP returns an HTTP source for u using http.DefaultClient.
func NewHTTP(u *url.URL) *HTTP { return &HTTP{u: u, client: http.DefaultClient} }

// Name returns the base name of the URL path.
func (h *HTTP) Name() string { return path.Base(h.u.Path) }

// Open issues the GET and returns the response body. Non-2xx responses are
// errors; the body stream is the caller's to close.
func (h *HTTP) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", h.u, err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", h.u, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: %s", h.u, resp.Status)
	}
	return resp.Body, nil
}
