package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/docflow/approvals/internal/core/ports"
)

// ErrForeignOrigin is returned for resource URLs outside the API host.
var ErrForeignOrigin = errors.New("resource is not served by the API host")

// ResolveURL resolves a server-relative resource path (e.g. /uploads/a.jpg)
// against the API base URL, keeping any path the base carries. Absolute URLs
// are accepted only on the API's own scheme and host.
func (c *Client) ResolveURL(relative string) (string, error) {
	relative = strings.TrimSpace(relative)
	if relative == "" {
		return "", fmt.Errorf("resolve url: empty path")
	}
	ref, err := url.Parse(relative)
	if err != nil {
		return "", fmt.Errorf("resolve url %q: %w", relative, err)
	}
	if ref.IsAbs() || ref.Host != "" {
		if ref.Scheme == "" {
			ref.Scheme = c.base.Scheme
		}
		if !c.sameOrigin(ref) {
			return "", fmt.Errorf("resolve url %q: %w", relative, ErrForeignOrigin)
		}
		return ref.String(), nil
	}

	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = ""
	u.RawQuery = ref.RawQuery
	u.Fragment = ""
	return u.String(), nil
}

// FetchResource downloads a binary resource (photo, PDF). On the API host it
// follows the same bearer-token and 401 contract as JSON requests; any other
// host is fetched without credentials and cannot affect the session.
func (c *Client) FetchResource(ctx context.Context, absoluteURL string) (*ports.Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, absoluteURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build resource request: %w", err)
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.do(req, req.URL.Path, c.sameOrigin(req.URL))
	if err != nil {
		return nil, err
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(resp.Body)
	}
	return &ports.Resource{Data: resp.Body, ContentType: ct}, nil
}

func (c *Client) sameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, c.base.Scheme) && strings.EqualFold(hostPort(u), hostPort(c.base))
}

// hostPort returns host:port with the scheme's default port filled in.
func hostPort(u *url.URL) string {
	port := u.Port()
	if port == "" {
		switch strings.ToLower(u.Scheme) {
		case "http":
			port = "80"
		case "https":
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port)
}
