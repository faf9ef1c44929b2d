// Package apiclient is the authenticated resource client of the approval
// backend. Every request reads the stored session token and attaches it as a
// bearer header; a 401 answer clears the stored token before the error is
// returned. There is no retry and no redirect to login: callers decide.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/docflow/approvals/internal/core/domain"
	"github.com/docflow/approvals/internal/core/ports"
	"github.com/docflow/approvals/internal/metrics"
)

const (
	defaultPrefix  = "/api"
	defaultTimeout = 15 * time.Second

	// maxBodyBytes bounds any response body, PDFs included.
	maxBodyBytes = 64 << 20
	// maxMessageRunes bounds a plain-text error body used as a message.
	maxMessageRunes = 200
)

// Config captures the settings of a Client.
type Config struct {
	// BaseURL is the backend host, e.g. https://docs.example.com.
	BaseURL string
	// Prefix is prepended to JSON endpoint paths. Defaults to /api.
	Prefix  string
	Timeout time.Duration
	// HTTPClient overrides the transport; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client issues requests to the backend on behalf of the stored session.
type Client struct {
	base    *url.URL
	prefix  string
	http    *http.Client
	session ports.SessionStore
	log     zerolog.Logger
}

// New returns a Client bound to session.
func New(cfg Config, session ports.SessionStore, log zerolog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("apiclient: base url %q must be absolute", cfg.BaseURL)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	prefix = "/" + strings.Trim(prefix, "/")

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		base:    base,
		prefix:  prefix,
		http:    hc,
		session: session,
		log:     log.With().Str("component", "apiclient").Logger(),
	}, nil
}

// Response is a completed 2xx exchange.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return errors.New("empty response body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Request issues method on the JSON endpoint at path (relative to the API
// prefix). params become the query string; a non-nil body is sent as JSON.
// Non-2xx answers and transport failures are returned as *domain.RequestError.
func (c *Client) Request(ctx context.Context, method, path string, params url.Values, body any) (*Response, error) {
	u := c.endpoint(path)
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, path, true)
}

// do sends req. With authenticated set it attaches the session token and
// applies the 401 contract; otherwise the session is left untouched.
func (c *Client) do(req *http.Request, path string, authenticated bool) (*Response, error) {
	ctx := req.Context()

	if authenticated {
		token, err := c.session.Get(ctx)
		if err != nil {
			// An unreadable store behaves like an absent token.
			c.log.Warn().Err(err).Msg("session token unreadable, sending request unauthenticated")
			token = ""
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(req.Method, 0, start)
		c.log.Debug().Err(err).Str("method", req.Method).Str("path", path).Str("request_id", requestID).Msg("request failed")
		return nil, &domain.RequestError{Kind: domain.KindNetwork, Method: req.Method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.observe(req.Method, resp.StatusCode, start)
	if err != nil {
		return nil, &domain.RequestError{Kind: domain.KindNetwork, Method: req.Method, Path: path, Err: fmt.Errorf("read body: %w", err)}
	}

	c.log.Debug().
		Str("method", req.Method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("duration", time.Since(start)).
		Msg("request completed")

	if authenticated && resp.StatusCode == http.StatusUnauthorized {
		c.invalidate(ctx, "unauthorized")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httpError(req.Method, path, resp.StatusCode, data)
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// invalidate clears the stored token. The clear applies even when the
// caller has already given up on the result.
func (c *Client) invalidate(ctx context.Context, reason string) {
	if err := c.session.Clear(context.WithoutCancel(ctx)); err != nil {
		c.log.Error().Err(err).Str("reason", reason).Msg("failed to clear session token")
		return
	}
	metrics.SessionInvalidationsTotal.WithLabelValues(reason).Inc()
	if reason == "unauthorized" {
		c.log.Warn().Msg("server rejected session, stored token cleared")
	}
}

func (c *Client) observe(method string, status int, start time.Time) {
	metrics.RequestsTotal.WithLabelValues(method, metrics.Outcome(status)).Inc()
	metrics.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

func (c *Client) endpoint(path string) *url.URL {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + c.prefix + "/" + strings.TrimLeft(path, "/")
	return &u
}

// errorBody covers the error envelopes the backend emits.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Details any    `json:"details"`
}

func httpError(method, path string, status int, body []byte) *domain.RequestError {
	e := &domain.RequestError{Kind: domain.KindHTTP, Method: method, Path: path, Status: status}

	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		e.Message = eb.Message
		if e.Message == "" {
			e.Message = eb.Error
		}
		e.Details = eb.Details
		return e
	}

	e.Message = truncate(strings.TrimSpace(string(body)), maxMessageRunes)
	return e
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

var (
	_ ports.ItemGateway     = (*Client)(nil)
	_ ports.UserGateway     = (*Client)(nil)
	_ ports.AuthGateway     = (*Client)(nil)
	_ ports.ResourceFetcher = (*Client)(nil)
)
