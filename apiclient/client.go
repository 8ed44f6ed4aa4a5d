// Package apiclient wraps net/http for the marketplace REST API. Requests
// carry the session's bearer token and a cookie jar; a 401 triggers at most
// one refresh and one replay.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/jrsteele09/marketplace-client/internal/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const DefaultTimeout = 30 * time.Second

// Session is the slice of the session manager the client needs. It is bound
// after construction because the manager itself talks through the client.
type Session interface {
	// Token returns the current access token, nil when signed out.
	Token() *oauth2.Token
	// Refresh obtains a new access token. stale is the token the failed
	// request used; when the session has already moved past it no network
	// call is made.
	Refresh(ctx context.Context, stale string) error
	// Expire tears the session down locally after a refresh cycle failed.
	Expire(ctx context.Context, cause error)
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  zerolog.Logger

	mu      sync.RWMutex
	session Session
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client. Its jar, when nil, is
// filled with a fresh in-memory jar.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.http.Jar = jar
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "invalid API base URL %q", baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	return c, nil
}

// Timeout is the per-request bound, zero when unbounded.
func (c *Client) Timeout() time.Duration {
	return c.http.Timeout
}

// Bind attaches the session whose token is sent and refreshed.
func (c *Client) Bind(s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

func (c *Client) currentSession() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Request describes one API call. Path is relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   Body
	Header http.Header
}

type attemptState int

const (
	stateIdle attemptState = iota
	stateRefreshing
	stateRetried
)

// Do sends an authenticated request and decodes a JSON response into out
// (which may be nil). A 401 moves the call through idle, refreshing and
// retried; a second 401 expires the session.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	sess := c.currentSession()
	state := stateIdle
	for {
		used := accessToken(sess)
		resp, err := c.send(ctx, req, used)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusUnauthorized {
			return c.decode(resp, req, out)
		}
		apiErr := readError(resp, req)
		// Without a bearer there is no session to refresh; only login and
		// restore may create one.
		if sess == nil || used == "" {
			return apiErr
		}

		switch state {
		case stateIdle:
			state = stateRefreshing
			c.logger.Debug().Str("method", req.Method).Str("path", req.Path).Msg("access token rejected, refreshing")
			if err := sess.Refresh(ctx, used); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// An interrupted refresh says nothing about the session.
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				sess.Expire(ctx, err)
				return errors.Wrapf(errors.ErrAuthExpired, "refresh failed: %v", err)
			}
			state = stateRetried
		case stateRetried:
			c.logger.Info().Str("method", req.Method).Str("path", req.Path).Msg("replayed request rejected, expiring session")
			sess.Expire(ctx, apiErr)
			return apiErr
		}
	}
}

// Raw sends a request without the 401 refresh path. Auth endpoints use it so
// a failing refresh can never recurse into another refresh.
func (c *Client) Raw(ctx context.Context, req Request, out any) error {
	resp, err := c.send(ctx, req, accessToken(c.currentSession()))
	if err != nil {
		return err
	}
	return c.decode(resp, req, out)
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) Post(ctx context.Context, path string, body Body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func (c *Client) Patch(ctx context.Context, path string, body Body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, out)
}

func accessToken(s Session) string {
	if s == nil {
		return ""
	}
	if t := s.Token(); t != nil {
		return t.AccessToken
	}
	return ""
}

// URL resolves path against the base URL.
func (c *Client) URL(path string, query url.Values) string {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// send builds a fresh http.Request, body included, for every attempt.
func (c *Client) send(ctx context.Context, req Request, bearer string) (*http.Response, error) {
	var (
		body        io.Reader
		contentType string
	)
	if req.Body != nil {
		var err error
		body, contentType, err = req.Body.build()
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidRequest, "encode %s %s body: %v", req.Method, req.Path, err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.URL(req.Path, req.Query), body)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "build %s %s: %v", req.Method, req.Path, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if bearer != "" {
		(&oauth2.Token{AccessToken: bearer, TokenType: "Bearer"}).SetAuthHeader(httpReq)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn().Err(err).Str("method", req.Method).Str("path", req.Path).Msg("api request failed")
		return nil, fmt.Errorf("%w: %s %s: %w", errors.ErrNetwork, req.Method, req.Path, err)
	}
	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")
	return resp, nil
}

func (c *Client) decode(resp *http.Response, req Request, out any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		return readError(resp, req)
	}
	defer resp.Body.Close()
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("%w: decode %s %s: %w", errors.ErrNetwork, req.Method, req.Path, err)
	}
	return nil
}
