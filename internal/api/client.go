// Package api is the client for the journal REST backend. Authentication is
// cookie based: the session cookie lives in the client's jar and mutating
// requests echo the CSRF cookie back in a header.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/logging"
)

const maxBodyBytes = 8 << 20

// Config holds the backend connection settings.
type Config struct {
	BaseURL    string
	CSRFPath   string
	CSRFCookie string
	CSRFHeader string
	Timeout    time.Duration
}

// DefaultConfig returns the settings for a Sanctum-style backend. A zero
// Timeout leaves the HTTP client without one.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:8000",
		CSRFPath:   "/sanctum/csrf-cookie",
		CSRFCookie: "XSRF-TOKEN",
		CSRFHeader: "X-XSRF-TOKEN",
		Timeout:    0,
	}
}

// Client talks to the journal backend. Each call is a single request; there
// is no retry.
type Client struct {
	cfg    Config
	base   *url.URL
	http   *http.Client
	jar    http.CookieJar
	loc    *time.Location
	logger zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLocation sets the location trade dates are read in.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		c.loc = loc
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for cfg. Empty CSRF settings fall back to the
// defaults.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	def := DefaultConfig()
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("%w: base url is empty", apperrors.ErrConfigInvalid)
	}
	if cfg.CSRFPath == "" {
		cfg.CSRFPath = def.CSRFPath
	}
	if cfg.CSRFCookie == "" {
		cfg.CSRFCookie = def.CSRFCookie
	}
	if cfg.CSRFHeader == "" {
		cfg.CSRFHeader = def.CSRFHeader
	}
	if cfg.Timeout < 0 {
		cfg.Timeout = def.Timeout
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid base url %q", apperrors.ErrConfigInvalid, cfg.BaseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c := &Client{
		cfg:    cfg,
		base:   base,
		jar:    jar,
		loc:    time.Local,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = &http.Client{Timeout: cfg.Timeout, Jar: jar}
	return c, nil
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Cookies returns the cookies the jar holds for the backend.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.base)
}

// SetCookies loads previously saved cookies into the jar.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	c.jar.SetCookies(c.base, cookies)
}

// ClearCookies drops every cookie for the backend.
func (c *Client) ClearCookies() {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return
	}
	c.jar = jar
	c.http.Jar = jar
}

// CSRFToken returns the current CSRF cookie value, unescaped, or "".
func (c *Client) CSRFToken() string {
	for _, ck := range c.jar.Cookies(c.base) {
		if ck.Name != c.cfg.CSRFCookie {
			continue
		}
		if v, err := url.QueryUnescape(ck.Value); err == nil {
			return v
		}
		return ck.Value
	}
	return ""
}

// EnsureCSRF fetches a fresh CSRF cookie from the backend.
func (c *Client) EnsureCSRF(ctx context.Context) error {
	req, err := c.NewRequest(ctx, http.MethodGet, c.cfg.CSRFPath, nil, nil)
	if err != nil {
		return err
	}
	if err := c.Do(req, nil); err != nil {
		return err
	}
	if c.CSRFToken() == "" {
		return fmt.Errorf("%w: backend did not set %s", apperrors.ErrCSRFMismatch, c.cfg.CSRFCookie)
	}
	return nil
}

// NewRequest builds a request against the backend. q, if non-nil, is
// encoded with `url` struct tags; body, if non-nil, is sent as JSON.
func (c *Client) NewRequest(ctx context.Context, method, path string, q interface{}, body interface{}) (*http.Request, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	if q != nil {
		v, err := query.Values(q)
		if err != nil {
			return nil, fmt.Errorf("failed to encode query: %w", err)
		}
		u.RawQuery = v.Encode()
	}

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// errorResponse is the error body shape of the backend.
type errorResponse struct {
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

func (e errorResponse) text() string {
	if s := strings.TrimSpace(e.Message); s != "" {
		return s
	}
	if s := strings.TrimSpace(e.Error); s != "" {
		return s
	}
	for _, msgs := range e.Errors {
		if len(msgs) > 0 {
			return msgs[0]
		}
	}
	return ""
}

// Do sends req and decodes a 2xx JSON body into out. Mutating requests carry
// the CSRF header; a missing token is fetched first.
func (c *Client) Do(req *http.Request, out interface{}) error {
	b, err := c.send(req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return apperrors.NewDataError("response", req.URL.Path, "unexpected response body", err)
	}
	return nil
}

// requestLogger prefers the logger carried by ctx, which names the
// operation, over the client's own.
func (c *Client) requestLogger(ctx context.Context) zerolog.Logger {
	if logger := logging.FromContext(ctx); logger.GetLevel() != zerolog.Disabled {
		return logger
	}
	return c.logger
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	logger := c.requestLogger(req.Context())
	if isMutating(req.Method) {
		token := c.CSRFToken()
		if token == "" {
			if err := c.EnsureCSRF(req.Context()); err != nil {
				return nil, err
			}
			token = c.CSRFToken()
		}
		req.Header.Set(c.cfg.CSRFHeader, token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		err = fmt.Errorf("%s %s: %w: %w", req.Method, req.URL.Path, apperrors.ErrConnectionFailed, err)
		logging.LogAPICall(logger, req.Method, req.URL.Path, 0, time.Since(start), err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		err = fmt.Errorf("%s %s: %w: %w", req.Method, req.URL.Path, apperrors.ErrConnectionFailed, err)
		logging.LogAPICall(logger, req.Method, req.URL.Path, resp.StatusCode, time.Since(start), err)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var er errorResponse
		msg := ""
		if err := json.Unmarshal(b, &er); err == nil {
			msg = er.text()
		}
		var payload map[string]interface{}
		if err := json.Unmarshal(b, &payload); err == nil && len(payload) > 0 {
			logger.Debug().
				Str("endpoint", req.URL.Path).
				Interface("response", logging.RedactFields(payload)).
				Msg("API error response")
		}
		apiErr := apperrors.NewAPIError(resp.StatusCode, req.Method, req.URL.Path, msg)
		logging.LogAPICall(logger, req.Method, req.URL.Path, resp.StatusCode, time.Since(start), apiErr)
		return nil, apiErr
	}

	logging.LogAPICall(logger, req.Method, req.URL.Path, resp.StatusCode, time.Since(start), nil)
	return b, nil
}

// raw performs a request and returns the undecoded 2xx body.
func (c *Client) raw(ctx context.Context, method, path string, q, body interface{}) ([]byte, error) {
	req, err := c.NewRequest(ctx, method, path, q, body)
	if err != nil {
		return nil, err
	}
	return c.send(req)
}

// call performs a request and decodes the response into out.
func (c *Client) call(ctx context.Context, method, path string, q, body, out interface{}) error {
	req, err := c.NewRequest(ctx, method, path, q, body)
	if err != nil {
		return err
	}
	return c.Do(req, out)
}

// unwrapData returns the value under a top-level "data" key if the body is
// an object that has one, and the body itself otherwise.
func unwrapData(b []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return trimmed
	}
	if data, ok := env["data"]; ok {
		return data
	}
	return trimmed
}
