// Package jobboardapi implements the job-board REST backend port over HTTP.
package jobboardapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
	apperrors "github.com/target/jobboard-ui-api/internal/errors"
	"github.com/target/jobboard-ui-api/internal/observability/metrics"
	"github.com/target/jobboard-ui-api/internal/observability/statsd"
	"github.com/target/jobboard-ui-api/internal/ports"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"
)

const maxResponseBytes = 1 << 20

// Config holds the settings shared by every per-client backend client.
type Config struct {
	BaseURL string
	// Timeout bounds a single request when the caller's context has no earlier deadline.
	Timeout time.Duration
	Mapping *Mapping
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// FactoryOptions groups dependencies for Factory.
type FactoryOptions struct {
	// Transport is the shared round tripper; nil uses http.DefaultTransport.
	Transport http.RoundTripper
	Config    Config
}

// Factory creates one Client per browser so backend cookies are never shared between clients.
type Factory struct {
	base      *url.URL
	transport http.RoundTripper
	timeout   time.Duration
	mapping   *Mapping
	logger    *slog.Logger
	metrics   statsd.Sink
}

var _ ports.JobBoardAPIFactory = (*Factory)(nil)

// NewFactory validates the configuration and returns a Factory.
func NewFactory(opts FactoryOptions) (*Factory, error) {
	cfg := opts.Config
	if cfg.Mapping == nil {
		return nil, errors.New("payload mapping is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend base URL must be http or https, got %q", cfg.BaseURL)
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		base:      base,
		transport: transport,
		timeout:   cfg.Timeout,
		mapping:   cfg.Mapping,
		logger:    logger.With("component", "jobboard_api"),
		metrics:   cfg.Metrics,
	}, nil
}

// ForClient returns a backend client with its own cookie jar.
func (f *Factory) ForClient(clientID string) (ports.JobBoardAPI, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		base:    f.base,
		http:    &http.Client{Transport: f.transport, Jar: jar, Timeout: f.timeout},
		mapping: f.mapping,
		logger:  f.logger.With("client_id", clientID),
		metrics: f.metrics,
	}, nil
}

// Client talks to the REST backend on behalf of one browser.
type Client struct {
	base    *url.URL
	http    *http.Client
	mapping *Mapping
	logger  *slog.Logger
	metrics statsd.Sink
}

var _ ports.JobBoardAPI = (*Client)(nil)

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe,omitempty"`
}

type updateSavedRequest struct {
	Saved []string `json:"saved"`
}

// Login exchanges credentials for an account.
func (c *Client) Login(ctx context.Context, creds domainauth.Credentials) (ports.Account, error) {
	payload, err := c.do(ctx, call{
		op:     "login",
		method: http.MethodPost,
		path:   "/auth/login",
		body:   loginRequest{Email: creds.Email, Password: creds.Password, RememberMe: creds.RememberMe},
	})
	if err != nil {
		return ports.Account{}, err
	}
	return c.account("login", payload)
}

// Me fetches the current account of userID.
func (c *Client) Me(ctx context.Context, userID, token string) (ports.Account, error) {
	payload, err := c.do(ctx, call{
		op:     "me",
		method: http.MethodGet,
		path:   "/auth/me/" + url.PathEscape(userID),
		token:  token,
	})
	if err != nil {
		return ports.Account{}, err
	}
	return c.account("me", payload)
}

// Logout ends the backend session. The client's cookies are dropped by the backend's response.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.do(ctx, call{op: "logout", method: http.MethodPost, path: "/auth/logout", token: token})
	return err
}

// UpdateSaved replaces the user's saved list.
func (c *Client) UpdateSaved(ctx context.Context, userID, token string, saved []string) error {
	if saved == nil {
		saved = []string{}
	}
	_, err := c.do(ctx, call{
		op:     "update_saved",
		method: http.MethodPut,
		path:   "/users/" + url.PathEscape(userID),
		token:  token,
		body:   updateSavedRequest{Saved: saved},
	})
	return err
}

func (c *Client) account(op string, payload any) (ports.Account, error) {
	acct, err := c.mapping.Account(payload)
	if err != nil {
		return ports.Account{}, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "Unexpected response from the job board service.")
	}
	if acct.UserID == "" {
		c.logger.Warn("backend response did not identify a user", "op", op)
		return ports.Account{}, apperrors.Unavailable("Unexpected response from the job board service.")
	}
	return acct, nil
}

type call struct {
	op     string
	method string
	path   string
	token  string
	body   any
}

func (c *Client) do(ctx context.Context, in call) (payload any, err error) {
	start := time.Now()
	defer func() { metrics.EmitBackendCall(c.metrics, in.op, time.Since(start), err) }()

	req, err := c.newRequest(ctx, in)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("close backend response body", "op", in.op, "error", closeErr)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(ctx, err)
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if jsonErr := json.Unmarshal(raw, &payload); jsonErr != nil && resp.StatusCode < 300 {
			return nil, apperrors.Wrap(jsonErr, apperrors.ErrCodeUnavailable, "Unexpected response from the job board service.")
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return payload, nil
	}
	return nil, c.statusError(in.op, resp.StatusCode, payload)
}

func (c *Client) newRequest(ctx context.Context, in call) (*http.Request, error) {
	target := c.base.JoinPath(in.path)

	var body io.Reader
	if in.body != nil {
		data, err := json.Marshal(in.body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s request: %w", in.op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, in.method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", in.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if in.token != "" {
		(&oauth2.Token{AccessToken: in.token, TokenType: "Bearer"}).SetAuthHeader(req)
	}
	return req, nil
}

func (c *Client) statusError(op string, status int, payload any) error {
	msg := c.mapping.Message(payload)
	var appErr *apperrors.AppError
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		appErr = apperrors.Unauthorized(orDefault(msg, "Your session is no longer valid. Please sign in again."))
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusConflict:
		appErr = apperrors.Validation(orDefault(msg, "The request was rejected."))
	case http.StatusNotFound:
		appErr = apperrors.NotFound(orDefault(msg, "Not found."))
	default:
		appErr = apperrors.Unavailable("The job board service is unavailable. Please try again later.")
	}
	appErr.Status = status
	c.logger.Debug("backend request failed", "op", op, "status", status, "code", string(appErr.Code))
	return appErr
}

func transportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "Request was canceled.")
	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		return apperrors.Wrap(err, apperrors.ErrCodeTimeout, "The job board service did not respond in time.")
	default:
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "The job board service is unavailable. Please try again later.")
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
