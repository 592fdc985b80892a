// Package userapi is the HTTP boundary to the hospital records API that owns
// user accounts. It speaks the {success, data, message} envelope and turns
// every failure into an *internal.AppError. It never retries.
package userapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/rsms-admin/internal"
	userDatamodel "github.com/frahmantamala/rsms-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/rsms-admin/internal/session"
	"github.com/frahmantamala/rsms-admin/pkg/logger"
)

const maxResponseBytes = 4 << 20

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	creds      session.Source
	logger     *slog.Logger
}

// NewClient builds a client that reads its credential from creds on every call.
func NewClient(config Config, creds session.Source, lg *slog.Logger) *Client {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
		creds:      creds,
		logger:     lg,
	}
}

func (c *Client) Login(ctx context.Context, username, password string) (*userDatamodel.LoginResponse, error) {
	var out userDatamodel.LoginResponse
	req := userDatamodel.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, EndpointLogin, 0, req, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, internal.NewTransportError(EndpointLogin.FailureMessage, internal.ErrCodeMalformedResponse, fmt.Errorf("login response has no token"))
	}
	return &out, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]userDatamodel.UserRecord, error) {
	var out []userDatamodel.UserRecord
	if err := c.do(ctx, EndpointListUsers, 0, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []userDatamodel.UserRecord{}
	}
	return out, nil
}

func (c *Client) GetUser(ctx context.Context, id int64) (*userDatamodel.UserRecord, error) {
	var out userDatamodel.UserRecord
	if err := c.do(ctx, EndpointGetUser, id, nil, &out); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		return nil, internal.ErrUserNotFound
	}
	return &out, nil
}

// CreateUser registers a new account. The returned record may be nil when
// the backend answers without data.
func (c *Client) CreateUser(ctx context.Context, req userDatamodel.CreateUserRequest) (*userDatamodel.UserRecord, error) {
	var out userDatamodel.UserRecord
	if err := c.do(ctx, EndpointCreateUser, 0, req, &out); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		return nil, nil
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, id int64, req userDatamodel.UpdateUserRequest) error {
	return c.do(ctx, EndpointUpdateUser, id, req, nil)
}

func (c *Client) DeactivateUser(ctx context.Context, id int64) error {
	return c.do(ctx, EndpointDeleteUser, id, nil, nil)
}

func (c *Client) SetPassword(ctx context.Context, id int64, password string) error {
	return c.do(ctx, EndpointSetPassword, id, userDatamodel.PasswordRequest{Password: password}, nil)
}

func (c *Client) ResetPasswordToDefault(ctx context.Context, id int64) error {
	return c.do(ctx, EndpointResetPassword, id, struct{}{}, nil)
}

func (c *Client) SetStatus(ctx context.Context, id int64, isActive bool) error {
	return c.do(ctx, EndpointSetStatus, id, userDatamodel.StatusRequest{IsActive: isActive}, nil)
}

func (c *Client) ActivityLogs(ctx context.Context, id int64) ([]userDatamodel.ActivityLogEntry, error) {
	var out []userDatamodel.ActivityLogEntry
	if err := c.do(ctx, EndpointActivityLogs, id, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []userDatamodel.ActivityLogEntry{}
	}
	return out, nil
}

func (c *Client) Stats(ctx context.Context, id int64) (*userDatamodel.UserStats, error) {
	var out userDatamodel.UserStats
	if err := c.do(ctx, EndpointUserStats, id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, ep Endpoint, id int64, body, out interface{}) error {
	start := time.Now()
	status, err := c.roundTrip(ctx, ep, id, body, out)
	elapsed := time.Since(start)
	observe(ep.Operation, err, elapsed)

	if err != nil {
		c.logger.Warn("records api call failed",
			"operation", ep.Operation,
			"user_id", id,
			"status_code", status,
			"duration_ms", elapsed.Milliseconds(),
			"error", err)
		return err
	}
	c.logger.Debug("records api call",
		"operation", ep.Operation,
		"user_id", id,
		"status_code", status,
		"duration_ms", elapsed.Milliseconds())
	return nil
}

func (c *Client) roundTrip(ctx context.Context, ep Endpoint, id int64, body, out interface{}) (int, error) {
	var token string
	if ep.Authorized {
		var err error
		token, err = session.Resolve(ctx, c.creds)
		if err != nil {
			return 0, err
		}
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return 0, internal.NewInternalError("failed to marshal request", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	ctx, cancel := internal.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, ep.Method, c.baseURL+ep.Resolve(id), reader)
	if err != nil {
		return 0, internal.NewInternalError("failed to create HTTP request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, internal.NewTransportError(ep.FailureMessage, internal.ErrCodeUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, internal.NewTransportError(ep.FailureMessage, internal.ErrCodeUpstreamUnavailable, err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	var env userDatamodel.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if !ok {
			return resp.StatusCode, internal.ErrorFromStatus(resp.StatusCode, "", ep.FailureMessage)
		}
		return resp.StatusCode, internal.NewTransportError(ep.FailureMessage, internal.ErrCodeMalformedResponse, fmt.Errorf("decode envelope: %w", err))
	}

	if !ok || !env.Success {
		return resp.StatusCode, internal.ErrorFromStatus(resp.StatusCode, env.Message, ep.FailureMessage)
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return resp.StatusCode, internal.NewTransportError(ep.FailureMessage, internal.ErrCodeMalformedResponse, fmt.Errorf("decode data: %w", err))
	}
	return resp.StatusCode, nil
}

// Ping checks that the records API answers HTTP at all. Any status counts
// as reachable; only network failures are reported.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := internal.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+EndpointListUsers.Path, nil)
	if err != nil {
		return internal.NewInternalError("failed to create HTTP request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return internal.NewTransportError("records api unreachable", internal.ErrCodeUpstreamUnavailable, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}
