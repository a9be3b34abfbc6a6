// Package adminclient talks to the admin API on behalf of the CLI.
package adminclient

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

	"github.com/rs/zerolog"

	"github.com/edvin/saasadmin/internal/model"
	"github.com/edvin/saasadmin/internal/wizard"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode        int
	Message           string
	RetryAfterSeconds int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API returned %d: %s", e.StatusCode, e.Message)
}

// Client is safe for concurrent use once the token is set.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger
}

func New(baseURL, token string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With().Str("component", "admin-client").Logger(),
	}
}

func (c *Client) SetToken(token string) { c.token = token }

// Initiate implements wizard.Backend.
func (c *Client) Initiate(ctx context.Context, email string) error {
	err := c.do(ctx, http.MethodPost, "/auth/login/initiate", map[string]string{"email": email}, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests && apiErr.RetryAfterSeconds > 0 {
		return &wizard.CooldownError{RetryAfter: time.Duration(apiErr.RetryAfterSeconds) * time.Second}
	}
	return err
}

// VerifyOTP implements wizard.Backend.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	var out struct {
		Challenge string `json:"challenge"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login/verify-otp", map[string]string{"email": email, "otp": code}, &out); err != nil {
		return "", err
	}
	return out.Challenge, nil
}

// Login implements wizard.Backend.
func (c *Client) Login(ctx context.Context, challenge, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"challenge": challenge, "password": password}, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Me returns the signed-in admin.
func (c *Client) Me(ctx context.Context) (*model.AdminUser, error) {
	var u model.AdminUser
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Export streams the CSV export of resource into w, passing query through
// as list filters. It returns the number of bytes written.
func (c *Client) Export(ctx context.Context, resource string, query url.Values, w io.Writer) (int64, error) {
	path := "/api/v1/" + url.PathEscape(resource) + "/export"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("read %s export: %w", resource, err)
	}
	return n, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	resp, err := c.send(ctx, method, path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	var decoded struct {
		Error             string `json:"error"`
		RetryAfterSeconds int    `json:"retry_after_seconds"`
	}
	if json.Unmarshal(raw, &decoded) == nil && decoded.Error != "" {
		apiErr.Message = decoded.Error
		apiErr.RetryAfterSeconds = decoded.RetryAfterSeconds
	}
	c.logger.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("api error")
	return nil, apiErr
}
