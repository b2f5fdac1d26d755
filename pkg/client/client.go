// Package client is a typed HTTP client for the imposter API. It keeps no session state:
// verification session ids and bearer tokens are passed to each call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkghttp "github.com/BradenHooton/imposter/pkg/http"
)

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Game struct {
	GameID        string    `json:"gameId"`
	PlayerCount   int       `json:"playerCount"`
	PlayerNames   []string  `json:"playerNames"`
	AssignedWords []string  `json:"assignedWords"`
	ImposterIndex int       `json:"imposterIndex"`
	Category      string    `json:"category,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type RegisterResponse struct {
	Message               string `json:"message"`
	Email                 string `json:"email"`
	VerificationSessionID string `json:"verificationSessionId"`
}

type ResendOTPResponse struct {
	Message               string `json:"message"`
	VerificationSessionID string `json:"verificationSessionId"`
}

type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

type CreateGameResponse struct {
	Message string `json:"message"`
	Game    Game   `json:"game"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// APIError is returned for any non-2xx response
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    []pkghttp.FieldError
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("imposter api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("imposter api: status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Ping(ctx context.Context) (string, error) {
	var out messageResponse
	if err := c.do(ctx, http.MethodGet, "/api/ping", "", nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*RegisterResponse, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var out RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyEmail(ctx context.Context, sessionID, otp string) (string, error) {
	body := map[string]string{"verificationSessionId": sessionID, "otp": otp}
	var out messageResponse
	if err := c.do(ctx, http.MethodPost, "/auth/verify-email", "", body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) ResendOTP(ctx context.Context, email string) (*ResendOTPResponse, error) {
	var out ResendOTPResponse
	if err := c.do(ctx, http.MethodPost, "/auth/resend-otp", "", map[string]string{"email": email}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context, token string) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/profile", token, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) CreateGame(ctx context.Context, gameID string, playerNames []string) (*Game, error) {
	body := map[string]any{
		"gameId":      gameID,
		"playerCount": len(playerNames),
		"playerNames": playerNames,
	}
	var out CreateGameResponse
	if err := c.do(ctx, http.MethodPost, "/game/create", "", body, &out); err != nil {
		return nil, err
	}
	return &out.Game, nil
}

func (c *Client) GetGame(ctx context.Context, token, gameID string) (*Game, error) {
	var out Game
	if err := c.do(ctx, http.MethodGet, "/game/"+url.PathEscape(gameID), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody pkghttp.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
			apiErr.Code = errBody.Error
			apiErr.Message = errBody.Message
			apiErr.Details = errBody.Details
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
