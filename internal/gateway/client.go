// Package gateway is the typed HTTP client for the support backend.
// The backend exposes five operations: login, signup, history fetch,
// and the two message sends (basic and full pipeline).
package gateway

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

	"github.com/desklinehq/deskline/internal/types"
)

// Send calls cover a multi-agent pipeline run on the server, so they
// get a far longer deadline than auth and history lookups.
const (
	defaultTimeout = 20 * time.Second
	sendTimeout    = 120 * time.Second
)

// APIError represents a non-2xx response from the backend.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend error (%d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend error (%d)", e.Status)
}

// The backend wraps errors as {"detail": ...} where detail is usually
// a string but can be a validation structure.
type apiErrorPayload struct {
	Detail any `json:"detail"`
}

// IsAuthError reports whether err is a 401 or 403 from the backend.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

// Client talks to the support backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	sendClient *http.Client
}

// NewClient constructs a backend client. token may be empty for the
// login and signup calls.
func NewClient(baseURL, token string) (*Client, error) {
	normalized, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    normalized,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		sendClient: &http.Client{Timeout: sendTimeout},
	}, nil
}

// SetToken attaches a bearer token to subsequent requests. Used right
// after login, before the first authenticated call.
func (c *Client) SetToken(token string) {
	c.token = token
}

// NormalizeBaseURL validates a backend base URL and trims trailing
// slashes.
func NormalizeBaseURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("server url cannot be empty")
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("server url must include scheme (http:// or https://)")
	}
	value = strings.TrimRight(value, "/")
	return value, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var resp AuthResponse
	req := loginRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, c.httpClient, http.MethodPost, "/v1/auth/login", nil, req, &resp); err != nil {
		return AuthResponse{}, err
	}
	return resp, nil
}

// Register creates an account and returns a token, so a fresh signup
// is already logged in.
func (c *Client) Register(ctx context.Context, email, password, fullName string) (AuthResponse, error) {
	var resp AuthResponse
	req := signupRequest{Email: email, Password: password, FullName: fullName}
	if err := c.doJSON(ctx, c.httpClient, http.MethodPost, "/v1/auth/signup", nil, req, &resp); err != nil {
		return AuthResponse{}, err
	}
	return resp, nil
}

// History fetches the flat transcript of every conversation the user
// has had, oldest first.
func (c *Client) History(ctx context.Context, email string) ([]types.HistoryRecord, error) {
	var resp []types.HistoryRecord
	query := url.Values{}
	query.Set("email", email)
	if err := c.doJSON(ctx, c.httpClient, http.MethodGet, "/v1/auth/history", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SendMessage performs a basic send: the message goes straight to the
// current conversation state without a fresh pipeline run. Used to
// answer a pending confirmation.
func (c *Client) SendMessage(ctx context.Context, req SendRequest) (*types.PipelineResult, error) {
	var resp types.PipelineResult
	if err := c.doJSON(ctx, c.sendClient, http.MethodPost, "/v1/message", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendPipelineMessage performs a full pipeline send: triage, database
// lookup, policy check, resolution.
func (c *Client) SendPipelineMessage(ctx context.Context, req SendRequest) (*types.PipelineResult, error) {
	var resp types.PipelineResult
	if err := c.doJSON(ctx, c.sendClient, http.MethodPost, "/v1/pipeline", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) doJSON(ctx context.Context, client *http.Client, method, path string, query url.Values, reqBody any, respBody any) error {
	endpoint, err := c.buildURL(path, query)
	if err != nil {
		return err
	}

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, respData)
	}

	if respBody == nil || len(respData) == 0 {
		return nil
	}
	return json.Unmarshal(respData, respBody)
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	var payload apiErrorPayload
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != nil {
		switch detail := payload.Detail.(type) {
		case string:
			apiErr.Detail = detail
		default:
			if data, err := json.Marshal(detail); err == nil {
				apiErr.Detail = string(data)
			}
		}
	}
	if apiErr.Detail == "" {
		apiErr.Detail = strings.TrimSpace(string(body))
	}
	return apiErr
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	return endpoint.String(), nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// AuthResponse is returned by both login and signup.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
}

// Principal converts an auth response into stored credentials.
func (r AuthResponse) Principal() types.Principal {
	return types.Principal{
		Email:    r.Email,
		FullName: r.FullName,
		Token:    r.AccessToken,
	}
}

// SendRequest is the body of both send operations.
type SendRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	UserEmail      string `json:"user_email,omitempty"`
}
