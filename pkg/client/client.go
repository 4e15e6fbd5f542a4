package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/naveenspark/investa/pkg/domain"
)

// DefaultTimeout bounds every API call when no other timeout is configured.
const DefaultTimeout = 10 * time.Second

// Client is the storefront auth API client.
type Client struct {
	baseURL    string
	prefix     string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a new API client. Requests go to baseURL+prefix+path.
func New(baseURL, prefix string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		prefix:  strings.TrimRight(prefix, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithToken returns a copy of the client that sends token on every request.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

type sendSMSRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type verifySMSRequest struct {
	PhoneNumber      string `json:"phone_number"`
	VerificationCode string `json:"verification_code"`
}

type registerRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	UserName    string `json:"user_name,omitempty"`
}

type loginRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// SendSMS asks the backend to text a verification code to phone.
func (c *Client) SendSMS(ctx context.Context, phone string) (*domain.APIResponse, error) {
	if err := domain.ValidatePhone(phone); err != nil {
		return nil, fmt.Errorf("client.SendSMS: %w", err)
	}
	var resp domain.APIResponse
	err := c.post(ctx, "/auth/send-sms", sendSMSRequest{PhoneNumber: phone}, &resp)
	if err != nil {
		return nil, fmt.Errorf("client.SendSMS: %w", classify(err, map[int]error{
			http.StatusBadRequest:          ErrInvalidPhone,
			http.StatusUnprocessableEntity: ErrInvalidPhone,
		}))
	}
	return &resp, nil
}

// VerifySMS confirms a code previously sent to phone.
func (c *Client) VerifySMS(ctx context.Context, phone, code string) (*domain.APIResponse, error) {
	if err := domain.ValidatePhone(phone); err != nil {
		return nil, fmt.Errorf("client.VerifySMS: %w", err)
	}
	if err := domain.ValidateCode(code); err != nil {
		return nil, fmt.Errorf("client.VerifySMS: %w", err)
	}
	var resp domain.APIResponse
	err := c.post(ctx, "/auth/verify-sms", verifySMSRequest{PhoneNumber: phone, VerificationCode: code}, &resp)
	if err != nil {
		return nil, fmt.Errorf("client.VerifySMS: %w", classify(err, map[int]error{
			http.StatusBadRequest:          ErrCodeMismatch,
			http.StatusUnauthorized:        ErrCodeMismatch,
			http.StatusUnprocessableEntity: ErrCodeMismatch,
		}))
	}
	return &resp, nil
}

// Register creates an account and returns its first session.
func (c *Client) Register(ctx context.Context, phone, password, name string) (*domain.LoginResponse, error) {
	if err := domain.ValidatePhone(phone); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	var resp domain.LoginResponse
	req := registerRequest{PhoneNumber: phone, Password: password, UserName: strings.TrimSpace(name)}
	if err := c.post(ctx, "/auth/register", req, &resp); err != nil {
		return nil, fmt.Errorf("client.Register: %w", classify(err, map[int]error{
			http.StatusConflict:            ErrDuplicateAccount,
			http.StatusBadRequest:          errServerValidation,
			http.StatusUnprocessableEntity: errServerValidation,
		}))
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("client.Register: %w", &TransportError{StatusCode: http.StatusOK, Message: "response missing access_token"})
	}
	return &resp, nil
}

// Login exchanges phone and password for a session.
func (c *Client) Login(ctx context.Context, phone, password string) (*domain.LoginResponse, error) {
	if err := domain.ValidatePhone(phone); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	var resp domain.LoginResponse
	if err := c.post(ctx, "/auth/login", loginRequest{PhoneNumber: phone, Password: password}, &resp); err != nil {
		return nil, fmt.Errorf("client.Login: %w", classify(err, map[int]error{
			http.StatusBadRequest:   ErrInvalidCredentials,
			http.StatusUnauthorized: ErrInvalidCredentials,
			http.StatusForbidden:    ErrInvalidCredentials,
		}))
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("client.Login: %w", &TransportError{StatusCode: http.StatusOK, Message: "response missing access_token"})
	}
	return &resp, nil
}

// Me returns the profile that token belongs to.
func (c *Client) Me(ctx context.Context, token string) (*domain.User, error) {
	var u domain.User
	if err := c.WithToken(token).get(ctx, "/auth/me", &u); err != nil {
		return nil, fmt.Errorf("client.Me: %w", classify(err, map[int]error{
			http.StatusUnauthorized: ErrTokenInvalid,
			http.StatusForbidden:    ErrTokenInvalid,
		}))
	}
	return &u, nil
}

// Logout asks the backend to invalidate token.
func (c *Client) Logout(ctx context.Context, token string) error {
	if err := c.WithToken(token).doRequest(ctx, http.MethodPost, c.prefix+"/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// Test calls the auth connectivity probe.
func (c *Client) Test(ctx context.Context) (*domain.APIResponse, error) {
	var resp domain.APIResponse
	if err := c.get(ctx, "/auth/test", &resp); err != nil {
		return nil, fmt.Errorf("client.Test: %w", err)
	}
	return &resp, nil
}

// Health reports whether the backend answers its health check. It ignores the
// API prefix.
func (c *Client) Health(ctx context.Context) bool {
	return c.doRequest(ctx, http.MethodGet, "/health", nil, nil) == nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, c.prefix+path, body, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, c.prefix+path, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &TransportError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		return &TransportError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &TransportError{StatusCode: resp.StatusCode, Message: "malformed response body", Err: err}
		}
	}
	return nil
}

// errorMessage pulls the backend's explanation out of an error body. It checks
// message, detail and error in that order and falls back to short plain-text bodies.
func errorMessage(body []byte) string {
	var apiErr struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		var detail string
		if json.Unmarshal(apiErr.Detail, &detail) == nil && detail != "" {
			return detail
		}
		if apiErr.Error != "" {
			return apiErr.Error
		}
		return ""
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 || strings.HasPrefix(text, "<") {
		return ""
	}
	return text
}
