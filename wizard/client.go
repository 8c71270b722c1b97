package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds every request made by HTTPClient.
const DefaultTimeout = 10 * time.Second

const maxResponseBytes = 1 << 20

// HTTPClient talks to the httpapi routes. It keeps the most recent session
// token and sends it as a bearer token on Profile.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

var _ API = (*HTTPClient)(nil)

// NewHTTPClient returns a client for baseURL (for example
// "http://localhost:3001"). A nil hc gets a client with DefaultTimeout.
func NewHTTPClient(baseURL string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) RequestCode(ctx context.Context, email string) (*CodeSent, error) {
	var out CodeSent
	if err := c.do(ctx, http.MethodPost, "/api/auth/send-verification", map[string]string{"email": email}, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) VerifyCode(ctx context.Context, email, code string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/verify-code", map[string]string{"email": email, "code": code}, false, nil)
}

// Register completes signup and keeps the returned token.
func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	var out Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, false, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Login signs in and keeps the returned token.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (*Session, error) {
	var out Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, false, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Profile fetches the identity behind the stored token. A 401 clears the token.
func (c *HTTPClient) Profile(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := c.do(ctx, http.MethodGet, "/api/auth/profile", nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in any, auth bool, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		if token := c.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized && auth {
			c.SetToken("")
		}
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(raw, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
