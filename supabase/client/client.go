// Package client is a small Supabase REST client covering the GoTrue auth and
// Storage endpoints used by the platform.
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

	"github.com/tidwall/gjson"
)

// Client is a Supabase REST API client.
type Client struct {
	baseURL    string
	apiKey     string
	serviceKey string
	httpClient *http.Client
}

// Config holds client configuration.
type Config struct {
	URL    string
	APIKey string
	// ServiceKey authorizes storage writes. Falls back to APIKey when empty.
	ServiceKey string
	HTTPClient *http.Client
	// Retry and Breaker wrap the transport unless Retry.MaxRetries is negative.
	Retry    RetryPolicy
	Breaker  BreakerConfig
	Observer Observer
}

// New creates a new Supabase client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("APIKey is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Retry.MaxRetries >= 0 {
		base := httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		wrapped := *httpClient
		wrapped.Transport = NewTransport(base, cfg.Retry, cfg.Breaker, cfg.Observer)
		httpClient = &wrapped
	}

	serviceKey := cfg.ServiceKey
	if serviceKey == "" {
		serviceKey = cfg.APIKey
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		serviceKey: serviceKey,
		httpClient: httpClient,
	}, nil
}

// =============================================================================
// Auth Operations
// =============================================================================

// Auth returns an auth client.
func (c *Client) Auth() *AuthClient {
	return &AuthClient{client: c}
}

// AuthClient handles GoTrue authentication operations.
type AuthClient struct {
	client *Client
}

// Session is the token pair returned by sign-up and sign-in.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

// User represents a Supabase user.
type User struct {
	ID    string
	Email string
	Role  string
}

// SignUp creates a new user. When the project requires email confirmation the
// returned session has no tokens, only the user.
func (a *AuthClient) SignUp(ctx context.Context, email, password string) (*Session, error) {
	resp, err := a.credentials(ctx, "/auth/v1/signup", email, password)
	if err != nil {
		return nil, err
	}
	return parseSession(resp.Body), nil
}

// SignIn exchanges email and password for a session.
func (a *AuthClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	resp, err := a.credentials(ctx, "/auth/v1/token?grant_type=password", email, password)
	if err != nil {
		return nil, err
	}
	session := parseSession(resp.Body)
	if session.AccessToken == "" {
		return nil, fmt.Errorf("supabase: sign in returned no access token")
	}
	return session, nil
}

// SignOut revokes the refresh tokens behind an access token.
func (a *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.client.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	a.client.setHeaders(req, a.client.apiKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	_, err = a.client.do(req)
	return err
}

// GetUser resolves the user behind an access token.
func (a *AuthClient) GetUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.client.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	a.client.setHeaders(req, a.client.apiKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.client.do(req)
	if err != nil {
		return nil, err
	}
	user := parseUser(gjson.ParseBytes(resp.Body))
	return &user, nil
}

func (a *AuthClient) credentials(ctx context.Context, path, email, password string) (*Response, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("marshal credentials: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.client.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	a.client.setHeaders(req, a.client.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return a.client.do(req)
}

func parseSession(body []byte) *Session {
	doc := gjson.ParseBytes(body)
	session := &Session{
		AccessToken:  doc.Get("access_token").String(),
		RefreshToken: doc.Get("refresh_token").String(),
	}
	if exp := doc.Get("expires_at").Int(); exp > 0 {
		session.ExpiresAt = time.Unix(exp, 0).UTC()
	} else if in := doc.Get("expires_in").Int(); in > 0 {
		session.ExpiresAt = time.Now().Add(time.Duration(in) * time.Second).UTC()
	}
	if userDoc := doc.Get("user"); userDoc.Exists() {
		session.User = parseUser(userDoc)
	} else {
		session.User = parseUser(doc)
	}
	return session
}

func parseUser(doc gjson.Result) User {
	return User{
		ID:    doc.Get("id").String(),
		Email: doc.Get("email").String(),
		Role:  doc.Get("role").String(),
	}
}

// =============================================================================
// Storage Operations
// =============================================================================

// Storage returns a storage client.
func (c *Client) Storage() *StorageClient {
	return &StorageClient{client: c}
}

// StorageClient handles storage operations.
type StorageClient struct {
	client *Client
}

// From returns a bucket client.
func (s *StorageClient) From(bucket string) *BucketClient {
	return &BucketClient{client: s.client, bucket: bucket}
}

// BucketClient handles bucket operations.
type BucketClient struct {
	client *Client
	bucket string
}

// Upload stores an object, replacing any existing object at path.
func (b *BucketClient) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	reqURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", b.client.baseURL, b.bucket, strings.TrimPrefix(path, "/"))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	b.client.setHeaders(req, b.client.serviceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	_, err = b.client.do(req)
	return err
}

// Delete removes objects by path.
func (b *BucketClient) Delete(ctx context.Context, paths ...string) error {
	reqURL := fmt.Sprintf("%s/storage/v1/object/%s", b.client.baseURL, b.bucket)

	body, err := json.Marshal(map[string][]string{"prefixes": paths})
	if err != nil {
		return fmt.Errorf("marshal paths: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	b.client.setHeaders(req, b.client.serviceKey)
	req.Header.Set("Content-Type", "application/json")

	_, err = b.client.do(req)
	return err
}

// PublicURL returns the public URL for an object.
func (b *BucketClient) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", b.client.baseURL, b.bucket, strings.TrimPrefix(path, "/"))
}

// =============================================================================
// Responses and errors
// =============================================================================

// Response is a raw API response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// APIError is a non-2xx answer from Supabase.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("supabase error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("supabase error: %s", e.Message)
}

// parseAPIError pulls a message out of the several error shapes GoTrue,
// Storage and PostgREST return.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	if !gjson.ValidBytes(body) {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}
	doc := gjson.ParseBytes(body)
	for _, key := range []string{"msg", "message", "error_description", "error"} {
		if v := doc.Get(key); v.Type == gjson.String && v.String() != "" {
			apiErr.Message = v.String()
			break
		}
	}
	for _, key := range []string{"error_code", "code", "statusCode"} {
		if v := doc.Get(key); v.Exists() {
			apiErr.Code = v.String()
			break
		}
	}
	return apiErr
}

func (c *Client) setHeaders(req *http.Request, key string) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+key)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
}

func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    resp.Header,
	}, nil
}
