// Package store reads and writes the single OAuth credential row held in the
// remote persistence service.
package store

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

	"vidrelay/internal/upstream"
)

// DefaultProvider is the fixed provider identifier keying the credential row.
const DefaultProvider = "tiktok"

// ExpiryMargin is subtracted from the provider-declared token lifetime so a
// token is refreshed slightly before it actually expires.
const ExpiryMargin = 60

const (
	tokensTable    = "tokens"
	requestTimeout = 30 * time.Second
)

// Credential is the persisted credential row for the provider.
type Credential struct {
	Provider      string `json:"provider"`
	AccountOpenID string `json:"account_open_id"`
	AccessToken   string `json:"access_token"`
	RefreshToken  string `json:"refresh_token"`
	Scope         string `json:"scope"`
	ExpiresAt     int64  `json:"expires_at"`
	UpdatedAt     string `json:"updated_at"`
}

// Update carries the credential fields to merge into the stored row. Nil
// fields are left untouched by the upsert.
type Update struct {
	AccessToken   *string
	RefreshToken  *string
	Scope         *string
	ExpiresAt     *int64
	AccountOpenID *string
}

// ExpiresAt converts a provider-declared lifetime in seconds into the
// absolute expiry instant stored in the credential row.
func ExpiresAt(now time.Time, expiresIn int64) int64 {
	return now.Unix() + expiresIn - ExpiryMargin
}

// Client is the persistence service accessor.
type Client struct {
	baseURL    string
	apiKey     string
	provider   string
	httpClient *http.Client
}

// NewClient creates a store client for the given persistence service.
func NewClient(baseURL, apiKey, provider string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		provider:   provider,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Provider returns the fixed provider identifier this client is keyed on.
func (c *Client) Provider() string {
	return c.provider
}

// Get returns the credential row, or nil when none has been stored yet.
// Absence is not an error; the caller decides what it means.
func (c *Client) Get(ctx context.Context) (*Credential, error) {
	query := url.Values{}
	query.Set("select", "provider,account_open_id,access_token,refresh_token,scope,expires_at,updated_at")
	query.Set("provider", "eq."+c.provider)
	query.Set("limit", "1")

	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", c.baseURL, tokensTable, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build credential read request: %w", err)
	}
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("read credential: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read credential response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, upstream.NewError("store.get", resp.StatusCode, raw)
	}

	var rows []Credential
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode credential row: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Upsert merges the supplied fields into the credential row keyed by the
// provider, creating it on first write. updated_at is always refreshed.
// Fields not carried by the update keep their stored values.
func (c *Client) Upsert(ctx context.Context, update Update) error {
	payload := map[string]any{
		"provider":   c.provider,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if update.AccessToken != nil {
		payload["access_token"] = *update.AccessToken
	}
	if update.RefreshToken != nil {
		payload["refresh_token"] = *update.RefreshToken
	}
	if update.Scope != nil {
		payload["scope"] = *update.Scope
	}
	if update.ExpiresAt != nil {
		payload["expires_at"] = *update.ExpiresAt
	}
	if update.AccountOpenID != nil {
		payload["account_open_id"] = *update.AccountOpenID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal credential upsert: %w", err)
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s?on_conflict=provider", c.baseURL, tokensTable)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build credential upsert request: %w", err)
	}
	c.setAuthHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read upsert response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return upstream.NewError("store.upsert", resp.StatusCode, raw)
	}
	return nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

// String helpers for building partial updates.

// Str returns a pointer to s.
func Str(s string) *string { return &s }

// I64 returns a pointer to v.
func I64(v int64) *int64 { return &v }
