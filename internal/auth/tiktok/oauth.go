// Package tiktok implements the provider's OAuth flows: authorization-code
// exchange, refresh grant and the login redirect.
package tiktok

import (
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

const (
	// DefaultBaseURL is the provider's open API root hosting the token endpoint.
	DefaultBaseURL = "https://open.tiktokapis.com/v2"

	// authorizeURL is the user-facing consent page.
	authorizeURL = "https://www.tiktok.com/v2/auth/authorize/"

	oauthTimeout = 30 * time.Second

	// defaultExpiresIn is assumed when the provider omits expires_in.
	defaultExpiresIn = 3600
)

// Scopes requested during the authorization flow.
var Scopes = []string{"user.info.basic", "video.list"}

// TokenResponse is the provider's token endpoint response for both the
// authorization_code and refresh_token grants.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	OpenID       string `json:"open_id"`
	Scope        string `json:"scope"`
	ExpiresIn    int64  `json:"expires_in"`
}

// OAuthClient talks to the provider's token endpoint. The provider uses
// client_key/client_secret form fields, so requests are built by hand rather
// than through an oauth2.Config.
type OAuthClient struct {
	baseURL      string
	clientKey    string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client
}

// NewOAuthClient creates a token endpoint client with the provider defaults.
func NewOAuthClient(clientKey, clientSecret, redirectURI string) *OAuthClient {
	return NewOAuthClientWithBaseURL(clientKey, clientSecret, redirectURI, DefaultBaseURL)
}

// NewOAuthClientWithBaseURL allows overriding the API root, used in tests.
func NewOAuthClientWithBaseURL(clientKey, clientSecret, redirectURI, baseURL string) *OAuthClient {
	return &OAuthClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientKey:    clientKey,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		httpClient:   &http.Client{Timeout: oauthTimeout},
	}
}

// AuthorizeURL builds the consent page URL the operator is redirected to.
func (c *OAuthClient) AuthorizeURL(state string) string {
	query := url.Values{}
	query.Set("client_key", c.clientKey)
	query.Set("scope", strings.Join(Scopes, ","))
	query.Set("response_type", "code")
	query.Set("redirect_uri", c.redirectURI)
	query.Set("state", state)
	return authorizeURL + "?" + query.Encode()
}

// ExchangeCode trades an authorization code for tokens.
func (c *OAuthClient) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("client_key", c.clientKey)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	// Must match the redirect URI registered with the provider exactly.
	form.Set("redirect_uri", c.redirectURI)

	return c.token(ctx, "oauth.code", form)
}

// Refresh trades a refresh token for a new access token. The provider may
// rotate the refresh token; callers must persist the returned value.
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("client_key", c.clientKey)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	return c.token(ctx, "oauth.refresh", form)
}

func (c *OAuthClient) token(ctx context.Context, op string, form url.Values) (*TokenResponse, error) {
	endpoint := c.baseURL + "/oauth/token/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", op, err)
	}
	if resp.StatusCode >= 400 {
		return nil, upstream.NewError(op, resp.StatusCode, raw)
	}

	var tok TokenResponse
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", op, err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%s: response carries no access_token", op)
	}
	if tok.ExpiresIn <= 0 {
		tok.ExpiresIn = defaultExpiresIn
	}
	return &tok, nil
}
