// Package token decides whether the stored access token is still usable and
// refreshes it when it is not.
package token

import (
	"context"
	"errors"
	"log"
	"time"

	"vidrelay/internal/auth/tiktok"
	"vidrelay/internal/store"
)

// Configuration errors: the operator has to complete the authorization-code
// flow before the pipeline can run.
var (
	ErrNotAuthorized  = errors.New("no stored credential; complete the authorization flow first")
	ErrNoRefreshToken = errors.New("no refresh token stored; reauthorize the app")
)

// Manager handles the credential's freshness lifecycle.
type Manager struct {
	store *store.Client
	oauth *tiktok.OAuthClient
	now   func() time.Time
}

// NewManager creates a token manager over the credential store and the
// provider's OAuth client.
func NewManager(credStore *store.Client, oauth *tiktok.OAuthClient) *Manager {
	return &Manager{
		store: credStore,
		oauth: oauth,
		now:   time.Now,
	}
}

// GetValidToken returns a usable access token. A stored token that has not
// reached its expiry is returned as-is with no network calls; otherwise a
// single refresh exchange is attempted.
func (m *Manager) GetValidToken(ctx context.Context) (string, error) {
	cred, err := m.store.Get(ctx)
	if err != nil {
		return "", err
	}
	if cred == nil {
		return "", ErrNotAuthorized
	}

	if cred.AccessToken != "" && m.now().Unix() < cred.ExpiresAt {
		return cred.AccessToken, nil
	}

	if cred.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}
	return m.Refresh(ctx, cred.RefreshToken)
}

// Refresh performs a single refresh exchange and persists the result: the new
// access token, the rotated refresh token when the provider issues one, the
// granted scope and the recomputed expiry. No retry on failure.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (string, error) {
	tok, err := m.oauth.Refresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	newRefresh := tok.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	} else if newRefresh != refreshToken {
		log.Printf("[token] provider rotated the refresh token")
	}

	update := store.Update{
		AccessToken:  &tok.AccessToken,
		RefreshToken: &newRefresh,
		ExpiresAt:    store.I64(store.ExpiresAt(m.now(), tok.ExpiresIn)),
	}
	if tok.Scope != "" {
		update.Scope = &tok.Scope
	}
	if err := m.store.Upsert(ctx, update); err != nil {
		return "", err
	}

	return tok.AccessToken, nil
}
