// Package handlers wires the pipeline components behind the service's HTTP
// endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"vidrelay/internal/relay"
	"vidrelay/internal/store"
	"vidrelay/internal/upstream"
)

// TokenSource yields a valid provider access token.
type TokenSource interface {
	GetValidToken(ctx context.Context) (string, error)
}

// TokenRefresher forces a refresh exchange with a stored refresh token.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// CredentialReader reads the stored credential row.
type CredentialReader interface {
	Get(ctx context.Context) (*store.Credential, error)
}

// VideoLister pages through the account's videos.
type VideoLister interface {
	ListAllVideos(ctx context.Context, accessToken string) ([]upstream.Video, error)
}

// RelaySender posts a video list to the downstream webhook.
type RelaySender interface {
	Send(ctx context.Context, videos []upstream.Video) (*relay.Result, error)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[http] encode response: %v", err)
	}
}

// errorStatus maps an error to the HTTP status returned to the caller:
// upstream failures keep their original status, anything else is a 502.
func errorStatus(err error) int {
	var upErr *upstream.Error
	if errors.As(err, &upErr) {
		return upErr.StatusCode
	}
	return http.StatusBadGateway
}
