package tiktok

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vidrelay/internal/store"
	"vidrelay/internal/upstream"
)

// HandleCallback exchanges the authorization code delivered by the provider
// for tokens and persists them. The account's open_id is then fetched and
// stored best-effort: a failing user-info lookup is logged but never fails
// the callback.
func HandleCallback(oauth *OAuthClient, credStore *store.Client, api *upstream.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if provider := chi.URLParam(r, "provider"); provider != credStore.Provider() {
			http.NotFound(w, r)
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			writeError(w, http.StatusBadRequest, "missing code parameter")
			return
		}

		state := r.URL.Query().Get("state")
		if state != "" && state != stateToken {
			// The provider echoes whatever state started the flow; a mismatch
			// usually means the service restarted mid-flow.
			log.Printf("[oauth.callback] state mismatch: got %q", state)
		}

		ctx := r.Context()
		tok, err := oauth.ExchangeCode(ctx, code)
		if err != nil {
			writeUpstreamError(w, "oauth_code_error", err)
			return
		}

		update := store.Update{
			AccessToken: &tok.AccessToken,
			ExpiresAt:   store.I64(store.ExpiresAt(time.Now(), tok.ExpiresIn)),
		}
		if tok.RefreshToken != "" {
			update.RefreshToken = &tok.RefreshToken
		}
		if tok.Scope != "" {
			update.Scope = &tok.Scope
		}
		if err := credStore.Upsert(ctx, update); err != nil {
			writeUpstreamError(w, "credential_store_error", err)
			return
		}

		if openID, err := api.FetchOpenID(ctx, tok.AccessToken); err != nil {
			log.Printf("[oauth.callback] user info lookup failed (ignored): %v", err)
		} else if openID != "" {
			if err := credStore.Upsert(ctx, store.Update{AccountOpenID: &openID}); err != nil {
				log.Printf("[oauth.callback] persisting open_id failed (ignored): %v", err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"ok":    true,
			"saved": true,
			"state": state,
		})
	}
}

// writeUpstreamError propagates the upstream status code and body when the
// failure came from the provider or persistence service, and degrades to 502
// for transport-level failures.
func writeUpstreamError(w http.ResponseWriter, kind string, err error) {
	status := http.StatusBadGateway
	detail := err.Error()

	var upErr *upstream.Error
	if errors.As(err, &upErr) {
		status = upErr.StatusCode
		detail = upErr.Body
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"error": kind, "detail": detail})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"error": msg})
}
