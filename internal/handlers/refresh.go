package handlers

import (
	"net/http"
)

const tokenPrefixLen = 12

type refreshResponse struct {
	OK                bool   `json:"ok"`
	AccessTokenPrefix string `json:"access_token_prefix"`
	ExpiresAt         int64  `json:"expires_at"`
}

// RefreshHandler forces a refresh with the stored refresh token and reports
// a short token prefix plus the new expiry.
func RefreshHandler(creds CredentialReader, refresher TokenRefresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		cred, err := creds.Get(ctx)
		if err != nil {
			writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
			return
		}
		if cred == nil || cred.RefreshToken == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no refresh_token stored"})
			return
		}

		accessToken, err := refresher.Refresh(ctx, cred.RefreshToken)
		if err != nil {
			writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
			return
		}

		// Re-read the row so the reported expiry is the persisted one.
		var expiresAt int64
		if updated, err := creds.Get(ctx); err == nil && updated != nil {
			expiresAt = updated.ExpiresAt
		}

		prefix := accessToken
		if len(prefix) > tokenPrefixLen {
			prefix = prefix[:tokenPrefixLen]
		}
		writeJSON(w, http.StatusOK, refreshResponse{
			OK:                true,
			AccessTokenPrefix: prefix,
			ExpiresAt:         expiresAt,
		})
	}
}
