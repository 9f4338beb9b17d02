package tiktok

import (
	"net/http"

	"github.com/google/uuid"
)

// stateToken is used to protect against CSRF attacks
var stateToken = uuid.New().String()

// GetStateToken returns the current CSRF state token.
func GetStateToken() string {
	return stateToken
}

// HandleLogin redirects the operator to the provider's consent page.
func HandleLogin(oauth *OAuthClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, oauth.AuthorizeURL(stateToken), http.StatusTemporaryRedirect)
	}
}
