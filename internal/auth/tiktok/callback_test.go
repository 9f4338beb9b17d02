package tiktok

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"vidrelay/internal/store"
	"vidrelay/internal/upstream"
)

type callbackFixture struct {
	upserts    []map[string]any
	tokenCalls int
	userStatus int
}

// newCallbackRouter wires HandleCallback against fake provider and
// persistence servers.
func newCallbackRouter(t *testing.T, fx *callbackFixture) *chi.Mux {
	t.Helper()

	providerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token/":
			fx.tokenCalls++
			r.ParseForm()
			if got := r.PostForm.Get("grant_type"); got != "authorization_code" {
				t.Errorf("grant_type = %q", got)
			}
			fmt.Fprint(w, `{"access_token":"A","refresh_token":"R","scope":"video.list","expires_in":3600}`)
		case "/user/info/":
			if fx.userStatus != 0 {
				w.WriteHeader(fx.userStatus)
				w.Write([]byte(`{"error":{"code":"access_token_invalid"}}`))
				return
			}
			fmt.Fprint(w, `{"data":{"user":{"open_id":"open-9"}}}`)
		default:
			t.Errorf("unexpected provider path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(providerSrv.Close)

	storeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		fx.upserts = append(fx.upserts, payload)
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(storeSrv.Close)

	oauth := NewOAuthClientWithBaseURL("ck", "cs", "https://relay.example.com/cb", providerSrv.URL)
	credStore := store.NewClient(storeSrv.URL, "svc-key", store.DefaultProvider)
	api := upstream.NewClient(providerSrv.URL, 20, []string{"id"})

	r := chi.NewRouter()
	r.Get("/oauth/{provider}/callback", HandleCallback(oauth, credStore, api))
	return r
}

func TestHandleCallback_Success(t *testing.T) {
	fx := &callbackFixture{}
	router := newCallbackRouter(t, fx)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/oauth/tiktok/callback?code=c1&state=s1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true || body["saved"] != true || body["state"] != "s1" {
		t.Errorf("unexpected body: %v", body)
	}

	if fx.tokenCalls != 1 {
		t.Errorf("token calls = %d, want 1", fx.tokenCalls)
	}
	if len(fx.upserts) != 2 {
		t.Fatalf("expected 2 upserts (tokens, open_id), got %d", len(fx.upserts))
	}
	if fx.upserts[0]["access_token"] != "A" || fx.upserts[0]["refresh_token"] != "R" {
		t.Errorf("first upsert = %v", fx.upserts[0])
	}
	if fx.upserts[1]["account_open_id"] != "open-9" {
		t.Errorf("second upsert = %v", fx.upserts[1])
	}
	if _, ok := fx.upserts[1]["access_token"]; ok {
		t.Error("open_id upsert must not resend tokens")
	}
}

func TestHandleCallback_UserInfoFailureIgnored(t *testing.T) {
	fx := &callbackFixture{userStatus: http.StatusUnauthorized}
	router := newCallbackRouter(t, fx)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/oauth/tiktok/callback?code=c1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite user info failure", w.Code)
	}
	if len(fx.upserts) != 1 {
		t.Errorf("expected only the token upsert, got %d", len(fx.upserts))
	}
}

func TestHandleCallback_ExchangeErrorPropagatesStatus(t *testing.T) {
	providerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer providerSrv.Close()

	oauth := NewOAuthClientWithBaseURL("ck", "cs", "https://relay.example.com/cb", providerSrv.URL)
	credStore := store.NewClient("http://store.invalid", "svc-key", store.DefaultProvider)
	api := upstream.NewClient(providerSrv.URL, 20, []string{"id"})

	r := chi.NewRouter()
	r.Get("/oauth/{provider}/callback", HandleCallback(oauth, credStore, api))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/oauth/tiktok/callback?code=bad", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want propagated 400", w.Code)
	}
	var body map[string]any
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] != "oauth_code_error" {
		t.Errorf("error = %v, want oauth_code_error", body["error"])
	}
}

func TestHandleCallback_UnknownProvider(t *testing.T) {
	fx := &callbackFixture{}
	router := newCallbackRouter(t, fx)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/oauth/youtube/callback?code=c1", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if fx.tokenCalls != 0 {
		t.Error("no exchange may happen for an unknown provider")
	}
}

func TestHandleCallback_MissingCode(t *testing.T) {
	fx := &callbackFixture{}
	router := newCallbackRouter(t, fx)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/oauth/tiktok/callback", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHandleLogin_RedirectsToConsentPage(t *testing.T) {
	oauth := NewOAuthClient("ck", "cs", "https://relay.example.com/cb")

	w := httptest.NewRecorder()
	HandleLogin(oauth)(w, httptest.NewRequest("GET", "/oauth/tiktok/login", nil))

	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", w.Code)
	}
	loc := w.Header().Get("Location")
	if loc == "" {
		t.Fatal("missing Location header")
	}
	if got := GetStateToken(); got == "" {
		t.Fatal("state token not initialized")
	}
}
