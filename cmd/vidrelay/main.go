package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"vidrelay/internal/auth/tiktok"
	"vidrelay/internal/auth/token"
	"vidrelay/internal/config"
	"vidrelay/internal/db"
	"vidrelay/internal/handlers"
	"vidrelay/internal/logging"
	"vidrelay/internal/relay"
	"vidrelay/internal/store"
	"vidrelay/internal/upstream"
	"vidrelay/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	listing, err := config.LoadListing(cfg.ListingPath)
	if err != nil {
		log.Fatalf("Failed to load listing configuration: %v", err)
	}

	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize run history database: %v", err)
	}

	credStore := store.NewClient(cfg.StoreURL, cfg.StoreKey, store.DefaultProvider)
	oauthClient := tiktok.NewOAuthClient(cfg.ClientKey, cfg.ClientSecret, cfg.RedirectURI)
	tokenMgr := token.NewManager(credStore, oauthClient)
	api := upstream.NewClient(upstream.DefaultBaseURL, listing.MaxCount, listing.Fields)
	dispatcher := relay.NewDispatcher(cfg.WebhookURL)

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(logging.RequestID)

	r.Get("/", handlers.RunHandler(tokenMgr, api, dispatcher, database))
	r.Get("/healthz", handlers.HealthHandler())
	r.Get("/runs", handlers.RunsHandler(database))
	r.Get("/refresh", handlers.RefreshHandler(credStore, tokenMgr))

	r.Get("/oauth/tiktok/login", tiktok.HandleLogin(oauthClient))
	r.Get("/oauth/{provider}/callback", tiktok.HandleCallback(oauthClient, credStore, api))

	addr := cfg.Host + ":" + cfg.Port
	log.Printf("vidrelay %s starting on http://%s", version.Version, addr)
	log.Printf("webhook relay target: %s", cfg.WebhookURL)

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
