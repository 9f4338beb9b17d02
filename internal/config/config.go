// Package config holds the service configuration, populated once at startup
// and passed into components that need it.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the environment-sourced service configuration.
type Config struct {
	Host string `env:"HOST" envDefault:"127.0.0.1"`
	Port string `env:"PORT" envDefault:"8080"`

	// Downstream workflow webhook
	WebhookURL string `env:"N8N_WEBHOOK_URL,required"`

	// Provider OAuth client identity
	ClientKey    string `env:"TIKTOK_CLIENT_KEY,required"`
	ClientSecret string `env:"TIKTOK_CLIENT_SECRET,required"`
	RedirectURI  string `env:"TIKTOK_REDIRECT_URI,required"`

	// Remote persistence service (credential row)
	StoreURL string `env:"SUPABASE_URL,required"`
	StoreKey string `env:"SUPABASE_KEY,required"`

	// Local run-history database
	DBPath string `env:"VIDRELAY_DB_PATH" envDefault:"vidrelay.db"`

	// Optional YAML file overriding listing defaults
	ListingPath string `env:"VIDRELAY_LISTING_CONFIG"`
}

// Load parses the configuration from the process environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Listing controls how the provider's video listing endpoint is paged.
type Listing struct {
	MaxCount int      `yaml:"max_count"`
	Fields   []string `yaml:"fields"`
}

// DefaultListing returns the built-in page size and field projection.
func DefaultListing() Listing {
	return Listing{
		MaxCount: 20,
		Fields: []string{
			"id",
			"title",
			"create_time",
			"cover_image_url",
			"share_url",
			"view_count",
			"like_count",
			"comment_count",
			"share_count",
		},
	}
}

// LoadListing reads listing overrides from a YAML file. An empty path returns
// the defaults. Fields left unset in the file keep their default values.
func LoadListing(path string) (Listing, error) {
	listing := DefaultListing()
	if path == "" {
		return listing, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return listing, fmt.Errorf("read listing config: %w", err)
	}

	var override Listing
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return listing, fmt.Errorf("parse listing config: %w", err)
	}

	if override.MaxCount > 0 {
		listing.MaxCount = override.MaxCount
	}
	if len(override.Fields) > 0 {
		listing.Fields = override.Fields
	}
	return listing, nil
}
