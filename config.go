package postapi

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for a postapi server.
type Config struct {
	SiteName        string `env:"SITE_NAME"` // site name, RSS channel title, default author
	SiteURL         string `env:"SITE_URL"`  // canonical URL used in feed and sitemap links
	SiteDescription string `env:"SITE_DESCRIPTION"`

	Addr         string `env:"ADDR"`          // listen address (default ":3000")
	DatabasePath string `env:"DATABASE_PATH"` // SQLite path (default "data/blog.db")

	AdminToken    string `env:"ADMIN_TOKEN"`    // required: bearer token for the admin API
	WebhookSecret string `env:"WEBHOOK_SECRET"` // required: HMAC key for webhook signatures

	UploadsDir string `env:"UPLOADS_DIR"` // directory for uploaded images (default "data/uploads")

	FeedCacheTTL time.Duration `env:"FEED_CACHE_TTL"` // feed/sitemap cache TTL (default 5min)
}

// ConfigFromEnv loads configuration from environment variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.SiteName == "" {
		c.SiteName = "Blog"
	}
	if c.SiteURL == "" {
		c.SiteURL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/blog.db"
	}
	if c.UploadsDir == "" {
		c.UploadsDir = "data/uploads"
	}
	if c.FeedCacheTTL == 0 {
		c.FeedCacheTTL = 5 * time.Minute
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes, before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStoreOptions passes extra options to the Store created by Start.
func WithStoreOptions(opts ...StoreOption) Option {
	return func(a *App) {
		a.storeOpts = append(a.storeOpts, opts...)
	}
}
