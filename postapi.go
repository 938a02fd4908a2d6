// Package postapi is a headless blog content API built with Go, Echo and
// SQLite. It stores posts, serves them publicly with pagination, accepts
// authenticated admin edits, accepts webhook-driven upserts from external
// automation, and emits an RSS feed and sitemap.
package postapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// App is the central postapi application. It wires together the store, feed
// cache, handlers and middleware.
type App struct {
	Config Config
	Echo   *echo.Echo
	Store  *Store
	Cache  *FeedCache

	limiter      *RequestLimiter
	customRoutes []func(*App)
	storeOpts    []StoreOption
}

// New creates a new postapi App with the given configuration.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the database, cache, middleware and routes, then starts
// the server. It blocks until the server stops.
func (a *App) Start() error {
	if err := a.init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// init wires everything short of listening. Split from Start so tests can
// exercise the full router without a socket.
func (a *App) init() error {
	if a.Config.AdminToken == "" {
		return fmt.Errorf("postapi: AdminToken is required")
	}
	if a.Config.WebhookSecret == "" {
		return fmt.Errorf("postapi: WebhookSecret is required")
	}

	storeOpts := append([]StoreOption{WithDefaultAuthor(a.Config.SiteName)}, a.storeOpts...)
	store, err := NewStore(a.Config.DatabasePath, storeOpts...)
	if err != nil {
		return fmt.Errorf("postapi: init store: %w", err)
	}
	a.Store = store

	a.Cache = NewFeedCache(a.Store, a.Config.FeedCacheTTL)
	a.limiter = NewRequestLimiter(30, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Public read API
	e.GET("/api/posts", a.handleListPosts)
	e.GET("/api/posts/:slug", a.handleGetPost)

	// Feeds
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/robots.txt", a.handleRobots)

	// Uploaded images
	e.Static("/uploads", a.Config.UploadsDir)

	// Admin CRUD API, bearer-token protected
	admin := e.Group("/api/admin", a.requireAdmin)
	admin.GET("/posts", a.handleAdminListPosts)
	admin.POST("/posts", a.handleAdminCreatePost)
	admin.GET("/posts/:id", a.handleAdminGetPost)
	admin.PATCH("/posts/:id", a.handleAdminUpdatePost)
	admin.DELETE("/posts/:id", a.handleAdminDeletePost)
	admin.GET("/images", a.handleImageList)
	admin.POST("/images", a.handleImageUpload)
	admin.DELETE("/images/:filename", a.handleImageDelete)

	// Webhook ingestion: HMAC-signed upserts from the automation tool
	e.POST("/api/webhook/posts", a.handleWebhookUpsert)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
