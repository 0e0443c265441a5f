// Package folio builds a personal portfolio and blog into a static site.
// It provides Markdown rendering with syntax highlighting, per-project
// proxy pages, a blog with tags, calendar pages and pagination, pretty
// URLs, an RSS feed and a sitemap.
//
// Templates live in the site's source directory and are rendered through
// html/template (text/template for XML, JSON and text outputs); folio
// composes them with their layouts as templ components.
package folio

import (
	"fmt"
	"os"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/jamgar/folio/markdown"
)

// App is the central folio application. It wires together the
// configuration, the post and manifest store and the Markdown renderer.
type App struct {
	Config SiteConfig
	Store  *Store
	Posts  *PostCache
	Logger *log.Logger

	md  *markdown.Renderer
	now func() time.Time
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger used by builds and the preview server.
func WithLogger(l *log.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithClock overrides the clock that stamps manifest entries.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// WithStore uses an already opened store instead of opening
// Config.DatabaseFile on the first build.
func WithStore(s *Store) Option {
	return func(a *App) {
		a.Store = s
	}
}

// New creates a folio App for cfg.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()
	if cfg.root == "" {
		cfg.root = "."
	}

	a := &App{
		Config: cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = log.New("folio")
		a.Logger.SetOutput(os.Stderr)
		a.Logger.SetHeader("${time_rfc3339} ${level} ${prefix}")
	}
	a.md = markdown.New(a.Config.MarkdownOptions())
	return a
}

// Open validates the configuration and opens the store if none was given.
func (a *App) Open() error {
	if err := a.Config.validate(); err != nil {
		return err
	}
	if a.Store != nil {
		if a.Posts == nil {
			a.Posts = NewPostCache(a.Store, 0)
		}
		return nil
	}
	store, err := NewStore(a.Config.DatabaseFile())
	if err != nil {
		return fmt.Errorf("folio: init store: %w", err)
	}
	a.Store = store
	a.Posts = NewPostCache(store, 0)
	return nil
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
