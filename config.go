package folio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/jamgar/folio/markdown"
)

// SiteConfig holds all configuration for a folio site. It is decoded from
// config.toml; every field left empty takes the default from setDefaults.
type SiteConfig struct {
	// Metadata, passed through to templates unvalidated.
	URL          string            `toml:"url"`
	Title        string            `toml:"title"`
	Description  string            `toml:"description"`
	Author       string            `toml:"author"`
	AuthorImage  string            `toml:"author_image"`
	ReverseTitle *bool             `toml:"reverse_title"`
	SocialLinks  map[string]string `toml:"social_links"`

	Markdown MarkdownConfig `toml:"markdown"`
	Syntax   SyntaxConfig   `toml:"syntax"`
	Pages    PageRules      `toml:"pages"`
	Proxies  []ProxyRule    `toml:"proxy"`
	Blog     BlogConfig     `toml:"blog"`

	DirectoryIndexes *bool `toml:"directory_indexes"`
	ResponsiveImages *bool `toml:"responsive_images"`

	SourceDir     string `toml:"source_dir"`
	DataDir       string `toml:"data_dir"`
	BuildDir      string `toml:"build_dir"`
	LayoutsDir    string `toml:"layouts_dir"` // relative to SourceDir
	DefaultLayout string `toml:"default_layout"`
	DatabasePath  string `toml:"database_path"`

	Addr string `toml:"addr"` // preview server listen address

	// root is the directory config.toml was loaded from. Relative
	// directories above resolve against it.
	root string
	file string
}

// MarkdownConfig selects the Markdown dialect.
type MarkdownConfig struct {
	Engine           string `toml:"engine"`
	FencedCodeBlocks *bool  `toml:"fenced_code_blocks"`
	Smartypants      *bool  `toml:"smartypants"`
}

// SyntaxConfig controls code block highlighting.
type SyntaxConfig struct {
	Enabled *bool  `toml:"enabled"`
	Style   string `toml:"style"`
	CSSPath string `toml:"css_path"`
}

// PageRules lists glob patterns of page paths emitted without a layout.
type PageRules struct {
	NoLayout []string `toml:"no_layout"`
}

// ProxyRule generates one page per item of a data collection.
type ProxyRule struct {
	Data      string `toml:"data"`       // collection name, e.g. "projects"
	PathField string `toml:"path_field"` // item field holding the output path
	Template  string `toml:"template"`   // template relative to the source dir
	Local     string `toml:"local"`      // name the item is bound to
	Ignore    bool   `toml:"ignore"`
}

// BlogConfig parameterizes the blog subsystem.
type BlogConfig struct {
	Prefix           string `toml:"prefix"`
	Layout           string `toml:"layout"`
	SummarySeparator string `toml:"summary_separator"`
	SummaryLength    int    `toml:"summary_length"`
	DefaultExtension string `toml:"default_extension"`
	Sources          string `toml:"sources"`
	Permalink        string `toml:"permalink"`
	Taglink          string `toml:"taglink"`
	YearLink         string `toml:"year_link"`
	MonthLink        string `toml:"month_link"`
	DayLink          string `toml:"day_link"`
	TagTemplate      string `toml:"tag_template"`
	CalendarTemplate string `toml:"calendar_template"`
	Paginate         *bool  `toml:"paginate"`
	PerPage          int    `toml:"per_page"`
	PageLink         string `toml:"page_link"`
}

func boolPtr(b bool) *bool { return &b }

func (c *SiteConfig) setDefaults() {
	if c.URL == "" {
		c.URL = "http://garciajames.com"
	}
	if c.Title == "" {
		c.Title = "James Garcia"
	}
	if c.Description == "" {
		c.Description = "My Portfolio"
	}
	if c.Author == "" {
		c.Author = "James Garcia"
	}
	if c.AuthorImage == "" {
		c.AuthorImage = "profile_pic.jpg"
	}
	if c.ReverseTitle == nil {
		c.ReverseTitle = boolPtr(true)
	}
	if c.SocialLinks == nil {
		c.SocialLinks = map[string]string{
			"twitter":  "https://twitter.com",
			"facebook": "https://facebook.com",
			"github":   "https://github.com/jamgar",
			"linkedin": "https://linkedin.com",
		}
	}

	if c.Markdown.Engine == "" {
		c.Markdown.Engine = "blackfriday"
	}
	if c.Markdown.FencedCodeBlocks == nil {
		c.Markdown.FencedCodeBlocks = boolPtr(true)
	}
	if c.Markdown.Smartypants == nil {
		c.Markdown.Smartypants = boolPtr(true)
	}
	if c.Syntax.Enabled == nil {
		c.Syntax.Enabled = boolPtr(true)
	}
	if c.Syntax.Style == "" {
		c.Syntax.Style = "github"
	}
	if c.Syntax.CSSPath == "" {
		c.Syntax.CSSPath = "stylesheets/highlight.css"
	}

	if c.Pages.NoLayout == nil {
		c.Pages.NoLayout = []string{"/**/*.xml", "/**/*.json", "/**/*.txt", "/feed.xml"}
	}
	if c.Proxies == nil {
		c.Proxies = []ProxyRule{{
			Data:      "projects",
			PathField: "path",
			Template:  "project/template.html",
			Local:     "project",
			Ignore:    true,
		}}
	}
	c.Blog.setDefaults()

	if c.DirectoryIndexes == nil {
		c.DirectoryIndexes = boolPtr(true)
	}
	if c.ResponsiveImages == nil {
		c.ResponsiveImages = boolPtr(true)
	}

	if c.SourceDir == "" {
		c.SourceDir = "source"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.BuildDir == "" {
		c.BuildDir = "build"
	}
	if c.LayoutsDir == "" {
		c.LayoutsDir = "layouts"
	}
	if c.DefaultLayout == "" {
		c.DefaultLayout = "layout"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(".folio", "site.db")
	}
	if c.Addr == "" {
		c.Addr = ":4567"
	}
}

func (b *BlogConfig) setDefaults() {
	if b.Prefix == "" {
		b.Prefix = "blog"
	}
	if b.Layout == "" {
		b.Layout = "article_layout"
	}
	if b.SummarySeparator == "" {
		b.SummarySeparator = "READMORE"
	}
	if b.SummaryLength == 0 {
		b.SummaryLength = 250
	}
	if b.DefaultExtension == "" {
		b.DefaultExtension = "md"
	}
	b.DefaultExtension = strings.TrimPrefix(b.DefaultExtension, ".")
	if b.Sources == "" {
		b.Sources = "{year}-{month}-{day}-{title}.html"
	}
	if b.Permalink == "" {
		b.Permalink = "{year}/{month}/{day}/{title}.html"
	}
	if b.Taglink == "" {
		b.Taglink = "tags/{tag}.html"
	}
	if b.YearLink == "" {
		b.YearLink = "{year}.html"
	}
	if b.MonthLink == "" {
		b.MonthLink = "{year}/{month}.html"
	}
	if b.DayLink == "" {
		b.DayLink = "{year}/{month}/{day}.html"
	}
	if b.TagTemplate == "" {
		b.TagTemplate = "tag.html"
	}
	if b.CalendarTemplate == "" {
		b.CalendarTemplate = "calendar.html"
	}
	if b.Paginate == nil {
		b.Paginate = boolPtr(true)
	}
	if b.PerPage == 0 {
		b.PerPage = 10
	}
	if b.PageLink == "" {
		b.PageLink = "page/{num}"
	}
}

// DefaultConfig returns a SiteConfig with every default applied, rooted at
// the current directory.
func DefaultConfig() SiteConfig {
	var cfg SiteConfig
	cfg.setDefaults()
	cfg.root = "."
	return cfg
}

// LoadConfig reads config.toml at path, loading a sibling .env file first
// so environment overrides can come from it. A missing config file yields
// the defaults.
func LoadConfig(path string) (SiteConfig, error) {
	root := filepath.Dir(path)
	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !os.IsNotExist(err) {
		return SiteConfig{}, fmt.Errorf("folio: load .env: %w", err)
	}

	var cfg SiteConfig
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return SiteConfig{}, fmt.Errorf("folio: read config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return SiteConfig{}, fmt.Errorf("folio: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.setDefaults()
	cfg.root = root
	cfg.file = path
	return cfg, nil
}

// File returns the path the config was loaded from, or "" for a config
// built in code.
func (c *SiteConfig) File() string { return c.file }

func (c *SiteConfig) applyEnv() {
	c.URL = EnvOr("FOLIO_SITE_URL", c.URL)
	c.BuildDir = EnvOr("FOLIO_BUILD_DIR", c.BuildDir)
	c.Addr = EnvOr("FOLIO_ADDR", c.Addr)
	c.DatabasePath = EnvOr("FOLIO_DATABASE_PATH", c.DatabasePath)
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// WithRoot returns a copy of c whose relative directories resolve against root.
func (c SiteConfig) WithRoot(root string) SiteConfig {
	c.root = root
	return c
}

func (c *SiteConfig) resolve(p string) string {
	if filepath.IsAbs(p) || c.root == "" {
		return p
	}
	return filepath.Join(c.root, p)
}

// SourcePath returns the absolute-or-root-relative source directory.
func (c *SiteConfig) SourcePath() string { return c.resolve(c.SourceDir) }

// DataPath returns the data collection directory.
func (c *SiteConfig) DataPath() string { return c.resolve(c.DataDir) }

// BuildPath returns the output directory.
func (c *SiteConfig) BuildPath() string { return c.resolve(c.BuildDir) }

// DatabaseFile returns the manifest database path.
func (c *SiteConfig) DatabaseFile() string { return c.resolve(c.DatabasePath) }

// MarkdownOptions translates the config into renderer options.
func (c *SiteConfig) MarkdownOptions() markdown.Options {
	return markdown.Options{
		FencedCode:  *c.Markdown.FencedCodeBlocks,
		Smartypants: *c.Markdown.Smartypants,
		Highlight:   *c.Syntax.Enabled,
		Style:       c.Syntax.Style,
	}
}

func (c *SiteConfig) validate() error {
	if c.Markdown.Engine != "blackfriday" {
		return fmt.Errorf("folio: unsupported markdown engine %q", c.Markdown.Engine)
	}
	if c.Blog.PerPage < 0 {
		return fmt.Errorf("folio: blog.per_page must be positive, got %d", c.Blog.PerPage)
	}
	if !strings.Contains(c.Blog.PageLink, "{num}") {
		return fmt.Errorf("folio: blog.page_link %q has no {num}", c.Blog.PageLink)
	}
	for i, p := range c.Proxies {
		if p.Data == "" || p.Template == "" || p.PathField == "" {
			return fmt.Errorf("folio: proxy rule %d needs data, template and path_field", i)
		}
	}
	return nil
}
