package folio

import (
	"html/template"
	"time"
)

// PageKind says how a page's body is produced.
type PageKind int

const (
	KindTemplate  PageKind = iota // html/template or text/template source file
	KindMarkdown                  // front matter + Markdown source file
	KindStatic                    // copied verbatim
	KindGenerated                 // body produced by the engine (feed, sitemap, CSS)
)

func (k PageKind) String() string {
	switch k {
	case KindTemplate:
		return "template"
	case KindMarkdown:
		return "markdown"
	case KindStatic:
		return "static"
	case KindGenerated:
		return "generated"
	}
	return "unknown"
}

// Page is one output file of the build: a path, the template that renders
// it and the locals bound while rendering. Pages are created while planning
// the build and not mutated once rendering starts.
type Page struct {
	Path     string         // source-level output path with leading slash, e.g. "/about.html"
	Template string         // template or source file relative to the source dir
	Kind     PageKind
	Locals   map[string]any // bound as top-level template variables
	Meta     map[string]any // front matter
	Title    string

	Layout   string // layout name; empty means the site default
	NoLayout bool   // emit raw content without the layout wrapper
	Ignore   bool   // excluded from listings and the sitemap

	DirectoryIndex bool // eligible for the pretty URL rewrite

	// Set by the build plan.
	OutputPath string // relative to the build dir, slash separated
	URL        string // site-relative URL

	body     []byte        // Markdown source or static bytes
	generate func() ([]byte, error)
}

// Article is a blog post.
type Article struct {
	Slug      string
	Title     string
	Date      time.Time
	Tags      []string
	Summary   template.HTML // rendered text before the summary separator
	Body      string        // Markdown source with the separator removed
	Source    string        // source file relative to the source dir
	Path      string        // page path, e.g. "/blog/2024/01/15/hello.html"
	URL       string
	Published bool
}

// DateString formats the article date as YYYY-MM-DD.
func (a Article) DateString() string {
	return a.Date.Format(dateLayout)
}

const dateLayout = "2006-01-02"

// Project is one item of the projects data collection. Only the path field
// is interpreted; everything else is opaque template data.
type Project map[string]any

// Field returns the string value of key, if present.
func (p Project) Field(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Pagination is bound into paginated pages.
type Pagination struct {
	PageNumber   int
	NumPages     int
	PerPage      int
	PageArticles []Article
	PrevPage     string // URL, empty on the first page
	NextPage     string // URL, empty on the last page
}

// BuildResult summarizes one build.
type BuildResult struct {
	Pages    int
	Written  int
	Skipped  int
	Removed  int
	Articles int
	Duration time.Duration
}
