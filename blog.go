package folio

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/adrg/frontmatter"

	"github.com/jamgar/folio/markdown"
)

// sourcesPattern compiles the blog sources pattern (without its extension)
// into a regexp with named groups.
func sourcesPattern(sources string) (*regexp.Regexp, error) {
	base := strings.TrimSuffix(sources, path.Ext(sources))
	expr := regexp.QuoteMeta(base)
	expr = strings.NewReplacer(
		`\{year\}`, `(?P<year>\d{4})`,
		`\{month\}`, `(?P<month>\d{2})`,
		`\{day\}`, `(?P<day>\d{2})`,
		`\{title\}`, `(?P<title>.+)`,
	).Replace(expr)
	return regexp.Compile("^" + expr + "$")
}

type postFrontMatter struct {
	Title     string `yaml:"title" toml:"title" json:"title"`
	Date      any    `yaml:"date" toml:"date" json:"date"`
	Tags      any    `yaml:"tags" toml:"tags" json:"tags"`
	Published *bool  `yaml:"published" toml:"published" json:"published"`
}

// loadArticles parses the blog post candidates. Files whose names do not
// match the sources pattern come back as plain Markdown pages.
func loadArticles(cfg *SiteConfig, md *markdown.Renderer, files []string) ([]Article, []*Page, error) {
	re, err := sourcesPattern(cfg.Blog.Sources)
	if err != nil {
		return nil, nil, fmt.Errorf("folio: blog sources pattern: %w", err)
	}
	root := cfg.SourcePath()

	var articles []Article
	var leftovers []*Page
	for _, rel := range files {
		name := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
		m := re.FindStringSubmatch(name)
		if m == nil {
			page, err := loadMarkdownPage(root, rel)
			if err != nil {
				return nil, nil, err
			}
			leftovers = append(leftovers, page)
			continue
		}
		a, err := loadArticle(cfg, md, root, rel, groups(re, m))
		if err != nil {
			return nil, nil, fmt.Errorf("folio: article %s: %w", rel, err)
		}
		if !a.Published {
			continue
		}
		articles = append(articles, a)
	}
	sortArticles(articles)
	return articles, leftovers, nil
}

func groups(re *regexp.Regexp, m []string) map[string]string {
	out := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if name != "" {
			out[name] = m[i]
		}
	}
	return out
}

func loadArticle(cfg *SiteConfig, md *markdown.Renderer, root, rel string, parts map[string]string) (Article, error) {
	raw, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return Article{}, err
	}
	var fm postFrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
	if err != nil {
		return Article{}, err
	}

	slug := parts["title"]
	date, err := articleDate(fm.Date, parts)
	if err != nil {
		return Article{}, err
	}
	title := fm.Title
	if title == "" {
		title = TitleCase(slug)
	}

	summary, full := splitSummary(string(body), cfg.Blog.SummarySeparator, cfg.Blog.SummaryLength)
	p := sitePath(cfg.Blog.Prefix, expandLink(cfg.Blog.Permalink, map[string]string{
		"year":  date.Format("2006"),
		"month": date.Format("01"),
		"day":   date.Format("02"),
		"title": slug,
	}))

	a := Article{
		Slug:      slug,
		Title:     title,
		Date:      date,
		Tags:      parseTagValue(fm.Tags),
		Summary:   template.HTML(md.Render([]byte(summary))),
		Body:      full,
		Source:    rel,
		Path:      p,
		Published: fm.Published == nil || *fm.Published,
	}
	return a, nil
}

// articleDate prefers a front matter date over the one in the file name.
func articleDate(v any, parts map[string]string) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", dateLayout} {
			if t, err := time.Parse(layout, d); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", d)
	}
	if parts["year"] == "" {
		return time.Time{}, fmt.Errorf("no date in front matter or file name")
	}
	month, day := parts["month"], parts["day"]
	if month == "" {
		month = "01"
	}
	if day == "" {
		day = "01"
	}
	return time.Parse(dateLayout, parts["year"]+"-"+month+"-"+day)
}

// parseTagValue accepts a YAML list or a comma separated string.
func parseTagValue(v any) []string {
	var raw []string
	switch t := v.(type) {
	case string:
		raw = strings.Split(t, ",")
	case []any:
		for _, x := range t {
			raw = append(raw, fmt.Sprint(x))
		}
	case []string:
		raw = t
	}
	return FilterEmpty(raw)
}

// splitSummary returns the summary and the full body. The summary is the
// text before the first separator, which is removed from the body. Without
// a separator the summary is the first length bytes cut at a word boundary.
func splitSummary(body, sep string, length int) (string, string) {
	if sep != "" {
		if i := strings.Index(body, sep); i >= 0 {
			return strings.TrimSpace(body[:i]), body[:i] + body[i+len(sep):]
		}
	}
	return truncateWords(body, length), body
}

func truncateWords(s string, length int) string {
	s = strings.TrimSpace(s)
	if length <= 0 || len(s) <= length {
		return s
	}
	end := length
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	cut := s[:end]
	if i := strings.LastIndexAny(cut, " \n\t"); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}

func sortArticles(articles []Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		if !articles[i].Date.Equal(articles[j].Date) {
			return articles[i].Date.After(articles[j].Date)
		}
		return articles[i].Slug < articles[j].Slug
	})
}

// articlePage is the page a post renders to.
func articlePage(cfg *SiteConfig, a Article) *Page {
	page := &Page{
		Path:           a.Path,
		Template:       a.Source,
		Kind:           KindMarkdown,
		Title:          a.Title,
		Layout:         cfg.Blog.Layout,
		DirectoryIndex: true,
		Meta:           map[string]any{"title": a.Title},
		Locals:         map[string]any{"article": a},
		body:           []byte(a.Body),
	}
	return page
}

// blogTemplateCandidates lists where a blog template may live: under the
// blog prefix first, then at the source root.
func blogTemplateCandidates(cfg *SiteConfig, name string) []string {
	return []string{path.Join(cfg.Blog.Prefix, name), path.Clean(name)}
}

func (t *sourceTree) findBlogTemplate(cfg *SiteConfig, name string) (string, bool) {
	for _, c := range blogTemplateCandidates(cfg, name) {
		if _, ok := t.templates[c]; ok {
			return c, true
		}
	}
	return "", false
}

// tagPath returns the page path of a tag listing.
func tagPath(cfg *SiteConfig, tag string) string {
	return sitePath(cfg.Blog.Prefix, expandLink(cfg.Blog.Taglink, map[string]string{"tag": tagSlug(tag)}))
}

// calendarEntry is one year, month or day listing.
type calendarEntry struct {
	path             string
	year, month, day string
	datePrefix       string
}

func calendarEntries(cfg *SiteConfig, articles []Article) []calendarEntry {
	seen := make(map[string]bool)
	var out []calendarEntry
	add := func(e calendarEntry) {
		if !seen[e.path] {
			seen[e.path] = true
			out = append(out, e)
		}
	}
	for _, a := range articles {
		y, m, d := a.Date.Format("2006"), a.Date.Format("01"), a.Date.Format("02")
		vars := map[string]string{"year": y, "month": m, "day": d}
		add(calendarEntry{path: sitePath(cfg.Blog.Prefix, expandLink(cfg.Blog.YearLink, vars)), year: y, datePrefix: y})
		add(calendarEntry{path: sitePath(cfg.Blog.Prefix, expandLink(cfg.Blog.MonthLink, vars)), year: y, month: m, datePrefix: y + "-" + m})
		add(calendarEntry{path: sitePath(cfg.Blog.Prefix, expandLink(cfg.Blog.DayLink, vars)), year: y, month: m, day: d, datePrefix: y + "-" + m + "-" + d})
	}
	return out
}
