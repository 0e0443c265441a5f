package folio

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// matchesAny reports whether the site path p matches one of the glob
// patterns. "/**/*.xml" matches XML files at any depth, "/feed.xml" only
// the root feed.
func matchesAny(patterns []string, p string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, p); err == nil && ok {
			return true
		}
	}
	return false
}

// applyLayoutRules marks pages that must be emitted without a layout.
// Only the configured patterns and explicit front matter decide; the page
// kind does not.
func applyLayoutRules(cfg *SiteConfig, pages []*Page) {
	for _, p := range pages {
		if matchesAny(cfg.Pages.NoLayout, p.Path) {
			p.NoLayout = true
		}
	}
}

// PrettyPath rewrites "/about.html" to "/about/index.html". Paths that are
// already directory indexes and non-HTML paths are returned unchanged.
func PrettyPath(p string) string {
	if path.Ext(p) != ".html" || path.Base(p) == "index.html" {
		return p
	}
	return strings.TrimSuffix(p, ".html") + "/index.html"
}

// URLFor returns the link for an output path: "/about/index.html" becomes
// "/about/" and "/index.html" becomes "/".
func URLFor(outputPath string) string {
	if path.Base(outputPath) == "index.html" {
		dir := path.Dir(outputPath)
		if dir == "/" {
			return "/"
		}
		return dir + "/"
	}
	return outputPath
}

// outputFor applies the pretty URL rewrite when the site and the page
// both allow it.
func outputFor(cfg *SiteConfig, p string, dirIndex bool) string {
	if *cfg.DirectoryIndexes && dirIndex {
		return PrettyPath(p)
	}
	return p
}

// setArticleURLs fills the URL of every article from its path.
func setArticleURLs(cfg *SiteConfig, articles []Article) {
	for i := range articles {
		articles[i].URL = URLFor(outputFor(cfg, articles[i].Path, true))
	}
}

// assignOutputs fills OutputPath and URL for every page.
func assignOutputs(cfg *SiteConfig, pages []*Page) error {
	seen := make(map[string]string, len(pages))
	for _, p := range pages {
		out := outputFor(cfg, p.Path, p.DirectoryIndex)
		if prev, ok := seen[out]; ok {
			return fmt.Errorf("%w: %s (from %s and %s)", ErrDuplicatePath, out, prev, p.Template)
		}
		seen[out] = p.Template
		p.OutputPath = strings.TrimPrefix(out, "/")
		p.URL = URLFor(out)
	}
	return nil
}

// pagePath returns the path of page num of a paginated page at base.
// Page 1 is base itself. For "/blog/index.html" and "page/{num}" page 2 is
// "/blog/page/2.html"; for "/blog/tags/go.html" it is
// "/blog/tags/go/page/2.html".
func pagePath(base, pageLink string, num int) string {
	if num <= 1 {
		return base
	}
	ext := path.Ext(base)
	dir := strings.TrimSuffix(base, ext)
	if path.Base(dir) == "index" {
		dir = path.Dir(dir)
	}
	link := expandLink(pageLink, map[string]string{"num": strconv.Itoa(num)})
	return sitePath(dir, link) + ext
}

// paginate splits articles into pages of perPage. It always returns at
// least one page so an empty listing still renders.
func paginate(articles []Article, perPage int) [][]Article {
	if perPage <= 0 || len(articles) <= perPage {
		return [][]Article{articles}
	}
	var pages [][]Article
	for start := 0; start < len(articles); start += perPage {
		end := min(start+perPage, len(articles))
		pages = append(pages, articles[start:end])
	}
	return pages
}

// expandPaginated turns a listing page into one page per slice of
// articles. The copies share Template, Meta and Layout with base and get
// their own Locals carrying a Pagination.
func expandPaginated(cfg *SiteConfig, base *Page, articles []Article, perPage int) []*Page {
	if !*cfg.Blog.Paginate {
		perPage = 0
	}
	chunks := paginate(articles, perPage)
	urls := make([]string, len(chunks))
	for i := range chunks {
		p := pagePath(base.Path, cfg.Blog.PageLink, i+1)
		urls[i] = URLFor(outputFor(cfg, p, base.DirectoryIndex))
	}

	out := make([]*Page, 0, len(chunks))
	for i, chunk := range chunks {
		pg := *base
		pg.Path = pagePath(base.Path, cfg.Blog.PageLink, i+1)
		pg.Locals = make(map[string]any, len(base.Locals)+1)
		for k, v := range base.Locals {
			pg.Locals[k] = v
		}
		pag := Pagination{
			PageNumber:   i + 1,
			NumPages:     len(chunks),
			PerPage:      perPage,
			PageArticles: chunk,
		}
		if i > 0 {
			pag.PrevPage = urls[i-1]
		}
		if i < len(chunks)-1 {
			pag.NextPage = urls[i+1]
		}
		pg.Locals["pagination"] = pag
		pg.Locals["page_number"] = pag.PageNumber
		pg.Locals["num_pages"] = pag.NumPages
		pg.Locals["per_page"] = pag.PerPage
		pg.Locals["page_articles"] = chunk
		pg.Locals["prev_page"] = pag.PrevPage
		pg.Locals["next_page"] = pag.NextPage
		if i > 0 {
			pg.Ignore = true
		}
		out = append(out, &pg)
	}
	return out
}
