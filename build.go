package folio

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jamgar/folio/interact"
)

// ErrDuplicatePath is returned when two pages would write the same output file.
var ErrDuplicatePath = errors.New("folio: duplicate output path")

// build is the state of one Build call.
type build struct {
	app      *App
	cfg      *SiteConfig
	tree     *sourceTree
	data     Data
	articles []Article
	tags     []string
	pages    []*Page
}

// Build renders the whole site into the build directory. Files whose
// content did not change since the last build are left alone and outputs
// that no longer belong to a page are removed.
func (a *App) Build(ctx context.Context) (BuildResult, error) {
	start := a.now()
	if a.Store == nil || a.Posts == nil {
		if err := a.Open(); err != nil {
			return BuildResult{}, err
		}
	}

	b := &build{app: a, cfg: &a.Config}
	if err := b.load(); err != nil {
		return BuildResult{}, err
	}
	if err := b.plan(); err != nil {
		return BuildResult{}, err
	}

	site := newSiteView(b.cfg, b.data)
	site.Pages = listed(b.pages)
	site.Articles = b.articles
	site.Tags = b.tags
	r := newRenderer(b.cfg, b.tree, a.md, site)

	res, err := b.write(ctx, r)
	if err != nil {
		return BuildResult{}, err
	}
	res.Articles = len(b.articles)
	res.Duration = a.now().Sub(start)
	a.Logger.Infof("built %d pages (%d written, %d unchanged, %d removed) in %s",
		res.Pages, res.Written, res.Skipped, res.Removed, res.Duration.Round(time.Millisecond))
	return res, nil
}

// load scans the source tree and data, then reindexes the blog posts.
func (b *build) load() error {
	tree, err := scanSource(b.cfg)
	if err != nil {
		return err
	}
	b.tree = tree

	data, err := LoadData(b.cfg.DataPath())
	if err != nil {
		return err
	}
	b.data = data

	articles, leftovers, err := loadArticles(b.cfg, b.app.md, tree.postFiles)
	if err != nil {
		return err
	}
	tree.pages = append(tree.pages, leftovers...)
	setArticleURLs(b.cfg, articles)
	b.articles = articles

	if err := b.app.Store.ReplacePosts(articles); err != nil {
		return fmt.Errorf("folio: index posts: %w", err)
	}
	b.app.Posts.Invalidate()
	tags, err := b.app.Posts.ListTags()
	if err != nil {
		return fmt.Errorf("folio: list tags: %w", err)
	}
	b.tags = tags
	b.app.Logger.Debugf("loaded %d pages, %d articles, %d tags", len(tree.pages), len(articles), len(tags))
	return nil
}

// plan lists every page of the site and assigns output paths.
func (b *build) plan() error {
	cfg := b.cfg
	var pages []*Page
	for _, p := range b.tree.pages {
		if ok, perPage := pageable(p.Meta); ok {
			if perPage <= 0 {
				perPage = cfg.Blog.PerPage
			}
			pages = append(pages, expandPaginated(cfg, p, b.articles, perPage)...)
			continue
		}
		pages = append(pages, p)
	}

	proxies, err := proxyPages(cfg, b.tree, b.data)
	if err != nil {
		return err
	}
	pages = append(pages, proxies...)

	for _, a := range b.articles {
		pages = append(pages, articlePage(cfg, a))
	}

	tagPages, err := b.tagPages()
	if err != nil {
		return err
	}
	pages = append(pages, tagPages...)

	calendarPages, err := b.calendarPages()
	if err != nil {
		return err
	}
	pages = append(pages, calendarPages...)

	pages = append(pages, b.generatedPages(pages)...)

	applyLayoutRules(cfg, pages)
	if err := assignOutputs(cfg, pages); err != nil {
		return err
	}
	b.pages = pages
	return nil
}

// proxyPages generates one page per item of each proxy rule's collection.
func proxyPages(cfg *SiteConfig, tree *sourceTree, data Data) ([]*Page, error) {
	var out []*Page
	for _, rule := range cfg.Proxies {
		items, err := data.Items(rule.Data)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			continue
		}
		tmpl := path.Clean(rule.Template)
		if _, ok := tree.templates[tmpl]; !ok {
			return nil, fmt.Errorf("%w: proxy template %s", ErrTemplateNotFound, tmpl)
		}
		for i, item := range items {
			p, ok := item.Field(rule.PathField)
			if !ok || p == "" {
				return nil, fmt.Errorf("folio: %s item %d has no %q", rule.Data, i, rule.PathField)
			}
			page := newPage(sitePath(p+".html"), tmpl, KindTemplate, tree.metas[tmpl])
			if title, ok := item.Field("title"); ok && title != "" {
				page.Title = title
			}
			page.Locals = map[string]any{rule.Local: item}
			page.Ignore = rule.Ignore
			out = append(out, page)
		}
	}
	return out, nil
}

func (b *build) tagPages() ([]*Page, error) {
	cfg := b.cfg
	tmpl, ok := b.tree.findBlogTemplate(cfg, cfg.Blog.TagTemplate)
	if !ok {
		b.app.Logger.Debugf("no %s template, skipping tag pages", cfg.Blog.TagTemplate)
		return nil, nil
	}
	var out []*Page
	for _, group := range groupTags(b.tags) {
		var articles []Article
		seen := make(map[string]bool)
		for _, tag := range group {
			posts, err := b.app.Posts.ListPosts(tag)
			if err != nil {
				return nil, fmt.Errorf("folio: posts tagged %q: %w", tag, err)
			}
			for _, a := range posts {
				if !seen[a.Path] {
					seen[a.Path] = true
					articles = append(articles, a)
				}
			}
		}
		if len(group) > 1 {
			sortArticles(articles)
		}
		articles = withURLs(cfg, articles)

		tag := group[0]
		base := newPage(tagPath(cfg, tag), tmpl, KindTemplate, b.tree.metas[tmpl])
		if base.Title == "" {
			base.Title = TitleCase(tag)
		}
		base.Locals = map[string]any{
			"tagname":   tag,
			"tags":      group,
			"tag_title": TitleCase(tag),
			"articles":  articles,
		}
		out = append(out, expandPaginated(cfg, base, articles, cfg.Blog.PerPage)...)
	}
	return out, nil
}

// groupTags groups tags sharing a listing path ("c" and "c++"), keeping
// the order of first appearance.
func groupTags(tags []string) [][]string {
	index := make(map[string]int)
	var groups [][]string
	for _, t := range tags {
		slug := tagSlug(t)
		i, ok := index[slug]
		if !ok {
			i = len(groups)
			index[slug] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], t)
	}
	return groups
}

func (b *build) calendarPages() ([]*Page, error) {
	cfg := b.cfg
	tmpl, ok := b.tree.findBlogTemplate(cfg, cfg.Blog.CalendarTemplate)
	if !ok {
		b.app.Logger.Debugf("no %s template, skipping calendar pages", cfg.Blog.CalendarTemplate)
		return nil, nil
	}
	var out []*Page
	for _, e := range calendarEntries(cfg, b.articles) {
		articles, err := b.app.Posts.ListPostsByDate(e.datePrefix)
		if err != nil {
			return nil, fmt.Errorf("folio: posts of %s: %w", e.datePrefix, err)
		}
		articles = withURLs(cfg, articles)
		base := newPage(e.path, tmpl, KindTemplate, b.tree.metas[tmpl])
		if base.Title == "" {
			base.Title = e.datePrefix
		}
		base.Locals = map[string]any{
			"year":     e.year,
			"month":    e.month,
			"day":      e.day,
			"articles": articles,
		}
		out = append(out, expandPaginated(cfg, base, articles, cfg.Blog.PerPage)...)
	}
	return out, nil
}

// withURLs returns a copy of articles with URLs set. Cached posts are
// shared between listings and must not be written to.
func withURLs(cfg *SiteConfig, articles []Article) []Article {
	out := make([]Article, len(articles))
	copy(out, articles)
	setArticleURLs(cfg, out)
	return out
}

// generatedPages adds the feed, the sitemap, the highlight stylesheet and
// the page script unless the source tree already has a page at that path.
func (b *build) generatedPages(planned []*Page) []*Page {
	cfg := b.cfg
	taken := make(map[string]bool, len(planned))
	for _, p := range planned {
		taken[p.Path] = true
	}

	var out []*Page
	add := func(p string, gen func() ([]byte, error)) {
		if taken[p] {
			b.app.Logger.Debugf("%s provided by source, not generating", p)
			return
		}
		out = append(out, &Page{
			Path:     p,
			Template: p,
			Kind:     KindGenerated,
			NoLayout: true,
			generate: gen,
		})
	}

	add("/feed.xml", func() ([]byte, error) {
		return renderRSS(cfg, b.articles)
	})
	add("/sitemap.xml", func() ([]byte, error) {
		return renderSitemap(cfg, b.pages, b.articles)
	})
	if *cfg.Syntax.Enabled {
		add(sitePath(cfg.Syntax.CSSPath), func() ([]byte, error) {
			var buf bytes.Buffer
			if err := b.app.md.WriteCSS(&buf); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		})
	}
	add("/javascripts/site.js", func() ([]byte, error) {
		return EmbeddedAssets.ReadFile(siteScript)
	})
	return out
}

// postProcess applies the responsive image class to HTML pages that went
// through a layout or template.
func (b *build) postProcess(p *Page, body []byte) ([]byte, error) {
	if !*b.cfg.ResponsiveImages || p.Kind == KindStatic || p.Kind == KindGenerated || path.Ext(p.OutputPath) != ".html" {
		return body, nil
	}
	doc, err := interact.ParseBytes(body)
	if err != nil {
		return nil, err
	}
	if interact.MarkResponsiveImages(doc) == 0 {
		return body, nil
	}
	return doc.Bytes()
}

func contentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// write renders every page concurrently, writes the changed ones and
// records the new manifest.
func (b *build) write(ctx context.Context, r *renderer) (BuildResult, error) {
	store := b.app.Store
	prev, err := store.Manifest()
	if err != nil {
		return BuildResult{}, fmt.Errorf("folio: read manifest: %w", err)
	}
	root := b.cfg.BuildPath()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return BuildResult{}, err
	}

	var (
		mu      sync.Mutex
		entries = make([]ManifestEntry, 0, len(b.pages))
		res     = BuildResult{Pages: len(b.pages)}
	)
	builtAt := b.app.now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, p := range b.pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			body, err := r.Render(ctx, p)
			if err != nil {
				return err
			}
			body, err = b.postProcess(p, body)
			if err != nil {
				return fmt.Errorf("folio: post-process %s: %w", p.Path, err)
			}
			hash := contentHash(body)
			dest := filepath.Join(root, filepath.FromSlash(p.OutputPath))

			skip := false
			if old, ok := prev[p.OutputPath]; ok && old.Hash == hash {
				if _, err := os.Stat(dest); err == nil {
					skip = true
				}
			}
			if !skip {
				if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
					return err
				}
				if err := os.WriteFile(dest, body, 0o644); err != nil {
					return fmt.Errorf("folio: write %s: %w", p.OutputPath, err)
				}
			}

			mu.Lock()
			defer mu.Unlock()
			if skip {
				res.Skipped++
				b.app.Logger.Debugf("unchanged %s", p.OutputPath)
			} else {
				res.Written++
				b.app.Logger.Debugf("wrote %s", p.OutputPath)
			}
			entries = append(entries, ManifestEntry{
				OutputPath: p.OutputPath,
				Source:     p.Template,
				Hash:       hash,
				NoLayout:   p.NoLayout || p.Kind == KindStatic || p.Kind == KindGenerated,
				Ignore:     p.Ignore,
				BuiltAt:    builtAt,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BuildResult{}, err
	}

	current := make(map[string]bool, len(entries))
	for _, e := range entries {
		current[e.OutputPath] = true
	}
	var stale []string
	for _, out := range sortedKeys(prev) {
		if !current[out] {
			stale = append(stale, out)
		}
	}
	for _, out := range stale {
		err := os.Remove(filepath.Join(root, filepath.FromSlash(out)))
		if err != nil && !os.IsNotExist(err) {
			return BuildResult{}, fmt.Errorf("folio: remove stale %s: %w", out, err)
		}
		res.Removed++
		b.app.Logger.Debugf("removed %s", out)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].OutputPath < entries[j].OutputPath })
	if err := store.ReplaceManifest(entries); err != nil {
		return BuildResult{}, fmt.Errorf("folio: record manifest: %w", err)
	}
	return res, nil
}

func sortedKeys(m map[string]ManifestEntry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
