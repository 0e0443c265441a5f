package folio

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
)

// sourceTree is the scanned source directory.
type sourceTree struct {
	pages     []*Page
	postFiles []string          // blog post candidates, relative slash paths
	layouts   map[string]string // layout name -> relative path
	partials  []string
	templates map[string][]byte         // every template body by relative path, front matter stripped
	metas     map[string]map[string]any // front matter of every template
}

// templateExts are rendered through Go templates; everything else that is
// not Markdown is copied verbatim.
var templateExts = map[string]bool{".html": true, ".xml": true, ".json": true, ".txt": true}

func scanSource(cfg *SiteConfig) (*sourceTree, error) {
	root := cfg.SourcePath()
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("folio: source directory: %w", err)
	}

	ignored := make(map[string]bool)
	for _, rule := range cfg.Proxies {
		if rule.Ignore {
			ignored[path.Clean(rule.Template)] = true
		}
	}
	for _, t := range []string{cfg.Blog.TagTemplate, cfg.Blog.CalendarTemplate} {
		for _, candidate := range blogTemplateCandidates(cfg, t) {
			ignored[candidate] = true
		}
	}
	blogDir := path.Clean(cfg.Blog.Prefix)
	postExt := "." + cfg.Blog.DefaultExtension

	tree := &sourceTree{
		layouts:   make(map[string]string),
		templates: make(map[string][]byte),
		metas:     make(map[string]map[string]any),
	}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != root {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		name := path.Base(rel)
		ext := path.Ext(rel)

		switch {
		case strings.HasPrefix(name, "."):
			return nil
		case strings.HasPrefix(rel, cfg.LayoutsDir+"/"):
			if _, err := tree.loadTemplate(root, rel); err != nil {
				return err
			}
			tree.layouts[strings.TrimSuffix(strings.TrimPrefix(rel, cfg.LayoutsDir+"/"), ext)] = rel
			return nil
		case strings.HasPrefix(name, "_") && templateExts[ext]:
			tree.partials = append(tree.partials, rel)
			_, err := tree.loadTemplate(root, rel)
			return err
		case path.Dir(rel) == blogDir && ext == postExt:
			tree.postFiles = append(tree.postFiles, rel)
			return nil
		}

		switch {
		case ext == ".md":
			page, err := loadMarkdownPage(root, rel)
			if err != nil {
				return err
			}
			tree.pages = append(tree.pages, page)
		case templateExts[ext]:
			meta, err := tree.loadTemplate(root, rel)
			if err != nil {
				return err
			}
			// Proxy, tag and calendar templates only render through the
			// pages generated from them.
			if ignored[rel] {
				return nil
			}
			tree.pages = append(tree.pages, newPage("/"+rel, rel, KindTemplate, meta))
		default:
			tree.pages = append(tree.pages, &Page{
				Path:     "/" + rel,
				Template: rel,
				Kind:     KindStatic,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("folio: scan source: %w", err)
	}
	return tree, nil
}

// loadTemplate reads a template, keeps its body for parsing and returns its
// front matter.
func (t *sourceTree) loadTemplate(root, rel string) (map[string]any, error) {
	raw, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}
	var fm map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
	if err != nil {
		return nil, fmt.Errorf("front matter in %s: %w", rel, err)
	}
	if fm == nil {
		fm = map[string]any{}
	}
	t.templates[rel] = body
	t.metas[rel] = fm
	return fm, nil
}

func loadMarkdownPage(root, rel string) (*Page, error) {
	raw, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}
	var fm map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
	if err != nil {
		return nil, fmt.Errorf("front matter in %s: %w", rel, err)
	}
	out := strings.TrimSuffix(rel, ".md")
	if path.Ext(out) == "" {
		out += ".html"
	}
	page := newPage("/"+out, rel, KindMarkdown, fm)
	page.body = body
	return page, nil
}

// newPage builds a page and applies the front matter keys folio honours.
func newPage(p, tmpl string, kind PageKind, meta map[string]any) *Page {
	if meta == nil {
		meta = map[string]any{}
	}
	page := &Page{
		Path:           p,
		Template:       tmpl,
		Kind:           kind,
		Meta:           meta,
		DirectoryIndex: true,
	}
	if s, ok := meta["title"].(string); ok {
		page.Title = s
	}
	switch v := meta["layout"].(type) {
	case string:
		page.Layout = v
	case bool:
		page.NoLayout = !v
	}
	if v, ok := meta["ignore"].(bool); ok {
		page.Ignore = v
	}
	if v, ok := meta["directory_index"].(bool); ok {
		page.DirectoryIndex = v
	}
	return page
}

// pageable reports whether front matter asked for blog pagination, and the
// per-page override if any.
func pageable(meta map[string]any) (bool, int) {
	ok, _ := meta["pageable"].(bool)
	if !ok {
		return false, 0
	}
	switch n := meta["per_page"].(type) {
	case int:
		return true, n
	case int64:
		return true, int(n)
	case uint64:
		return true, int(n)
	case float64:
		return true, int(n)
	}
	return true, 0
}
