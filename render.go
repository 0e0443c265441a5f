package folio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/a-h/templ"

	"github.com/jamgar/folio/markdown"
)

// ErrTemplateNotFound is returned when a page names a template or layout
// that does not exist in the source tree.
var ErrTemplateNotFound = errors.New("folio: template not found")

// executor is the common surface of html/template and text/template.
type executor interface {
	Execute(w io.Writer, data any) error
}

// renderer turns pages into templ components. Parsed templates are cached
// per build; a renderer is safe for concurrent use.
type renderer struct {
	cfg  *SiteConfig
	tree *sourceTree
	md   *markdown.Renderer
	site *SiteView

	mu    sync.Mutex
	cache map[string]executor
}

func newRenderer(cfg *SiteConfig, tree *sourceTree, md *markdown.Renderer, site *SiteView) *renderer {
	return &renderer{
		cfg:   cfg,
		tree:  tree,
		md:    md,
		site:  site,
		cache: make(map[string]executor),
	}
}

func (r *renderer) funcs() map[string]any {
	return map[string]any{
		"url_for": func(p string) string {
			return URLFor(outputFor(r.cfg, p, true))
		},
		"absolute_url": func(p string) string { return BuildURL(r.cfg.URL, p) },
		"tag_url":      r.site.TagURL,
		"join_tags":    JoinTags,
		"slugify":      Slugify,
		"title_case":   TitleCase,
		"markdown": func(s string) htmltemplate.HTML {
			return htmltemplate.HTML(r.md.Render([]byte(s)))
		},
		"summary": func(a Article) htmltemplate.HTML { return a.Summary },
		"safe":    func(s string) htmltemplate.HTML { return htmltemplate.HTML(s) },
	}
}

// partialName maps "_nav.html" and "shared/_footer.html" to "nav" and
// "shared/footer".
func partialName(rel string) string {
	dir, file := path.Split(rel)
	file = strings.TrimPrefix(file, "_")
	return dir + strings.TrimSuffix(file, path.Ext(file))
}

// template returns the parsed template for rel with every partial of the
// same flavour available by name.
func (r *renderer) template(rel string) (executor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.cache[rel]; ok {
		return t, nil
	}
	body, ok := r.tree.templates[rel]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, rel)
	}

	var t executor
	if path.Ext(rel) == ".html" {
		ht := htmltemplate.New(rel).Funcs(r.funcs())
		for _, p := range r.tree.partials {
			if path.Ext(p) != ".html" {
				continue
			}
			if _, err := ht.New(partialName(p)).Parse(string(r.tree.templates[p])); err != nil {
				return nil, fmt.Errorf("folio: parse partial %s: %w", p, err)
			}
		}
		if _, err := ht.Parse(string(body)); err != nil {
			return nil, fmt.Errorf("folio: parse %s: %w", rel, err)
		}
		t = ht
	} else {
		tt := texttemplate.New(rel).Funcs(r.funcs())
		for _, p := range r.tree.partials {
			if path.Ext(p) == ".html" {
				continue
			}
			if _, err := tt.New(partialName(p)).Parse(string(r.tree.templates[p])); err != nil {
				return nil, fmt.Errorf("folio: parse partial %s: %w", p, err)
			}
		}
		if _, err := tt.Parse(string(body)); err != nil {
			return nil, fmt.Errorf("folio: parse %s: %w", rel, err)
		}
		t = tt
	}
	r.cache[rel] = t
	return t, nil
}

// data is what templates see: .Site, .Page, .Meta, .Locals and every local
// at the top level ({{ .project.name }}).
func (r *renderer) data(p *Page) map[string]any {
	d := map[string]any{
		"Site":   r.site,
		"Page":   p,
		"Meta":   p.Meta,
		"Locals": p.Locals,
		"Title":  r.site.PageTitle(p),
	}
	for k, v := range p.Locals {
		d[k] = v
	}
	return d
}

// body renders the page content without any layout.
func (r *renderer) body(p *Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		switch p.Kind {
		case KindTemplate:
			t, err := r.template(p.Template)
			if err != nil {
				return err
			}
			return t.Execute(w, r.data(p))
		case KindMarkdown:
			return r.md.Markdown(string(p.body)).Render(ctx, w)
		case KindStatic:
			f, err := os.Open(filepath.Join(r.cfg.SourcePath(), filepath.FromSlash(p.Template)))
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = io.Copy(w, f)
			return err
		case KindGenerated:
			b, err := p.generate()
			if err != nil {
				return err
			}
			_, err = w.Write(b)
			return err
		}
		return fmt.Errorf("folio: unknown page kind %v", p.Kind)
	})
}

// layoutChain returns the layouts wrapping p, innermost first. A layout
// other than the default nests inside the default unless its own front
// matter says `layout: false`.
func (r *renderer) layoutChain(p *Page) ([]string, error) {
	if p.NoLayout || p.Kind == KindStatic || p.Kind == KindGenerated {
		return nil, nil
	}
	name := p.Layout
	if name == "" {
		name = r.cfg.DefaultLayout
	}
	rel, ok := r.tree.layouts[name]
	if !ok {
		if p.Layout != "" && p.Layout != r.cfg.DefaultLayout {
			return nil, fmt.Errorf("%w: layout %q for %s", ErrTemplateNotFound, p.Layout, p.Path)
		}
		return nil, nil
	}
	chain := []string{rel}
	if name == r.cfg.DefaultLayout {
		return chain, nil
	}
	if v, ok := r.tree.metas[rel]["layout"].(bool); ok && !v {
		return chain, nil
	}
	if outer, ok := r.tree.layouts[r.cfg.DefaultLayout]; ok {
		chain = append(chain, outer)
	}
	return chain, nil
}

// layout executes the layout at rel with the rendered children as .Content.
func (r *renderer) layout(rel string, p *Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var inner bytes.Buffer
		if err := templ.GetChildren(ctx).Render(ctx, &inner); err != nil {
			return err
		}
		t, err := r.template(rel)
		if err != nil {
			return err
		}
		d := r.data(p)
		d["Content"] = htmltemplate.HTML(inner.String())
		return t.Execute(w, d)
	})
}

func wrap(children, layout templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return layout.Render(templ.WithChildren(ctx, children), w)
	})
}

// Component returns the full page: body wrapped in its layouts.
func (r *renderer) Component(p *Page) (templ.Component, error) {
	chain, err := r.layoutChain(p)
	if err != nil {
		return nil, err
	}
	c := r.body(p)
	for _, rel := range chain {
		c = wrap(c, r.layout(rel, p))
	}
	return c, nil
}

// Render renders p to bytes.
func (r *renderer) Render(ctx context.Context, p *Page) ([]byte, error) {
	c, err := r.Component(p)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return nil, fmt.Errorf("folio: render %s: %w", p.Path, err)
	}
	return buf.Bytes(), nil
}
