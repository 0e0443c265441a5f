// Package markdown renders Markdown to HTML with fenced code blocks, smart
// punctuation and chroma syntax highlighting, and exposes the result as a
// templ component.
package markdown

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/russross/blackfriday/v2"
)

// Options selects the Markdown dialect.
type Options struct {
	FencedCode  bool
	Smartypants bool

	Highlight bool
	Style     string // chroma style name, e.g. "github"
}

// DefaultOptions matches the site defaults: fenced code, smartypants and
// highlighting with the github style.
var DefaultOptions = Options{
	FencedCode:  true,
	Smartypants: true,
	Highlight:   true,
	Style:       "github",
}

const smartypantsFlags = blackfriday.Smartypants |
	blackfriday.SmartypantsFractions |
	blackfriday.SmartypantsDashes |
	blackfriday.SmartypantsLatexDashes

// Renderer converts Markdown source to HTML. It is safe for concurrent use;
// every call builds its own blackfriday renderer.
type Renderer struct {
	opts Options
	hl   *highlighter
}

// New returns a Renderer for opts.
func New(opts Options) *Renderer {
	r := &Renderer{opts: opts}
	if opts.Highlight {
		r.hl = newHighlighter(opts.Style)
	}
	return r
}

func (r *Renderer) extensions() blackfriday.Extensions {
	ext := blackfriday.CommonExtensions | blackfriday.AutoHeadingIDs
	if !r.opts.FencedCode {
		ext &^= blackfriday.FencedCode
	}
	return ext
}

func (r *Renderer) htmlFlags() blackfriday.HTMLFlags {
	flags := blackfriday.CommonHTMLFlags
	if !r.opts.Smartypants {
		flags &^= smartypantsFlags
	}
	return flags
}

// Render returns the HTML for src.
func (r *Renderer) Render(src []byte) []byte {
	var renderer blackfriday.Renderer = blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: r.htmlFlags(),
	})
	if r.hl != nil {
		renderer = r.hl.wrap(renderer.(*blackfriday.HTMLRenderer))
	}
	return blackfriday.Run(src,
		blackfriday.WithExtensions(r.extensions()),
		blackfriday.WithRenderer(renderer),
	)
}

// RenderMarkdown writes the HTML representation of md to buf.
func (r *Renderer) RenderMarkdown(buf *bytes.Buffer, md string) {
	buf.Write(r.Render([]byte(md)))
}

// Markdown returns a templ.Component that renders content as HTML.
func (r *Renderer) Markdown(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := w.Write(r.Render([]byte(content)))
		return err
	})
}

// WriteCSS writes the stylesheet for the highlighting style. It writes
// nothing when highlighting is disabled.
func (r *Renderer) WriteCSS(w io.Writer) error {
	if r.hl == nil {
		return nil
	}
	return r.hl.writeCSS(w)
}

// Highlighting reports whether code blocks are highlighted.
func (r *Renderer) Highlighting() bool {
	return r.hl != nil
}

var defaultRenderer = New(DefaultOptions)

// Markdown renders content with DefaultOptions.
func Markdown(content string) templ.Component {
	return defaultRenderer.Markdown(content)
}

// RenderMarkdown writes the HTML representation of md to buf using
// DefaultOptions.
func RenderMarkdown(buf *bytes.Buffer, md string) {
	defaultRenderer.RenderMarkdown(buf, md)
}
