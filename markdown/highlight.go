package markdown

import (
	"bytes"
	"io"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/russross/blackfriday/v2"
)

// highlighter replaces blackfriday's code block output with chroma markup.
// Everything else is delegated to the wrapped HTML renderer.
type highlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

func newHighlighter(style string) *highlighter {
	return &highlighter{
		style:     styles.Get(style),
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
	}
}

func (h *highlighter) wrap(base *blackfriday.HTMLRenderer) *highlightRenderer {
	return &highlightRenderer{HTMLRenderer: base, hl: h}
}

func (h *highlighter) highlight(w io.Writer, code []byte, lang string) error {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, string(code))
	if err != nil {
		return err
	}
	// Format into a buffer so a failure never leaves half a block in w.
	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, it); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func (h *highlighter) writeCSS(w io.Writer) error {
	return h.formatter.WriteCSS(w, h.style)
}

type highlightRenderer struct {
	*blackfriday.HTMLRenderer
	hl *highlighter
}

func (r *highlightRenderer) RenderNode(w io.Writer, node *blackfriday.Node, entering bool) blackfriday.WalkStatus {
	if node.Type != blackfriday.CodeBlock {
		return r.HTMLRenderer.RenderNode(w, node, entering)
	}
	if err := r.hl.highlight(w, node.Literal, codeLang(node.CodeBlockData.Info)); err != nil {
		return r.HTMLRenderer.RenderNode(w, node, entering)
	}
	return blackfriday.GoToNext
}

// codeLang returns the first word of a fence info string ("go {linenos}" -> "go").
func codeLang(info []byte) string {
	fields := bytes.Fields(info)
	if len(fields) == 0 {
		return ""
	}
	return string(fields[0])
}
