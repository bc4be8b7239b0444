package document

import (
	"context"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/nao1215/docpointer/internal/model"
)

// MarkdownProvider reads Markdown documents. Thematic breaks (---, ***)
// split pages.
type MarkdownProvider struct {
	md goldmark.Markdown
}

// NewMarkdownProvider creates a new MarkdownProvider with GFM tables and
// strikethrough enabled.
func NewMarkdownProvider() *MarkdownProvider {
	return &MarkdownProvider{
		md: goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough)),
	}
}

// Name returns the provider name.
func (p *MarkdownProvider) Name() string {
	return "markdown"
}

// Extensions returns the handled extensions.
func (p *MarkdownProvider) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Pages returns the rendered text of the document split at thematic breaks.
func (p *MarkdownProvider) Pages(ctx context.Context, path string) ([]model.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := readUTF8(p.Name(), path)
	if err != nil {
		return nil, err
	}
	return p.split([]byte(content))
}

func (p *MarkdownProvider) split(source []byte) ([]model.Page, error) {
	doc := p.md.Parser().Parse(text.NewReader(source))
	w := &markdownWalker{source: source}
	if err := ast.Walk(doc, w.walk); err != nil {
		return nil, err
	}
	return w.b.finish(), nil
}

type markdownWalker struct {
	source []byte
	b      pageBuilder
}

func (w *markdownWalker) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.ThematicBreak:
		if entering {
			w.b.breakPage()
		}
	case *ast.Text:
		if entering {
			w.b.write(string(node.Segment.Value(w.source)))
			if node.SoftLineBreak() || node.HardLineBreak() {
				w.b.newline()
			}
		}
	case *ast.String:
		if entering {
			w.b.write(string(node.Value))
		}
	case *ast.AutoLink:
		if entering {
			w.b.write(string(node.Label(w.source)))
		}
		return ast.WalkSkipChildren, nil
	case *ast.CodeBlock, *ast.FencedCodeBlock:
		if entering {
			w.writeLines(n.Lines())
		}
		return ast.WalkSkipChildren, nil
	case *ast.HTMLBlock, *ast.RawHTML:
		return ast.WalkSkipChildren, nil
	case *extast.TableCell:
		if !entering {
			w.b.write(" ")
		}
	case *ast.Heading, *ast.Paragraph, *ast.ListItem, *ast.TextBlock, *extast.TableRow, *extast.TableHeader:
		w.b.newline()
	}
	return ast.WalkContinue, nil
}

func (w *markdownWalker) writeLines(lines *text.Segments) {
	w.b.newline()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		w.b.write(string(line.Value(w.source)))
	}
	w.b.newline()
}
