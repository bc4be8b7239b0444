package document

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/docpointer/internal/model"
)

// skippedElements never contribute text.
var skippedElements = map[string]bool{
	"head":     true,
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// blockElements end the current line before and after their content.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figcaption": true, "figure": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"main": true, "nav": true, "ol": true, "p": true, "pre": true,
	"section": true, "table": true, "td": true, "th": true, "tr": true,
	"ul": true,
}

// HTMLProvider reads HTML documents. Elements whose inline style requests
// a page break (page-break-before/after: always, break-before/after: page)
// split pages.
type HTMLProvider struct{}

// NewHTMLProvider creates a new HTMLProvider.
func NewHTMLProvider() *HTMLProvider {
	return &HTMLProvider{}
}

// Name returns the provider name.
func (p *HTMLProvider) Name() string {
	return "html"
}

// Extensions returns the handled extensions.
func (p *HTMLProvider) Extensions() []string {
	return []string{".html", ".htm"}
}

// Pages returns the visible text of the document split at page breaks.
func (p *HTMLProvider) Pages(ctx context.Context, path string) ([]model.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := readUTF8(p.Name(), path)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, unreadable(p.Name(), path, err)
	}

	var b pageBuilder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.writeInline(n.Data)
			return
		case html.ElementNode:
			if skippedElements[n.Data] {
				return
			}
		}

		isElement := n.Type == html.ElementNode
		before, after := false, false
		if isElement {
			before, after = pageBreaks(getAttr(n, "style"))
			if before {
				b.breakPage()
			}
			if blockElements[n.Data] {
				b.newline()
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if isElement {
			if blockElements[n.Data] {
				b.newline()
			}
			if after {
				b.breakPage()
			}
		}
	}
	walk(doc)

	return b.finish(), nil
}

// pageBreaks reports whether an inline style asks for a page break before
// or after the element.
func pageBreaks(style string) (before, after bool) {
	if style == "" {
		return false, false
	}
	for _, decl := range strings.Split(style, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.ToLower(strings.TrimSpace(value))
		switch name {
		case "page-break-before":
			before = before || value == "always"
		case "break-before":
			before = before || value == "page"
		case "page-break-after":
			after = after || value == "always"
		case "break-after":
			after = after || value == "page"
		}
	}
	return before, after
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
