package document

import (
	"context"
	"strings"

	"github.com/nao1215/docpointer/internal/model"
)

// formFeed separates pages in plain-text exports such as pdftotext output.
const formFeed = "\f"

// TextProvider reads UTF-8 plain text, splitting pages on form feeds.
type TextProvider struct{}

// NewTextProvider creates a new TextProvider.
func NewTextProvider() *TextProvider {
	return &TextProvider{}
}

// Name returns the provider name.
func (p *TextProvider) Name() string {
	return "text"
}

// Extensions returns the handled extensions.
func (p *TextProvider) Extensions() []string {
	return []string{".txt", ".text"}
}

// Pages returns one page per form-feed separated section.
func (p *TextProvider) Pages(ctx context.Context, path string) ([]model.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := readUTF8(p.Name(), path)
	if err != nil {
		return nil, err
	}
	return splitFormFeeds(content), nil
}

func splitFormFeeds(content string) []model.Page {
	sections := strings.Split(content, formFeed)
	if len(sections) > 1 && strings.TrimSpace(sections[len(sections)-1]) == "" {
		sections = sections[:len(sections)-1]
	}
	pages := make([]model.Page, len(sections))
	for i, s := range sections {
		pages[i] = model.Page{Number: i + 1, Text: normalize(s)}
	}
	return pages
}
