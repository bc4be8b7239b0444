package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/docpointer/internal/model"
)

// Provider extracts per-page text from one document format.
type Provider interface {
	// Name returns the format name for logging and errors.
	Name() string

	// Extensions returns the lower-case file extensions handled, with dots.
	Extensions() []string

	// Pages returns the document text page by page, numbered from 1.
	Pages(ctx context.Context, path string) ([]model.Page, error)
}

// Registry selects a provider by file extension.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a registry. Later providers override earlier ones
// that claim the same extension.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		for _, ext := range p.Extensions() {
			r.providers[strings.ToLower(ext)] = p
		}
	}
	return r
}

// NewDefaultRegistry creates a registry with every built-in provider.
func NewDefaultRegistry(opts ...PDFOption) *Registry {
	return NewRegistry(
		NewPDFProvider(opts...),
		NewHTMLProvider(),
		NewMarkdownProvider(),
		NewTextProvider(),
	)
}

// ForPath returns the provider for path's extension.
func (r *Registry) ForPath(path string) (Provider, error) {
	ext := strings.ToLower(filepath.Ext(path))
	p, ok := r.providers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return p, nil
}

// Supported reports whether path has a handled extension.
func (r *Registry) Supported(path string) bool {
	_, err := r.ForPath(path)
	return err == nil
}

// Extensions returns every handled extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.providers))
	for ext := range r.providers {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Pages reads path with the provider for its extension.
func (r *Registry) Pages(ctx context.Context, path string) ([]model.Page, error) {
	p, err := r.ForPath(path)
	if err != nil {
		return nil, err
	}
	return p.Pages(ctx, path)
}

// readUTF8 reads a text-based document and rejects invalid UTF-8.
func readUTF8(format, path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the upload store
	if err != nil {
		return "", unreadable(format, path, err)
	}
	if !utf8.Valid(data) {
		return "", unreadable(format, path, errInvalidUTF8)
	}
	return string(data), nil
}

// normalize NFC-normalises page text and strips surrounding whitespace.
func normalize(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// pageBuilder accumulates text for formats that mark page breaks inline.
type pageBuilder struct {
	pages []string
	cur   strings.Builder
}

// write appends s to the current page.
func (b *pageBuilder) write(s string) {
	b.cur.WriteString(s)
}

// writeInline appends s with whitespace runs collapsed to single spaces.
func (b *pageBuilder) writeInline(s string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" {
			b.space()
		}
		return
	}
	if startsWithSpace(s) {
		b.space()
	}
	b.cur.WriteString(strings.Join(fields, " "))
	if endsWithSpace(s) {
		b.space()
	}
}

// space appends one space unless the page is empty or already ends in
// whitespace.
func (b *pageBuilder) space() {
	s := b.cur.String()
	if s == "" || strings.HasSuffix(s, " ") || strings.HasSuffix(s, "\n") {
		return
	}
	b.cur.WriteByte(' ')
}

// newline ends the current line unless it is already ended.
func (b *pageBuilder) newline() {
	s := b.cur.String()
	if s == "" || strings.HasSuffix(s, "\n") {
		return
	}
	b.cur.WriteByte('\n')
}

// breakPage closes the current page. A break before any content is ignored.
func (b *pageBuilder) breakPage() {
	if len(b.pages) == 0 && strings.TrimSpace(b.cur.String()) == "" {
		b.cur.Reset()
		return
	}
	b.pages = append(b.pages, b.cur.String())
	b.cur.Reset()
}

// finish returns the collected pages. A trailing empty page left by a
// final break is dropped; an empty document yields one blank page.
func (b *pageBuilder) finish() []model.Page {
	if strings.TrimSpace(b.cur.String()) != "" || len(b.pages) == 0 {
		b.pages = append(b.pages, b.cur.String())
	}
	pages := make([]model.Page, len(b.pages))
	for i, text := range b.pages {
		pages[i] = model.Page{Number: i + 1, Text: normalize(tidyLines(text))}
	}
	return pages
}

// tidyLines trims every line and drops blank ones.
func tidyLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
