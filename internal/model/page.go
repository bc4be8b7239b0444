package model

import "fmt"

// Page is one page of document text as produced by a document-text provider.
// A Page is immutable once produced and is not retained after an extraction.
type Page struct {
	// Number is the 1-based page number in provider emission order.
	Number int `json:"page_number"`

	// Text is the extracted page text. It is empty when the provider
	// could not extract anything for the page.
	Text string `json:"text"`
}

// NewPages builds a contiguous page sequence numbered from 1.
func NewPages(texts ...string) []Page {
	pages := make([]Page, len(texts))
	for i, text := range texts {
		pages[i] = Page{Number: i + 1, Text: text}
	}
	return pages
}

// ValidatePages checks that pages are numbered contiguously from 1.
func ValidatePages(pages []Page) error {
	for i, p := range pages {
		if p.Number != i+1 {
			return fmt.Errorf("%w: position %d has page number %d", ErrPageNumbering, i, p.Number)
		}
	}
	return nil
}

// IsBlank reports whether the page carries no text.
func (p Page) IsBlank() bool {
	return p.Text == ""
}
