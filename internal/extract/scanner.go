package extract

import (
	"github.com/nao1215/docpointer/internal/model"
	"github.com/nao1215/docpointer/internal/pattern"
)

// Scanner runs category detectors over single pages.
type Scanner struct {
	registry *pattern.Registry
}

// NewScanner creates a Scanner backed by registry.
// A nil registry selects pattern.Default().
func NewScanner(registry *pattern.Registry) *Scanner {
	if registry == nil {
		registry = pattern.Default()
	}
	return &Scanner{registry: registry}
}

// Scan returns the matches of category's detector on page, in text order.
// Unclassified or unregistered categories yield an empty slice without
// running any detector.
func (s *Scanner) Scan(category model.FieldCategory, page model.Page) []model.Match {
	det, ok := s.registry.Lookup(category)
	if !ok {
		return []model.Match{}
	}
	hits := det.Detect(page.Text)
	matches := make([]model.Match, len(hits))
	for i, h := range hits {
		matches[i] = model.Match{
			Snippet:   h.Snippet,
			Page:      page.Number,
			Rationale: h.Rationale,
		}
	}
	return matches
}
