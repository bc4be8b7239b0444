package model

import "time"

// Match is one located occurrence of a detected pattern.
type Match struct {
	// Snippet is the verbatim matched substring of the page text.
	Snippet string `json:"snippet"`

	// Page is the page number the snippet was found on.
	Page int `json:"page"`

	// Rationale is the fixed, category-specific explanation for the match.
	Rationale string `json:"rationale"`
}

// PointerResult holds every match for one input pointer.
type PointerResult struct {
	// Query is the pointer exactly as the caller supplied it.
	Query string `json:"query"`

	// Category is the category the pointer was routed to.
	// It is not part of the wire shape.
	Category FieldCategory `json:"-"`

	// Matches are ordered by page, then by position within the page.
	// It is never nil so that it always serializes as a JSON array.
	Matches []Match `json:"matches"`
}

// ExtractionResponse is the result of one extraction: one PointerResult per
// input pointer, in input order.
type ExtractionResponse struct {
	Pointers []PointerResult `json:"pointers"`
}

// NewExtractionResponse allocates a response with one empty result per pointer.
func NewExtractionResponse(pointers []string) *ExtractionResponse {
	results := make([]PointerResult, len(pointers))
	for i, p := range pointers {
		results[i] = PointerResult{Query: p, Matches: []Match{}}
	}
	return &ExtractionResponse{Pointers: results}
}

// MatchCount returns the total number of matches across all pointers.
func (r *ExtractionResponse) MatchCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, p := range r.Pointers {
		n += len(p.Matches)
	}
	return n
}

// ExtractionReport wraps an ExtractionResponse with document metadata.
// It is what report writers and the history database consume.
type ExtractionReport struct {
	// ID is the history database identifier. Zero when not persisted.
	ID int64 `json:"id,omitempty"`

	// Document is the original (client-facing) document name.
	Document string `json:"document"`

	// StoredName is the unique name under which the upload was stored.
	StoredName string `json:"stored_name,omitempty"`

	// SHA3 is the hex SHA3-256 digest of the document bytes.
	SHA3 string `json:"sha3,omitempty"`

	// Size is the document size in bytes.
	Size int64 `json:"size,omitempty"`

	// PageCount is the number of pages the provider produced.
	PageCount int `json:"page_count"`

	// ExtractedAt is when the extraction finished.
	ExtractedAt time.Time `json:"extracted_at"`

	// Duration is how long page reading and extraction took.
	Duration time.Duration `json:"duration"`

	// Response is the extraction result.
	Response *ExtractionResponse `json:"response"`
}

// NewExtractionReport creates a report for the named document.
func NewExtractionReport(document string) *ExtractionReport {
	return &ExtractionReport{
		Document:    document,
		ExtractedAt: time.Now(),
		Response:    &ExtractionResponse{Pointers: []PointerResult{}},
	}
}

// Summary counts matches by category.
type Summary struct {
	Pointers     int                   `json:"pointers"`
	Unclassified int                   `json:"unclassified"`
	Unmatched    int                   `json:"unmatched"`
	Matches      int                   `json:"matches"`
	ByCategory   map[FieldCategory]int `json:"by_category"`
}

// Summary computes match statistics for the report.
func (r *ExtractionReport) Summary() Summary {
	s := Summary{ByCategory: make(map[FieldCategory]int)}
	if r == nil || r.Response == nil {
		return s
	}
	for _, p := range r.Response.Pointers {
		s.Pointers++
		if !p.Category.IsClassified() {
			s.Unclassified++
		}
		if len(p.Matches) == 0 {
			s.Unmatched++
			continue
		}
		s.Matches += len(p.Matches)
		s.ByCategory[p.Category] += len(p.Matches)
	}
	return s
}
