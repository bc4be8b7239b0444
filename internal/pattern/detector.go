package pattern

import (
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/nao1215/docpointer/internal/model"
)

// Character classes shared by the detectors. Go's \w, \s and \d are
// ASCII-only, while document text routinely carries accented letters,
// non-Latin digits and no-break spaces, so the patterns are spelled with
// Unicode classes instead.
const (
	// wordChars is a letter, a number or an underscore.
	wordChars = `\p{L}\p{N}_`

	// digit is any decimal digit, e.g. 7 or the Devanagari ७.
	digit = `\p{Nd}`

	// spaceChars is any whitespace, including U+00A0 and the other
	// Unicode separators.
	spaceChars = `\s\v\p{Z}\x{85}\x{1c}-\x{1f}`

	space = `[` + spaceChars + `]`

	// wordEnd requires that a match is not followed by a word character.
	// It consumes that character, so patterns using it report their first
	// capture group; see findAllWords.
	wordEnd = `(?:[^` + wordChars + `]|$)`
)

// Hit is one detector match before it is attributed to a page.
type Hit struct {
	// Snippet is the verbatim matched text.
	Snippet string

	// Rationale is the detector's fixed explanation string.
	Rationale string
}

// Detector locates values of one field category in a block of text.
//
// Implementations must be stateless: calling Detect twice on the same text
// returns identical results, and Detect may be called from many goroutines
// at once.
type Detector interface {
	// Name returns the detector's name for logging and reporting.
	Name() string

	// Category returns the field category this detector serves.
	Category() model.FieldCategory

	// Rationale returns the explanation attached to every hit.
	Rationale() string

	// Detect returns every non-overlapping match in text, in order.
	Detect(text string) []Hit
}

// findAll runs re over text and wraps each match with rationale.
func findAll(re *regexp.Regexp, text, rationale string) []Hit {
	if text == "" {
		return nil
	}
	found := re.FindAllString(text, -1)
	if len(found) == 0 {
		return nil
	}
	hits := make([]Hit, len(found))
	for i, s := range found {
		hits[i] = Hit{Snippet: s, Rationale: rationale}
	}
	return hits
}

// findAllWords is findAll for patterns that must stand as whole words.
// RE2 has no lookbehind and its \b only knows ASCII letters, so the
// boundary before a match is checked here and the one after it by wordEnd.
// re reports the match in its first capture group and ends in wordEnd.
// A candidate preceded by a word character is skipped and the search
// resumes one rune later, so a shorter match inside the rejected one can
// still be found.
func findAllWords(re *regexp.Regexp, text, rationale string) []Hit {
	var hits []Hit
	for pos := 0; pos < len(text); {
		loc := re.FindStringSubmatchIndex(text[pos:])
		if loc == nil || loc[2] < 0 {
			break
		}
		start, end := pos+loc[2], pos+loc[3]
		if precededByWord(text, start) {
			_, size := utf8.DecodeRuneInString(text[start:])
			pos = start + size
			continue
		}
		hits = append(hits, Hit{Snippet: text[start:end], Rationale: rationale})
		pos = end
	}
	return hits
}

// precededByWord reports whether the rune before text[i] is a word
// character.
func precededByWord(text string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Registry maps each field category to its detector.
// A Registry is never modified after construction, so it is safe to
// share between goroutines without locking.
//
// Design decision: a category has at most one detector. Routing a
// pointer then yields exactly one rationale string per match, and the
// result order depends only on page order and match position.
type Registry struct {
	detectors map[model.FieldCategory]Detector
}

// NewRegistry builds a registry from detectors. It fails when two detectors
// claim the same category or a detector claims CategoryUnclassified.
func NewRegistry(detectors ...Detector) (*Registry, error) {
	r := &Registry{detectors: make(map[model.FieldCategory]Detector, len(detectors))}
	for _, d := range detectors {
		c := d.Category()
		if !c.IsClassified() {
			return nil, fmt.Errorf("%w: detector %s", ErrUnclassifiedDetector, d.Name())
		}
		if existing, ok := r.detectors[c]; ok {
			return nil, fmt.Errorf("%w: %s and %s both serve %s", ErrDuplicateDetector, existing.Name(), d.Name(), c)
		}
		r.detectors[c] = d
	}
	return r, nil
}

// Lookup returns the detector for category.
// It reports false for CategoryUnclassified and unregistered categories.
func (r *Registry) Lookup(category model.FieldCategory) (Detector, bool) {
	d, ok := r.detectors[category]
	return d, ok
}

// Detectors returns the registered detectors in category order.
func (r *Registry) Detectors() []Detector {
	out := make([]Detector, 0, len(r.detectors))
	for _, c := range model.Categories {
		if d, ok := r.detectors[c]; ok {
			out = append(out, d)
		}
	}
	return out
}

// builtin is compiled once at package initialisation.
var builtin = mustBuiltin()

func mustBuiltin() *Registry {
	r, err := NewRegistry(
		NewDateDetector(),
		NewSignatureDetector(),
		NewCurrencyDetector(),
		NewEmailDetector(),
		NewPhoneDetector(),
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the shared registry of built-in detectors.
func Default() *Registry {
	return builtin
}

// Select returns a registry holding only the built-in detectors for the
// named categories, such as "date" or "currency_amount". Names are matched
// case-insensitively and repeated names are ignored. With no names it
// returns Default().
//
// Design decision: a pointer routed to a category left out of the
// selection is answered with no matches, the same as an unclassified
// pointer. The response still carries one entry per pointer, so clients
// see the same shape whichever detectors are enabled.
func Select(names ...string) (*Registry, error) {
	if len(names) == 0 {
		return Default(), nil
	}
	seen := make(map[model.FieldCategory]bool, len(names))
	detectors := make([]Detector, 0, len(names))
	for _, name := range names {
		c, err := model.ParseFieldCategory(name)
		if err != nil || !c.IsClassified() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDetector, name)
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		d, _ := builtin.Lookup(c)
		detectors = append(detectors, d)
	}
	return NewRegistry(detectors...)
}
