// Package classify routes free-text pointers to field categories.
package classify

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/docpointer/internal/model"
)

// Rule routes a pointer to Category when it contains any of Keywords.
type Rule struct {
	Category model.FieldCategory
	Keywords []string
}

// Matches reports whether the lower-cased pointer contains a rule keyword.
func (r Rule) Matches(lowered string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// rules is evaluated top to bottom and the first matching rule wins.
// A pointer mentioning both a date and a signature is therefore a date.
var rules = []Rule{
	{Category: model.CategoryDate, Keywords: []string{"date", "day"}},
	{Category: model.CategorySignature, Keywords: []string{"sign"}},
	{Category: model.CategoryCurrencyAmount, Keywords: []string{"total", "value", "amount", "price", "cost"}},
	{Category: model.CategoryEmail, Keywords: []string{"email"}},
	{Category: model.CategoryPhone, Keywords: []string{"phone", "mobile", "contact"}},
}

// Rules returns a copy of the ordered rule list.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = Rule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// Classify returns the category of pointer, or model.CategoryUnclassified
// when no rule matches. Matching is case-insensitive substring containment.
func Classify(pointer string) model.FieldCategory {
	if pointer == "" {
		return model.CategoryUnclassified
	}
	// A Caser carries state, so each call gets its own.
	lowered := cases.Lower(language.Und).String(pointer)
	for _, r := range rules {
		if r.Matches(lowered) {
			return r.Category
		}
	}
	return model.CategoryUnclassified
}
