package pattern

import (
	"regexp"

	"github.com/nao1215/docpointer/internal/model"
)

// RationaleCurrency is attached to every currency match.
const RationaleCurrency = "Matched currency pattern"

// currencyRegex matches a symbol or code (₹, Rs., Rs, USD, $), one optional
// whitespace character such as the no-break space PDFs put after ₹, then
// digits with optional comma separators and an optional decimal part.
var currencyRegex = regexp.MustCompile(
	`(?i)(?:₹|Rs\.?|USD|\$)` + space + `?[` + digit + `,]+(?:\.` + digit + `+)?`)

// CurrencyDetector finds monetary amounts.
type CurrencyDetector struct {
	re *regexp.Regexp
}

// NewCurrencyDetector creates a new CurrencyDetector.
func NewCurrencyDetector() *CurrencyDetector {
	return &CurrencyDetector{re: currencyRegex}
}

// Name returns the detector name.
func (d *CurrencyDetector) Name() string {
	return "currency"
}

// Category returns model.CategoryCurrencyAmount.
func (d *CurrencyDetector) Category() model.FieldCategory {
	return model.CategoryCurrencyAmount
}

// Rationale returns RationaleCurrency.
func (d *CurrencyDetector) Rationale() string {
	return RationaleCurrency
}

// Detect returns every currency amount in text.
func (d *CurrencyDetector) Detect(text string) []Hit {
	return findAll(d.re, text, RationaleCurrency)
}
