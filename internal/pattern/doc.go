// Package pattern provides the detectors that locate field values in page text.
//
// Each detector handles one model.FieldCategory and wraps a regular
// expression compiled once when the package is initialised. Detectors hold
// no mutable state, so one instance can scan many pages concurrently.
//
// # Detectors
//
//   - Date: numeric day/month/year, ISO year-first, "12 March 2024" and
//     "March 12, 2024" forms
//   - Signature: "signed by <Name>" phrases and bare Signature/Signed markers
//   - CurrencyAmount: amounts after ₹, Rs., Rs, USD or $
//   - Email: local@domain.tld addresses
//   - Phone: digit runs of at least nine characters with spaces or hyphens
//
// # Usage
//
//	det, ok := pattern.Default().Lookup(model.CategoryEmail)
//	if ok {
//		hits := det.Detect(page.Text)
//	}
//
// Detect returns every non-overlapping match, leftmost first, in order of
// appearance. Overlapping matches from different detectors are not
// deduplicated.
package pattern
