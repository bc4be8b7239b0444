package pattern

import (
	"regexp"

	"github.com/nao1215/docpointer/internal/model"
)

// RationaleEmail is attached to every email match.
const RationaleEmail = "Found email address"

// emailRegex matches a local part and a domain of letters, digits, dots,
// underscores and hyphens, with the domain ending in a dot and word
// characters. Letters may be any script, so józef@x.com is kept whole.
var emailRegex = regexp.MustCompile(
	`[` + wordChars + `.-]+@[` + wordChars + `.-]+\.[` + wordChars + `]+`)

// EmailDetector finds email addresses.
type EmailDetector struct {
	re *regexp.Regexp
}

// NewEmailDetector creates a new EmailDetector.
func NewEmailDetector() *EmailDetector {
	return &EmailDetector{re: emailRegex}
}

// Name returns the detector name.
func (d *EmailDetector) Name() string {
	return "email"
}

// Category returns model.CategoryEmail.
func (d *EmailDetector) Category() model.FieldCategory {
	return model.CategoryEmail
}

// Rationale returns RationaleEmail.
func (d *EmailDetector) Rationale() string {
	return RationaleEmail
}

// Detect returns every email address in text. Addresses are returned as
// written; no case folding or deduplication is applied.
func (d *EmailDetector) Detect(text string) []Hit {
	return findAll(d.re, text, RationaleEmail)
}
