package pattern

import (
	"regexp"

	"github.com/nao1215/docpointer/internal/model"
)

// RationalePhone is attached to every phone match.
const RationalePhone = "Found phone number"

// phoneRegex requires at least nine characters so that short numeric
// tokens such as years and invoice lines are not reported.
// Digits may be grouped by any whitespace, including no-break spaces.
var phoneRegex = regexp.MustCompile(
	`\+?` + digit + `[` + digit + spaceChars + `\-]{7,}` + digit)

// PhoneDetector finds phone numbers.
type PhoneDetector struct {
	re *regexp.Regexp
}

// NewPhoneDetector creates a new PhoneDetector.
func NewPhoneDetector() *PhoneDetector {
	return &PhoneDetector{re: phoneRegex}
}

// Name returns the detector name.
func (d *PhoneDetector) Name() string {
	return "phone"
}

// Category returns model.CategoryPhone.
func (d *PhoneDetector) Category() model.FieldCategory {
	return model.CategoryPhone
}

// Rationale returns RationalePhone.
func (d *PhoneDetector) Rationale() string {
	return RationalePhone
}

// Detect returns every phone number in text.
func (d *PhoneDetector) Detect(text string) []Hit {
	return findAll(d.re, text, RationalePhone)
}
