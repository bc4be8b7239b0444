package pattern

import (
	"regexp"
	"strings"

	"github.com/nao1215/docpointer/internal/model"
)

// RationaleSignature is attached to every signature match.
const RationaleSignature = "Found signature phrase"

// signatureRegex matches "signed by" followed by one or more names, or a
// bare Signature/Signed marker. The whole pattern is case-insensitive, so
// the name words need not be capitalised and a trailing word such as "on"
// is taken as part of the name.
var signatureRegex = regexp.MustCompile(
	`(?i)signed` + space + `+by` + space + `+[A-Z][a-z]+(?:` + space + `[A-Z][a-z]+)*|signature|signed`)

// SignatureDetector finds signature phrases.
type SignatureDetector struct {
	re *regexp.Regexp
}

// NewSignatureDetector creates a new SignatureDetector.
func NewSignatureDetector() *SignatureDetector {
	return &SignatureDetector{re: signatureRegex}
}

// Name returns the detector name.
func (d *SignatureDetector) Name() string {
	return "signature"
}

// Category returns model.CategorySignature.
func (d *SignatureDetector) Category() model.FieldCategory {
	return model.CategorySignature
}

// Rationale returns RationaleSignature.
func (d *SignatureDetector) Rationale() string {
	return RationaleSignature
}

// Detect returns every signature phrase in text with surrounding
// whitespace trimmed.
func (d *SignatureDetector) Detect(text string) []Hit {
	hits := findAll(d.re, text, RationaleSignature)
	for i := range hits {
		hits[i].Snippet = strings.TrimSpace(hits[i].Snippet)
	}
	return hits
}
