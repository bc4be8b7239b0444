package pattern

import (
	"fmt"
	"regexp"

	"github.com/nao1215/docpointer/internal/model"
)

// RationaleDate is attached to every date match.
const RationaleDate = "Matched flexible date pattern"

// dateRegex matches, in priority order:
//
//	12/05/2023, 1.5.23, 12-05-2023
//	2023-05-12, 2023/5/1
//	12 March 2024, 3 Sept 2021
//	March 12, 2024, Jan 5 2020
//
// Digits may be any script. The date is the first capture group and must
// stand as a whole word, which Detect enforces through findAllWords.
var dateRegex = regexp.MustCompile(`(?i)(` +
	digits(1, 2) + `[./-]` + digits(1, 2) + `[./-]` + digits(2, 4) +
	`|` + digits(4, 4) + `[./-]` + digits(1, 2) + `[./-]` + digits(1, 2) +
	`|` + digits(1, 2) + space + `+(?:Jan|Feb|Mar|Apr|May|Jun|July|Jul|Aug|Sept|Sep|October|Oct|Nov|December|Dec)[` + wordChars + `]*` + space + `+` + digits(4, 4) +
	`|(?:Jan|Feb|Mar|Apr|May|June|Jul|Aug|Sep|Sept|Oct|Nov|Dec)[` + wordChars + `]*` + space + `+` + digits(1, 2) + `,?` + space + `+` + digits(4, 4) +
	`)` + wordEnd)

// digits repeats digit between minimum and maximum times.
func digits(minimum, maximum int) string {
	if minimum == maximum {
		return fmt.Sprintf("%s{%d}", digit, minimum)
	}
	return fmt.Sprintf("%s{%d,%d}", digit, minimum, maximum)
}

// DateDetector finds calendar dates.
type DateDetector struct {
	re *regexp.Regexp
}

// NewDateDetector creates a new DateDetector.
func NewDateDetector() *DateDetector {
	return &DateDetector{re: dateRegex}
}

// Name returns the detector name.
func (d *DateDetector) Name() string {
	return "date"
}

// Category returns model.CategoryDate.
func (d *DateDetector) Category() model.FieldCategory {
	return model.CategoryDate
}

// Rationale returns RationaleDate.
func (d *DateDetector) Rationale() string {
	return RationaleDate
}

// Detect returns every date in text.
func (d *DateDetector) Detect(text string) []Hit {
	return findAllWords(d.re, text, RationaleDate)
}
