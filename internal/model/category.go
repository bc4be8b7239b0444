package model

import (
	"fmt"
	"strings"
)

// FieldCategory is the semantic class a pointer is routed to.
// The zero value is CategoryUnclassified, which is an outcome rather than
// an error: an unclassified pointer yields an empty match list.
type FieldCategory int

const (
	// CategoryUnclassified means no keyword rule matched the pointer.
	CategoryUnclassified FieldCategory = iota

	// CategoryDate covers calendar dates in numeric and month-name forms.
	CategoryDate

	// CategorySignature covers "signed by <Name>" phrases and bare
	// "Signature"/"Signed" markers.
	CategorySignature

	// CategoryCurrencyAmount covers amounts prefixed by a currency symbol or code.
	CategoryCurrencyAmount

	// CategoryEmail covers email addresses.
	CategoryEmail

	// CategoryPhone covers phone numbers.
	CategoryPhone
)

// Categories lists every classified category in rule priority order.
var Categories = []FieldCategory{
	CategoryDate,
	CategorySignature,
	CategoryCurrencyAmount,
	CategoryEmail,
	CategoryPhone,
}

// String returns the lower-case name of the category.
func (c FieldCategory) String() string {
	switch c {
	case CategoryUnclassified:
		return "unclassified"
	case CategoryDate:
		return "date"
	case CategorySignature:
		return "signature"
	case CategoryCurrencyAmount:
		return "currency_amount"
	case CategoryEmail:
		return "email"
	case CategoryPhone:
		return "phone"
	default:
		return "unknown"
	}
}

// Label returns a human-readable title for reports.
func (c FieldCategory) Label() string {
	switch c {
	case CategoryDate:
		return "Date"
	case CategorySignature:
		return "Signature"
	case CategoryCurrencyAmount:
		return "Currency Amount"
	case CategoryEmail:
		return "Email"
	case CategoryPhone:
		return "Phone"
	default:
		return "Unclassified"
	}
}

// IsClassified reports whether c names a detector category.
func (c FieldCategory) IsClassified() bool {
	return c >= CategoryDate && c <= CategoryPhone
}

// MarshalText implements encoding.TextMarshaler.
func (c FieldCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *FieldCategory) UnmarshalText(text []byte) error {
	parsed, err := ParseFieldCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseFieldCategory converts a category name back into a FieldCategory.
func ParseFieldCategory(s string) (FieldCategory, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unclassified", "":
		return CategoryUnclassified, nil
	case "date":
		return CategoryDate, nil
	case "signature":
		return CategorySignature, nil
	case "currency_amount":
		return CategoryCurrencyAmount, nil
	case "email":
		return CategoryEmail, nil
	case "phone":
		return CategoryPhone, nil
	default:
		return CategoryUnclassified, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
}
