package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/docpointer/internal/model"
	"github.com/nao1215/docpointer/internal/pattern"
)

// TestScannerScan tests single-page scanning.
func TestScannerScan(t *testing.T) {
	t.Parallel()

	s := NewScanner(nil)

	t.Run("empty text yields no matches", func(t *testing.T) {
		t.Parallel()

		got := s.Scan(model.CategoryDate, model.Page{Number: 3, Text: ""})
		if got == nil {
			t.Fatal("expected empty slice, got nil")
		}
		if len(got) != 0 {
			t.Errorf("expected 0 matches, got %d", len(got))
		}
	})

	t.Run("unclassified yields no matches", func(t *testing.T) {
		t.Parallel()

		got := s.Scan(model.CategoryUnclassified, model.Page{Number: 1, Text: "john@x.com 12/05/2023"})
		if len(got) != 0 {
			t.Errorf("expected 0 matches, got %d", len(got))
		}
	})

	t.Run("matches carry page number", func(t *testing.T) {
		t.Parallel()

		got := s.Scan(model.CategoryEmail, model.Page{Number: 7, Text: "a@b.io and c@d.io"})
		want := []model.Match{
			{Snippet: "a@b.io", Page: 7, Rationale: pattern.RationaleEmail},
			{Snippet: "c@d.io", Page: 7, Rationale: pattern.RationaleEmail},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Scan() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("custom registry without detector", func(t *testing.T) {
		t.Parallel()

		reg, err := pattern.NewRegistry(pattern.NewEmailDetector())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := NewScanner(reg).Scan(model.CategoryDate, model.Page{Number: 1, Text: "12/05/2023"})
		if len(got) != 0 {
			t.Errorf("expected 0 matches, got %d", len(got))
		}
	})
}

// TestExtractScenarios tests end-to-end extraction behaviour.
func TestExtractScenarios(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		pointers []string
		pages    []model.Page
		want     *model.ExtractionResponse
	}{
		{
			name:     "date and email on one page",
			pointers: []string{"date of signing", "email"},
			pages:    model.NewPages("Signed by John Smith on 12/05/2023. Contact: john@x.com"),
			want: &model.ExtractionResponse{Pointers: []model.PointerResult{
				{
					Query:    "date of signing",
					Category: model.CategoryDate,
					Matches:  []model.Match{{Snippet: "12/05/2023", Page: 1, Rationale: pattern.RationaleDate}},
				},
				{
					Query:    "email",
					Category: model.CategoryEmail,
					Matches:  []model.Match{{Snippet: "john@x.com", Page: 1, Rationale: pattern.RationaleEmail}},
				},
			}},
		},
		{
			name:     "amount on first of two pages",
			pointers: []string{"contract total"},
			pages:    model.NewPages("Total: $1,200.50", "No amount here"),
			want: &model.ExtractionResponse{Pointers: []model.PointerResult{
				{
					Query:    "contract total",
					Category: model.CategoryCurrencyAmount,
					Matches:  []model.Match{{Snippet: "$1,200.50", Page: 1, Rationale: pattern.RationaleCurrency}},
				},
			}},
		},
		{
			name:     "unclassified pointer",
			pointers: []string{"location"},
			pages:    model.NewPages("12 Baker Street, London"),
			want: &model.ExtractionResponse{Pointers: []model.PointerResult{
				{Query: "location", Category: model.CategoryUnclassified, Matches: []model.Match{}},
			}},
		},
		{
			name:     "no pages",
			pointers: []string{"email", "date"},
			pages:    nil,
			want: &model.ExtractionResponse{Pointers: []model.PointerResult{
				{Query: "email", Category: model.CategoryEmail, Matches: []model.Match{}},
				{Query: "date", Category: model.CategoryDate, Matches: []model.Match{}},
			}},
		},
		{
			name:     "page order then text order",
			pointers: []string{"email"},
			pages:    model.NewPages("b@x.io", "", "c@x.io then d@x.io"),
			want: &model.ExtractionResponse{Pointers: []model.PointerResult{
				{
					Query:    "email",
					Category: model.CategoryEmail,
					Matches: []model.Match{
						{Snippet: "b@x.io", Page: 1, Rationale: pattern.RationaleEmail},
						{Snippet: "c@x.io", Page: 3, Rationale: pattern.RationaleEmail},
						{Snippet: "d@x.io", Page: 3, Rationale: pattern.RationaleEmail},
					},
				},
			}},
		},
		{
			name:     "duplicates reported independently",
			pointers: []string{"phone", "", "phone"},
			pages:    model.NewPages("Call 555-123-4567"),
			want: &model.ExtractionResponse{Pointers: []model.PointerResult{
				{
					Query:    "phone",
					Category: model.CategoryPhone,
					Matches:  []model.Match{{Snippet: "555-123-4567", Page: 1, Rationale: pattern.RationalePhone}},
				},
				{Query: "", Category: model.CategoryUnclassified, Matches: []model.Match{}},
				{
					Query:    "phone",
					Category: model.CategoryPhone,
					Matches:  []model.Match{{Snippet: "555-123-4567", Page: 1, Rationale: pattern.RationalePhone}},
				},
			}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			for _, e := range []*Extractor{New(), New(WithWorkers(4))} {
				got := e.Extract(tc.pointers, tc.pages)
				if diff := cmp.Diff(tc.want, got); diff != "" {
					t.Errorf("Extract() parallel=%v mismatch (-want +got):\n%s", e.Parallel(), diff)
				}
			}
		})
	}
}

// TestExtractCardinality tests that output length and order follow input.
func TestExtractCardinality(t *testing.T) {
	t.Parallel()

	pointers := []string{"total", "random text", "date", "sign", "email", "mobile", ""}
	for _, pages := range [][]model.Page{nil, model.NewPages(""), model.NewPages("x", "y", "z")} {
		resp := Extract(pointers, pages)
		if len(resp.Pointers) != len(pointers) {
			t.Fatalf("expected %d results, got %d", len(pointers), len(resp.Pointers))
		}
		for i, p := range pointers {
			if resp.Pointers[i].Query != p {
				t.Errorf("result %d: expected query %q, got %q", i, p, resp.Pointers[i].Query)
			}
			if resp.Pointers[i].Matches == nil {
				t.Errorf("result %d: expected non-nil matches", i)
			}
		}
	}
}

// TestExtractParallelMatchesSequential tests byte-identical parallel output.
func TestExtractParallelMatchesSequential(t *testing.T) {
	t.Parallel()

	texts := make([]string, 40)
	for i := range texts {
		texts[i] = fmt.Sprintf(
			"Invoice %d dated %02d/%02d/2023. Amount due: $%d,%03d.50. Signed by Jane Doe. Mail billing%d@corp.example or call +1 555 010 %04d.",
			i, i%28+1, i%12+1, i, i*7%1000, i, i,
		)
	}
	pages := model.NewPages(texts...)
	pointers := []string{"invoice date", "total amount", "signature", "email", "contact", "location", "due day"}

	sequential := New().Extract(pointers, pages)
	wantJSON, err := json.Marshal(sequential)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, workers := range []int{2, 3, 8, 64} {
		parallel := New(WithWorkers(workers)).Extract(pointers, pages)
		gotJSON, err := json.Marshal(parallel)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(gotJSON) != string(wantJSON) {
			t.Errorf("workers=%d: parallel output differs from sequential", workers)
		}
		if diff := cmp.Diff(sequential, parallel); diff != "" {
			t.Errorf("workers=%d mismatch (-sequential +parallel):\n%s", workers, diff)
		}
	}
}

// TestExtractContextCancelled tests that a cancelled context is reported.
func TestExtractContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, e := range []*Extractor{New(), New(WithWorkers(4))} {
		resp, err := e.ExtractContext(ctx, []string{"email"}, model.NewPages("a@b.io"))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("parallel=%v: expected context.Canceled, got %v", e.Parallel(), err)
		}
		if resp != nil {
			t.Errorf("parallel=%v: expected nil response", e.Parallel())
		}
	}
}

// TestWithClassifier tests classifier injection.
func TestWithClassifier(t *testing.T) {
	t.Parallel()

	e := New(WithClassifier(func(string) model.FieldCategory { return model.CategoryEmail }))
	resp := e.Extract([]string{"anything"}, model.NewPages("a@b.io"))
	if len(resp.Pointers[0].Matches) != 1 {
		t.Errorf("expected 1 match, got %d", len(resp.Pointers[0].Matches))
	}
}

// TestWithRegistry tests detector registry injection.
func TestWithRegistry(t *testing.T) {
	t.Parallel()

	registry, err := pattern.Select("email")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := New(WithRegistry(registry))
	resp := e.Extract([]string{"date of signing", "email"}, model.NewPages("Signed on 12/05/2023 by a@b.io"))

	if len(resp.Pointers[0].Matches) != 0 {
		t.Errorf("expected no date matches, got %+v", resp.Pointers[0].Matches)
	}
	if len(resp.Pointers[1].Matches) != 1 || resp.Pointers[1].Matches[0].Snippet != "a@b.io" {
		t.Errorf("unexpected email matches: %+v", resp.Pointers[1].Matches)
	}
	if resp.Pointers[0].Category != model.CategoryDate {
		t.Errorf("expected the pointer to stay classified as date, got %s", resp.Pointers[0].Category)
	}
}

// TestParsePointers tests pointer list decoding.
func TestParsePointers(t *testing.T) {
	t.Parallel()

	t.Run("valid lists", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name  string
			input string
			want  []string
		}{
			{name: "two pointers", input: `["total amount","email"]`, want: []string{"total amount", "email"}},
			{name: "duplicates kept", input: `["email","email"]`, want: []string{"email", "email"}},
			{name: "empty pointer kept", input: `[""]`, want: []string{""}},
			{name: "empty list", input: `[]`, want: []string{}},
			{name: "surrounding whitespace", input: " [\"date\"]\n", want: []string{"date"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				got, err := ParsePointers([]byte(tt.input), 10)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if diff := cmp.Diff(tt.want, got); diff != "" {
					t.Errorf("ParsePointers() mismatch (-want +got):\n%s", diff)
				}
			})
		}
	})

	t.Run("invalid lists", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name  string
			input string
		}{
			{name: "malformed JSON", input: `["email"`},
			{name: "object", input: `{"pointers":["email"]}`},
			{name: "string", input: `"email"`},
			{name: "null", input: `null`},
			{name: "number item", input: `["email", 3]`},
			{name: "trailing data", input: `["email"] ["date"]`},
			{name: "extra closing bracket", input: `["a"]]`},
			{name: "extra closing brace", input: `["a"]}`},
			{name: "trailing garbage", input: `["a"] x`},
			{name: "empty input", input: ``},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				if _, err := ParsePointers([]byte(tt.input), 10); !errors.Is(err, ErrInvalidPointers) {
					t.Errorf("expected ErrInvalidPointers, got %v", err)
				}
			})
		}
	})

	t.Run("limit", func(t *testing.T) {
		t.Parallel()

		input := []byte(`["a","b","c"]`)
		if _, err := ParsePointers(input, 2); !errors.Is(err, ErrTooManyPointers) {
			t.Errorf("expected ErrTooManyPointers, got %v", err)
		}
		got, err := ParsePointers(input, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 3 {
			t.Errorf("expected 3 pointers, got %d", len(got))
		}
	})
}
