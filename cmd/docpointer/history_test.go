package main

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/nao1215/docpointer/internal/database"
	"github.com/nao1215/docpointer/internal/model"
)

func TestFormatCategorySummary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		summary model.Summary
		want    string
	}{
		{name: "no matches", summary: model.Summary{}, want: noMatchesMessage},
		{
			name: "category order",
			summary: model.Summary{ByCategory: map[model.FieldCategory]int{
				model.CategoryEmail: 1,
				model.CategoryDate:  2,
			}},
			want: "date:2 email:1",
		},
		{
			name: "zero counts are skipped",
			summary: model.Summary{ByCategory: map[model.FieldCategory]int{
				model.CategoryPhone: 0,
				model.CategoryEmail: 3,
			}},
			want: "email:3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatCategorySummary(tt.summary); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRunHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("no database yet", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		stdout, _, err := env.run(t, "history")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "No extractions found in the database.") {
			t.Errorf("unexpected output %q", stdout)
		}
	})

	t.Run("lists, shows and prunes extractions", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		contract := env.writeDocument(t, "contract.txt", contractText)
		notes := env.writeDocument(t, "notes.txt", "Call 555-123-4567 on Monday.\n")

		if _, _, err := env.run(t, "extract", "-s", "-p", "email", "-p", "date", contract); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, _, err := env.run(t, "extract", "-s", "-p", "email", notes); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		stdout, _, err := env.run(t, "history", "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var list []database.ExtractionMetadata
		if err := json.Unmarshal([]byte(stdout), &list); err != nil {
			t.Fatalf("failed to decode output %q: %v", stdout, err)
		}
		if len(list) != 2 {
			t.Fatalf("expected 2 extractions, got %d", len(list))
		}
		if list[0].Document != "notes.txt" || list[1].Document != "contract.txt" {
			t.Errorf("expected newest first, got %s then %s", list[0].Document, list[1].Document)
		}
		if list[1].Matches != 2 {
			t.Errorf("expected 2 matches for contract.txt, got %d", list[1].Matches)
		}

		stdout, _, err = env.run(t, "history", "-d", "contract.txt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Extraction history (1):") || !strings.Contains(stdout, "date:1 email:1") {
			t.Errorf("unexpected filtered listing %q", stdout)
		}

		contractID := list[1].ID
		stdout, _, err = env.run(t, "history", "show", strconv.FormatInt(contractID, 10), "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var resp model.ExtractionResponse
		if err := json.Unmarshal([]byte(stdout), &resp); err != nil {
			t.Fatalf("failed to decode output %q: %v", stdout, err)
		}
		if len(resp.Pointers) != 2 || resp.Pointers[0].Query != "email" {
			t.Errorf("unexpected stored response %+v", resp)
		}

		stdout, _, err = env.run(t, "history", "prune", "--older-than", "1h")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(stdout, "Deleted 0 extractions") {
			t.Errorf("expected nothing pruned, got %q", stdout)
		}
	})

	t.Run("show rejects a bad id", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		_, _, err := env.run(t, "history", "show", "abc")
		if err == nil || !strings.Contains(err.Error(), "invalid extraction id") {
			t.Errorf("expected invalid id error, got %v", err)
		}
	})

	t.Run("prune requires a positive duration", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		if _, _, err := env.run(t, "history", "prune"); err == nil {
			t.Error("expected error without --older-than")
		}
	})
}
