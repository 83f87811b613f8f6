package citation

import (
	"reflect"
	"testing"

	"codeqa/internal/domain"
)

var defaults = []domain.CitationReference{
	{Path: "x.go", StartLine: 1, EndLine: 40},
	{Path: "y.go", StartLine: 10, EndLine: 20},
}

func TestReconcileParsesTrailingCitations(t *testing.T) {
	raw := "Foo does X.\n\nCITED: a/b.py (3-10); c/d.py (1-2)"

	answer, refs := Reconcile(raw, defaults)

	if answer != "Foo does X." {
		t.Errorf("unexpected answer %q", answer)
	}
	want := []domain.CitationReference{
		{Path: "a/b.py", StartLine: 3, EndLine: 10},
		{Path: "c/d.py", StartLine: 1, EndLine: 2},
	}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("refs = %+v, want %+v", refs, want)
	}
}

func TestReconcileWithoutCitationLine(t *testing.T) {
	raw := "The handler lives in server.go.\nIt validates input first.\n"

	answer, refs := Reconcile(raw, defaults)

	if answer != raw {
		t.Errorf("expected full raw text, got %q", answer)
	}
	if !reflect.DeepEqual(refs, defaults) {
		t.Errorf("expected defaults, got %+v", refs)
	}
}

func TestReconcileMalformedPayloadFallsBack(t *testing.T) {
	for _, raw := range []string{
		"Answer.\nCITED: nonsense",
		"Answer.\nCITED:",
		"Answer.\nCITED: a.go (x-y); b.go (1)",
		"Answer.\nCITED: (1-2)",
	} {
		answer, refs := Reconcile(raw, defaults)
		if answer != raw {
			t.Errorf("%q: expected untouched answer, got %q", raw, answer)
		}
		if !reflect.DeepEqual(refs, defaults) {
			t.Errorf("%q: expected defaults, got %+v", raw, refs)
		}
	}
}

func TestReconcileUsesLastCitationLine(t *testing.T) {
	raw := "Use CITED: lines like this:\nCITED: early.go (1-2)\n\nMore prose.\n\ncited: late.go (5-9)"

	answer, refs := Reconcile(raw, defaults)

	if answer != "Use CITED: lines like this:\nCITED: early.go (1-2)\n\nMore prose." {
		t.Errorf("unexpected answer %q", answer)
	}
	want := []domain.CitationReference{{Path: "late.go", StartLine: 5, EndLine: 9}}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("refs = %+v, want %+v", refs, want)
	}
}

func TestReconcilePayloadStopsAtBlankLine(t *testing.T) {
	raw := "Answer.\n  CITED: a.go (1-3);\n  b.go (4 – 6)\n\nThanks!"

	answer, refs := Reconcile(raw, defaults)

	if answer != "Answer." {
		t.Errorf("unexpected answer %q", answer)
	}
	want := []domain.CitationReference{
		{Path: "a.go", StartLine: 1, EndLine: 3},
		{Path: "b.go", StartLine: 4, EndLine: 6},
	}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("refs = %+v, want %+v", refs, want)
	}
}

func TestParseEntries(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []domain.CitationReference
	}{
		{
			name:    "quoted paths",
			payload: ` "src/app.ts" (10-20); 'lib/x.go'(1-1); ` + "`cmd/main.go`" + ` ( 7 - 9 )`,
			want: []domain.CitationReference{
				{Path: "src/app.ts", StartLine: 10, EndLine: 20},
				{Path: "lib/x.go", StartLine: 1, EndLine: 1},
				{Path: "cmd/main.go", StartLine: 7, EndLine: 9},
			},
		},
		{
			name:    "malformed entries skipped",
			payload: "junk; a.go (1-2); b.go (three-4); c.go (5-6",
			want:    []domain.CitationReference{{Path: "a.go", StartLine: 1, EndLine: 2}},
		},
		{
			name:    "reversed range kept as declared",
			payload: "a.go (9-3)",
			want:    []domain.CitationReference{{Path: "a.go", StartLine: 9, EndLine: 3}},
		},
		{
			name:    "two references in one entry",
			payload: "a.go (1-2) b.go (3-4)",
			want: []domain.CitationReference{
				{Path: "a.go", StartLine: 1, EndLine: 2},
				{Path: "b.go", StartLine: 3, EndLine: 4},
			},
		},
		{
			name:    "overflowing numbers skipped",
			payload: "a.go (1-99999999999999999999999); b.go (2-3)",
			want:    []domain.CitationReference{{Path: "b.go", StartLine: 2, EndLine: 3}},
		},
		{
			name:    "empty",
			payload: "  ",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseEntries(tt.payload); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseEntries(%q) = %+v, want %+v", tt.payload, got, tt.want)
			}
		})
	}
}

func FuzzReconcileNeverPanics(f *testing.F) {
	f.Add("Foo.\nCITED: a.go (1-2)")
	f.Add("CITED: ((((--))))")
	f.Add("\n\nCITED:\n")
	f.Fuzz(func(t *testing.T, raw string) {
		answer, refs := Reconcile(raw, defaults)
		if len(refs) == 0 {
			t.Fatalf("references must never be empty when defaults are not")
		}
		if len(answer) > len(raw) {
			t.Fatalf("answer longer than input")
		}
	})
}
