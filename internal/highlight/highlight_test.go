package highlight

import (
	"strings"
	"testing"
)

func bracket(s string) string { return "[" + s + "]" }

func TestApplyCaseInsensitive(t *testing.T) {
	got := Apply("Decree 70/2023 and decree 27/2024", "DECREE", bracket)
	want := "[Decree] 70/2023 and [decree] 27/2024"
	if got.Text != want {
		t.Fatalf("Text = %q, want %q", got.Text, want)
	}
	if got.Count != 2 {
		t.Fatalf("Count = %d, want 2", got.Count)
	}
}

func TestApplyPreservesEscapeSequences(t *testing.T) {
	input := "\x1b[1mdecree\x1b[0m text"
	got := Apply(input, "decree", bracket)
	want := "\x1b[1m[decree]\x1b[0m text"
	if got.Text != want {
		t.Fatalf("Text = %q, want %q", got.Text, want)
	}
}

func TestApplyDoesNotMatchAcrossEscapeBoundaries(t *testing.T) {
	// "dec" and "ree" are separated by a style reset; no contiguous
	// printable run contains the query.
	input := "dec\x1b[0mree"
	got := Apply(input, "decree", bracket)
	if got.Count != 0 {
		t.Fatalf("Count = %d, want 0", got.Count)
	}
	if got.Text != input {
		t.Fatalf("Text = %q, want input unchanged", got.Text)
	}
}

func TestApplyRecordsMatchingLines(t *testing.T) {
	input := "first line\nsecond decree line\nthird line\nanother decree\n"
	got := Apply(input, "decree", bracket)
	if got.Count != 2 {
		t.Fatalf("Count = %d, want 2", got.Count)
	}
	if len(got.LineIndex) != 2 || got.LineIndex[0] != 1 || got.LineIndex[1] != 3 {
		t.Fatalf("LineIndex = %v, want [1 3]", got.LineIndex)
	}
}

func TestApplyEmptyQueryIsIdentity(t *testing.T) {
	input := "\x1b[1mstyled\x1b[0m text\n"
	got := Apply(input, "   ", bracket)
	if got.Text != input || got.Count != 0 || got.LineIndex != nil {
		t.Fatalf("Apply with blank query changed the input: %+v", got)
	}
}

func TestApplyNilWrapStillCounts(t *testing.T) {
	got := Apply("decree decree", "decree", nil)
	if got.Count != 2 {
		t.Fatalf("Count = %d, want 2", got.Count)
	}
	if got.Text != "decree decree" {
		t.Fatalf("Text = %q, want unchanged", got.Text)
	}
}

func TestApplyOSCSequences(t *testing.T) {
	input := "\x1b]8;;https://example.com\x07decree\x1b]8;;\x07"
	got := Apply(input, "decree", bracket)
	if got.Count != 1 {
		t.Fatalf("Count = %d, want 1", got.Count)
	}
	if !strings.Contains(got.Text, "[decree]") {
		t.Fatalf("Text = %q, want wrapped match", got.Text)
	}
	if !strings.Contains(got.Text, "\x1b]8;;https://example.com\x07") {
		t.Fatalf("Text = %q, want hyperlink sequence preserved", got.Text)
	}
}
