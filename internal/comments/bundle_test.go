package comments

import (
	"strings"
	"testing"
)

func TestFormatBundleMatchesExternalContractShape(t *testing.T) {
	old := uint32(4)
	newL := uint32(5)
	c := &CommentRecord{
		FilePath: "a.txt", LineSide: SideRight, OldLine: &old, NewLine: &newL,
		HunkHeader: "@@ -1,3 +1,3 @@", LineText: "+baz",
		ContextBefore: " foo", ContextAfter: " qux", CommentText: "looks off",
	}

	got := FormatBundle(c)
	want := "file: a.txt\n" +
		"side: Right   lines: old=4 new=5\n" +
		"hunk: @@ -1,3 +1,3 @@\n" +
		"---\n" +
		" foo\n" +
		"+baz\n" +
		" qux\n" +
		"---\n" +
		"comment:\n" +
		"looks off"

	if got != want {
		t.Errorf("FormatBundle =\n%q\nwant\n%q", got, want)
	}
}

func TestFormatBundleDashesForAbsentLinesAndHunk(t *testing.T) {
	c := &CommentRecord{FilePath: "a.txt", LineSide: SideMeta, LineText: "── End of a.txt ──", CommentText: "note"}
	got := FormatBundle(c)
	if !strings.Contains(got, "lines: old=- new=-") {
		t.Errorf("want dash placeholders for absent line numbers, got %q", got)
	}
	if !strings.Contains(got, "hunk: -") {
		t.Errorf("want dash placeholder for an absent hunk header, got %q", got)
	}
}

func TestFormatBundlesJoinsWithStableSeparator(t *testing.T) {
	c1 := &CommentRecord{FilePath: "a.txt", LineSide: SideMeta, LineText: "x", CommentText: "one"}
	c2 := &CommentRecord{FilePath: "b.txt", LineSide: SideMeta, LineText: "y", CommentText: "two"}

	got := FormatBundles([]*CommentRecord{c1, c2})
	if !strings.Contains(got, "\n\n---\n\n") {
		t.Error("want bundles joined by the stable multi-bundle separator")
	}
	parts := strings.Split(got, "\n\n---\n\n")
	if len(parts) != 2 {
		t.Fatalf("want exactly 2 bundles, got %d", len(parts))
	}
}
