package comments

import (
	"strings"
	"testing"

	"github.com/sidediff/sidediff/internal/diffmodel"
	"github.com/sidediff/sidediff/internal/diffstream"
)

func buildTestStream(t *testing.T, patch string) diffmodel.DiffStream {
	t.Helper()
	files := []diffmodel.ChangedFile{{Path: "a.txt", Status: diffmodel.StatusModified}}
	loader := diffstream.PatchLoader(func(path string, status diffmodel.FileStatus) (string, error) {
		return patch, nil
	})
	return diffstream.Build(files, nil, nil, loader)
}

// samplePatch keeps at least contextRadius (4) plain context lines on
// both sides of the changed line, so the anchor's own context window
// never reaches into the surrounding diff/hunk-header or
// end-of-file Meta rows.
const samplePatch = "diff --git a/a.txt b/a.txt\n--- a/a.txt\n+++ b/a.txt\n@@ -1,9 +1,9 @@\n l1\n l2\n l3\n l4\n-bar\n+baz\n l5\n l6\n l7\n l8\n"

func codeRowIndex(stream diffmodel.DiffStream, text string) int {
	for i, r := range stream.Rows {
		if r.Kind == diffmodel.RowCode && (r.Left.Text == text || r.Right.Text == text) {
			return i
		}
	}
	return -1
}

func TestBuildAnchorCapturesHunkHeaderAndContext(t *testing.T) {
	stream := buildTestStream(t, samplePatch)
	idx := codeRowIndex(stream, "baz")
	if idx < 0 {
		t.Fatal("could not find the 'baz' row")
	}

	anchor := BuildAnchor(stream, idx, SideRight)
	if anchor.HunkHeader == "" {
		t.Error("want a non-empty hunk header")
	}
	if anchor.LineText != "+baz" {
		t.Errorf("LineText = %q, want %q", anchor.LineText, "+baz")
	}
	wantBefore := " l1\n l2\n l3\n l4"
	if anchor.ContextBefore != wantBefore {
		t.Errorf("ContextBefore = %q, want %q", anchor.ContextBefore, wantBefore)
	}
	wantAfter := " l5\n l6\n l7\n l8"
	if anchor.ContextAfter != wantAfter {
		t.Errorf("ContextAfter = %q, want %q", anchor.ContextAfter, wantAfter)
	}
	if anchor.AnchorHash == 0 {
		t.Error("want a non-zero anchor hash")
	}
}

func TestMatchesFindsTheAnchoredRowAndNoOther(t *testing.T) {
	stream := buildTestStream(t, samplePatch)
	idx := codeRowIndex(stream, "baz")
	if idx < 0 {
		t.Fatal("could not find the 'baz' row")
	}

	anchor := BuildAnchor(stream, idx, SideRight)
	c := &CommentRecord{
		FilePath: anchor.FilePath, LineSide: anchor.LineSide, OldLine: anchor.OldLine, NewLine: anchor.NewLine,
		HunkHeader: anchor.HunkHeader, LineText: anchor.LineText,
		ContextBefore: anchor.ContextBefore, ContextAfter: anchor.ContextAfter, AnchorHash: anchor.AnchorHash,
	}

	if !Matches(stream, idx, c) {
		t.Error("want Matches true at the anchored row")
	}
	for i := range stream.Rows {
		if i != idx && Matches(stream, i, c) {
			t.Errorf("want Matches false at row %d", i)
		}
	}
}

func TestAnchorHashChangesWithAnyField(t *testing.T) {
	h1 := hashAnchor("a.txt", "@@ -1,3 +1,3 @@", "+baz", " foo", " qux")
	h2 := hashAnchor("a.txt", "@@ -1,3 +1,3 @@", "+baz", " foo", " QUX")
	if h1 == h2 {
		t.Error("want differing context_after to change the hash")
	}
	h3 := hashAnchor("b.txt", "@@ -1,3 +1,3 @@", "+baz", " foo", " qux")
	if h1 == h3 {
		t.Error("want differing file_path to change the hash")
	}
}

func TestContextWindowClampsToFileRangeNotGlobalRows(t *testing.T) {
	files := []diffmodel.ChangedFile{
		{Path: "a.txt", Status: diffmodel.StatusModified},
		{Path: "b.txt", Status: diffmodel.StatusModified},
	}
	patchA := "diff --git a/a.txt b/a.txt\n--- a/a.txt\n+++ a/a.txt\n@@ -1,1 +1,1 @@\n-x\n+y\n"
	patchB := "diff --git a/b.txt b/b.txt\n--- a/b.txt\n+++ a/b.txt\n@@ -1,1 +1,1 @@\n-p\n+q\n"
	loader := diffstream.PatchLoader(func(path string, status diffmodel.FileStatus) (string, error) {
		if path == "a.txt" {
			return patchA, nil
		}
		return patchB, nil
	})
	stream := diffstream.Build(files, nil, nil, loader)

	// b.txt's file-header row directly follows, in the global row list,
	// a.txt's trailing "End of a.txt" Meta row, and b.txt's first Code
	// row lies a few header rows further on; context_before of neither
	// may reach across that boundary into a.txt's rows.
	var bStartIdx, bFirstCodeIdx = -1, -1
	for _, r := range stream.FileRanges {
		if r.Path == "b.txt" {
			bStartIdx = r.StartRow
			for i := r.StartRow; i < r.EndRow; i++ {
				if stream.Rows[i].Kind == diffmodel.RowCode {
					bFirstCodeIdx = i
					break
				}
			}
		}
	}
	if bFirstCodeIdx < 0 {
		t.Fatal("could not find b.txt's first Code row")
	}
	for _, idx := range []int{bStartIdx, bFirstCodeIdx} {
		anchor := BuildAnchor(stream, idx, SideLeft)
		for _, forbidden := range []string{"-x", "+y", "a.txt"} {
			if strings.Contains(anchor.ContextBefore, forbidden) {
				t.Errorf("ContextBefore leaked a.txt content across the file-range boundary: %q contains %q", anchor.ContextBefore, forbidden)
			}
		}
	}
}

func TestReconcileExactMatchClearsMissStreakAndTouchesSeen(t *testing.T) {
	stream := buildTestStream(t, samplePatch)
	idx := codeRowIndex(stream, "baz")
	anchor := BuildAnchor(stream, idx, SideRight)

	c := &CommentRecord{
		FilePath: "a.txt", LineSide: SideRight, OldLine: anchor.OldLine, NewLine: anchor.NewLine,
		HunkHeader: anchor.HunkHeader, LineText: anchor.LineText,
		ContextBefore: anchor.ContextBefore, ContextAfter: anchor.ContextAfter,
		AnchorHash: anchor.AnchorHash, Status: StatusOpen, missStreak: 2,
	}

	outcomes := Reconcile(stream, []*CommentRecord{c}, 1000)
	if !outcomes[0].Matched {
		t.Fatal("want an exact match")
	}
	if c.missStreak != 0 {
		t.Errorf("missStreak = %d, want reset to 0", c.missStreak)
	}
	if c.LastSeenMs != 1000 {
		t.Errorf("LastSeenMs = %d, want 1000", c.LastSeenMs)
	}
	if c.Status != StatusOpen {
		t.Errorf("status = %v, want Open", c.Status)
	}
}

func TestReconcileAnchorHashFallbackMatchesAfterLineShift(t *testing.T) {
	stream := buildTestStream(t, samplePatch)
	idx := codeRowIndex(stream, "baz")
	anchor := BuildAnchor(stream, idx, SideRight)

	// Simulate a comment anchored to a line number that has since
	// shifted (e.g. an earlier insertion elsewhere in the file): the
	// exact match on new_line fails, but the anchor hash still matches
	// because the surrounding content is unchanged.
	shifted := uint32(999)
	c := &CommentRecord{
		FilePath: "a.txt", LineSide: SideRight, NewLine: &shifted,
		HunkHeader: anchor.HunkHeader, LineText: anchor.LineText,
		ContextBefore: anchor.ContextBefore, ContextAfter: anchor.ContextAfter,
		AnchorHash: anchor.AnchorHash, Status: StatusOpen,
	}

	outcomes := Reconcile(stream, []*CommentRecord{c}, 2000)
	if !outcomes[0].Matched {
		t.Fatal("want the anchor-hash fallback to match despite a stale line number")
	}
}

func TestReconcileMissStreakTransitionsToStaleWhenFileStillPresent(t *testing.T) {
	stream := buildTestStream(t, samplePatch)
	// A new_line absent from the stream keeps the exact-match pass off
	// a.txt's header and Meta rows, whose right line number is absent.
	missing := uint32(999)
	c := &CommentRecord{
		FilePath: "a.txt", LineSide: SideRight, NewLine: &missing, LineText: "+nonexistent",
		AnchorHash: 0xdeadbeef, Status: StatusOpen, missStreak: missStreakThreshold - 1,
	}

	outcomes := Reconcile(stream, []*CommentRecord{c}, 3000)
	if outcomes[0].Matched {
		t.Fatal("fabricated anchor should not match anything")
	}
	if !outcomes[0].StatusChanged || c.Status != StatusStale || c.StaleReason != "anchor-drift" {
		t.Errorf("want Stale/anchor-drift after reaching the miss-streak threshold, got status=%v reason=%q", c.Status, c.StaleReason)
	}
}

func TestReconcileMissStreakResolvesWhenFileAbsent(t *testing.T) {
	stream := buildTestStream(t, samplePatch)
	c := &CommentRecord{
		FilePath: "gone.txt", LineSide: SideRight, LineText: "+x",
		AnchorHash: 0xdeadbeef, Status: StatusOpen, missStreak: missStreakThreshold - 1,
	}

	outcomes := Reconcile(stream, []*CommentRecord{c}, 4000)
	if !outcomes[0].StatusChanged || c.Status != StatusResolved || c.StaleReason != "file-absent" {
		t.Errorf("want Resolved/file-absent for a comment whose file vanished, got status=%v reason=%q", c.Status, c.StaleReason)
	}
}

func TestReconcileIsIdempotentOnASecondPassWithNoChanges(t *testing.T) {
	stream := buildTestStream(t, samplePatch)
	idx := codeRowIndex(stream, "baz")
	anchor := BuildAnchor(stream, idx, SideRight)
	c := &CommentRecord{
		FilePath: "a.txt", LineSide: SideRight, OldLine: anchor.OldLine, NewLine: anchor.NewLine,
		HunkHeader: anchor.HunkHeader, LineText: anchor.LineText,
		ContextBefore: anchor.ContextBefore, ContextAfter: anchor.ContextAfter,
		AnchorHash: anchor.AnchorHash, Status: StatusOpen,
	}

	Reconcile(stream, []*CommentRecord{c}, 1000)
	firstStatus, firstSeen := c.Status, c.LastSeenMs

	Reconcile(stream, []*CommentRecord{c}, 2000)
	if c.Status != firstStatus {
		t.Errorf("status changed on a repeat reconcile with no underlying change: %v -> %v", firstStatus, c.Status)
	}
	if c.LastSeenMs == firstSeen {
		t.Errorf("want last_seen_ms to advance on every matching reconcile pass")
	}
}
