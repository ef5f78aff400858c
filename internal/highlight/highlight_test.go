package highlight

import (
	"testing"

	"github.com/sidediff/sidediff/internal/diffmodel"
)

func TestIntraLineChangeMapMarksOnlyDifferingToken(t *testing.T) {
	changedRemoved, changedAdded := intraLineChangeMap("foo(1)", "foo(2)")
	// "foo(" and ")" are common tokens; "1"/"2" differ.
	wantRemoved := []bool{false, false, false, false, true, false}
	wantAdded := []bool{false, false, false, false, true, false}
	for i := range wantRemoved {
		if changedRemoved[i] != wantRemoved[i] {
			t.Errorf("removed[%d] = %v, want %v", i, changedRemoved[i], wantRemoved[i])
		}
		if changedAdded[i] != wantAdded[i] {
			t.Errorf("added[%d] = %v, want %v", i, changedAdded[i], wantAdded[i])
		}
	}
}

func TestIntraLineChangeMapIdenticalLinesAllFalse(t *testing.T) {
	changedRemoved, changedAdded := intraLineChangeMap("same text", "same text")
	for i, v := range changedRemoved {
		if v {
			t.Fatalf("removed[%d] unexpectedly changed", i)
		}
	}
	for i, v := range changedAdded {
		if v {
			t.Fatalf("added[%d] unexpectedly changed", i)
		}
	}
}

func TestMergeSegmentsProducesMaximalRuns(t *testing.T) {
	text := "abXYcd"
	syntaxMap := []diffmodel.SyntaxTokenKind{
		diffmodel.SyntaxPlain, diffmodel.SyntaxPlain,
		diffmodel.SyntaxKeyword, diffmodel.SyntaxKeyword,
		diffmodel.SyntaxPlain, diffmodel.SyntaxPlain,
	}
	changedMap := []bool{false, false, false, false, false, false}
	segs := mergeSegments(text, syntaxMap, changedMap)
	if len(segs) != 3 {
		t.Fatalf("want 3 segments, got %d: %+v", len(segs), segs)
	}
	if segs[0].Text != "ab" || segs[1].Text != "XY" || segs[2].Text != "cd" {
		t.Errorf("unexpected segment texts: %+v", segs)
	}
}

func TestBuildCellSegmentsNonPairHasNoChangedRuns(t *testing.T) {
	cell := CellInput{Path: "x.txt", Text: "hello", Kind: diffmodel.CellContext}
	peer := CellInput{Path: "x.txt", Text: "hello", Kind: diffmodel.CellContext}
	segs := BuildCellSegments(cell, peer)
	for _, s := range segs {
		if s.Changed {
			t.Fatalf("context cell should never be marked changed: %+v", segs)
		}
	}
}

func TestLexerForPathSpecialName(t *testing.T) {
	l := LexerForPath("Dockerfile")
	if l == nil {
		t.Fatal("want a non-nil lexer for Dockerfile")
	}
}
