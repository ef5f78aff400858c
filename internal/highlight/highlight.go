package highlight

import (
	"github.com/sidediff/sidediff/internal/diffmodel"
)

// CellInput is one side of a paired diff cell, as seen by the
// highlighter: its text, its role, and (for a Removed/Added pair) the
// text of the opposite cell used for the token-level change map.
type CellInput struct {
	Path string
	Text string
	Kind diffmodel.DiffCellKind
}

// shouldDiffPair reports whether a and b form a Removed/Added pair
// eligible for intra-line token diffing.
func shouldDiffPair(a, b diffmodel.DiffCellKind) bool {
	return (a == diffmodel.CellRemoved && b == diffmodel.CellAdded) ||
		(a == diffmodel.CellAdded && b == diffmodel.CellRemoved)
}

// BuildCellSegments produces the styled, change-aware segments for one
// cell given its paired opposite cell. The syntax map comes from a
// chroma lexer resolved by path; the change map comes from the
// token-level LCS diff when the pair is a Removed/Added pair, and is
// all-false otherwise.
func BuildCellSegments(cell, peer CellInput) []diffmodel.StyledSegment {
	lexer := LexerForPath(cell.Path)
	syntaxMap := charSyntaxMap(lexer, cell.Text)

	var changedMap []bool
	if shouldDiffPair(cell.Kind, peer.Kind) {
		if cell.Kind == diffmodel.CellRemoved {
			changedMap, _ = intraLineChangeMap(cell.Text, peer.Text)
		} else {
			_, changedMap = intraLineChangeMap(peer.Text, cell.Text)
		}
	} else {
		changedMap = make([]bool, len(cell.Text))
	}

	return mergeSegments(cell.Text, syntaxMap, changedMap)
}

// mergeSegments produces maximal runs of identical (syntax, changed)
// pairs over text's bytes.
func mergeSegments(text string, syntaxMap []diffmodel.SyntaxTokenKind, changedMap []bool) []diffmodel.StyledSegment {
	if text == "" {
		return nil
	}
	var segs []diffmodel.StyledSegment
	start := 0
	curSyntax := syntaxMap[0]
	curChanged := changedMap[0]
	for i := 1; i < len(text); i++ {
		if syntaxMap[i] != curSyntax || changedMap[i] != curChanged {
			segs = append(segs, diffmodel.StyledSegment{
				Text: text[start:i], Syntax: curSyntax, Changed: curChanged,
			})
			start = i
			curSyntax = syntaxMap[i]
			curChanged = changedMap[i]
		}
	}
	segs = append(segs, diffmodel.StyledSegment{
		Text: text[start:], Syntax: curSyntax, Changed: curChanged,
	})
	return segs
}
