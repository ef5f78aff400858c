// Package diffparse turns unified-diff patch text for a single file into
// the ordered SideBySideRow sequence the stream builder concatenates.
//
// Parsing never fails: a line the state machine cannot interpret aborts
// the current hunk and is emitted verbatim as a Meta row rather than
// returning an error. The state machine is a tagged sum of two concrete
// states (preHunkState, inHunkState) satisfying a small unexported
// parserState interface with a single step(line string) (parserState,
// []SideBySideRow) method, rather than a switch dispatched over an open
// interface; Parse is pure and performs no I/O. inHunkState additionally
// carries the buffered-but-unpaired removed/added runs so positional
// pairing survives across step calls without external mutable state.
package diffparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sidediff/sidediff/internal/diffmodel"
)

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// pendingLine is one buffered '-' or '+' line awaiting positional pairing.
type pendingLine struct {
	text      string
	noNewline bool
}

// parserState is the tagged sum of the two states the machine can be
// in: outside a hunk (preHunkState) or inside one (inHunkState). Each
// step consumes one line and returns the next state plus zero or more
// rows to emit.
type parserState interface {
	step(line string) (parserState, []diffmodel.SideBySideRow)
}

// preHunkState is lines-before-or-between-hunks: every line is emitted
// verbatim as a Meta row until a hunk header is seen.
type preHunkState struct{}

func (preHunkState) step(line string) (parserState, []diffmodel.SideBySideRow) {
	if left, right, ok := parseHunkHeader(line); ok {
		return inHunkState{leftLine: left, rightLine: right},
			[]diffmodel.SideBySideRow{{Kind: diffmodel.RowHunkHeader, Text: line}}
	}
	return preHunkState{}, []diffmodel.SideBySideRow{{Kind: diffmodel.RowMeta, Text: line}}
}

// inHunkState is inside a hunk body. leftLine/rightLine are the next
// line numbers to assign; pendingRemoved/pendingAdded buffer the
// current run of '-'/'+' lines until a context line, a hunk header, or
// an unparseable line flushes and pairs them index-wise.
type inHunkState struct {
	leftLine, rightLine uint32

	pendingRemoved []pendingLine
	pendingAdded   []pendingLine

	// lastWasAdded tells a following "\ No newline" marker which buffer
	// it applies to.
	lastWasAdded bool
}

func (s inHunkState) step(line string) (parserState, []diffmodel.SideBySideRow) {
	if left, right, ok := parseHunkHeader(line); ok {
		rows, _, _ := s.flush()
		rows = append(rows, diffmodel.SideBySideRow{Kind: diffmodel.RowHunkHeader, Text: line})
		return inHunkState{leftLine: left, rightLine: right}, rows
	}

	if line == "" {
		return s.emitContext("")
	}

	switch line[0] {
	case ' ':
		return s.emitContext(line[1:])
	case '-':
		next := s
		next.pendingRemoved = append(append([]pendingLine{}, s.pendingRemoved...), pendingLine{text: line[1:]})
		next.lastWasAdded = false
		return next, nil
	case '+':
		next := s
		next.pendingAdded = append(append([]pendingLine{}, s.pendingAdded...), pendingLine{text: line[1:]})
		next.lastWasAdded = true
		return next, nil
	case '\\':
		return s.markLastNoNewline(), nil
	default:
		// Unparseable line inside a hunk: abort the hunk, degrade to a
		// verbatim Meta row, counters do not advance.
		rows, _, _ := s.flush()
		rows = append(rows, diffmodel.SideBySideRow{Kind: diffmodel.RowMeta, Text: line})
		return preHunkState{}, rows
	}
}

// emitContext flushes any buffered -/+ run, then emits a paired
// context row for text and advances both line counters past it.
func (s inHunkState) emitContext(text string) (parserState, []diffmodel.SideBySideRow) {
	rows, left, right := s.flush()
	rows = append(rows, diffmodel.SideBySideRow{
		Kind: diffmodel.RowCode,
		Left: diffmodel.DiffCell{Line: u32ptr(left), Text: text, Kind: diffmodel.CellContext},
		Right: diffmodel.DiffCell{
			Line: u32ptr(right), Text: text, Kind: diffmodel.CellContext,
		},
	})
	return inHunkState{leftLine: left + 1, rightLine: right + 1}, rows
}

// markLastNoNewline attaches a trailing "\ No newline" marker to
// whichever buffer most recently received a line.
func (s inHunkState) markLastNoNewline() inHunkState {
	next := s
	if s.lastWasAdded && len(s.pendingAdded) > 0 {
		added := append([]pendingLine{}, s.pendingAdded...)
		added[len(added)-1].noNewline = true
		next.pendingAdded = added
	} else if !s.lastWasAdded && len(s.pendingRemoved) > 0 {
		removed := append([]pendingLine{}, s.pendingRemoved...)
		removed[len(removed)-1].noNewline = true
		next.pendingRemoved = removed
	}
	return next
}

// flush pairs the k-th buffered removed line with the k-th buffered
// added line positionally; excess lines on either side get an empty
// opposite cell. It returns the rows plus the left/rightLine a
// following row should continue from — each buffered line on a side
// consumes one line number on that side, regardless of pairing.
func (s inHunkState) flush() (rows []diffmodel.SideBySideRow, left, right uint32) {
	left, right = s.leftLine, s.rightLine
	if len(s.pendingRemoved) == 0 && len(s.pendingAdded) == 0 {
		return nil, left, right
	}
	n := len(s.pendingRemoved)
	if len(s.pendingAdded) > n {
		n = len(s.pendingAdded)
	}
	rows = make([]diffmodel.SideBySideRow, 0, n)
	for i := 0; i < n; i++ {
		row := diffmodel.SideBySideRow{Kind: diffmodel.RowCode}
		if i < len(s.pendingRemoved) {
			pl := s.pendingRemoved[i]
			row.Left = diffmodel.DiffCell{Line: u32ptr(left), Text: pl.text, Kind: diffmodel.CellRemoved}
			row.LeftNoNewline = pl.noNewline
			left++
		} else {
			row.Left = diffmodel.DiffCell{Kind: diffmodel.CellNone}
		}
		if i < len(s.pendingAdded) {
			pl := s.pendingAdded[i]
			row.Right = diffmodel.DiffCell{Line: u32ptr(right), Text: pl.text, Kind: diffmodel.CellAdded}
			row.RightNoNewline = pl.noNewline
			right++
		} else {
			row.Right = diffmodel.DiffCell{Kind: diffmodel.CellNone}
		}
		rows = append(rows, row)
	}
	return rows, left, right
}

func parseHunkHeader(line string) (left, right uint32, ok bool) {
	m := hunkHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	ol, _ := strconv.ParseUint(m[1], 10, 32)
	nl, _ := strconv.ParseUint(m[3], 10, 32)
	return uint32(ol), uint32(nl), true
}

// Parse parses a single file's unified-diff text into side-by-side rows.
func Parse(patch string) []diffmodel.SideBySideRow {
	if patch == "" {
		return nil
	}
	lines := strings.Split(patch, "\n")
	// strings.Split on a trailing "\n" produces a spurious empty final
	// element; unified diffs always end with a newline after their last
	// real line, so drop it rather than emit a bogus Meta row for it.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	var state parserState = preHunkState{}
	var rows []diffmodel.SideBySideRow
	for _, line := range lines {
		var stepRows []diffmodel.SideBySideRow
		state, stepRows = state.step(line)
		rows = append(rows, stepRows...)
	}
	if final, ok := state.(inHunkState); ok {
		trailing, _, _ := final.flush()
		rows = append(rows, trailing...)
	}
	return rows
}

func u32ptr(v uint32) *uint32 { return &v }
