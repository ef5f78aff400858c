package comments

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/sidediff/sidediff/internal/diffmodel"
)

// rowText renders row the way the anchor (or a context row next to it)
// would be spelled for side: Code rows pick the cell on side and
// prefix it "-"/"+"/" " by the cell's kind; any other row kind, or a
// Meta-side anchor, uses the row's own Text verbatim.
func rowText(row diffmodel.SideBySideRow, side LineSide) string {
	if side == SideMeta || row.Kind != diffmodel.RowCode {
		return row.Text
	}
	cell := row.Left
	if side == SideRight {
		cell = row.Right
	}
	switch cell.Kind {
	case diffmodel.CellRemoved:
		return "-" + cell.Text
	case diffmodel.CellAdded:
		return "+" + cell.Text
	case diffmodel.CellContext:
		return " " + cell.Text
	default:
		return ""
	}
}

// fileRangeOf returns the FileRowRange containing row index idx, or
// false if idx falls outside every range (the synthetic trailing rows
// after the last file, or the all-files-empty placeholder row).
func fileRangeOf(stream diffmodel.DiffStream, idx int) (diffmodel.FileRowRange, bool) {
	for _, r := range stream.FileRanges {
		if idx >= r.StartRow && idx < r.EndRow {
			return r, true
		}
	}
	return diffmodel.FileRowRange{}, false
}

// backwardHunkHeader scans rows [rangeStart, idx) backward for the
// nearest CoreHunkHeader row and returns its text, or "" if none.
func backwardHunkHeader(stream diffmodel.DiffStream, rangeStart, idx int) string {
	for i := idx - 1; i >= rangeStart; i-- {
		if stream.RowMetadata[i].Kind == diffmodel.MetaCoreHunkHeader {
			return stream.Rows[i].Text
		}
	}
	return ""
}

// contextWindow renders up to contextRadius rows in direction dir (+1
// for after, -1 for before) from idx, clamped to [rangeStart, rangeEnd),
// joined by newlines in source order.
func contextWindow(stream diffmodel.DiffStream, side LineSide, rangeStart, rangeEnd, idx, dir int) string {
	var lines []string
	for step := 1; step <= contextRadius; step++ {
		i := idx + dir*step
		if i < rangeStart || i >= rangeEnd {
			break
		}
		lines = append(lines, rowText(stream.Rows[i], side))
	}
	if dir < 0 {
		for l, r := 0, len(lines)-1; l < r; l, r = l+1, r-1 {
			lines[l], lines[r] = lines[r], lines[l]
		}
	}
	return strings.Join(lines, "\n")
}

// hashAnchor computes the 64-bit content hash over the anchor's
// identifying fields.
func hashAnchor(filePath, hunkHeader, lineText, contextBefore, contextAfter string) uint64 {
	h := xxhash.New()
	h.WriteString(filePath)
	h.WriteString("\x00")
	h.WriteString(hunkHeader)
	h.WriteString("\x00")
	h.WriteString(lineText)
	h.WriteString("\x00")
	h.WriteString(contextBefore)
	h.WriteString("\x00")
	h.WriteString(contextAfter)
	return h.Sum64()
}

// BuildAnchor derives the anchor fields (hunk header, line text,
// surrounding context, hash) for the row at idx in stream, viewed from
// side. The caller fills in the remaining NewComment fields (old/new
// line numbers, comment text, repo/bookmark scope) separately.
func BuildAnchor(stream diffmodel.DiffStream, idx int, side LineSide) NewComment {
	meta := stream.RowMetadata[idx]
	rng, _ := fileRangeOf(stream, idx)
	rangeStart, rangeEnd := rng.StartRow, rng.EndRow

	hunkHeader := backwardHunkHeader(stream, rangeStart, idx)
	lineText := rowText(stream.Rows[idx], side)
	before := contextWindow(stream, side, rangeStart, rangeEnd, idx, -1)
	after := contextWindow(stream, side, rangeStart, rangeEnd, idx, 1)

	var oldLine, newLine *uint32
	if side != SideMeta {
		oldLine = stream.Rows[idx].Left.Line
		newLine = stream.Rows[idx].Right.Line
	}

	return NewComment{
		FilePath:      meta.FilePath,
		LineSide:      side,
		OldLine:       oldLine,
		NewLine:       newLine,
		HunkHeader:    hunkHeader,
		LineText:      lineText,
		ContextBefore: before,
		ContextAfter:  after,
		AnchorHash:    hashAnchor(meta.FilePath, hunkHeader, lineText, before, after),
	}
}

// optionEq compares two nullable line numbers the way the base
// anchor rule does: both absent is equal, one absent and one present
// is not.
func optionEq(a, b *uint32) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// rowMatchesComment implements the exact-match rule: the file path
// must agree, and the comment's side-specific line numbers must agree
// with the row's (an absent comment-side line number is a wildcard on
// the opposite side), or for a Meta-side comment the row must be
// non-Code with identical rendered text.
func rowMatchesComment(stream diffmodel.DiffStream, idx int, c *CommentRecord) bool {
	meta := stream.RowMetadata[idx]
	if meta.FilePath != c.FilePath {
		return false
	}
	row := stream.Rows[idx]
	switch c.LineSide {
	case SideLeft:
		return optionEq(row.Left.Line, c.OldLine) &&
			(c.NewLine == nil || optionEq(row.Right.Line, c.NewLine))
	case SideRight:
		return optionEq(row.Right.Line, c.NewLine) &&
			(c.OldLine == nil || optionEq(row.Left.Line, c.OldLine))
	default:
		return row.Kind != diffmodel.RowCode && row.Text == c.LineText
	}
}

// Matches reports whether the row at idx in stream is the one c is
// anchored to, by the same exact-match rule Reconcile uses. Callers
// that only need to know where a comment's gutter marker belongs (not
// whether it has drifted) use this directly instead of Reconcile.
func Matches(stream diffmodel.DiffStream, idx int, c *CommentRecord) bool {
	return rowMatchesComment(stream, idx, c)
}

// anchorHashMatches implements the fallback match: any row in the
// comment's file whose recomputed anchor hash (for the comment's side)
// equals c.AnchorHash.
func anchorHashMatches(stream diffmodel.DiffStream, c *CommentRecord) (int, bool) {
	for i, meta := range stream.RowMetadata {
		if meta.FilePath != c.FilePath {
			continue
		}
		anchor := BuildAnchor(stream, i, c.LineSide)
		if anchor.AnchorHash == c.AnchorHash {
			return i, true
		}
	}
	return 0, false
}

// findMatch attempts an exact match first, then the anchor-hash
// fallback, returning the matched row index.
func findMatch(stream diffmodel.DiffStream, c *CommentRecord) (int, bool) {
	for i, meta := range stream.RowMetadata {
		if meta.FilePath == c.FilePath && rowMatchesComment(stream, i, c) {
			return i, true
		}
	}
	return anchorHashMatches(stream, c)
}

// fileStillPresent reports whether stream's file ranges still include
// path, used to choose between "anchor-drift" (Stale) and
// "file-absent" (Resolved) once a comment's miss streak reaches
// missStreakThreshold.
func fileStillPresent(stream diffmodel.DiffStream, path string) bool {
	for _, r := range stream.FileRanges {
		if r.Path == path {
			return true
		}
	}
	return false
}

// ReconcileOutcome is what happened to one comment during Reconcile.
type ReconcileOutcome struct {
	Comment       *CommentRecord
	Matched       bool
	StatusChanged bool
}

// Reconcile re-locates every open comment in comments against stream,
// updating miss streaks, last_seen_ms, and status transitions in
// place, and returns a per-comment outcome. nowMs is the caller's
// current time in Unix milliseconds; Reconcile performs no I/O, it is
// the caller's job to persist the resulting statuses via the store.
func Reconcile(stream diffmodel.DiffStream, records []*CommentRecord, nowMs int64) []ReconcileOutcome {
	outcomes := make([]ReconcileOutcome, 0, len(records))
	for _, c := range records {
		if c.Status != StatusOpen {
			outcomes = append(outcomes, ReconcileOutcome{Comment: c})
			continue
		}
		out := ReconcileOutcome{Comment: c}
		if _, ok := findMatch(stream, c); ok {
			c.missStreak = 0
			c.LastSeenMs = nowMs
			out.Matched = true
		} else {
			c.missStreak++
			if c.missStreak >= missStreakThreshold {
				if fileStillPresent(stream, c.FilePath) {
					c.Status = StatusStale
					c.StaleReason = "anchor-drift"
				} else {
					c.Status = StatusResolved
					c.StaleReason = "file-absent"
				}
				c.UpdatedAtMs = nowMs
				out.StatusChanged = true
			}
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}
