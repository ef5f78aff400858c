// Package diffstream implements the diff stream builder (C4): it loads
// a unified patch per changed file, parses it via diffparse, and
// concatenates the resulting rows into one ordered DiffStream with
// file-range and per-file line-stat bookkeeping.
package diffstream

import (
	"fmt"

	"github.com/sidediff/sidediff/internal/diffmodel"
	"github.com/sidediff/sidediff/internal/diffparse"
)

// PatchLoader loads a single file's unified patch text. Production
// wiring passes a closure that calls snapshot.LoadPatch with the
// repository root; tests stub it directly so the
// builder's row/range/invariant logic can be exercised without a real
// repository.
type PatchLoader func(path string, status diffmodel.FileStatus) (string, error)

// Build composes the diff stream for files, in input order, honoring
// collapsed[path] to emit a single placeholder row instead of a file's
// parsed rows. prevFileStats supplies the fallback LineStats to retain
// when a file's patch fails to load, so the status UI for that file
// stays steady across a failed reload.
func Build(files []diffmodel.ChangedFile, collapsed map[string]bool, prevFileStats map[string]diffmodel.LineStats, load PatchLoader) diffmodel.DiffStream {
	stream := diffmodel.DiffStream{
		FileLineStats: map[string]diffmodel.LineStats{},
	}

	appendRow := func(row diffmodel.SideBySideRow, meta diffmodel.RowMetadata) {
		stream.Rows = append(stream.Rows, row)
		stream.RowMetadata = append(stream.RowMetadata, meta)
		stream.RowIDs = append(stream.RowIDs, uint64(len(stream.RowIDs)))
	}

	for _, f := range files {
		startRow := len(stream.Rows)

		appendRow(
			diffmodel.SideBySideRow{Kind: diffmodel.RowMeta, Text: fmt.Sprintf("── %s [%s] ──", f.Path, f.Status.Tag())},
			diffmodel.RowMetadata{Kind: diffmodel.MetaFileHeader, FilePath: f.Path, FileStatus: f.Status},
		)

		patch, err := load(f.Path, f.Status)
		var parsedRows []diffmodel.SideBySideRow
		var fileStats diffmodel.LineStats
		if err != nil {
			appendRow(
				diffmodel.SideBySideRow{Kind: diffmodel.RowMeta, Text: fmt.Sprintf("Failed to load patch for %s: %v", f.Path, err)},
				diffmodel.RowMetadata{Kind: diffmodel.MetaMeta, FilePath: f.Path, FileStatus: f.Status},
			)
			if prev, ok := prevFileStats[f.Path]; ok {
				fileStats = prev
			}
		} else {
			parsedRows = diffparse.Parse(patch)
			fileStats = lineStatsOf(parsedRows)
		}
		stream.FileLineStats[f.Path] = fileStats

		if collapsed[f.Path] {
			appendRow(
				diffmodel.SideBySideRow{Kind: diffmodel.RowEmpty, Text: fmt.Sprintf("File collapsed (%d changed lines hidden).", fileStats.Changed())},
				diffmodel.RowMetadata{Kind: diffmodel.MetaEmptyState, FilePath: f.Path, FileStatus: f.Status},
			)
		} else {
			for _, row := range parsedRows {
				appendRow(row, rowMetadataFor(row, f))
			}
		}

		appendRow(
			diffmodel.SideBySideRow{Kind: diffmodel.RowMeta, Text: fmt.Sprintf("── End of %s ──", f.Path)},
			diffmodel.RowMetadata{Kind: diffmodel.MetaMeta, FilePath: f.Path, FileStatus: f.Status},
		)

		stream.FileRanges = append(stream.FileRanges, diffmodel.FileRowRange{
			Path: f.Path, Status: f.Status, StartRow: startRow, EndRow: len(stream.Rows),
		})
	}

	if len(stream.Rows) == 0 {
		appendRow(
			diffmodel.SideBySideRow{Kind: diffmodel.RowEmpty, Text: "No changed files."},
			diffmodel.RowMetadata{Kind: diffmodel.MetaEmptyState},
		)
		return stream
	}

	appendRow(
		diffmodel.SideBySideRow{Kind: diffmodel.RowMeta, Text: "── End of change set ──"},
		diffmodel.RowMetadata{Kind: diffmodel.MetaMeta},
	)
	appendRow(
		diffmodel.SideBySideRow{Kind: diffmodel.RowEmpty, Text: "Press c to comment, z to collapse a file, y to copy comments, q to quit."},
		diffmodel.RowMetadata{Kind: diffmodel.MetaEmptyState},
	)
	appendRow(diffmodel.SideBySideRow{Kind: diffmodel.RowEmpty}, diffmodel.RowMetadata{Kind: diffmodel.MetaEmptyState})
	appendRow(diffmodel.SideBySideRow{Kind: diffmodel.RowEmpty}, diffmodel.RowMetadata{Kind: diffmodel.MetaEmptyState})

	return stream
}

func rowMetadataFor(row diffmodel.SideBySideRow, f diffmodel.ChangedFile) diffmodel.RowMetadata {
	kind := diffmodel.MetaCode
	switch row.Kind {
	case diffmodel.RowHunkHeader:
		kind = diffmodel.MetaCoreHunkHeader
	case diffmodel.RowMeta:
		kind = diffmodel.MetaMeta
	case diffmodel.RowEmpty:
		kind = diffmodel.MetaEmptyState
	}
	return diffmodel.RowMetadata{Kind: kind, FilePath: f.Path, FileStatus: f.Status}
}

// lineStatsOf sums a file's added/removed Code rows: left-Removed
// counts as removed, right-Added counts as added, matching the
// per-row sum the base spec defines for a file's LineStats.
func lineStatsOf(rows []diffmodel.SideBySideRow) diffmodel.LineStats {
	var stats diffmodel.LineStats
	for _, r := range rows {
		if r.Kind != diffmodel.RowCode {
			continue
		}
		if r.Left.Kind == diffmodel.CellRemoved {
			stats.Removed++
		}
		if r.Right.Kind == diffmodel.CellAdded {
			stats.Added++
		}
	}
	return stats
}
