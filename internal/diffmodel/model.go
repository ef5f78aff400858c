// Package diffmodel defines the data types shared by the patch parser,
// the diff stream builder, and the intra-line highlighter: the closed
// vocabularies of file status, row kind, and cell kind, plus the row and
// range types that make up a side-by-side diff stream.
package diffmodel

// FileStatus is a closed set of change classifications for a file between
// two trees. Higher values win when merging duplicate path entries.
type FileStatus int

const (
	StatusUnknown FileStatus = iota
	StatusModified
	StatusUntracked
	StatusAdded
	StatusTypeChange
	StatusRenamed
	StatusDeleted
	StatusConflicted
)

// Tag returns the single-character tag used in "── <path> [<tag>] ──"
// file-header rows.
func (s FileStatus) Tag() string {
	switch s {
	case StatusAdded:
		return "A"
	case StatusModified:
		return "M"
	case StatusDeleted:
		return "D"
	case StatusRenamed:
		return "R"
	case StatusUntracked:
		return "?"
	case StatusTypeChange:
		return "T"
	case StatusConflicted:
		return "C"
	default:
		return "U"
	}
}

// MergeFileStatus returns whichever of a, b has the higher priority,
// matching the Conflicted > Deleted > Renamed > TypeChange > Added >
// Untracked > Modified > Unknown ordering.
func MergeFileStatus(a, b FileStatus) FileStatus {
	if b > a {
		return b
	}
	return a
}

// ChangedFile describes one path that differs between the snapshot's
// baseline and current trees.
type ChangedFile struct {
	Path      string
	Status    FileStatus
	Staged    bool
	Untracked bool
}

// LineStats counts added/removed lines for a file or an entire diff stream.
type LineStats struct {
	Added   uint64
	Removed uint64
}

// Changed is Added + Removed.
func (s LineStats) Changed() uint64 { return s.Added + s.Removed }

// Add accumulates another LineStats into s.
func (s *LineStats) Add(other LineStats) {
	s.Added += other.Added
	s.Removed += other.Removed
}

// DiffCellKind is a closed set of line roles within a side-by-side cell.
type DiffCellKind int

const (
	CellNone DiffCellKind = iota
	CellContext
	CellAdded
	CellRemoved
)

// DiffRowKind is a closed set of row roles within a diff stream.
type DiffRowKind int

const (
	RowCode DiffRowKind = iota
	RowHunkHeader
	RowMeta
	RowEmpty
)

// DiffCell is one side (left or right) of a SideBySideRow.
type DiffCell struct {
	Line *uint32
	Text string
	Kind DiffCellKind
}

// SideBySideRow is one row of the side-by-side view. LeftNoNewline and
// RightNoNewline mark a cell's line as lacking a trailing newline in the
// source patch; that marker does not produce a row of its own.
type SideBySideRow struct {
	Kind  DiffRowKind
	Left  DiffCell
	Right DiffCell
	Text  string

	LeftNoNewline  bool
	RightNoNewline bool
}

// RowMetaKind tags a row for fast classification without re-deriving it
// from Kind (CoreHunkHeader and FileHeader both render from RowMeta/
// RowHunkHeader rows but are distinguished for backward hunk-header
// lookups and file-range resolution).
type RowMetaKind int

const (
	MetaFileHeader RowMetaKind = iota
	MetaCoreHunkHeader
	MetaEmptyState
	MetaCode
	MetaMeta
)

// RowMetadata is the parallel per-row bookkeeping vector the stream
// builder maintains alongside Rows.
type RowMetadata struct {
	Kind       RowMetaKind
	FilePath   string
	FileStatus FileStatus
}

// FileRowRange is the half-open row-index span a file occupies within a
// DiffStream's row list.
type FileRowRange struct {
	Path      string
	Status    FileStatus
	StartRow  int
	EndRow    int
}

// SyntaxTokenKind is the closed set of syntax classifications a styled
// segment may carry.
type SyntaxTokenKind int

const (
	SyntaxPlain SyntaxTokenKind = iota
	SyntaxKeyword
	SyntaxString
	SyntaxNumber
	SyntaxComment
	SyntaxFunction
	SyntaxTypeName
	SyntaxConstant
	SyntaxVariable
	SyntaxOperator
)

// StyledSegment is a maximal run of text sharing one (syntax, changed)
// pair, produced by the intra-line highlighter.
type StyledSegment struct {
	Text    string
	Syntax  SyntaxTokenKind
	Changed bool
}

// DiffStream is the fully composed, orderable sequence of rows the
// renderer consumes.
type DiffStream struct {
	Rows          []SideBySideRow
	RowMetadata   []RowMetadata
	RowIDs        []uint64
	FileRanges    []FileRowRange
	FileLineStats map[string]LineStats
}
