// Package comments implements the comment anchor engine (C7): binding
// review comments to diff rows via a content-derived anchor, persisting
// them in a local SQLite database, and reconciling them against later
// diff streams as the underlying file changes.
package comments

// LineSide is the closed set of row kinds a comment can anchor to.
type LineSide int

const (
	SideLeft LineSide = iota
	SideRight
	SideMeta
)

func (s LineSide) String() string {
	switch s {
	case SideLeft:
		return "Left"
	case SideRight:
		return "Right"
	case SideMeta:
		return "Meta"
	default:
		return "Meta"
	}
}

func parseLineSide(s string) LineSide {
	switch s {
	case "Left":
		return SideLeft
	case "Right":
		return SideRight
	default:
		return SideMeta
	}
}

// Status is the comment lifecycle: reconciliation moves an Open comment
// to Stale when it loses the anchor, or to Resolved when the anchor's
// file disappears, and leaves non-open comments untouched; Stale goes
// back to Open through ReopenAllStale, and MarkStatus sets any status
// by explicit user action, including Resolved back to Open. Deletion is
// terminal and is not itself a Status.
type Status int

const (
	StatusOpen Status = iota
	StatusStale
	StatusResolved
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "Open"
	case StatusStale:
		return "Stale"
	case StatusResolved:
		return "Resolved"
	default:
		return "Open"
	}
}

func parseStatus(s string) Status {
	switch s {
	case "Stale":
		return StatusStale
	case "Resolved":
		return StatusResolved
	default:
		return StatusOpen
	}
}

// missStreakThreshold is the number of consecutive failed reconciliation
// attempts after which an open comment transitions to Stale or Resolved.
const missStreakThreshold = 3

// contextRadius is the number of rows captured above and below an
// anchor row for context_before/context_after.
const contextRadius = 4

// retentionWindowMs is a 30-day retention window for non-open comments.
// Nothing prunes with it: PruneNonOpen takes its cutoff from its caller,
// and the application does not call PruneNonOpen, so non-open comments
// are kept until deleted.
const retentionWindowMs = int64(30 * 24 * 60 * 60 * 1000)

// CommentRecord is one persisted review comment, anchored to a location
// in a diff stream by content rather than by row index.
type CommentRecord struct {
	ID            int64
	RepoRoot      string
	BookmarkName  string
	FilePath      string
	LineSide      LineSide
	OldLine       *uint32
	NewLine       *uint32
	HunkHeader    string
	LineText      string
	ContextBefore string
	ContextAfter  string
	AnchorHash    uint64
	CommentText   string
	Status        Status
	StaleReason   string
	CreatedAtMs   int64
	LastSeenMs    int64
	UpdatedAtMs   int64

	missStreak int
}

// NewComment is the input to Store.Create: everything about a
// CommentRecord that the caller supplies, derived from an anchored row
// plus the text the user typed.
type NewComment struct {
	RepoRoot      string
	BookmarkName  string
	FilePath      string
	LineSide      LineSide
	OldLine       *uint32
	NewLine       *uint32
	HunkHeader    string
	LineText      string
	ContextBefore string
	ContextAfter  string
	AnchorHash    uint64
	CommentText   string
}
