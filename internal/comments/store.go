package comments

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS comments (
  id              INTEGER PRIMARY KEY AUTOINCREMENT,
  repo_root       TEXT NOT NULL,
  bookmark_name   TEXT NOT NULL,
  file_path       TEXT NOT NULL,
  line_side       TEXT NOT NULL,
  old_line        INTEGER,
  new_line        INTEGER,
  hunk_header     TEXT,
  line_text       TEXT NOT NULL,
  context_before  TEXT NOT NULL,
  context_after   TEXT NOT NULL,
  anchor_hash     INTEGER NOT NULL,
  comment_text    TEXT NOT NULL,
  status          TEXT NOT NULL,
  stale_reason    TEXT,
  created_at_ms   INTEGER NOT NULL,
  last_seen_ms    INTEGER NOT NULL,
  updated_at_ms   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_scope ON comments(repo_root, bookmark_name);
`

// Store is the single-writer local comment database. SQLite's own
// write lock, not an in-process mutex, serializes concurrent writers;
// the connection is opened in WAL mode so readers never block on it.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the comment database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, &ErrCommentStoreFailure{Cause: err}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &ErrCommentStoreFailure{Cause: err}
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// List returns every comment scoped to (repoRoot, bookmarkName),
// ordered by id.
func (s *Store) List(ctx context.Context, repoRoot, bookmarkName string) ([]*CommentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, repo_root, bookmark_name, file_path, line_side, old_line, new_line,
		       hunk_header, line_text, context_before, context_after, anchor_hash,
		       comment_text, status, stale_reason, created_at_ms, last_seen_ms, updated_at_ms
		FROM comments WHERE repo_root = ? AND bookmark_name = ? ORDER BY id`,
		repoRoot, bookmarkName)
	if err != nil {
		return nil, &ErrCommentStoreFailure{Cause: err}
	}
	defer rows.Close()

	var out []*CommentRecord
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, &ErrCommentStoreFailure{Cause: err}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &ErrCommentStoreFailure{Cause: err}
	}
	return out, nil
}

// Create inserts a new Open comment and returns its assigned record.
func (s *Store) Create(ctx context.Context, n NewComment, nowMs int64) (*CommentRecord, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (
			repo_root, bookmark_name, file_path, line_side, old_line, new_line,
			hunk_header, line_text, context_before, context_after, anchor_hash,
			comment_text, status, stale_reason, created_at_ms, last_seen_ms, updated_at_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?, ?)`,
		n.RepoRoot, n.BookmarkName, n.FilePath, n.LineSide.String(),
		nullableU32(n.OldLine), nullableU32(n.NewLine),
		nullableString(n.HunkHeader), n.LineText, n.ContextBefore, n.ContextAfter,
		n.AnchorHash, n.CommentText, StatusOpen.String(), nowMs, nowMs, nowMs)
	if err != nil {
		return nil, &ErrActionFailure{Action: "create comment", Cause: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, &ErrActionFailure{Action: "create comment", Cause: err}
	}
	return &CommentRecord{
		ID: id, RepoRoot: n.RepoRoot, BookmarkName: n.BookmarkName, FilePath: n.FilePath,
		LineSide: n.LineSide, OldLine: n.OldLine, NewLine: n.NewLine, HunkHeader: n.HunkHeader,
		LineText: n.LineText, ContextBefore: n.ContextBefore, ContextAfter: n.ContextAfter,
		AnchorHash: n.AnchorHash, CommentText: n.CommentText, Status: StatusOpen,
		CreatedAtMs: nowMs, LastSeenMs: nowMs, UpdatedAtMs: nowMs,
	}, nil
}

// Delete removes a comment permanently.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id); err != nil {
		return &ErrCommentStoreFailure{Cause: err}
	}
	return nil
}

// MarkStatus sets a comment's status and stale reason (stored as NULL
// when reason is empty, whatever the status) and stamps updated_at_ms.
func (s *Store) MarkStatus(ctx context.Context, id int64, status Status, reason string, nowMs int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE comments SET status = ?, stale_reason = ?, updated_at_ms = ? WHERE id = ?`,
		status.String(), nullableString(reason), nowMs, id); err != nil {
		return &ErrCommentStoreFailure{Cause: err}
	}
	return nil
}

// TouchSeen stamps last_seen_ms without otherwise altering the record,
// used when reconciliation re-matches an open comment.
func (s *Store) TouchSeen(ctx context.Context, id int64, nowMs int64) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE comments SET last_seen_ms = ? WHERE id = ?`, nowMs, id); err != nil {
		return &ErrCommentStoreFailure{Cause: err}
	}
	return nil
}

// PruneNonOpen deletes every comment whose status is not Open and
// whose created_at_ms predates cutoffMs.
func (s *Store) PruneNonOpen(ctx context.Context, cutoffMs int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM comments WHERE status != ? AND created_at_ms < ?`,
		StatusOpen.String(), cutoffMs)
	if err != nil {
		return 0, &ErrCommentStoreFailure{Cause: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &ErrCommentStoreFailure{Cause: err}
	}
	return n, nil
}

// ReopenAllStale moves every Stale comment in scope back to Open.
func (s *Store) ReopenAllStale(ctx context.Context, repoRoot, bookmarkName string, nowMs int64) error {
	return s.bulkTransition(ctx, repoRoot, bookmarkName, StatusStale, StatusOpen, nowMs)
}

// ResolveAllStale moves every Stale comment in scope to Resolved.
func (s *Store) ResolveAllStale(ctx context.Context, repoRoot, bookmarkName string, nowMs int64) error {
	return s.bulkTransition(ctx, repoRoot, bookmarkName, StatusStale, StatusResolved, nowMs)
}

// DeleteAllResolved removes every Resolved comment in scope.
func (s *Store) DeleteAllResolved(ctx context.Context, repoRoot, bookmarkName string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM comments WHERE repo_root = ? AND bookmark_name = ? AND status = ?`,
		repoRoot, bookmarkName, StatusResolved.String()); err != nil {
		return &ErrCommentStoreFailure{Cause: err}
	}
	return nil
}

func (s *Store) bulkTransition(ctx context.Context, repoRoot, bookmarkName string, from, to Status, nowMs int64) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE comments SET status = ?, stale_reason = NULL, updated_at_ms = ?
		WHERE repo_root = ? AND bookmark_name = ? AND status = ?`,
		to.String(), nowMs, repoRoot, bookmarkName, from.String()); err != nil {
		return &ErrCommentStoreFailure{Cause: err}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(r rowScanner) (*CommentRecord, error) {
	var c CommentRecord
	var lineSide, status string
	var hunkHeader, staleReason sql.NullString
	var oldLine, newLine sql.NullInt64
	if err := r.Scan(
		&c.ID, &c.RepoRoot, &c.BookmarkName, &c.FilePath, &lineSide, &oldLine, &newLine,
		&hunkHeader, &c.LineText, &c.ContextBefore, &c.ContextAfter, &c.AnchorHash,
		&c.CommentText, &status, &staleReason, &c.CreatedAtMs, &c.LastSeenMs, &c.UpdatedAtMs,
	); err != nil {
		return nil, err
	}
	c.LineSide = parseLineSide(lineSide)
	c.Status = parseStatus(status)
	c.HunkHeader = hunkHeader.String
	c.StaleReason = staleReason.String
	if oldLine.Valid {
		v := uint32(oldLine.Int64)
		c.OldLine = &v
	}
	if newLine.Valid {
		v := uint32(newLine.Int64)
		c.NewLine = &v
	}
	return &c, nil
}

func nullableU32(v *uint32) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
