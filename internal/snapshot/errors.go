package snapshot

import "fmt"

// ErrMissingRepository indicates repository discovery failed: the
// distinguished error kind the controller surfaces as a silent
// empty-state hint rather than a red error banner.
type ErrMissingRepository struct {
	Path string
}

func (e *ErrMissingRepository) Error() string {
	return fmt.Sprintf("no repository found above %s", e.Path)
}

// ErrSnapshotFailure wraps a repository-open or working-copy snapshot
// failure; the controller surfaces it as a one-line error banner.
type ErrSnapshotFailure struct {
	Cause error
}

func (e *ErrSnapshotFailure) Error() string { return fmt.Sprintf("snapshot failed: %v", e.Cause) }
func (e *ErrSnapshotFailure) Unwrap() error { return e.Cause }

// ErrPatchLoadFailure wraps a per-file patch load failure; the stream
// builder embeds it as a Meta row inside that file's range without
// affecting other files.
type ErrPatchLoadFailure struct {
	Path  string
	Cause error
}

func (e *ErrPatchLoadFailure) Error() string {
	return fmt.Sprintf("failed to load patch for %s: %v", e.Path, e.Cause)
}
func (e *ErrPatchLoadFailure) Unwrap() error { return e.Cause }
