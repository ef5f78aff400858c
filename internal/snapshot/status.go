package snapshot

import (
	"sort"

	"github.com/go-git/go-git/v5"

	"github.com/sidediff/sidediff/internal/diffmodel"
)

// classifyStatus maps one go-git status code (either the staging or the
// worktree side of an entry) onto the closed FileStatus set: Added,
// Deleted, Renamed and Untracked map to themselves, an unmerged code is
// Conflicted, Modified and Copied are Modified, and any other code
// (including Unmodified) is Unknown. changedFileFromStatus merges the
// two sides by status priority.
func classifyStatus(code git.StatusCode) diffmodel.FileStatus {
	switch code {
	case git.Added:
		return diffmodel.StatusAdded
	case git.Deleted:
		return diffmodel.StatusDeleted
	case git.Renamed:
		return diffmodel.StatusRenamed
	case git.UpdatedButUnmerged:
		return diffmodel.StatusConflicted
	case git.Untracked:
		return diffmodel.StatusUntracked
	case git.Modified, git.Copied:
		return diffmodel.StatusModified
	default:
		return diffmodel.StatusUnknown
	}
}

// changedFileFromStatus converts one go-git status entry into a
// ChangedFile, merging the staging and worktree codes by status
// priority when they disagree (e.g. staged-Modified, worktree-Deleted).
func changedFileFromStatus(path string, fs *git.FileStatus) diffmodel.ChangedFile {
	stagedStatus := classifyStatus(fs.Staging)
	worktreeStatus := classifyStatus(fs.Worktree)
	status := diffmodel.MergeFileStatus(stagedStatus, worktreeStatus)

	staged := fs.Staging != git.Unmodified && fs.Staging != git.Untracked
	untracked := fs.Worktree == git.Untracked && fs.Staging == git.Untracked

	return diffmodel.ChangedFile{
		Path:      path,
		Status:    status,
		Staged:    staged,
		Untracked: untracked,
	}
}

// enumerateChangedFiles lists every path go-git's worktree status
// reports as changed, classified and merged per path. Paths are
// returned sorted for deterministic fingerprinting and display order.
func enumerateChangedFiles(repo *git.Repository) ([]diffmodel.ChangedFile, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}
	st, err := wt.Status()
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(st))
	for path := range st {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	files := make([]diffmodel.ChangedFile, 0, len(paths))
	for _, path := range paths {
		fs := st[path]
		if fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified {
			continue
		}
		files = append(files, changedFileFromStatus(path, fs))
	}
	return files, nil
}
