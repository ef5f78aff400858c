package snapshot

import (
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// DiscoverRoot walks ancestors of dir looking for a repository via
// go-git's own detection (DetectDotGit), which understands both a
// plain ".git" directory and the gitdir-file form used by worktrees
// and submodules. It returns the resolved worktree root, or
// *ErrMissingRepository if no repository is found before reaching the
// filesystem root.
func DiscoverRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", &ErrMissingRepository{Path: dir}
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", &ErrMissingRepository{Path: abs}
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", &ErrMissingRepository{Path: abs}
	}
	return wt.Filesystem.Root(), nil
}
