package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"

	"github.com/sidediff/sidediff/internal/diffmodel"
	"github.com/sidediff/sidediff/internal/diffparse"
)

// LoadPatch renders path's unified diff between HEAD's tree and the
// current worktree content, in the shape diffparse.Parse expects. It
// opens the repository fresh each call; callers that already hold a
// *git.Repository should use loadPatch directly.
func LoadPatch(root, path string, status diffmodel.FileStatus) (string, error) {
	repo, err := openRepo(root)
	if err != nil {
		return "", err
	}
	return loadPatch(repo, root, path, status)
}

func loadPatch(repo *git.Repository, root, path string, status diffmodel.FileStatus) (string, error) {
	oldContent, oldPresent, err := readBlobAtHEAD(repo, path)
	if err != nil {
		return "", &ErrPatchLoadFailure{Path: path, Cause: err}
	}

	var newContent []byte
	var newPresent bool
	if status != diffmodel.StatusDeleted {
		data, err := os.ReadFile(filepath.Join(root, path))
		if err == nil {
			newContent = data
			newPresent = true
		} else if !os.IsNotExist(err) {
			return "", &ErrPatchLoadFailure{Path: path, Cause: err}
		}
	}

	if (oldPresent && isBinary(oldContent)) || (newPresent && isBinary(newContent)) {
		return fmt.Sprintf("diff --git a/%s b/%s\nBinary files a/%s and b/%s differ\n", path, path, path, path), nil
	}

	return renderUnifiedDiff(path, !oldPresent, !newPresent, splitLines(oldContent), splitLines(newContent)), nil
}

// patchLineStats sums added/removed lines directly off rendered patch
// text by running it through the same parser the diff stream builder
// uses, so LoadSnapshot's aggregate line_stats matches exactly what C4
// computes per file.
func patchLineStats(patch string) diffmodel.LineStats {
	var stats diffmodel.LineStats
	for _, row := range diffparse.Parse(patch) {
		if row.Kind != diffmodel.RowCode {
			continue
		}
		if row.Left.Kind == diffmodel.CellRemoved {
			stats.Removed++
		}
		if row.Right.Kind == diffmodel.CellAdded {
			stats.Added++
		}
	}
	return stats
}
