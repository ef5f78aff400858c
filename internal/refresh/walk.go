package refresh

import (
	"io/fs"
	"path/filepath"
)

// walkDirs calls visit for root and every descendant directory,
// skipping ignored directories (and their subtrees) entirely so the
// watcher is never attached under .git/.jj.
func walkDirs(root string, visit func(dir string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isIgnoredPath(path) {
			return fs.SkipDir
		}
		return visit(path)
	})
}
