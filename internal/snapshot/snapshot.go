// Package snapshot implements the repository snapshot engine (C3):
// discovery, working-copy refresh, changed-file enumeration, and a
// cheap fingerprint used to skip redundant reloads. It targets plain
// Git worktrees via go-git rather than a secondary native VCS layer;
// "working-copy commit" throughout means HEAD's tree, and the diff
// against it covers staged and unstaged changes together.
package snapshot

import (
	"fmt"
	"io"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/sidediff/sidediff/internal/diffmodel"
)

// BranchSummary is one local branch's name and remote-sync state.
type BranchSummary struct {
	Name        string
	IsCurrent   bool
	HasUpstream bool
	AheadCount  int
}

// RepoSnapshot is the full working-copy snapshot C3 produces.
type RepoSnapshot struct {
	Root               string
	BranchName         string
	BranchHasUpstream  bool
	BranchAheadCount   int
	Branches           []BranchSummary
	Files              []diffmodel.ChangedFile
	LineStats          diffmodel.LineStats
	LastCommitSubject  string
}

// Fingerprint is the cheap summary of RepoSnapshot used to decide
// whether a full reload is necessary.
type Fingerprint struct {
	Root                 string
	BranchName            string
	HeadTarget            string
	ChangedFileCount      int
	ChangedFileSignature  uint64
}

// Equal reports whether two fingerprints describe the same state.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f == other
}

// BranchNameHint is a persisted user preference for which branch name
// to report, consulted in step 8 of LoadSnapshot (load_snapshot's
// branch_name selection).
type BranchNameHint string

// openRepo opens the repository at root, translating go-git's
// "not a repository" error into ErrMissingRepository.
func openRepo(root string) (*git.Repository, error) {
	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, &ErrMissingRepository{Path: root}
	}
	return repo, nil
}

// LoadSnapshot performs the full working-copy refresh: HEAD resolution,
// changed-file enumeration, line-stat aggregation, branch selection,
// and upstream/ahead-count computation.
func LoadSnapshot(root string, hint BranchNameHint) (*RepoSnapshot, error) {
	repo, err := openRepo(root)
	if err != nil {
		return nil, err
	}

	files, err := enumerateChangedFiles(repo)
	if err != nil {
		return nil, &ErrSnapshotFailure{Cause: err}
	}

	branches, currentName, err := listBranches(repo)
	if err != nil {
		return nil, &ErrSnapshotFailure{Cause: err}
	}

	branchName := selectBranchName(hint, branches, currentName)

	var hasUpstream bool
	var ahead int
	for _, b := range branches {
		if b.Name == branchName {
			hasUpstream = b.HasUpstream
			ahead = b.AheadCount
			break
		}
	}

	var lineStats diffmodel.LineStats
	for _, f := range files {
		patch, err := loadPatch(repo, root, f.Path, f.Status)
		if err != nil {
			continue
		}
		lineStats.Add(patchLineStats(patch))
	}

	subject, _ := lastCommitSubject(repo)

	return &RepoSnapshot{
		Root:              root,
		BranchName:        branchName,
		BranchHasUpstream: hasUpstream,
		BranchAheadCount:  ahead,
		Branches:          branches,
		Files:             files,
		LineStats:         lineStats,
		LastCommitSubject: subject,
	}, nil
}

// LoadSnapshotFingerprint performs only the cheap subset of LoadSnapshot
// (HEAD resolution and changed-file enumeration), hashing the
// changed-file tuples instead of computing full line stats and branch
// lists.
func LoadSnapshotFingerprint(root string) (*Fingerprint, error) {
	repo, err := openRepo(root)
	if err != nil {
		return nil, err
	}

	files, err := enumerateChangedFiles(repo)
	if err != nil {
		return nil, &ErrSnapshotFailure{Cause: err}
	}

	var headTarget string
	var branchName string
	if head, err := repo.Head(); err == nil {
		headTarget = head.Hash().String()
		if head.Name().IsBranch() {
			branchName = head.Name().Short()
		}
	}
	if branchName == "" {
		branchName = "detached"
	}

	return &Fingerprint{
		Root:                 root,
		BranchName:           branchName,
		HeadTarget:           headTarget,
		ChangedFileCount:     len(files),
		ChangedFileSignature: signatureOf(files),
	}, nil
}

// signatureOf hashes the sequence (path, status_tag, staged, untracked)
// for every file in order, producing the 64-bit fingerprint signature.
func signatureOf(files []diffmodel.ChangedFile) uint64 {
	h := xxhash.New()
	for _, f := range files {
		fmt.Fprintf(h, "%s\x00%s\x00%t\x00%t\x00", f.Path, f.Status.Tag(), f.Staged, f.Untracked)
	}
	return h.Sum64()
}

// listBranches enumerates local branches with their upstream/ahead
// state, and reports which one HEAD currently points to (empty if
// HEAD is detached).
func listBranches(repo *git.Repository) ([]BranchSummary, string, error) {
	head, headErr := repo.Head()
	var currentName string
	if headErr == nil && head.Name().IsBranch() {
		currentName = head.Name().Short()
	}

	iter, err := repo.Branches()
	if err != nil {
		return nil, "", err
	}
	defer iter.Close()

	var out []BranchSummary
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		hasUpstream, ahead := upstreamState(repo, name, ref.Hash())
		out = append(out, BranchSummary{
			Name:        name,
			IsCurrent:   name == currentName,
			HasUpstream: hasUpstream,
			AheadCount:  ahead,
		})
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, currentName, nil
}

// upstreamState resolves branch.<name>.remote/.merge from the repo
// config and, when a remote-tracking ref exists, counts the commits on
// localHash's first-parent history that do not appear on the remote
// ref's first-parent history, walking at most 500 commits of each (the
// branch's ahead-count).
func upstreamState(repo *git.Repository, name string, localHash plumbing.Hash) (hasUpstream bool, ahead int) {
	cfg, err := repo.Config()
	if err != nil {
		return false, 0
	}
	branchCfg, ok := cfg.Branches[name]
	if !ok || branchCfg.Remote == "" || branchCfg.Remote == "." {
		return false, 0
	}

	remoteRefName := remoteTrackingRefName(branchCfg)
	remoteRef, err := repo.Reference(remoteRefName, true)
	if err != nil {
		return true, 0
	}
	hasUpstream = true

	if remoteRef.Hash() == localHash {
		return true, 0
	}

	remoteAncestors := map[plumbing.Hash]bool{}
	walkCommits(repo, remoteRef.Hash(), 500, func(h plumbing.Hash) { remoteAncestors[h] = true })

	count := 0
	walkCommits(repo, localHash, 500, func(h plumbing.Hash) {
		if !remoteAncestors[h] {
			count++
		}
	})
	return true, count
}

func remoteTrackingRefName(b *config.Branch) plumbing.ReferenceName {
	if b.Merge != "" {
		return plumbing.NewRemoteReferenceName(b.Remote, b.Merge.Short())
	}
	return plumbing.NewRemoteReferenceName(b.Remote, b.Name)
}

// walkCommits visits up to limit commits reachable from start via
// first-parent history, calling visit on each. It stops early on any
// error (e.g. a shallow clone's missing parent).
func walkCommits(repo *git.Repository, start plumbing.Hash, limit int, visit func(plumbing.Hash)) {
	h := start
	for i := 0; i < limit; i++ {
		visit(h)
		commit, err := object.GetCommit(repo.Storer, h)
		if err != nil || commit.NumParents() == 0 {
			return
		}
		h = commit.ParentHashes[0]
	}
}

// selectBranchName implements load_snapshot step 8: a persisted
// preference if it names an existing branch, else HEAD's branch, else
// any branch at HEAD, else "detached".
func selectBranchName(hint BranchNameHint, branches []BranchSummary, headBranch string) string {
	if hint != "" {
		for _, b := range branches {
			if b.Name == string(hint) {
				return b.Name
			}
		}
	}
	if headBranch != "" {
		return headBranch
	}
	if len(branches) > 0 {
		for _, b := range branches {
			if b.IsCurrent {
				return b.Name
			}
		}
		return branches[0].Name
	}
	return "detached"
}

func lastCommitSubject(repo *git.Repository) (string, error) {
	head, err := repo.Head()
	if err != nil {
		return "", err
	}
	commit, err := object.GetCommit(repo.Storer, head.Hash())
	if err != nil {
		return "", err
	}
	msg := commit.Message
	for i, r := range msg {
		if r == '\n' {
			return msg[:i], nil
		}
	}
	return msg, nil
}

// readBlobAtHEAD reads path's content from HEAD's tree, reporting
// (nil, false, nil) when the path does not exist there.
func readBlobAtHEAD(repo *git.Repository, path string) ([]byte, bool, error) {
	head, err := repo.Head()
	if err != nil {
		// No commits yet: every path is absent from HEAD's tree.
		return nil, false, nil
	}
	commit, err := object.GetCommit(repo.Storer, head.Hash())
	if err != nil {
		return nil, false, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, false, err
	}
	file, err := tree.File(path)
	if err != nil {
		return nil, false, nil
	}
	r, err := file.Reader()
	if err != nil {
		return nil, false, err
	}
	defer r.Close()
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, false, err
	}
	return content, true, nil
}
