package refresh

import (
	"errors"
	"testing"
	"time"

	"github.com/sidediff/sidediff/internal/snapshot"
)

func fp(sig uint64) *snapshot.Fingerprint {
	return &snapshot.Fingerprint{Root: "/repo", BranchName: "main", ChangedFileCount: 1, ChangedFileSignature: sig}
}

func TestFingerprintGateFirstTickReloadsSecondTickSkips(t *testing.T) {
	c := New()

	epoch1 := c.RequestSnapshotRefresh()
	d1 := c.ApplyFingerprintCheck(epoch1, false, fp(42), nil)
	if d1 != DecisionReload {
		t.Fatalf("first tick: want DecisionReload, got %v", d1)
	}

	epoch2 := c.RequestSnapshotRefresh()
	d2 := c.ApplyFingerprintCheck(epoch2, false, fp(42), nil)
	if d2 != DecisionSkip {
		t.Fatalf("second tick (unchanged fingerprint): want DecisionSkip, got %v", d2)
	}
}

func TestFingerprintGateChangedFingerprintReloads(t *testing.T) {
	c := New()
	e1 := c.RequestSnapshotRefresh()
	c.ApplyFingerprintCheck(e1, false, fp(1), nil)

	e2 := c.RequestSnapshotRefresh()
	d2 := c.ApplyFingerprintCheck(e2, false, fp(2), nil)
	if d2 != DecisionReload {
		t.Fatalf("changed fingerprint: want DecisionReload, got %v", d2)
	}
}

func TestFingerprintGateDropsStaleEpoch(t *testing.T) {
	c := New()
	stale := c.RequestSnapshotRefresh()
	current := c.RequestSnapshotRefresh() // supersedes `stale`

	d := c.ApplyFingerprintCheck(stale, false, fp(1), nil)
	if d != DecisionStale {
		t.Fatalf("want DecisionStale for superseded epoch, got %v", d)
	}
	_ = current
}

func TestFingerprintGateForceBypassesUnchanged(t *testing.T) {
	c := New()
	e1 := c.RequestSnapshotRefresh()
	c.ApplyFingerprintCheck(e1, false, fp(1), nil)

	e2 := c.RequestSnapshotRefresh()
	d2 := c.ApplyFingerprintCheck(e2, true, fp(1), nil)
	if d2 != DecisionReload {
		t.Fatalf("force=true with unchanged fingerprint: want DecisionReload, got %v", d2)
	}
}

func TestFingerprintGateErrorResult(t *testing.T) {
	c := New()
	e1 := c.RequestSnapshotRefresh()
	d := c.ApplyFingerprintCheck(e1, false, nil, errors.New("boom"))
	if d != DecisionError {
		t.Fatalf("want DecisionError, got %v", d)
	}
}

func TestScrollActivitySkipsPollTick(t *testing.T) {
	c := New()
	now := time.Now()
	c.MarkScrollActivity(now)
	if c.ShouldPollTick(now.Add(100 * time.Millisecond)) {
		t.Error("want tick skipped within 500ms of scroll activity")
	}
	if !c.ShouldPollTick(now.Add(600 * time.Millisecond)) {
		t.Error("want tick to proceed after 500ms of no scroll activity")
	}
}

func TestBackoffDoublesOnUnmodifiedResetsOnModified(t *testing.T) {
	c := New()
	base := c.PollInterval()
	c.RecordTickOutcome(false)
	afterOne := c.PollInterval()
	if afterOne <= base {
		t.Errorf("want interval to grow after an unmodified tick, base=%v after=%v", base, afterOne)
	}
	c.RecordTickOutcome(true)
	if c.PollInterval() != base {
		t.Errorf("want interval reset to base after a modified tick, got %v want %v", c.PollInterval(), base)
	}
}

func TestPatchEpochGateDropsStale(t *testing.T) {
	c := New()
	stale := c.NextPatchEpoch()
	c.NextPatchEpoch()
	if c.ApplyPatchResult(stale) {
		t.Error("want stale patch epoch rejected")
	}
	if !c.ApplyPatchResult(c.PatchEpoch()) {
		t.Error("want current patch epoch accepted")
	}
}
