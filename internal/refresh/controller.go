// Package refresh implements the refresh controller (C6): epoch
// counters that act as an implicit cancellation token for background
// snapshot/patch tasks, a fingerprint gate that skips redundant full
// reloads, debounced periodic polling with a scroll-activity skip, and
// a file-system watch that forces a reload on repository changes.
//
// The controller owns no I/O itself: it decides *whether* a reload
// should happen and *whether* a result arriving from a background task
// is still relevant, and leaves performing the I/O to its caller (the
// UI event loop's tea.Cmd closures).
package refresh

import (
	"time"

	"github.com/sidediff/sidediff/internal/snapshot"
)

const (
	DefaultPollInterval   = 900 * time.Millisecond
	scrollSkipWindow      = 500 * time.Millisecond
	defaultMaxPollBackoff = 8 * DefaultPollInterval
)

// Decision is the outcome of checking a fingerprint result against the
// controller's cache and current epoch.
type Decision int

const (
	// DecisionStale means the result's epoch no longer matches the
	// controller's current epoch; it must be dropped silently.
	DecisionStale Decision = iota
	// DecisionSkip means the fingerprint is unchanged; no full reload
	// is needed.
	DecisionSkip
	// DecisionReload means the fingerprint changed (or none was
	// cached yet, or force was set); a full LoadSnapshot is needed.
	DecisionReload
	// DecisionError means the fingerprint check itself failed.
	DecisionError
)

// Controller holds the six monotonic epoch counters, the fingerprint
// cache, scroll-activity timestamp, and backoff state described in the
// base spec's §4.5.
type Controller struct {
	snapshotEpoch        uint64
	patchEpoch           uint64
	gitActionEpoch       uint64
	refreshEpoch         uint64
	fpsEpoch             uint64
	segmentPrefetchEpoch uint64

	lastScrollActivity time.Time

	cachedFingerprint *snapshot.Fingerprint

	basePollInterval time.Duration
	maxPollInterval  time.Duration
	backoffStreak    int
}

// New returns a Controller with the default 900ms poll interval and a
// doubling backoff capped at defaultMaxPollBackoff (eight times that
// interval).
func New() *Controller {
	return &Controller{
		basePollInterval: DefaultPollInterval,
		maxPollInterval:  defaultMaxPollBackoff,
	}
}

func (c *Controller) NextSnapshotEpoch() uint64  { c.snapshotEpoch++; return c.snapshotEpoch }
func (c *Controller) NextPatchEpoch() uint64     { c.patchEpoch++; return c.patchEpoch }
func (c *Controller) NextGitActionEpoch() uint64 { c.gitActionEpoch++; return c.gitActionEpoch }
func (c *Controller) NextRefreshEpoch() uint64   { c.refreshEpoch++; return c.refreshEpoch }
func (c *Controller) NextFPSEpoch() uint64       { c.fpsEpoch++; return c.fpsEpoch }
func (c *Controller) NextSegmentPrefetchEpoch() uint64 {
	c.segmentPrefetchEpoch++
	return c.segmentPrefetchEpoch
}

func (c *Controller) SnapshotEpoch() uint64 { return c.snapshotEpoch }
func (c *Controller) PatchEpoch() uint64    { return c.patchEpoch }

// IsCurrentSnapshotEpoch reports whether epoch still matches the
// controller's live snapshot epoch; a mismatch means a newer request
// superseded the one that produced this result.
func (c *Controller) IsCurrentSnapshotEpoch(epoch uint64) bool { return epoch == c.snapshotEpoch }

// IsCurrentPatchEpoch is the patch-task analogue of IsCurrentSnapshotEpoch.
func (c *Controller) IsCurrentPatchEpoch(epoch uint64) bool { return epoch == c.patchEpoch }

// MarkScrollActivity stamps last_scroll_activity_at; any wheel or
// programmatic scroll calls this.
func (c *Controller) MarkScrollActivity(now time.Time) { c.lastScrollActivity = now }

// RecentlyScrolled reports whether the user scrolled within the last
// 500ms of now.
func (c *Controller) RecentlyScrolled(now time.Time) bool {
	return !c.lastScrollActivity.IsZero() && now.Sub(c.lastScrollActivity) < scrollSkipWindow
}

// ShouldPollTick reports whether a periodic-poll tick should proceed
// (true) or be skipped and re-armed (false) because of recent scroll
// activity.
func (c *Controller) ShouldPollTick(now time.Time) bool { return !c.RecentlyScrolled(now) }

// PollInterval returns the current (possibly backed-off) poll interval.
func (c *Controller) PollInterval() time.Duration { return c.effectiveInterval() }

func (c *Controller) effectiveInterval() time.Duration {
	if c.basePollInterval == 0 {
		return DefaultPollInterval
	}
	interval := c.basePollInterval
	for i := 0; i < c.backoffStreak; i++ {
		if interval*2 > c.maxPollInterval {
			return c.maxPollInterval
		}
		interval *= 2
	}
	return interval
}

// RecordTickOutcome advances the exponential-backoff streak: a
// modified tick resets it to the base interval; an unmodified tick
// lengthens it, capped at maxPollInterval.
func (c *Controller) RecordTickOutcome(modified bool) time.Duration {
	if modified {
		c.backoffStreak = 0
	} else {
		c.backoffStreak++
	}
	return c.effectiveInterval()
}

// RequestSnapshotRefresh bumps the snapshot epoch and returns it; the
// caller captures this epoch in the background fingerprint-check task
// it spawns.
func (c *Controller) RequestSnapshotRefresh() uint64 { return c.NextSnapshotEpoch() }

// ApplyFingerprintCheck is the fingerprint gate (§4.5): given the epoch
// captured at request time, whether the caller forced a bypass, and the
// fingerprint-check result, it decides whether a full reload is needed,
// updating the cached fingerprint whenever the result is not stale.
func (c *Controller) ApplyFingerprintCheck(epoch uint64, force bool, fp *snapshot.Fingerprint, err error) Decision {
	if !c.IsCurrentSnapshotEpoch(epoch) {
		return DecisionStale
	}
	if err != nil {
		return DecisionError
	}
	unchanged := !force && c.cachedFingerprint != nil && c.cachedFingerprint.Equal(*fp)
	c.cachedFingerprint = fp
	if unchanged {
		return DecisionSkip
	}
	return DecisionReload
}

// ApplySnapshotResult reports whether a full LoadSnapshot result
// arriving for epoch should still be applied.
func (c *Controller) ApplySnapshotResult(epoch uint64) bool { return c.IsCurrentSnapshotEpoch(epoch) }

// ApplyPatchResult is the patch-task analogue.
func (c *Controller) ApplyPatchResult(epoch uint64) bool { return c.IsCurrentPatchEpoch(epoch) }
