// Package ui is a minimal bubbletea harness wiring the snapshot
// engine, diff stream builder, refresh controller, and comment anchor
// engine into something directly runnable. It carries no invariants
// of its own: every operation it exposes is a thin keybinding over a
// core package operation.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/sidediff/sidediff/internal/comments"
	"github.com/sidediff/sidediff/internal/config"
	"github.com/sidediff/sidediff/internal/diffmodel"
	"github.com/sidediff/sidediff/internal/diffstream"
	"github.com/sidediff/sidediff/internal/notify"
	"github.com/sidediff/sidediff/internal/refresh"
	"github.com/sidediff/sidediff/internal/snapshot"
)

type fingerprintResultMsg struct {
	epoch uint64
	force bool
	fp    *snapshot.Fingerprint
	err   error
}

type snapshotResultMsg struct {
	epoch uint64
	snap  *snapshot.RepoSnapshot
	err   error
}

type streamResultMsg struct {
	epoch  uint64
	stream diffmodel.DiffStream
}

type pollTickMsg struct{}
type fsEventMsg struct{}

type commentsResultMsg struct {
	records []*comments.CommentRecord
	err     error
}

type commentSavedMsg struct{ err error }
type reconcileDoneMsg struct{}

// App is the root model: it holds the refresh controller, the latest
// diff stream, the open-comment overlay state, and a one-line
// status/error banner.
type App struct {
	root   string
	cfg    *config.Config
	store  *comments.Store
	ctrl   *refresh.Controller
	events chan struct{}

	snap      *snapshot.RepoSnapshot
	stream    diffmodel.DiffStream
	collapsed map[string]bool
	prevStats map[string]diffmodel.LineStats

	openComments []*comments.CommentRecord
	commentRows  map[int]bool

	viewport viewport.Model
	cursor   int
	width    int
	height   int
	ready    bool

	overlay commentOverlay

	status    string
	statusErr bool

	missingRepo bool
	quitting    bool
}

// New constructs an App rooted at root, using cfg, store, and ctrl.
// events is the watcher's force-refresh signal channel; it may be nil
// if no watcher was started.
func New(root string, cfg *config.Config, store *comments.Store, ctrl *refresh.Controller, events chan struct{}) App {
	return App{
		root:      root,
		cfg:       cfg,
		store:     store,
		ctrl:      ctrl,
		events:    events,
		collapsed: make(map[string]bool),
		prevStats: make(map[string]diffmodel.LineStats),
		overlay:   newCommentOverlay(),
		status:    "loading…",
	}
}

func (m App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.checkFingerprintCmd(m.ctrl.RequestSnapshotRefresh(), true),
		pollTickCmd(m.ctrl.PollInterval()),
	}
	if m.events != nil {
		cmds = append(cmds, listenForFSEvents(m.events))
	}
	return tea.Batch(cmds...)
}

func (m App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.recalcLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case fingerprintResultMsg:
		return m.handleFingerprintResult(msg)

	case snapshotResultMsg:
		return m.handleSnapshotResult(msg)

	case streamResultMsg:
		return m.handleStreamResult(msg)

	case pollTickMsg:
		var cmd tea.Cmd
		if m.ctrl.ShouldPollTick(time.Now()) {
			cmd = m.checkFingerprintCmd(m.ctrl.RequestSnapshotRefresh(), false)
		}
		return m, tea.Batch(cmd, pollTickCmd(m.ctrl.PollInterval()))

	case fsEventMsg:
		cmds := []tea.Cmd{m.checkFingerprintCmd(m.ctrl.RequestSnapshotRefresh(), true)}
		if m.events != nil {
			cmds = append(cmds, listenForFSEvents(m.events))
		}
		return m, tea.Batch(cmds...)

	case commentsResultMsg:
		if msg.err != nil {
			log.Warn("failed to load comments", "error", msg.err)
			m.setStatus("comment store unavailable", true)
			m.openComments = nil
			m.recomputeCommentRows()
			m.refreshViewportContent()
			return m, nil
		}
		m.openComments = msg.records
		m.recomputeCommentRows()
		m.refreshViewportContent()
		return m, nil

	case commentSavedMsg:
		if msg.err != nil {
			log.Warn("failed to save comment", "error", msg.err)
			m.setStatus("failed to save comment", true)
			var actionErr *comments.ErrActionFailure
			if errors.As(msg.err, &actionErr) {
				if err := notify.Send("sidediff", actionErr.Error()); err != nil {
					log.Debug("desktop notification unavailable", "error", err)
				}
				return m, m.checkFingerprintCmd(m.ctrl.RequestSnapshotRefresh(), true)
			}
			return m, nil
		}
		return m, m.loadCommentsCmd()

	case reconcileDoneMsg:
		return m, m.loadCommentsCmd()
	}
	return m, nil
}

func (m *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.overlay.open {
		return m.handleOverlayKey(msg)
	}

	switch {
	case keyMatches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case keyMatches(msg, keys.Up):
		m.moveCursor(-1)
		return m, nil
	case keyMatches(msg, keys.Down):
		m.moveCursor(1)
		return m, nil
	case keyMatches(msg, keys.Comment):
		return m.openCommentOverlay()
	case keyMatches(msg, keys.Collapse):
		return m.toggleCollapseAtCursor()
	case keyMatches(msg, keys.CopyBundle):
		return m.copyCommentBundle()
	case keyMatches(msg, keys.Refresh):
		return m, m.checkFingerprintCmd(m.ctrl.RequestSnapshotRefresh(), true)
	}
	return m, nil
}

func (m *App) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, keys.Cancel):
		m.overlay.Close()
		return m, nil
	case keyMatches(msg, keys.Save):
		text := strings.TrimSpace(m.overlay.textarea.Value())
		m.overlay.Close()
		if text == "" {
			return m, nil
		}
		anchor := m.overlay.anchor
		anchor.CommentText = text
		return m, m.saveCommentCmd(anchor)
	}
	var cmd tea.Cmd
	m.overlay.textarea, cmd = m.overlay.textarea.Update(msg)
	return m, cmd
}

func (m *App) moveCursor(delta int) {
	if len(m.stream.Rows) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.stream.Rows) {
		m.cursor = len(m.stream.Rows) - 1
	}
	m.ctrl.MarkScrollActivity(time.Now())
	m.ensureCursorVisible()
	m.refreshViewportContent()
}

func (m *App) ensureCursorVisible() {
	if m.cursor < m.viewport.YOffset {
		m.viewport.SetYOffset(m.cursor)
	} else if m.cursor >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(m.cursor - m.viewport.Height + 1)
	}
}

func (m *App) openCommentOverlay() (tea.Model, tea.Cmd) {
	if len(m.stream.Rows) == 0 || m.cursor >= len(m.stream.Rows) {
		return m, nil
	}
	side := sideForRow(m.stream.Rows[m.cursor])
	anchor := comments.BuildAnchor(m.stream, m.cursor, side)
	if m.snap != nil {
		anchor.BookmarkName = m.snap.BranchName
	}
	anchor.RepoRoot = m.root
	cmd := m.overlay.Open(anchor)
	return m, cmd
}

func (m *App) toggleCollapseAtCursor() (tea.Model, tea.Cmd) {
	if len(m.stream.Rows) == 0 || m.cursor >= len(m.stream.RowMetadata) {
		return m, nil
	}
	path := m.stream.RowMetadata[m.cursor].FilePath
	if path == "" {
		return m, nil
	}
	m.collapsed[path] = !m.collapsed[path]
	if m.snap == nil {
		return m, nil
	}
	epoch := m.ctrl.NextPatchEpoch()
	return m, m.buildStreamCmd(epoch, m.snap)
}

func (m *App) copyCommentBundle() (tea.Model, tea.Cmd) {
	var open []*comments.CommentRecord
	for _, c := range m.openComments {
		if c.Status == comments.StatusOpen {
			open = append(open, c)
		}
	}
	if len(open) == 0 {
		m.setStatus("no open comments to copy", false)
		return m, nil
	}
	if err := clipboard.WriteAll(comments.FormatBundles(open)); err != nil {
		log.Warn("failed to write clipboard", "error", err)
		m.setStatus("clipboard unavailable", true)
		return m, nil
	}
	m.setStatus(fmt.Sprintf("copied %d comment(s)", len(open)), false)
	return m, nil
}

func sideForRow(row diffmodel.SideBySideRow) comments.LineSide {
	switch {
	case row.Right.Kind != diffmodel.CellNone:
		return comments.SideRight
	case row.Left.Kind != diffmodel.CellNone:
		return comments.SideLeft
	default:
		return comments.SideMeta
	}
}

func (m *App) handleFingerprintResult(msg fingerprintResultMsg) (tea.Model, tea.Cmd) {
	decision := m.ctrl.ApplyFingerprintCheck(msg.epoch, msg.force, msg.fp, msg.err)
	switch decision {
	case refresh.DecisionStale:
		return m, nil
	case refresh.DecisionError:
		m.ctrl.RecordTickOutcome(false)
		if _, ok := msg.err.(*snapshot.ErrMissingRepository); ok {
			m.missingRepo = true
			m.setStatus("no repository here", false)
			return m, nil
		}
		log.Warn("fingerprint check failed", "error", msg.err)
		m.setStatus("refresh failed", true)
		return m, nil
	case refresh.DecisionSkip:
		m.ctrl.RecordTickOutcome(false)
		return m, nil
	case refresh.DecisionReload:
		m.ctrl.RecordTickOutcome(true)
		m.missingRepo = false
		return m, m.loadSnapshotCmd(msg.epoch)
	}
	return m, nil
}

func (m *App) handleSnapshotResult(msg snapshotResultMsg) (tea.Model, tea.Cmd) {
	if !m.ctrl.ApplySnapshotResult(msg.epoch) {
		return m, nil
	}
	if msg.err != nil {
		if _, ok := msg.err.(*snapshot.ErrMissingRepository); ok {
			m.missingRepo = true
			m.setStatus("no repository here", false)
			return m, nil
		}
		log.Warn("snapshot load failed", "error", msg.err)
		m.setStatus("snapshot load failed", true)
		return m, nil
	}
	m.missingRepo = false
	m.snap = msg.snap
	m.setStatus("refreshed", false)
	epoch := m.ctrl.NextPatchEpoch()
	return m, tea.Batch(m.buildStreamCmd(epoch, msg.snap), m.loadCommentsCmd())
}

func (m *App) handleStreamResult(msg streamResultMsg) (tea.Model, tea.Cmd) {
	if !m.ctrl.ApplyPatchResult(msg.epoch) {
		return m, nil
	}
	m.stream = msg.stream
	m.prevStats = msg.stream.FileLineStats
	if m.cursor >= len(m.stream.Rows) {
		m.cursor = 0
	}
	m.recomputeCommentRows()
	m.refreshViewportContent()
	if len(m.openComments) > 0 {
		return m, m.reconcileCmd()
	}
	return m, nil
}

func (m *App) recomputeCommentRows() {
	m.commentRows = make(map[int]bool)
	for idx, meta := range m.stream.RowMetadata {
		for _, c := range m.openComments {
			if c.Status != comments.StatusOpen || c.FilePath != meta.FilePath {
				continue
			}
			if comments.Matches(m.stream, idx, c) {
				m.commentRows[idx] = true
			}
		}
	}
}

func (m *App) refreshViewportContent() {
	if !m.ready {
		return
	}
	lines := renderDiffLines(m.stream, m.viewport.Width, m.cursor, m.commentRows)
	m.viewport.SetContent(strings.Join(lines, "\n"))
}

func (m *App) recalcLayout() {
	statusHeight := 1
	overlayHeight := 0
	if m.overlay.open {
		overlayHeight = 7
	}
	vpHeight := m.height - statusHeight - overlayHeight - 2
	if vpHeight < 1 {
		vpHeight = 1
	}
	if !m.ready {
		m.viewport = viewport.New(m.width-2, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width - 2
		m.viewport.Height = vpHeight
	}
	m.refreshViewportContent()
}

func (m *App) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m App) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "loading…"
	}
	if m.missingRepo {
		return "sidediff: no repository found in the current directory\n"
	}

	branch := ""
	ahead := 0
	hasUpstream := false
	if m.snap != nil {
		branch = m.snap.BranchName
		ahead = m.snap.BranchAheadCount
		hasUpstream = m.snap.BranchHasUpstream
	}
	openCount := 0
	for _, c := range m.openComments {
		if c.Status == comments.StatusOpen {
			openCount++
		}
	}

	body := panelStyle(true, m.width-2, m.viewport.Height).Render(m.viewport.View())
	status := renderStatusBar(m.width, branch, ahead, hasUpstream, openCount, m.status, m.statusErr)

	var sections []string
	sections = append(sections, body, status)
	if m.overlay.open {
		sections = append(sections, m.overlay.View(m.width-2))
	}
	return strings.Join(sections, "\n")
}

func (m *App) checkFingerprintCmd(epoch uint64, force bool) tea.Cmd {
	root := m.root
	return func() tea.Msg {
		fp, err := snapshot.LoadSnapshotFingerprint(root)
		return fingerprintResultMsg{epoch: epoch, force: force, fp: fp, err: err}
	}
}

func (m *App) loadSnapshotCmd(epoch uint64) tea.Cmd {
	root := m.root
	return func() tea.Msg {
		hint, _ := config.ReadActiveBookmarkHint(root)
		snap, err := snapshot.LoadSnapshot(root, snapshot.BranchNameHint(hint))
		return snapshotResultMsg{epoch: epoch, snap: snap, err: err}
	}
}

func (m *App) buildStreamCmd(epoch uint64, snap *snapshot.RepoSnapshot) tea.Cmd {
	root := m.root
	collapsed := m.collapsed
	prevStats := m.prevStats
	return func() tea.Msg {
		loader := func(path string, status diffmodel.FileStatus) (string, error) {
			return snapshot.LoadPatch(root, path, status)
		}
		stream := diffstream.Build(snap.Files, collapsed, prevStats, loader)
		return streamResultMsg{epoch: epoch, stream: stream}
	}
}

func pollTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return pollTickMsg{} })
}

func listenForFSEvents(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return fsEventMsg{}
	}
}

func (m *App) loadCommentsCmd() tea.Cmd {
	store := m.store
	root := m.root
	bookmark := ""
	if m.snap != nil {
		bookmark = m.snap.BranchName
	}
	return func() tea.Msg {
		records, err := store.List(context.Background(), root, bookmark)
		return commentsResultMsg{records: records, err: err}
	}
}

func (m *App) saveCommentCmd(n comments.NewComment) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		_, err := store.Create(context.Background(), n, time.Now().UnixMilli())
		return commentSavedMsg{err: err}
	}
}

func (m *App) reconcileCmd() tea.Cmd {
	store := m.store
	stream := m.stream
	records := m.openComments
	return func() tea.Msg {
		outcomes := comments.Reconcile(stream, records, time.Now().UnixMilli())
		ctx := context.Background()
		for _, o := range outcomes {
			switch {
			case o.StatusChanged:
				if err := store.MarkStatus(ctx, o.Comment.ID, o.Comment.Status, o.Comment.StaleReason, o.Comment.UpdatedAtMs); err != nil {
					log.Warn("failed to persist comment status", "error", err)
				}
			case o.Matched:
				if err := store.TouchSeen(ctx, o.Comment.ID, o.Comment.LastSeenMs); err != nil {
					log.Warn("failed to persist comment last-seen", "error", err)
				}
			}
		}
		return reconcileDoneMsg{}
	}
}
