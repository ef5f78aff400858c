package ui

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sidediff/sidediff/internal/comments"
)

// commentOverlay edits a new comment anchored to the row under the
// cursor at the time it was opened.
type commentOverlay struct {
	textarea textarea.Model
	anchor   comments.NewComment
	open     bool
}

func newCommentOverlay() commentOverlay {
	ta := textarea.New()
	ta.Placeholder = "Write a comment..."
	ta.CharLimit = 8192
	ta.SetHeight(4)
	ta.ShowLineNumbers = false
	return commentOverlay{textarea: ta}
}

// Open shows the overlay bound to anchor and focuses the textarea.
func (o *commentOverlay) Open(anchor comments.NewComment) tea.Cmd {
	o.anchor = anchor
	o.open = true
	o.textarea.SetValue("")
	return o.textarea.Focus()
}

// Close hides the overlay and blurs the textarea.
func (o *commentOverlay) Close() {
	o.open = false
	o.textarea.Blur()
}

func (o *commentOverlay) View(width int) string {
	return overlayBoxStyle(width).Render(
		"comment on " + o.anchor.FilePath + "\n\n" + o.textarea.View(),
	)
}
