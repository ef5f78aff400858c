package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderStatusBar composes a single-line status bar: branch name,
// ahead count, upstream flag, open-comment count, and the outcome of
// the last refresh attempt.
func renderStatusBar(width int, branch string, ahead int, hasUpstream bool, openComments int, lastOutcome string, lastErr bool) string {
	var left strings.Builder
	left.WriteString(statusBarAccentStyle.Render(branch))
	if hasUpstream {
		if ahead > 0 {
			left.WriteString(statusBarStyle.Render(fmt.Sprintf("  ↑%d", ahead)))
		}
	} else {
		left.WriteString(statusBarStyle.Render("  (no upstream)"))
	}
	if openComments > 0 {
		left.WriteString(statusBarStyle.Render(fmt.Sprintf("  comments:%d", openComments)))
	}

	right := lastOutcome
	if lastErr {
		right = statusBarErrorStyle.Render(lastOutcome)
	} else {
		right = statusBarStyle.Render(lastOutcome)
	}

	leftStr := left.String()
	gap := width - lipgloss.Width(leftStr) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	line := leftStr + strings.Repeat(" ", gap) + right
	return statusBarStyle.Width(width).Render(line)
}
