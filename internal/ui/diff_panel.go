package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sidediff/sidediff/internal/diffmodel"
	"github.com/sidediff/sidediff/internal/highlight"
)

const gutterWidth = 5

// renderDiffLines renders stream into one line of text per row, for
// direct use as a bubbles/viewport.Model's content. cursor is the row
// index to visually highlight; commentRows marks rows that carry at
// least one open comment.
func renderDiffLines(stream diffmodel.DiffStream, width, cursor int, commentRows map[int]bool) []string {
	lines := make([]string, len(stream.Rows))
	colWidth := (width - gutterWidth*2) / 2
	if colWidth < 8 {
		colWidth = 8
	}
	for i, row := range stream.Rows {
		meta := stream.RowMetadata[i]
		var line string
		switch meta.Kind {
		case diffmodel.MetaFileHeader:
			line = diffFileHeaderStyle.Width(width).Render(row.Text)
		case diffmodel.MetaCoreHunkHeader:
			line = diffHunkHeaderStyle.Width(width).Render(row.Text)
		case diffmodel.MetaEmptyState:
			line = diffEmptyStateStyle.Width(width).Render(row.Text)
		case diffmodel.MetaMeta:
			line = diffContextStyle.Width(width).Render(row.Text)
		default:
			left := renderCell(row.Left, row.Right, meta.FilePath, colWidth)
			right := renderCell(row.Right, row.Left, meta.FilePath, colWidth)
			line = lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
		}
		if commentRows[i] {
			line = diffCommentTagStyle.Render("◆ ") + line
		}
		if i == cursor {
			line = diffCursorRowStyle.Width(width).Render(line)
		}
		lines[i] = line
	}
	return lines
}

func renderCell(cell, peer diffmodel.DiffCell, path string, width int) string {
	gutter := strings.Repeat(" ", gutterWidth)
	if cell.Line != nil {
		gutter = fmt.Sprintf("%*d ", gutterWidth-1, *cell.Line)
	}

	prefix := " "
	base := diffContextStyle
	switch cell.Kind {
	case diffmodel.CellAdded:
		prefix = "+"
		base = diffAddedStyle
	case diffmodel.CellRemoved:
		prefix = "-"
		base = diffRemovedStyle
	case diffmodel.CellNone:
		return gutter + strings.Repeat(" ", width)
	}

	segments := highlight.BuildCellSegments(
		highlight.CellInput{Path: path, Text: cell.Text, Kind: cell.Kind},
		highlight.CellInput{Path: path, Text: peer.Text, Kind: peer.Kind},
	)

	var b strings.Builder
	b.WriteString(gutter)
	b.WriteString(prefix)
	for _, seg := range segments {
		style := base
		if seg.Changed {
			style = style.Bold(true).Underline(true)
		}
		b.WriteString(style.Render(seg.Text))
	}
	return lipgloss.NewStyle().Width(width + gutterWidth + 1).MaxWidth(width + gutterWidth + 1).Render(b.String())
}
