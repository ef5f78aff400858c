package comments

import (
	"strconv"
	"strings"
)

// bundleSeparator joins multiple rendered bundles in a clipboard copy.
const bundleSeparator = "\n\n---\n\n"

// FormatBundle renders one comment as the plain-text clipboard bundle
// external tools (issue trackers, chat) can paste verbatim.
func FormatBundle(c *CommentRecord) string {
	var b strings.Builder
	b.WriteString("file: ")
	b.WriteString(c.FilePath)
	b.WriteString("\n")

	b.WriteString("side: ")
	b.WriteString(c.LineSide.String())
	b.WriteString("   lines: old=")
	b.WriteString(lineOrDash(c.OldLine))
	b.WriteString(" new=")
	b.WriteString(lineOrDash(c.NewLine))
	b.WriteString("\n")

	b.WriteString("hunk: ")
	if c.HunkHeader == "" {
		b.WriteString("-")
	} else {
		b.WriteString(c.HunkHeader)
	}
	b.WriteString("\n---\n")

	if c.ContextBefore != "" {
		b.WriteString(c.ContextBefore)
		b.WriteString("\n")
	}
	b.WriteString(c.LineText)
	b.WriteString("\n")
	if c.ContextAfter != "" {
		b.WriteString(c.ContextAfter)
		b.WriteString("\n")
	}
	b.WriteString("---\ncomment:\n")
	b.WriteString(c.CommentText)

	return b.String()
}

// FormatBundles joins multiple comments' bundles with the stable
// multi-bundle separator.
func FormatBundles(records []*CommentRecord) string {
	bundles := make([]string, len(records))
	for i, c := range records {
		bundles[i] = FormatBundle(c)
	}
	return strings.Join(bundles, bundleSeparator)
}

func lineOrDash(v *uint32) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatUint(uint64(*v), 10)
}
