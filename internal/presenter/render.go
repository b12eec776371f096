// SPDX-License-Identifier: MPL-2.0

package presenter

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	// minTaskWidth is the narrowest task column.
	minTaskWidth = 6
	// barCells is the width of a progress bar.
	barCells = 15
	// barGlyph draws both the filled and the empty part of a bar.
	barGlyph = "━"
	// labelWidth fits the longest status label.
	labelWidth = 5
)

// taskColumnWidth returns the task column width for a run over names.
func taskColumnWidth(names []string) int {
	w := minTaskWidth
	for _, n := range names {
		w = max(w, ansi.StringWidth(n))
	}
	return w
}

// padRight pads s with spaces to width display cells.
func padRight(s string, width int) string {
	if gap := width - ansi.StringWidth(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// filledCells returns how many of cells are filled for done out of total.
func filledCells(done, total, cells int) int {
	if total <= 0 || done <= 0 {
		return 0
	}
	if done >= total {
		return cells
	}
	return cells * done / total
}

// renderBar draws a progress bar followed by a done/total counter.
func renderBar(fill, track lipgloss.Style, done, total int) string {
	n := filledCells(done, total, barCells)
	return fill.Render(strings.Repeat(barGlyph, n)) +
		track.Render(strings.Repeat(barGlyph, barCells-n)) +
		fmt.Sprintf(" %d/%d", done, total)
}

// highlightShell colors src as a shell command. On any highlighting error the
// source is returned unchanged.
func highlightShell(src, style string) string {
	var b strings.Builder
	if err := quick.Highlight(&b, src, "bash", "terminal256", style); err != nil {
		return src
	}
	return strings.TrimRight(b.String(), "\n")
}
