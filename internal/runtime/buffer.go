// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"slices"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// truncationTail marks a line cut to the buffer width.
const truncationTail = "..."

// TrailingBuffer is a bounded rolling window over a step's most recent output
// lines. Lines wider than Width are wrapped onto several buffer lines or
// truncated, depending on Wrap. The oldest lines are evicted first.
type TrailingBuffer struct {
	lines    []string
	capacity int
	width    int
	wrap     bool
}

// NewTrailingBuffer creates a buffer holding at most capacity lines.
// A width of zero disables wrapping and truncation.
func NewTrailingBuffer(capacity, width int, wrap bool) *TrailingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &TrailingBuffer{
		lines:    make([]string, 0, capacity),
		capacity: capacity,
		width:    width,
		wrap:     wrap,
	}
}

// Append adds one output line. Trailing whitespace and carriage returns are
// dropped.
func (b *TrailingBuffer) Append(line string) {
	line = strings.TrimRight(line, " \t\r\n")
	switch {
	case b.width <= 0 || ansi.StringWidth(line) <= b.width:
		b.push(line)
	case b.wrap:
		for _, part := range strings.Split(ansi.Hardwrap(line, b.width, true), "\n") {
			b.push(part)
		}
	default:
		b.push(ansi.Truncate(line, b.width, truncationTail))
	}
}

func (b *TrailingBuffer) push(line string) {
	if len(b.lines) == b.capacity {
		copy(b.lines, b.lines[1:])
		b.lines = b.lines[:len(b.lines)-1]
	}
	b.lines = append(b.lines, line)
}

// Lines returns a copy of the buffered lines, oldest first.
func (b *TrailingBuffer) Lines() []string {
	return slices.Clone(b.lines)
}

// Len returns the number of buffered lines.
func (b *TrailingBuffer) Len() int {
	return len(b.lines)
}

// Reset empties the buffer.
func (b *TrailingBuffer) Reset() {
	b.lines = b.lines[:0]
}
