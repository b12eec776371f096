// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"slices"
	"testing"
)

func TestTrailingBufferEvictsOldest(t *testing.T) {
	t.Parallel()

	b := NewTrailingBuffer(3, 0, true)
	for _, l := range []string{"1", "2", "3", "4", "5  \r"} {
		b.Append(l)
	}
	if got := b.Lines(); !slices.Equal(got, []string{"3", "4", "5"}) {
		t.Errorf("Lines() = %q", got)
	}
	b.Reset()
	if b.Len() != 0 {
		t.Errorf("Len() after Reset = %d", b.Len())
	}
}

func TestTrailingBufferWidth(t *testing.T) {
	t.Parallel()

	wrap := NewTrailingBuffer(10, 4, true)
	wrap.Append("abcdefghij")
	if got := wrap.Lines(); !slices.Equal(got, []string{"abcd", "efgh", "ij"}) {
		t.Errorf("wrapped = %q", got)
	}

	trunc := NewTrailingBuffer(10, 6, false)
	trunc.Append("abcdefghij")
	trunc.Append("short")
	if got := trunc.Lines(); !slices.Equal(got, []string{"abc...", "short"}) {
		t.Errorf("truncated = %q", got)
	}
}
