// SPDX-License-Identifier: MPL-2.0

package expr

import (
	"maps"
	"slices"
	"testing"
)

func TestParseAssignments(t *testing.T) {
	t.Parallel()

	overrides, rest := ParseAssignments([]string{"build", "CC=clang", "URL=a=b", "=x", "1X=y", "DEBUG="})
	want := Vars{"CC": "clang", "URL": "a=b", "DEBUG": ""}
	if !maps.Equal(overrides, want) {
		t.Errorf("overrides = %v, want %v", overrides, want)
	}
	if !slices.Equal(rest, []string{"build", "=x", "1X=y"}) {
		t.Errorf("rest = %q", rest)
	}
}

func TestVarsWith(t *testing.T) {
	t.Parallel()

	base := Vars{"A": "1", "B": "2"}
	merged := base.With(Vars{"B": "3", "C": "4"})

	if !maps.Equal(merged, Vars{"A": "1", "B": "3", "C": "4"}) {
		t.Errorf("merged = %v", merged)
	}
	if base["B"] != "2" {
		t.Error("With mutated the receiver")
	}
	if got := merged.Environ(); !slices.Equal(got, []string{"A=1", "B=3", "C=4"}) {
		t.Errorf("Environ() = %q", got)
	}
}
