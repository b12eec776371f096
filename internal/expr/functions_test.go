// SPDX-License-Identifier: MPL-2.0

package expr

import (
	"slices"
	"testing"
)

func TestBuiltins(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"$(word 2,foo bar baz)", "bar"},
		{"$(word 4,foo bar baz)", ""},
		{"$(word x,foo)", ""},
		{"$(word 0,foo)", ""},
		{"$(words a b  c)", "3"},
		{"$(words )", "0"},
		{"$(firstword  a b)", "a"},
		{"$(lastword a b c )", "c"},
		{"$(lastword )", ""},
		{"$(subst ee,EE,feet on the street)", "fEEt on the strEEt"},
		{"$(subst ,x,abc)", "abc"},
		{"$(subst a,b)", ""},
		{"$(patsubst %.o,%,x.o y.c)", "x y.c"},
		{"$(patsubst src/%.c,build/%.o,src/a.c lib/b.c)", "build/a.o lib/b.c"},
		{"$(patsubst main.c,app.c,main.c util.c)", "app.c util.c"},
		{"$(sort foo bar lose foo)", "bar foo lose"},
		{"$(dir src/foo.c hacks)", "src/ ./"},
		{"$(notdir src/foo.c hacks)", "foo.c hacks"},
		{"$(suffix src/foo.c src-1.0/bar hacks.tar.gz)", ".c .gz"},
		{"$(basename src/foo.c src-1.0/bar hacks)", "src/foo src-1.0/bar hacks"},
		{"$(addsuffix .c,foo bar)", "foo.c bar.c"},
		{"$(addprefix src/,foo bar)", "src/foo src/bar"},
		{"$(filter %.c %.s,foo.c bar.c baz.s ugh.h)", "foo.c bar.c baz.s"},
		{"$(filter-out %.h,foo.c ugh.h)", "foo.c"},
		{"$(findstring a,a b c)", "a"},
		{"$(findstring z,a b c)", ""},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := e.Expand(tt.in, nil); got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args string
		n    int
		want []string
	}{
		{"a,b,c", 3, []string{"a", "b", "c"}},
		{"a,b,c,d", 3, []string{"a", "b", "c,d"}},
		{"a,(b,c),d", 3, []string{"a", "(b,c)", "d"}},
		{"a", 2, []string{"a"}},
	}
	for _, tt := range tests {
		if got := splitArgs(tt.args, tt.n); !slices.Equal(got, tt.want) {
			t.Errorf("splitArgs(%q, %d) = %q, want %q", tt.args, tt.n, got, tt.want)
		}
	}
}

func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern, word string
		stem          string
		ok            bool
	}{
		{"%.c", "foo.c", "foo", true},
		{"%.c", "foo.h", "", false},
		{"a%a", "a", "", false},
		{"a%a", "aa", "", true},
		{"lib%.a", "libz.a", "z", true},
		{"exact", "exact", "", true},
		{"exact", "other", "", false},
	}
	for _, tt := range tests {
		stem, ok := MatchPattern(tt.pattern, tt.word)
		if stem != tt.stem || ok != tt.ok {
			t.Errorf("MatchPattern(%q, %q) = (%q, %v), want (%q, %v)", tt.pattern, tt.word, stem, ok, tt.stem, tt.ok)
		}
	}
}

func TestFunctionsRegistry(t *testing.T) {
	t.Parallel()

	names := Functions()
	for _, want := range []string{"shell", "word", "words", "firstword", "lastword", "subst", "patsubst",
		"strip", "sort", "dir", "notdir", "suffix", "basename", "addsuffix", "addprefix", "wildcard"} {
		if !slices.Contains(names, want) {
			t.Errorf("registry missing %q", want)
		}
	}
	if !slices.IsSorted(names) {
		t.Error("Functions() is not sorted")
	}
}
