// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/pluttan/volumes/internal/expr"
	"github.com/pluttan/volumes/pkg/taskgraph"
)

func parseString(t *testing.T, doc string, opts ...Option) (*taskgraph.Graph, expr.Vars) {
	t.Helper()
	g, vars, err := Parse(context.Background(), "Makefile", strings.NewReader(doc), opts...)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return g, vars
}

func TestParseTargetsAndSteps(t *testing.T) {
	t.Parallel()

	doc := "" +
		"CC := gcc\n" +
		"CFLAGS = -O2 $(CC)\n" +
		"\n" +
		"# Build the binary\n" +
		"build: deps\n" +
		"\t$(CC) -o app main.c # compile\n" +
		"\t@echo done\n" +
		"\t# linking finished\n" +
		"\n" +
		"deps:  ## Fetch dependencies\n" +
		"\t-go mod download\n" +
		"\n" +
		"clean:\n" +
		"\trm -rf build\n"

	g, vars := parseString(t, doc)

	if got := g.Names(); !slices.Equal(got, []string{"build", "deps", "clean"}) {
		t.Fatalf("Names() = %q", got)
	}
	if vars["CFLAGS"] != "-O2 gcc" {
		t.Errorf("CFLAGS = %q, want %q", vars["CFLAGS"], "-O2 gcc")
	}

	build := mustGet(t, g, "build")
	if build.Description != "Build the binary" {
		t.Errorf("build description = %q", build.Description)
	}
	if !slices.Equal(build.Depends, []string{"deps"}) {
		t.Errorf("build depends = %q", build.Depends)
	}
	want := []taskgraph.Step{
		{Command: "$(CC) -o app main.c", Description: "compile"},
		{Command: "echo done", Description: "echo done", Silent: true},
		{Description: "linking finished", InfoOnly: true},
	}
	if len(build.Steps) != len(want) {
		t.Fatalf("build has %d steps, want %d", len(build.Steps), len(want))
	}
	for i, s := range build.Steps {
		w := want[i]
		if s.Command != w.Command || s.Description != w.Description || s.Silent != w.Silent || s.InfoOnly != w.InfoOnly {
			t.Errorf("step %d = %+v, want %+v", i, s, w)
		}
	}

	deps := mustGet(t, g, "deps")
	if deps.Description != "Fetch dependencies" {
		t.Errorf("deps description = %q", deps.Description)
	}
	if len(deps.Depends) != 0 {
		t.Errorf("deps depends = %q", deps.Depends)
	}
	if !deps.Steps[0].EffectiveIgnoreErrors(false) {
		t.Error("'-' prefix should set ignore errors")
	}

	if mustGet(t, g, "clean").Description != "clean" {
		t.Errorf("clean description = %q, want target name", mustGet(t, g, "clean").Description)
	}
}

func TestParseBlankLineResetsPendingDescription(t *testing.T) {
	t.Parallel()

	g, _ := parseString(t, "# stale\n\nbuild:\n\techo hi\n")
	if got := mustGet(t, g, "build").Description; got != "build" {
		t.Errorf("description = %q, want %q", got, "build")
	}
}

func TestParseOtherLineClosesTarget(t *testing.T) {
	t.Parallel()

	g, _ := parseString(t, "build:\n\techo a\n.PHONY: build\n\techo orphan\n")
	if n := len(mustGet(t, g, "build").Steps); n != 1 {
		t.Errorf("build has %d steps, want 1", n)
	}
}

func TestParseAssignmentFlavours(t *testing.T) {
	t.Parallel()

	doc := "" +
		"A = one\n" +
		"A ?= two\n" +
		"B ?= three\n" +
		"A += four\n" +
		"C += five\n" +
		"D := $(A) $$HOME # trailing comment\n" +
		"VERSION := 1.0\n" +
		"TAG := v$(VERSION)\n"

	_, vars := parseString(t, doc, WithOverrides(expr.Vars{"VERSION": "2.0"}))
	want := expr.Vars{
		"A":       "one four",
		"B":       "three",
		"C":       "five",
		"D":       "one four $HOME",
		"VERSION": "2.0",
		"TAG":     "v2.0",
	}
	for k, v := range want {
		if vars[k] != v {
			t.Errorf("%s = %q, want %q", k, vars[k], v)
		}
	}
}

func TestParseContinuationLines(t *testing.T) {
	t.Parallel()

	doc := "SRCS = a.c \\\n  b.c\nbuild: \\\n  gen\n\tgcc \\\n\t  $(SRCS)\ngen:\n"
	g, vars := parseString(t, doc)
	if got := strings.Fields(vars["SRCS"]); !slices.Equal(got, []string{"a.c", "b.c"}) {
		t.Errorf("SRCS = %q", vars["SRCS"])
	}
	build := mustGet(t, g, "build")
	if !slices.Equal(build.Depends, []string{"gen"}) {
		t.Errorf("depends = %q", build.Depends)
	}
	if got := strings.Join(strings.Fields(build.Steps[0].Command), " "); got != "gcc $(SRCS)" {
		t.Errorf("command = %q", build.Steps[0].Command)
	}
}

func TestParseExpandsDependencies(t *testing.T) {
	t.Parallel()

	g, _ := parseString(t, "PARTS := lint test\nci: $(PARTS) build\n")
	if got := mustGet(t, g, "ci").Depends; !slices.Equal(got, []string{"lint", "test", "build"}) {
		t.Errorf("depends = %q", got)
	}
}

func TestParseStepGroup(t *testing.T) {
	t.Parallel()

	doc := "release:\n\t-{ # publish\n\t\tcd dist\n\n\t\tupload *.tar.gz\n\t}\n\techo ok\n"
	g, _ := parseString(t, doc)
	steps := mustGet(t, g, "release").Steps
	if len(steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(steps))
	}
	if steps[0].Command != "cd dist\nupload *.tar.gz" {
		t.Errorf("group command = %q", steps[0].Command)
	}
	if steps[0].Description != "publish" || !steps[0].EffectiveIgnoreErrors(false) {
		t.Errorf("group step = %+v", steps[0])
	}
}

func TestParseUnterminatedBlock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		line int
	}{
		{"eof inside group", "build:\n\techo a\n\t{\n\t\techo b\n", 3},
		{"target inside group", "build:\n\t{\n\t\techo b\nother:\n", 2},
		{"eof inside define", "x:\ndefine BODY\necho hi\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g, _, err := Parse(context.Background(), "Makefile", strings.NewReader(tt.doc))
			if !errors.Is(err, taskgraph.ErrMalformedRecipe) {
				t.Fatalf("err = %v, want ErrMalformedRecipe", err)
			}
			if g != nil {
				t.Error("graph should be nil on malformed input")
			}
			var mre *taskgraph.MalformedRecipeError
			if errors.As(err, &mre) && mre.Line != tt.line {
				t.Errorf("line = %d, want %d", mre.Line, tt.line)
			}
		})
	}
}

func TestParseDefine(t *testing.T) {
	t.Parallel()

	_, vars := parseString(t, "define GREETING\necho hello\necho world\nendef\n")
	if vars["GREETING"] != "echo hello\necho world" {
		t.Errorf("GREETING = %q", vars["GREETING"])
	}
}

func TestParseSkipsInlineConfigBlock(t *testing.T) {
	t.Parallel()

	doc := "#--config:\n# show_time = false\n# color_theme = \"nord\"\n#--end\nbuild:\n\techo hi\n"
	g, _ := parseString(t, doc)
	if got := mustGet(t, g, "build").Description; got != "build" {
		t.Errorf("description = %q, config lines leaked into pending description", got)
	}
}

func TestParseRedefinitionReplaces(t *testing.T) {
	t.Parallel()

	g, _ := parseString(t, "a:\n\techo one\nb:\na: b\n\techo two\n")
	if !slices.Equal(g.Names(), []string{"a", "b"}) {
		t.Errorf("Names() = %q", g.Names())
	}
	a := mustGet(t, g, "a")
	if len(a.Steps) != 1 || a.Steps[0].Command != "echo two" || !slices.Equal(a.Depends, []string{"b"}) {
		t.Errorf("a = %+v", a)
	}
}

func TestStateMachine(t *testing.T) {
	t.Parallel()

	p := &Parser{
		ctx:   context.Background(),
		path:  "Makefile",
		eval:  expr.New(),
		graph: taskgraph.NewGraph("Makefile", taskgraph.SourceRecipe),
		vars:  expr.Vars{},
	}
	steps := []struct {
		line string
		want state
	}{
		{"# describe", statePendingDescription},
		{"", stateIdle},
		{"# describe", statePendingDescription},
		{"build:", stateInTarget},
		{"\techo hi", stateInTarget},
		{"", stateInTarget},
		{"# next one", stateInTarget},
		{"VAR = 1", stateInTarget},
		{"not a directive", statePendingDescription},
		{"", stateIdle},
	}
	for i, s := range steps {
		if err := p.feed(logicalLine{Text: s.line, Number: i + 1}); err != nil {
			t.Fatalf("feed(%q) error = %v", s.line, err)
		}
		if p.state != s.want {
			t.Errorf("after %q state = %d, want %d", s.line, p.state, s.want)
		}
	}
}

func mustGet(t *testing.T, g *taskgraph.Graph, name string) *taskgraph.Task {
	t.Helper()
	task, ok := g.Get(name)
	if !ok {
		t.Fatalf("task %q not found in %q", name, g.Names())
	}
	return task
}
