// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/pluttan/volumes/internal/app/execute"
	"github.com/pluttan/volumes/pkg/taskgraph"
)

func graphOf(tasks ...*taskgraph.Task) *taskgraph.Graph {
	g := taskgraph.NewGraph("vol.toml", taskgraph.SourceTable)
	for _, t := range tasks {
		g.Add(t)
	}
	return g
}

func countSevere(findings []finding) int {
	n := 0
	for _, f := range findings {
		if f.severe {
			n++
		}
	}
	return n
}

func TestCheckDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		doc        execute.Document
		wantSevere int
		wantTotal  int
		wantText   string
	}{
		{
			name: "valid",
			doc: execute.Document{Kind: execute.KindTable, Graph: graphOf(
				&taskgraph.Task{Name: "build", Steps: []taskgraph.Step{{Command: "go build ./..."}}},
				&taskgraph.Task{Name: "test", Depends: []string{"build"}, Steps: []taskgraph.Step{{Command: "go test ./..."}}},
			)},
		},
		{
			name: "parse error",
			doc: execute.Document{Kind: execute.KindRecipe, Err: &taskgraph.MalformedRecipeError{
				Path: "Makefile", Line: 4, Reason: "unterminated define",
			}},
			wantSevere: 1,
			wantTotal:  1,
			wantText:   "Makefile:4: unterminated define",
		},
		{
			name: "cycle",
			doc: execute.Document{Kind: execute.KindTable, Graph: graphOf(
				&taskgraph.Task{Name: "a", Depends: []string{"b"}},
				&taskgraph.Task{Name: "b", Depends: []string{"a"}},
			)},
			wantSevere: 1,
			wantTotal:  1,
			wantText:   "cycle",
		},
		{
			name: "missing dependency is a warning",
			doc: execute.Document{Kind: execute.KindTable, Graph: graphOf(
				&taskgraph.Task{Name: "a", Depends: []string{"external"}},
			)},
			wantTotal: 1,
			wantText:  `task "a" depends on "external"`,
		},
		{
			name: "shell syntax",
			doc: execute.Document{Kind: execute.KindTable, Graph: graphOf(
				&taskgraph.Task{Name: "a", Steps: []taskgraph.Step{
					{Command: "echo ok"},
					{Command: `echo "unterminated`},
					{Description: "info only", InfoOnly: true},
				}},
			)},
			wantSevere: 1,
			wantTotal:  1,
			wantText:   `task "a" step 2`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			findings := checkDocument(tt.doc)
			if len(findings) != tt.wantTotal {
				t.Fatalf("got %d findings, want %d: %+v", len(findings), tt.wantTotal, findings)
			}
			if got := countSevere(findings); got != tt.wantSevere {
				t.Errorf("got %d errors, want %d", got, tt.wantSevere)
			}
			if tt.wantText != "" && !strings.Contains(findings[0].message, tt.wantText) {
				t.Errorf("message %q does not contain %q", findings[0].message, tt.wantText)
			}
		})
	}
}

func TestReportDocument(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	doc := execute.Document{Kind: execute.KindTable, Path: "vol.toml", Graph: graphOf(&taskgraph.Task{Name: "a"})}
	n := reportDocument(&buf, doc, []finding{
		{severe: true, message: "broken"},
		{message: "odd"},
	})
	if n != 1 {
		t.Errorf("reportDocument() = %d, want 1", n)
	}
	out := ansi.Strip(buf.String())
	for _, want := range []string{"vol.toml (task, 1 task(s))", "broken", "odd"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidateCommand(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, tasks)
		if err := env.run("validate", "-c", env.table); err != nil {
			t.Fatalf("validate: %v\n%s", err, env.stderr)
		}
		if !strings.Contains(env.out(), "All task documents are valid") {
			t.Errorf("unexpected output:\n%s", env.out())
		}
	})

	t.Run("cycle", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, `
[a]
depends = ["b"]
commands = ["echo a"]

[b]
depends = ["a"]
commands = ["echo b"]
`)
		err := env.run("validate", "-c", env.table)
		var exitErr *ExitError
		if !errors.As(err, &exitErr) || exitErr.Code != ExitFailure {
			t.Fatalf("err = %v, want exit %d", err, ExitFailure)
		}
		if !strings.Contains(env.errOut(), "Validation failed with 1 error(s)") {
			t.Errorf("unexpected stderr:\n%s", env.errOut())
		}
	})
}
