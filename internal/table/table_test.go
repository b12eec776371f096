// SPDX-License-Identifier: MPL-2.0

package table

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/pluttan/volumes/internal/testutil"
	"github.com/pluttan/volumes/pkg/taskgraph"
)

func mustParse(t *testing.T, path, src string, format Format, opts ...Option) *Document {
	t.Helper()
	doc, err := Parse(path, strings.NewReader(src), format, opts...)
	if err != nil {
		t.Fatalf("Parse(%s) error = %v", path, err)
	}
	return doc
}

func mustTask(t *testing.T, g *taskgraph.Graph, name string) *taskgraph.Task {
	t.Helper()
	task, ok := g.Get(name)
	if !ok {
		t.Fatalf("task %q missing (have %v)", name, g.Names())
	}
	return task
}

func TestFormatFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"vol.toml", FormatTOML, false},
		{"tasks.YAML", FormatYAML, false},
		{"tasks.yml", FormatYAML, false},
		{"dir/vol.hcl", FormatHCL, false},
		{"tasks.json", "", true},
		{"Makefile", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			got, err := FormatFor(tt.path)
			if tt.wantErr {
				if !errors.Is(err, taskgraph.ErrMalformedRecipe) {
					t.Errorf("FormatFor(%q) error = %v, want ErrMalformedRecipe", tt.path, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("FormatFor(%q) = %q, %v, want %q", tt.path, got, err, tt.want)
			}
		})
	}
}

func TestParseTOML(t *testing.T) {
	t.Parallel()

	src := `
title = "ignored"

[test]
description = "Run tests"
depends = ["build"]
commands = ["go test ./...", ""]

[build]
silent = true
commands = [
  "go build ./...",
  { cmd = "go vet ./...", desc = "Vet", ignore_errors = true },
  { cmd = "echo loud", silent = false },
  { desc = "no command" },
]

[config]
panel_width = 80
`
	doc := mustParse(t, "vol.toml", src, FormatTOML)

	if doc.Format != FormatTOML {
		t.Errorf("Format = %q", doc.Format)
	}
	if got := doc.Graph.Names(); !slices.Equal(got, []string{"build", "test"}) {
		t.Errorf("Names() = %v, want lexical order", got)
	}

	test := mustTask(t, doc.Graph, "test")
	if test.Description != "Run tests" || !slices.Equal(test.Depends, []string{"build"}) {
		t.Errorf("test = %+v", test)
	}
	if len(test.Steps) != 1 || test.Steps[0].Description != "Run tests" {
		t.Errorf("test steps = %+v", test.Steps)
	}

	build := mustTask(t, doc.Graph, "build")
	if build.Description != "build" {
		t.Errorf("build.Description = %q, want task name", build.Description)
	}
	if len(build.Steps) != 3 {
		t.Fatalf("build steps = %+v", build.Steps)
	}
	if s := build.Steps[0]; s.Command != "go build ./..." || !s.Silent || s.IgnoreErrors != nil {
		t.Errorf("step 0 = %+v", s)
	}
	if s := build.Steps[1]; s.Description != "Vet" || s.IgnoreErrors == nil || !*s.IgnoreErrors {
		t.Errorf("step 1 = %+v", s)
	}
	if s := build.Steps[2]; s.Silent || s.Description != "echo loud" {
		t.Errorf("step 2 = %+v", s)
	}

	if doc.Config["panel_width"] != int64(80) {
		t.Errorf("Config = %#v", doc.Config)
	}
}

func TestParseTOML_SettingsSection(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "vol.toml", "[settings]\nverbose = true\n\n[a]\ncommands = [\"true\"]\n", FormatTOML)
	if doc.Config["verbose"] != true {
		t.Errorf("Config = %#v", doc.Config)
	}
	if doc.Graph.Has("settings") {
		t.Error("settings section parsed as a task")
	}
}

func TestParseTOML_ConfigPreferredOverSettings(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "vol.toml", "[settings]\nverbose = true\n\n[config]\nverbose = false\n", FormatTOML)
	if doc.Config["verbose"] != false {
		t.Errorf("Config = %#v, want [config] section", doc.Config)
	}
}

func TestParseTOML_DependsString(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "vol.toml", "[all]\ndepends = \"build  test\"\n", FormatTOML)
	if got := mustTask(t, doc.Graph, "all").Depends; !slices.Equal(got, []string{"build", "test"}) {
		t.Errorf("Depends = %v", got)
	}
}

func TestParseTOML_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src      string
		contains string
	}{
		{"syntax", "[build]\ncommands = [\n", ""},
		{"commands not list", "[build]\ncommands = \"make\"\n", `task "build": commands: must be a list`},
		{"depends numbers", "[build]\ndepends = [1]\n", "depends: must be a list of strings"},
		{"bad step", "[build]\ncommands = [1]\n", "commands[0]: must be a string or a table"},
		{"cmd not string", "[build]\ncommands = [{ cmd = 3 }]\n", "cmd must be a string"},
		{"silent not bool", "[build]\nsilent = \"yes\"\n", "silent: must be a boolean"},
		{"description not string", "[build]\ndescription = 1\n", "description: must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse("vol.toml", strings.NewReader(tt.src), FormatTOML)
			var perr *taskgraph.MalformedRecipeError
			if !errors.As(err, &perr) {
				t.Fatalf("error = %v, want *MalformedRecipeError", err)
			}
			if perr.Path != "vol.toml" {
				t.Errorf("Path = %q", perr.Path)
			}
			if tt.contains != "" && !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error = %q, want substring %q", err, tt.contains)
			}
		})
	}
}

func TestParseTOML_SyntaxErrorHasLine(t *testing.T) {
	t.Parallel()

	_, err := Parse("vol.toml", strings.NewReader("[build]\ncommands = [\"a\"]\n= broken\n"), FormatTOML)
	var perr *taskgraph.MalformedRecipeError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v", err)
	}
	if perr.Line != 3 {
		t.Errorf("Line = %d, want 3", perr.Line)
	}
}

func TestParseYAML_KeepsDocumentOrder(t *testing.T) {
	t.Parallel()

	src := `
zeta:
  commands:
    - echo z
alpha:
  description: First letter
  depends: [zeta]
  commands:
    - cmd: echo a
      desc: Say a
      ignore_errors: true
config:
  color_theme: nord
`
	doc := mustParse(t, "tasks.yaml", src, FormatYAML)

	if got := doc.Graph.Names(); !slices.Equal(got, []string{"zeta", "alpha"}) {
		t.Errorf("Names() = %v", got)
	}
	alpha := mustTask(t, doc.Graph, "alpha")
	if alpha.Description != "First letter" || len(alpha.Steps) != 1 {
		t.Fatalf("alpha = %+v", alpha)
	}
	if s := alpha.Steps[0]; s.Description != "Say a" || s.IgnoreErrors == nil || !*s.IgnoreErrors {
		t.Errorf("step = %+v", s)
	}
	if doc.Config["color_theme"] != "nord" {
		t.Errorf("Config = %#v", doc.Config)
	}
}

func TestParseYAML_Empty(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, "tasks.yaml", "", FormatYAML)
	if doc.Graph.Len() != 0 || doc.Config != nil {
		t.Errorf("doc = %+v", doc)
	}
}

func TestParseYAML_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"syntax", "build:\n  commands: [\n"},
		{"top level list", "- build\n- test\n"},
		{"bad field", "build:\n  commands: make\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse("tasks.yaml", strings.NewReader(tt.src), FormatYAML)
			if !errors.Is(err, taskgraph.ErrMalformedRecipe) {
				t.Errorf("error = %v, want ErrMalformedRecipe", err)
			}
		})
	}
}

func TestParseHCL(t *testing.T) {
	t.Parallel()

	src := `
config {
  panel_height = 12
  header_text  = "Build ${env.PROJECT}"
}

task "build" {
  description = "Build ${env.PROJECT}"
  silent      = true
  commands    = ["go build ./..."]

  step {
    cmd           = "go vet ./..."
    desc          = "Vet"
    ignore_errors = true
  }

  step {
    cmd    = "echo done"
    silent = false
  }
}

task "all" {
  depends = ["build"]
}
`
	doc := mustParse(t, "vol.hcl", src, FormatHCL, WithEnv([]string{"PROJECT=volumes", "MALFORMED"}))

	if got := doc.Graph.Names(); !slices.Equal(got, []string{"build", "all"}) {
		t.Errorf("Names() = %v", got)
	}
	build := mustTask(t, doc.Graph, "build")
	if build.Description != "Build volumes" {
		t.Errorf("Description = %q", build.Description)
	}
	if len(build.Steps) != 3 {
		t.Fatalf("steps = %+v", build.Steps)
	}
	if s := build.Steps[0]; s.Command != "go build ./..." || s.Description != "Build volumes" || !s.Silent {
		t.Errorf("step 0 = %+v", s)
	}
	if s := build.Steps[1]; s.Description != "Vet" || !s.Silent || s.IgnoreErrors == nil || !*s.IgnoreErrors {
		t.Errorf("step 1 = %+v", s)
	}
	if s := build.Steps[2]; s.Silent {
		t.Errorf("step 2 = %+v", s)
	}

	all := mustTask(t, doc.Graph, "all")
	if !slices.Equal(all.Depends, []string{"build"}) || all.Description != "all" {
		t.Errorf("all = %+v", all)
	}

	if doc.Config["panel_height"] != int64(12) || doc.Config["header_text"] != "Build volumes" {
		t.Errorf("Config = %#v", doc.Config)
	}
}

func TestParseHCL_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		line int
	}{
		{"syntax", "task \"a\" {\n  commands = [\n", 0},
		{"unknown attribute", "task \"a\" {\n  colour = \"red\"\n}\n", 2},
		{"missing label", "task {\n}\n", 1},
		{"unknown env", "task \"a\" {\n  description = env.NOPE\n}\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse("vol.hcl", strings.NewReader(tt.src), FormatHCL, WithEnv([]string{}))
			var perr *taskgraph.MalformedRecipeError
			if !errors.As(err, &perr) {
				t.Fatalf("error = %v, want *MalformedRecipeError", err)
			}
			if tt.line > 0 && perr.Line != tt.line {
				t.Errorf("Line = %d, want %d (%v)", perr.Line, tt.line, err)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "vol.toml", "[hello]\ncommands = [\"echo hi\"]\n")

	doc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if doc.Graph.Path != path || doc.Graph.Kind != taskgraph.SourceTable {
		t.Errorf("graph = %s (%s)", doc.Graph.Path, doc.Graph.Kind)
	}

	if _, err := ParseFile(testutil.WriteFile(t, dir, "vol.ini", "")); !errors.Is(err, taskgraph.ErrMalformedRecipe) {
		t.Errorf("ParseFile(.ini) error = %v", err)
	}
}
