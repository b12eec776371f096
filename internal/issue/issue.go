// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	RecipeNotFoundId Id = iota + 1
	RecipeParseErrorId
	TaskTableNotFoundId
	TargetNotFoundId
	ConfigLoadFailedId
	DependencyCycleId
	ShellNotFoundId
	StepFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	recipeNotFoundIssue = &Issue{
		id: RecipeNotFoundId,
		mdMsg: `
# No Makefile found!

A ` + "`make:`" + ` target was requested but the recipe file does not exist.

## Things you can try:
- Run vol from the directory that holds your Makefile
- Point vol at another recipe file:
~~~
$ vol -f build/Makefile make:all
~~~`,
		extLinks: []HttpLink{"https://www.gnu.org/software/make/manual/make.html#Rule-Introduction"},
	}

	recipeParseErrorIssue = &Issue{
		id: RecipeParseErrorId,
		mdMsg: `
# Failed to parse the task document!

The file could not be turned into a task graph. The error above names the
file and line.

## Common causes:
- A ` + "`{`" + ` step group or script block without its closing ` + "`}`" + `
- A ` + "`define`" + ` without a matching ` + "`endef`" + `
- Invalid TOML, YAML or HCL syntax in the task table

## Things you can try:
- Check the reported line and the lines just before it
- Run ` + "`vol validate`" + ` to check every document at once`,
	}

	taskTableNotFoundIssue = &Issue{
		id: TaskTableNotFoundId,
		mdMsg: `
# No task table found!

vol looks for tasks in ` + "`vol.toml`" + ` by default.

## Things you can try:
- Create a task table:
~~~toml
[build]
description = "Build the project"
commands = ["go build ./..."]
~~~

- Or select another file with ` + "`-c`" + `:
~~~
$ vol -c tasks.yaml build
~~~

- Use a Makefile target with ` + "`vol make:<target>`",
	}

	targetNotFoundIssue = &Issue{
		id: TargetNotFoundId,
		mdMsg: `
# Target not found!

The requested task or target is not defined in the document.

## Things you can try:
- List the available tasks:
~~~
$ vol list
~~~

- Check the spelling of the target name
- Remember that Makefile targets need the ` + "`make:`" + ` prefix`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

One of the configuration layers could not be read or failed validation.

## Layers (lowest to highest precedence):
1. Built-in defaults
2. ` + "`config.cue`" + ` in the user config directory (or ` + "`--config-file`" + `)
3. The ` + "`[config]`" + ` section of the task table
4. A ` + "`#--config:`" + ` block in a Makefile or script
5. ` + "`VOL_*`" + ` environment variables and flags

## Things you can try:
- Inspect the effective configuration:
~~~
$ vol config show
~~~

- Write a fresh default file:
~~~
$ vol config init
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle detected!

Your task dependencies form a cycle, which would never finish.

## Example of a cycle:
~~~make
a: b
	@echo a
b: a
	@echo b
~~~

## Things you can try:
- Review the dependency lists of the tasks named above
- Remove the circular dependency
- Run ` + "`vol validate`" + ` to find every cycle in the document`,
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# Shell not found!

Could not find a suitable shell to run steps with.

## Shells we look for:
- Linux/macOS: sh, then bash
- Windows: pwsh, powershell, cmd

## Things you can try:
- Install sh or bash
- Point ` + "`shell_path`" + ` at a POSIX shell
- Use the built-in interpreter instead:
~~~cue
shell: "virtual"
~~~`,
	}

	stepFailedIssue = &Issue{
		id: StepFailedId,
		mdMsg: `
# A step failed!

The run stopped at the first failing step. Its output and exit code were
written to the run log.

## Things you can try:
- Read the failing step's output in the log file (` + "`vol.log`" + ` by default)
- Re-run with ` + "`--no-live`" + ` to stream every line of output
- Prefix the step with ` + "`-`" + ` (Makefile) or use ` + "`## desc`" + ` (script) when
  failures are expected`,
	}

	issues = map[Id]*Issue{
		recipeNotFoundIssue.Id():    recipeNotFoundIssue,
		recipeParseErrorIssue.Id():  recipeParseErrorIssue,
		taskTableNotFoundIssue.Id(): taskTableNotFoundIssue,
		targetNotFoundIssue.Id():    targetNotFoundIssue,
		configLoadFailedIssue.Id():  configLoadFailedIssue,
		dependencyCycleIssue.Id():   dependencyCycleIssue,
		shellNotFoundIssue.Id():     shellNotFoundIssue,
		stepFailedIssue.Id():        stepFailedIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
