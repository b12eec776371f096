// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/syntax"

	"github.com/pluttan/volumes/internal/app/execute"
	"github.com/pluttan/volumes/internal/dag"
)

// finding is one validation result of a document.
type finding struct {
	severe  bool
	message string
}

func newValidateCommand(app *App, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check task documents for parse errors, cycles and shell syntax",
		Long: `Parse the task table, the recipe and every *.sh script in the current
directory. Dependency cycles and step commands the shell cannot parse are
errors; dependencies that name no task are reported as warnings because they
are assumed to be satisfied outside vol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, app, flags)
		},
	}
}

func runValidate(cmd *cobra.Command, app *App, flags *rootFlags) error {
	docs := app.orchestrator(flags).Discover(cmd.Context(), request(flags, "", nil))
	if len(docs) == 0 {
		fmt.Fprintf(app.stdout, "%s No task documents found\n", warningIcon)
		return nil
	}

	errCount := 0
	for _, d := range docs {
		errCount += reportDocument(app.stdout, d, checkDocument(d))
	}

	if errCount > 0 {
		fmt.Fprintf(app.stderr, "\n%s Validation failed with %d error(s)\n", errorIcon, errCount)
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: ExitFailure}
	}
	fmt.Fprintf(app.stdout, "\n%s All task documents are valid\n", successIcon)
	return nil
}

// checkDocument validates the graph of d and the shell syntax of its steps.
func checkDocument(d execute.Document) []finding {
	if d.Err != nil {
		return []finding{{severe: true, message: d.Err.Error()}}
	}

	var out []finding
	missing, err := dag.Validate(d.Graph)
	if err != nil {
		out = append(out, finding{severe: true, message: err.Error()})
	}
	for _, m := range missing {
		out = append(out, finding{message: fmt.Sprintf("task %q depends on %q, which is not defined", m.Task, m.Dependency)})
	}

	parser := syntax.NewParser()
	for _, task := range d.Graph.Tasks() {
		for i, step := range task.Steps {
			if !step.Runnable() {
				continue
			}
			if _, err := parser.Parse(strings.NewReader(step.Command), ""); err != nil {
				out = append(out, finding{
					severe:  true,
					message: fmt.Sprintf("task %q step %d: %v", task.Name, i+1, err),
				})
			}
		}
	}
	return out
}

// reportDocument prints the findings of d and returns the number of errors.
func reportDocument(w io.Writer, d execute.Document, findings []finding) int {
	errCount := 0
	for _, f := range findings {
		if f.severe {
			errCount++
		}
	}

	icon := successIcon
	if errCount > 0 {
		icon = errorIcon
	}
	summary := string(d.Kind)
	if d.Graph != nil {
		summary = fmt.Sprintf("%s, %d task(s)", d.Kind, d.Graph.Len())
	}
	fmt.Fprintf(w, "%s %s %s\n", icon, d.Path, SubtitleStyle.Render("("+summary+")"))

	for _, f := range findings {
		marker := warningIcon
		if f.severe {
			marker = errorIcon
		}
		fmt.Fprintf(w, "    %s %s\n", marker, f.message)
	}
	return errCount
}
