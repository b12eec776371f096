// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"errors"
	"fmt"

	"github.com/pluttan/volumes/internal/dag"
	"github.com/pluttan/volumes/internal/issue"
	"github.com/pluttan/volumes/internal/runtime"
	"github.com/pluttan/volumes/pkg/taskgraph"
)

// ErrStepFailed is the sentinel error wrapped by StepFailedError.
var ErrStepFailed = errors.New("step failed")

// StepFailedError reports the step that aborted a run. The presenter has
// already shown it; callers normally only map it to an exit code.
type StepFailedError struct {
	Outcome runtime.StepOutcome
}

func (e *StepFailedError) Error() string {
	return fmt.Sprintf("task %q: %q failed with exit code %d", e.Outcome.Task, e.Outcome.Description, int(e.Outcome.ExitCode))
}

// Unwrap returns ErrStepFailed for errors.Is() compatibility.
func (e *StepFailedError) Unwrap() error { return ErrStepFailed }

func tableNotFoundError(path string) error {
	return issue.NewErrorContext().
		WithOperation("load task table").
		WithIssue(issue.TaskTableNotFoundId).
		WithResource(path).
		WithSuggestion("Create a vol.toml with a [task] table, or select one with -c").
		WithSuggestion("Run a script with 'vol script.sh' or a Makefile target with 'vol make:<target>'").
		Wrap(fmt.Errorf("task table not found: %s", path)).
		BuildError()
}

func recipeNotFoundError(path string) error {
	return issue.NewErrorContext().
		WithOperation("load recipe").
		WithIssue(issue.RecipeNotFoundId).
		WithResource(path).
		WithSuggestion("Run vol from the directory that contains the Makefile").
		WithSuggestion("Select another recipe with -f").
		Wrap(fmt.Errorf("recipe not found: %s", path)).
		BuildError()
}

func parseError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("parse " + path).
		WithIssue(issue.RecipeParseErrorId).
		WithResource(path).
		WithSuggestion("Fix the reported line and run 'vol validate'").
		Wrap(err).
		BuildError()
}

func shellNotFoundError(err error) error {
	return issue.NewErrorContext().
		WithOperation("locate shell").
		WithIssue(issue.ShellNotFoundId).
		WithSuggestion("Set shell_path in the configuration").
		WithSuggestion("Use shell = \"virtual\" to run steps without a host shell").
		Wrap(err).
		BuildError()
}

func resolveError(sel Selection, err error) error {
	ctx := issue.NewErrorContext().
		WithOperation("resolve " + sel.Target).
		WithResource(sel.Path)

	var cycle *dag.CycleError
	switch {
	case errors.Is(err, taskgraph.ErrUnknownTarget):
		ctx = ctx.WithIssue(issue.TargetNotFoundId).
			WithSuggestion("Run 'vol --list' to see the available tasks")
	case errors.As(err, &cycle):
		ctx = ctx.WithIssue(issue.DependencyCycleId).
			WithSuggestion("Remove one of the dependencies in the cycle")
	}
	return ctx.Wrap(err).BuildError()
}
