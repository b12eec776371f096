// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/pluttan/volumes/internal/app/execute"
	"github.com/pluttan/volumes/internal/dag"
	"github.com/pluttan/volumes/internal/issue"
	"github.com/pluttan/volumes/internal/runtime"
	"github.com/pluttan/volumes/pkg/taskgraph"
)

// classifyExecutionError maps a failed invocation to an issue catalog ID and
// a styled message. Errors built with an issue keep it; the rest are
// recognized by their sentinels.
func classifyExecutionError(err error, verbose bool) (issueID issue.Id, styledMsg string) {
	issueID = issue.IssueOf(err)
	if issueID == 0 {
		var cycle *dag.CycleError
		switch {
		case errors.Is(err, execute.ErrStepFailed):
			issueID = issue.StepFailedId
		case errors.Is(err, taskgraph.ErrUnknownTarget):
			issueID = issue.TargetNotFoundId
		case errors.Is(err, taskgraph.ErrMalformedRecipe):
			issueID = issue.RecipeParseErrorId
		case errors.As(err, &cycle):
			issueID = issue.DependencyCycleId
		case errors.Is(err, runtime.ErrNoShell):
			issueID = issue.ShellNotFoundId
		}
	}

	return issueID, fmt.Sprintf("\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}

// formatErrorForDisplay formats an error for user display.
// ActionableErrors render their suggestions, and in verbose mode the chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
