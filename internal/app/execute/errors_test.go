// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pluttan/volumes/internal/dag"
	"github.com/pluttan/volumes/internal/issue"
	"github.com/pluttan/volumes/internal/runtime"
	"github.com/pluttan/volumes/pkg/taskgraph"
)

func TestDocumentErrors(t *testing.T) {
	t.Parallel()

	malformed := &taskgraph.MalformedRecipeError{Path: "Makefile", Line: 7, Reason: "unterminated block"}

	tests := []struct {
		name        string
		err         error
		wantIssue   issue.Id
		wantMessage string
		wantIs      error
	}{
		{
			name:        "table not found",
			err:         tableNotFoundError("vol.toml"),
			wantIssue:   issue.TaskTableNotFoundId,
			wantMessage: "failed to load task table: vol.toml: task table not found: vol.toml",
		},
		{
			name:        "recipe not found",
			err:         recipeNotFoundError("build/Makefile"),
			wantIssue:   issue.RecipeNotFoundId,
			wantMessage: "failed to load recipe: build/Makefile: recipe not found: build/Makefile",
		},
		{
			name:        "recipe parse error names the file once",
			err:         parseError("Makefile", malformed),
			wantIssue:   issue.RecipeParseErrorId,
			wantMessage: "failed to parse Makefile: Makefile:7: unterminated block",
			wantIs:      taskgraph.ErrMalformedRecipe,
		},
		{
			name:        "shell not found",
			err:         shellNotFoundError(fmt.Errorf("%w: sh", runtime.ErrNoShell)),
			wantIssue:   issue.ShellNotFoundId,
			wantMessage: "failed to locate shell: no shell found: sh",
			wantIs:      runtime.ErrNoShell,
		},
		{
			name:        "unknown target",
			err:         resolveError(Selection{Kind: KindTable, Path: "vol.toml", Target: "deploy"}, &taskgraph.UnknownTargetError{Name: "deploy"}),
			wantIssue:   issue.TargetNotFoundId,
			wantMessage: `failed to resolve deploy: vol.toml: target "deploy" not found`,
			wantIs:      taskgraph.ErrUnknownTarget,
		},
		{
			name:        "cycle",
			err:         resolveError(Selection{Kind: KindRecipe, Path: "Makefile", Target: "a"}, &dag.CycleError{Cycle: []string{"a", "b", "a"}}),
			wantIssue:   issue.DependencyCycleId,
			wantMessage: "failed to resolve a: Makefile: dependency cycle detected: a -> b -> a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := issue.IssueOf(tt.err); got != tt.wantIssue {
				t.Errorf("IssueOf() = %d, want %d", got, tt.wantIssue)
			}
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
			if tt.wantIs != nil && !errors.Is(tt.err, tt.wantIs) {
				t.Errorf("errors.Is(%v) = false", tt.wantIs)
			}

			var ae *issue.ActionableError
			if !errors.As(tt.err, &ae) {
				t.Fatalf("%T is not an ActionableError", tt.err)
			}
			if !ae.HasSuggestions() {
				t.Error("expected at least one suggestion")
			}
			if !strings.Contains(ae.Format(false), "  • ") {
				t.Errorf("Format(false) lacks suggestion bullets:\n%s", ae.Format(false))
			}
		})
	}
}

func TestStepFailedError(t *testing.T) {
	t.Parallel()

	err := &StepFailedError{Outcome: runtime.StepOutcome{Task: "test", Description: "Unit tests", ExitCode: 2}}
	if got, want := err.Error(), `task "test": "Unit tests" failed with exit code 2`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(fmt.Errorf("run: %w", err), ErrStepFailed) {
		t.Error("errors.Is(ErrStepFailed) = false")
	}
}
