// SPDX-License-Identifier: MPL-2.0

package taskgraph

type (
	// Step is one executable command (or informational line) inside a task.
	//
	// Command may still contain unexpanded variable references; expansion is
	// deferred to run time so that invocation overrides take effect.
	Step struct {
		// Command is the shell text to run. Empty for info-only steps.
		Command string
		// Description is the label shown for the step. It defaults to the command text.
		Description string
		// Silent suppresses all terminal rendering for the step. The step is still run and logged.
		Silent bool
		// InfoOnly steps print their description and run nothing.
		InfoOnly bool
		// IgnoreErrors overrides the task default when non-nil.
		IgnoreErrors *bool
	}

	// Task is a named unit of work with dependencies and ordered steps.
	Task struct {
		// Name uniquely identifies the task inside its graph.
		Name string
		// Depends lists dependency names in declaration order.
		Depends []string
		// Steps are executed in order.
		Steps []Step
		// Description is the human-readable summary. Parsers default it to the task name.
		Description string
		// IgnoreErrors is the default error tolerance for every step of the task.
		IgnoreErrors bool
	}
)

// EffectiveIgnoreErrors resolves the step's error tolerance against the task default.
func (s Step) EffectiveIgnoreErrors(taskDefault bool) bool {
	if s.IgnoreErrors != nil {
		return *s.IgnoreErrors
	}
	return taskDefault
}

// Label returns the text used to announce the step.
func (s Step) Label() string {
	if s.Description != "" {
		return s.Description
	}
	return s.Command
}

// Runnable reports whether the step spawns a process.
func (s Step) Runnable() bool {
	return !s.InfoOnly && s.Command != ""
}

// Bool returns a pointer to b, for populating Step.IgnoreErrors.
func Bool(b bool) *bool {
	return &b
}
