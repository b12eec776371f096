// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"fmt"
	"time"

	"github.com/pluttan/volumes/pkg/taskgraph"
)

// Outcome kinds.
const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeFailure
	OutcomeIgnored
)

type (
	// OutcomeKind classifies a finished step.
	OutcomeKind int

	// StepOutcome is the result of one executed step.
	StepOutcome struct {
		// Task is the owning task name.
		Task string
		// Command is the expanded command text that was run.
		Command string
		// Description is the expanded step label.
		Description string
		// Kind classifies the result.
		Kind OutcomeKind
		// ExitCode is the process exit status.
		ExitCode ExitCode
		// Output is the combined stdout/stderr text.
		Output string
		// Started is when the step was spawned.
		Started time.Time
		// Elapsed is the wall time of the step.
		Elapsed time.Duration
		// Silent mirrors the step's silent flag.
		Silent bool
		// Err is set when the process could not be spawned or waited for.
		Err error
	}

	// Report summarizes a run.
	Report struct {
		// Success is false once a step fails or the run is canceled.
		Success bool
		// Steps counts processed steps, info lines included.
		Steps int
		// Ignored counts failures tolerated by ignore-errors.
		Ignored int
		// Failed is the step that aborted the run.
		Failed *StepOutcome
		// Err is set when the run stopped for a reason other than a step
		// failure, such as context cancellation.
		Err error
	}
)

// String returns the status label for the kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "ok"
	case OutcomeFailure:
		return "error"
	case OutcomeIgnored:
		return "warn"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// classify maps an exit code to an outcome under the step's error policy.
func classify(code ExitCode, step taskgraph.Step, taskDefault bool) OutcomeKind {
	switch {
	case code.IsSuccess():
		return OutcomeSuccess
	case step.EffectiveIgnoreErrors(taskDefault):
		return OutcomeIgnored
	default:
		return OutcomeFailure
	}
}

// OK reports whether the step did not abort the run.
func (o StepOutcome) OK() bool {
	return o.Kind != OutcomeFailure
}

// ElapsedLabel formats Elapsed for status lines: milliseconds below one
// second, then seconds with one decimal, then minutes and seconds.
func (o StepOutcome) ElapsedLabel() string {
	return FormatElapsed(o.Elapsed)
}

// FormatElapsed formats a step duration for display.
func FormatElapsed(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		d = d.Round(time.Second)
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}

// OK reports overall success.
func (r Report) OK() bool {
	return r.Success
}
