// SPDX-License-Identifier: MPL-2.0

// Package runtime executes resolved task plans.
//
// The [Engine] walks an ordered list of tasks and runs each step through a
// [Shell], strictly one at a time. Three shells are available:
//   - native: the host POSIX shell (sh, then bash; PowerShell or cmd on Windows)
//   - virtual: an embedded POSIX interpreter (mvdan.cc/sh), no host shell needed
//   - pty: the host shell attached to a pseudo terminal (unix only)
//
// Output of a running step is read line by line on a reader goroutine and
// handed to the engine's control loop over a channel. The control loop is the
// only goroutine touching the trailing buffer and the variable table; it
// multiplexes output lines, process exit and a refresh ticker with select.
//
// Every step produces a [StepOutcome] (Success, Failure or Ignored) that is
// forwarded to a [Recorder] regardless of silence, and the engine reports
// progress to a [Presenter] as a stream of [Event] values.
package runtime
