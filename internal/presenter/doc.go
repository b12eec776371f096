// SPDX-License-Identifier: MPL-2.0

// Package presenter renders engine events on a terminal.
//
// Every finished step becomes one status line:
//
//	[OK   ] [15:04:05] [build ] go build ./... (1.2s)
//
// On an interactive terminal a running step additionally gets a live view: a
// status line, a bordered panel with the trailing output and progress bars.
// The view is redrawn in place and replaced by the final status line once the
// step ends. Non-terminal output only receives the final lines.
package presenter
