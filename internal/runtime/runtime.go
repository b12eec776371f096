// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"fmt"
	"io"
)

// Shell modes accepted by NewShell.
const (
	ShellModeNative  ShellMode = "native"
	ShellModeVirtual ShellMode = "virtual"
	ShellModePty     ShellMode = "pty"
)

type (
	// ShellMode selects a Shell implementation.
	ShellMode string

	// Command is a single step ready to spawn.
	Command struct {
		// Text is the shell source to run.
		Text string
		// Dir is the working directory. Empty means the current directory.
		Dir string
		// Env is the complete child environment as KEY=value pairs.
		Env []string
	}

	// Process is a spawned step.
	Process interface {
		// Output returns the merged stdout/stderr stream. It reaches EOF once
		// every writer has closed.
		Output() io.Reader
		// Wait blocks until the process exits and returns its exit code.
		// A non-nil error means the exit status could not be determined.
		Wait() (ExitCode, error)
		// Close releases the output stream. Pending reads return.
		Close() error
	}

	// Shell spawns step commands.
	Shell interface {
		// Name identifies the shell in logs and diagnostics.
		Name() string
		// Start spawns cmd. An error means nothing was spawned.
		Start(ctx context.Context, cmd Command) (Process, error)
		// Capture runs command to completion and returns its standard output.
		// It honours ctx cancellation, which is how substitution timeouts apply.
		Capture(ctx context.Context, command string) (string, error)
	}

	// ShellOptions configures NewShell.
	ShellOptions struct {
		// Path overrides shell lookup for the native and pty shells.
		Path string
		// Dir is the working directory used by Capture.
		Dir string
		// Env is the environment used by Capture. Nil means the process environment.
		Env []string
	}

	// InvalidShellModeError is returned by NewShell for an unknown mode.
	InvalidShellModeError struct {
		Value ShellMode
	}
)

func (e *InvalidShellModeError) Error() string {
	return fmt.Sprintf("invalid shell mode %q (valid: native, virtual, pty)", e.Value)
}

// NewShell builds the Shell for mode.
func NewShell(mode ShellMode, opts ShellOptions) (Shell, error) {
	switch mode {
	case ShellModeNative, "":
		return &NativeShell{Path: opts.Path, Dir: opts.Dir, Env: opts.Env}, nil
	case ShellModeVirtual:
		return &VirtualShell{Dir: opts.Dir, Env: opts.Env}, nil
	case ShellModePty:
		return &PtyShell{NativeShell: NativeShell{Path: opts.Path, Dir: opts.Dir, Env: opts.Env}}, nil
	default:
		return nil, &InvalidShellModeError{Value: mode}
	}
}
