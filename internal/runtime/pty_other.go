// SPDX-License-Identifier: MPL-2.0

//go:build windows

package runtime

import (
	"context"
	"errors"
)

// ErrPtyUnsupported is returned by PtyShell.Start on platforms without pseudo terminals.
var ErrPtyUnsupported = errors.New("pty shell is not supported on this platform")

// PtyShell is unavailable on Windows; Start always fails.
type PtyShell struct {
	NativeShell
}

// Name returns the shell name.
func (s *PtyShell) Name() string {
	return "pty"
}

// Start reports ErrPtyUnsupported.
func (s *PtyShell) Start(context.Context, Command) (Process, error) {
	return nil, ErrPtyUnsupported
}
