// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package runtime

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/creack/pty"
)

type (
	// PtyShell runs steps through the host shell attached to a pseudo
	// terminal, so programs that check isatty keep their colored output.
	PtyShell struct {
		NativeShell
	}

	ptyProcess struct {
		cmd    *exec.Cmd
		master *os.File
	}
)

// Name returns the shell name.
func (s *PtyShell) Name() string {
	return "pty"
}

// Start spawns cmd on a new pseudo terminal.
func (s *PtyShell) Start(_ context.Context, cmd Command) (Process, error) {
	c, err := s.command(cmd.Text)
	if err != nil {
		return nil, err
	}
	c.Dir = cmd.Dir
	c.Env = cmd.Env

	master, err := pty.StartWithSize(c, &pty.Winsize{Rows: 24, Cols: 120})
	if err != nil {
		return nil, err
	}
	return &ptyProcess{cmd: c, master: master}, nil
}

// Output returns the terminal master. Reads fail with EIO once the child
// side is closed, which the engine treats as end of output.
func (p *ptyProcess) Output() io.Reader { return p.master }

func (p *ptyProcess) Wait() (ExitCode, error) {
	return exitCodeFromWait(p.cmd.Wait())
}

func (p *ptyProcess) Close() error {
	return p.master.Close()
}
