// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"time"
)

// captureWaitDelay bounds how long Capture waits for output pipes held open
// by background grandchildren after the shell itself has exited.
const captureWaitDelay = time.Second

// ErrNoShell is returned when no host shell can be located.
var ErrNoShell = errors.New("no shell found")

type (
	// NativeShell runs steps through the host shell.
	NativeShell struct {
		// Path overrides shell lookup.
		Path string
		// Dir is the working directory used by Capture.
		Dir string
		// Env is the environment used by Capture. Nil means the process environment.
		Env []string
	}

	nativeProcess struct {
		cmd    *exec.Cmd
		output *os.File
	}
)

// Name returns the shell name.
func (s *NativeShell) Name() string {
	return "native"
}

// Start spawns cmd with stdout and stderr merged into one pipe.
func (s *NativeShell) Start(_ context.Context, cmd Command) (Process, error) {
	c, err := s.command(cmd.Text)
	if err != nil {
		return nil, err
	}
	c.Dir = cmd.Dir
	c.Env = cmd.Env

	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	c.Stdout = w
	c.Stderr = w
	if err := c.Start(); err != nil {
		_ = r.Close()
		_ = w.Close()
		return nil, err
	}
	// The child holds its own copy of the write end.
	_ = w.Close()
	return &nativeProcess{cmd: c, output: r}, nil
}

// Capture runs command and returns its standard output.
func (s *NativeShell) Capture(ctx context.Context, command string) (string, error) {
	shell, err := s.lookup()
	if err != nil {
		return "", err
	}
	c := exec.CommandContext(ctx, shell, append(shellArgs(shell), command)...)
	c.Dir = s.Dir
	c.Env = s.Env
	c.WaitDelay = captureWaitDelay
	out, err := c.Output()
	return string(out), err
}

func (s *NativeShell) command(text string) (*exec.Cmd, error) {
	shell, err := s.lookup()
	if err != nil {
		return nil, err
	}
	return exec.Command(shell, append(shellArgs(shell), text)...), nil
}

// Resolve returns the absolute path of the shell steps will run through.
func (s *NativeShell) Resolve() (string, error) {
	shell, err := s.lookup()
	if err != nil {
		return "", err
	}
	path, err := exec.LookPath(shell)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoShell, shell)
	}
	return path, nil
}

// lookup determines which shell to use: Path when set, otherwise the
// platform's POSIX shell (PowerShell or cmd on Windows).
func (s *NativeShell) lookup() (string, error) {
	if s.Path != "" {
		return s.Path, nil
	}

	switch goruntime.GOOS {
	case "windows":
		if pwsh, err := exec.LookPath("pwsh"); err == nil {
			return pwsh, nil
		}
		if ps, err := exec.LookPath("powershell"); err == nil {
			return ps, nil
		}
		if cmd, err := exec.LookPath("cmd"); err == nil {
			return cmd, nil
		}
		return "", ErrNoShell
	default:
		// $SHELL is the login shell and may not be POSIX; steps are.
		if sh, err := exec.LookPath("sh"); err == nil {
			return sh, nil
		}
		if bash, err := exec.LookPath("bash"); err == nil {
			return bash, nil
		}
		return "", ErrNoShell
	}
}

// shellArgs returns the arguments placed before the command text.
func shellArgs(shell string) []string {
	base := filepath.Base(shell)
	if i := strings.LastIndex(base, `\`); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(strings.ToLower(base), ".exe")

	switch base {
	case "cmd":
		return []string{"/C"}
	case "powershell", "pwsh":
		return []string{"-NoProfile", "-Command"}
	default:
		return []string{"-c"}
	}
}

func (p *nativeProcess) Output() io.Reader { return p.output }

func (p *nativeProcess) Wait() (ExitCode, error) {
	return exitCodeFromWait(p.cmd.Wait())
}

func (p *nativeProcess) Close() error {
	return p.output.Close()
}
