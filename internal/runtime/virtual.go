// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

type (
	// VirtualShell runs steps with the embedded mvdan.cc/sh interpreter.
	VirtualShell struct {
		// Dir is the working directory used by Capture.
		Dir string
		// Env is the environment used by Capture. Nil means the process environment.
		Env []string
	}

	virtualResult struct {
		code ExitCode
		err  error
	}

	virtualProcess struct {
		output *io.PipeReader
		done   chan virtualResult
	}
)

// Name returns the shell name.
func (s *VirtualShell) Name() string {
	return "virtual"
}

// Start parses cmd and runs it on an interpreter goroutine. A syntax error
// is reported as a spawn failure.
func (s *VirtualShell) Start(ctx context.Context, cmd Command) (Process, error) {
	prog, err := parseScript(cmd.Text)
	if err != nil {
		return nil, err
	}

	r, w := io.Pipe()
	runner, err := newRunner(cmd.Dir, cmd.Env, w, w)
	if err != nil {
		return nil, err
	}

	p := &virtualProcess{output: r, done: make(chan virtualResult, 1)}
	go func() {
		code, runErr := interpreterExit(runner.Run(context.WithoutCancel(ctx), prog))
		_ = w.Close()
		p.done <- virtualResult{code: code, err: runErr}
	}()
	return p, nil
}

// Capture runs command and returns its standard output.
func (s *VirtualShell) Capture(ctx context.Context, command string) (string, error) {
	prog, err := parseScript(command)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	runner, err := newRunner(s.Dir, s.Env, &out, io.Discard)
	if err != nil {
		return "", err
	}
	code, err := interpreterExit(runner.Run(ctx, prog))
	if err != nil {
		return "", err
	}
	if !code.IsSuccess() {
		return out.String(), fmt.Errorf("exit status %s", code)
	}
	return out.String(), nil
}

func parseScript(text string) (*syntax.File, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(text), "")
	if err != nil {
		return nil, fmt.Errorf("script syntax error: %w", err)
	}
	return prog, nil
}

func newRunner(dir string, env []string, stdout, stderr io.Writer) (*interp.Runner, error) {
	if env == nil {
		env = os.Environ()
	}
	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, stdout, stderr),
	}
	if dir != "" {
		opts = append(opts, interp.Dir(dir))
	}
	runner, err := interp.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create interpreter: %w", err)
	}
	return runner, nil
}

// interpreterExit converts the error returned by Runner.Run.
func interpreterExit(err error) (ExitCode, error) {
	if err == nil {
		return 0, nil
	}
	var status interp.ExitStatus
	if errors.As(err, &status) {
		return ExitCode(status), nil
	}
	return 1, err
}

func (p *virtualProcess) Output() io.Reader { return p.output }

func (p *virtualProcess) Wait() (ExitCode, error) {
	res := <-p.done
	return res.code, res.err
}

func (p *virtualProcess) Close() error {
	return p.output.Close()
}
