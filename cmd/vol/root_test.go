// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/pluttan/volumes/internal/app/execute"
	"github.com/pluttan/volumes/internal/runtime"
	"github.com/pluttan/volumes/internal/testutil"
)

type testEnv struct {
	dir    string
	table  string
	log    string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	app    *App
}

// newTestEnv writes a task table whose [config] section selects the
// embedded shell and a log file inside the test directory.
func newTestEnv(t *testing.T, tasks string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	logPath := filepath.ToSlash(filepath.Join(dir, "vol.log"))
	content := tasks + fmt.Sprintf(`
[config]
shell = "virtual"
log_file = %q
show_time = false
`, logPath)

	env := &testEnv{
		dir:    dir,
		table:  testutil.WriteFile(t, dir, "vol.toml", content),
		log:    logPath,
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	env.app = NewApp(Dependencies{
		Stdout:    env.stdout,
		Stderr:    env.stderr,
		Env:       []string{"HOME=" + dir},
		ConfigDir: t.TempDir(),
	})
	return env
}

func (e *testEnv) run(args ...string) error {
	root := NewRootCommand(e.app)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

// out returns stdout without styling.
func (e *testEnv) out() string { return ansi.Strip(e.stdout.String()) }

// errOut returns stderr without styling.
func (e *testEnv) errOut() string { return ansi.Strip(e.stderr.String()) }

func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if err != nil {
		return -1
	}
	return 0
}

const tasks = `
[build]
description = "Build"
commands = ["echo hello"]

[test]
depends = ["build"]
commands = ["echo testing"]

[broken]
commands = ["exit 3", "echo unreachable"]
`

func TestRoot_RunsTask(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, tasks)
	if err := env.run("-c", env.table, "test"); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, env.stderr)
	}

	out := env.out()
	for _, want := range []string{"Volumes", "[OK   ]", "Build", "echo testing"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Build") > strings.Index(out, "echo testing") {
		t.Errorf("dependency should run first:\n%s", out)
	}

	data, err := os.ReadFile(env.log)
	if err != nil {
		t.Fatalf("reading run log: %v", err)
	}
	if got := strings.Count(string(data), "SUCCESS"); got != 2 {
		t.Errorf("run log has %d SUCCESS records, want 2:\n%s", got, data)
	}
}

func TestRoot_StepFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, tasks)
	err := env.run("-c", env.table, "broken")
	if code := exitCode(err); code != ExitFailure {
		t.Fatalf("exit code = %d (%v), want %d", code, err, ExitFailure)
	}

	out := env.out()
	if !strings.Contains(out, "exit 3") || !strings.Contains(out, "Execution stopped because of an error") {
		t.Errorf("stdout should show the failure and footer:\n%s", out)
	}
	if strings.Contains(out, "unreachable") {
		t.Errorf("steps after a failure must not run:\n%s", out)
	}
}

func TestRoot_SilentStepFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, `
[quiet]
commands = [{ cmd = "echo hidden; exit 4", silent = true }, "echo unreachable"]
`)
	err := env.run("-c", env.table, "quiet")
	if code := exitCode(err); code != ExitFailure {
		t.Fatalf("exit code = %d (%v), want %d", code, err, ExitFailure)
	}

	if out := env.out(); strings.Contains(out, "hidden") || strings.Contains(out, "unreachable") {
		t.Errorf("silent step output leaked to stdout:\n%s", out)
	}
	stderr := env.errOut()
	for _, want := range []string{`silent step of task "quiet" failed with exit code 4`, env.log} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
}

func TestReportSilentFailure_IgnoresVisibleSteps(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	reportSilentFailure(&buf, &execute.StepFailedError{Outcome: runtime.StepOutcome{Task: "build", ExitCode: 2}}, "vol.log")
	reportSilentFailure(&buf, errors.New("boom"), "vol.log")
	if buf.Len() != 0 {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestRoot_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       func(env *testEnv) []string
		wantCode   int
		wantStderr string
	}{
		{
			name:       "unknown task",
			args:       func(env *testEnv) []string { return []string{"-c", env.table, "deploy"} },
			wantCode:   ExitFailure,
			wantStderr: "Error:",
		},
		{
			name:       "missing table",
			args:       func(env *testEnv) []string { return []string{"-c", filepath.Join(env.dir, "none.toml"), "build"} },
			wantCode:   ExitFailure,
			wantStderr: "task table not found",
		},
		{
			name:       "missing recipe",
			args:       func(env *testEnv) []string { return []string{"-f", filepath.Join(env.dir, "Makefile"), "make:all"} },
			wantCode:   ExitFailure,
			wantStderr: "recipe not found",
		},
		{
			name:     "two tasks",
			args:     func(env *testEnv) []string { return []string{"-c", env.table, "build", "test"} },
			wantCode: ExitUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, tasks)
			err := env.run(tt.args(env)...)
			if code := exitCode(err); code != tt.wantCode {
				t.Fatalf("exit code = %d (%v), want %d", code, err, tt.wantCode)
			}
			if tt.wantStderr != "" && !strings.Contains(env.errOut(), tt.wantStderr) {
				t.Errorf("stderr missing %q:\n%s", tt.wantStderr, env.stderr)
			}
		})
	}
}

func TestRoot_Overrides(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, `
[greet]
commands = ["echo hi $NAME"]
`)
	if err := env.run("-c", env.table, "greet", "NAME=vol"); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, env.stderr)
	}
	if !strings.Contains(env.out(), "echo hi vol") {
		t.Errorf("override not applied:\n%s", env.stdout)
	}
}

func TestRoot_DryRun(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, tasks)
	if err := env.run("-c", env.table, "--dry-run", "test"); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, env.stderr)
	}

	out := env.out()
	for _, want := range []string{"Plan for test", "2 task(s), 2 step(s)", "1. build", "2. test", "echo hello"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(env.log); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("dry run must not open the run log, stat err = %v", err)
	}
}

func TestRoot_NoTargetPrintsHelpAndList(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, tasks)
	if err := env.run("-c", env.table); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := env.out()
	if !strings.Contains(out, "Usage:") || !strings.Contains(out, "TASK") || !strings.Contains(out, "broken") {
		t.Errorf("expected help followed by the task list:\n%s", out)
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, tasks)
	recipe := testutil.WriteFile(t, env.dir, "Makefile", "## Compile\nall: build\nbuild:\n\techo cc\n")

	if err := env.run("list", "-c", env.table, "-f", recipe); err != nil {
		t.Fatalf("list: %v", err)
	}
	out := env.out()
	for _, want := range []string{"TASK", "DESCRIPTION", "build", "Build", "make:all", "Compile", "make"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestList_Empty(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	renderList(&stdout, &stderr, nil)
	if !strings.Contains(ansi.Strip(stdout.String()), "No tasks found.") {
		t.Errorf("unexpected output:\n%s", stdout.String())
	}
}

func TestGetVersionString(t *testing.T) {
	t.Parallel()

	if got := getVersionString(); got != "dev (built from source)" {
		t.Errorf("getVersionString() = %q", got)
	}
}
