// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

// binaryPath is the vol binary built by TestMain.
var binaryPath string

func TestMain(m *testing.M) {
	wd, err := os.Getwd()
	if err != nil {
		panic("failed to get working directory: " + err.Error())
	}

	binDir, err := os.MkdirTemp("", "vol-bin-")
	if err != nil {
		panic("failed to create bin directory: " + err.Error())
	}

	binaryName := "vol"
	if runtime.GOOS == "windows" {
		binaryName = "vol.exe"
	}
	binaryPath = filepath.Join(binDir, binaryName)

	build := exec.CommandContext(context.Background(), "go", "build", "-o", binaryPath, ".")
	build.Dir = wd
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		panic("failed to build vol: " + err.Error())
	}

	code := m.Run()
	os.RemoveAll(binDir)
	os.Exit(code)
}

// TestCLI runs the testscript scenarios in testdata/script. Every scenario
// uses the embedded shell, hides timestamps and keeps the run log and user
// configuration inside $WORK.
func TestCLI(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: filepath.Join("testdata", "script"),
		Setup: func(env *testscript.Env) error {
			env.Setenv("PATH", filepath.Dir(binaryPath)+string(os.PathListSeparator)+env.Getenv("PATH"))
			env.Setenv("HOME", env.WorkDir)
			env.Setenv("XDG_CONFIG_HOME", filepath.Join(env.WorkDir, ".config"))
			env.Setenv("VOL_SHELL", "virtual")
			env.Setenv("VOL_SHOW_TIME", "false")
			env.Setenv("VOL_LOG_FILE", filepath.Join(env.WorkDir, "vol.log"))
			return nil
		},
		ContinueOnError: true,
	})
}
