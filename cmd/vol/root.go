// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pluttan/volumes/internal/app/execute"
	"github.com/pluttan/volumes/internal/expr"
	"github.com/pluttan/volumes/internal/issue"
	"github.com/pluttan/volumes/internal/table"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlags holds the flags shared by the root command and its subcommands.
type rootFlags struct {
	tablePath  string
	recipePath string
	configFile string
	verbose    bool
	list       bool
	noLive     bool
	dryRun     bool
	watch      bool
	watchGlobs []string
}

// NewRootCommand builds the vol command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "vol [task | make:target | script] [KEY=value...]",
		Short: "Run tasks, Makefile targets and scripts with a live terminal view",
		Long: TitleStyle.Render("vol") + SubtitleStyle.Render(" - run tasks with a live terminal view") + `

vol runs one of three kinds of task:

  a task from the task table (vol.toml, vol.yaml or vol.hcl)
  a Makefile target, selected with the make: prefix
  an annotated shell script, selected by its path

Dependencies run first, each step shows its status, elapsed time and the
tail of its output, and every step is recorded in the run log.

` + SubtitleStyle.Render("Examples:") + `
  vol                     List the available tasks
  vol build               Run the 'build' task from vol.toml
  vol make:all CC=clang   Run the Makefile target 'all' with CC overridden
  vol ./deploy.sh         Run an annotated script
  vol validate            Check every task document for errors`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, app, flags, args)
		},
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.tablePath, "config", "c", table.DefaultPath, "task table (.toml, .yaml or .hcl)")
	pf.StringVarP(&flags.recipePath, "file", "f", execute.DefaultRecipePath, "recipe used by make: targets")
	pf.StringVar(&flags.configFile, "config-file", "", "user config file (default is <config dir>/vol/config.cue)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.Flags().BoolVarP(&flags.list, "list", "l", false, "list the available tasks")
	rootCmd.Flags().BoolVar(&flags.noLive, "no-live", false, "print final status lines only")
	rootCmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "print the resolved plan without running it")
	rootCmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "run again whenever files in the current directory change")
	rootCmd.Flags().StringSliceVar(&flags.watchGlobs, "watch-pattern", nil, "glob selecting the files --watch reacts to (repeatable)")

	rootCmd.AddCommand(
		newListCommand(app, flags),
		newValidateCommand(app, flags),
		newConfigCommand(app, flags),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the vol command tree. It is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitFailure)
	}
}

func runRoot(cmd *cobra.Command, app *App, flags *rootFlags, args []string) error {
	overrides, positional := expr.ParseAssignments(args)
	if flags.verbose {
		app.logger.SetLevel(log.DebugLevel)
	}

	if flags.list {
		return runList(cmd, app, flags, overrides)
	}

	switch len(positional) {
	case 0:
		if err := cmd.Help(); err != nil {
			return err
		}
		fmt.Fprintln(app.stdout)
		return runList(cmd, app, flags, overrides)
	case 1:
	default:
		return &ExitError{
			Code: ExitUsage,
			Err:  fmt.Errorf("expected one task, got %d: %s", len(positional), strings.Join(positional, " ")),
		}
	}

	ctx := cmd.Context()
	orch := app.orchestrator(flags)

	req := request(flags, positional[0], overrides)
	prepared, err := orch.Prepare(ctx, req)
	if err != nil {
		return app.fail(cmd, err, flags.verbose)
	}
	verbose := flags.verbose || prepared.Config.Verbose
	if verbose {
		app.logger.SetLevel(log.DebugLevel)
	}

	if flags.dryRun {
		renderDryRun(ctx, app.stdout, prepared)
		return nil
	}
	if flags.watch {
		return runWatch(cmd, app, flags, orch, req, prepared)
	}

	if _, err := orch.Execute(ctx, prepared); err != nil {
		if errors.Is(err, execute.ErrStepFailed) {
			// The presenter showed the failing step unless it was silent.
			app.logger.Debug("run failed", "err", err)
			reportSilentFailure(app.stderr, err, prepared.Config.LogFile)
			if verbose {
				renderServiceError(app.stderr, app.logger, newServiceError(err, issue.StepFailedId, ""))
			}
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			return &ExitError{Code: ExitFailure}
		}
		return app.fail(cmd, err, verbose)
	}
	return nil
}

// reportSilentFailure prints one line for a failed silent step, which the
// presenter does not show.
func reportSilentFailure(w io.Writer, err error, logFile string) {
	var failed *execute.StepFailedError
	if !errors.As(err, &failed) || !failed.Outcome.Silent {
		return
	}
	msg := fmt.Sprintf("silent step of task %q failed with exit code %d", failed.Outcome.Task, int(failed.Outcome.ExitCode))
	if logFile != "" {
		msg += ", see " + logFile
	}
	fmt.Fprintf(w, "%s %s\n", errorIcon, msg)
}

// fail renders err with its issue help and silences cobra's own reporting.
func (a *App) fail(cmd *cobra.Command, err error, verbose bool) error {
	issueID, styled := classifyExecutionError(err, verbose)
	renderServiceError(a.stderr, a.logger, newServiceError(err, issueID, styled))
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return &ExitError{Code: ExitFailure}
}
