// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pluttan/volumes/internal/app/execute"
	"github.com/pluttan/volumes/internal/watch"
)

// runWatch runs the prepared plan, then prepares and runs it again after
// every change until interrupted. Failures are reported and the watch goes
// on.
func runWatch(cmd *cobra.Command, app *App, flags *rootFlags, orch *execute.Orchestrator, req execute.Request, first *execute.Prepared) error {
	ctx := cmd.Context()

	w, err := watch.New(watch.Options{
		Patterns: flags.watchGlobs,
		Ignore:   watchIgnores(first.Config.LogFile),
		Logger:   app.logger,
	})
	if err != nil {
		return app.fail(cmd, err, flags.verbose)
	}

	app.runOnce(ctx, orch, first, flags.verbose)
	fmt.Fprintln(app.stderr, SubtitleStyle.Render("Watching for changes. Press Ctrl+C to stop."))

	return w.Run(ctx, func(ctx context.Context, changed []string) {
		app.logger.Info("rerunning", "changed", strings.Join(changed, ", "))
		p, err := orch.Prepare(ctx, req)
		if err != nil {
			issueID, styled := classifyExecutionError(err, flags.verbose)
			renderServiceError(app.stderr, app.logger, newServiceError(err, issueID, styled))
			return
		}
		app.runOnce(ctx, orch, p, flags.verbose)
	})
}

// runOnce executes p and reports its errors without stopping the watch.
func (a *App) runOnce(ctx context.Context, orch *execute.Orchestrator, p *execute.Prepared, verbose bool) {
	_, err := orch.Execute(ctx, p)
	if err == nil || ctx.Err() != nil {
		return
	}
	if errors.Is(err, execute.ErrStepFailed) {
		reportSilentFailure(a.stderr, err, p.Config.LogFile)
		return
	}
	issueID, styled := classifyExecutionError(err, verbose)
	renderServiceError(a.stderr, a.logger, newServiceError(err, issueID, styled))
}

// watchIgnores keeps the run log from retriggering the watch.
func watchIgnores(logFile string) []string {
	if logFile == "" {
		return nil
	}
	rel := logFile
	if filepath.IsAbs(logFile) {
		r, err := filepath.Rel(".", logFile)
		if err != nil {
			return nil
		}
		rel = r
	}
	return []string{filepath.ToSlash(filepath.Clean(rel))}
}
