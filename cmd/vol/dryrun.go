// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/pluttan/volumes/internal/app/execute"
	"github.com/pluttan/volumes/internal/dag"
)

// renderDryRun prints the resolved plan: every task in execution order with
// its steps expanded as they would run.
func renderDryRun(ctx context.Context, w io.Writer, p *execute.Prepared) {
	vars := p.Vars.With(p.Overrides)

	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Plan for"), CmdStyle.Render(p.Target))
	fmt.Fprintln(w, SubtitleStyle.Render(fmt.Sprintf("%s %s, %d task(s), %d step(s)",
		p.Kind, p.Path, len(p.Order), dag.CountSteps(p.Graph, p.Order))))

	for i, name := range p.Order {
		task, ok := p.Graph.Get(name)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "\n%d. %s", i+1, TitleStyle.Render(name))
		if desc := taskDescription(task); desc != "" {
			fmt.Fprintf(w, " %s", SubtitleStyle.Render(desc))
		}
		fmt.Fprintln(w)

		for _, step := range task.Steps {
			if !step.Runnable() {
				fmt.Fprintf(w, "   %s %s\n", VerboseStyle.Render("info"), p.Expander.ExpandContext(ctx, step.Label(), vars))
				continue
			}
			line := "   " + CmdStyle.Render(p.Expander.ExpandContext(ctx, step.Command, vars))
			if step.EffectiveIgnoreErrors(task.IgnoreErrors) {
				line += " " + WarningStyle.Render("[ignore errors]")
			}
			if step.Silent {
				line += " " + VerboseStyle.Render("[silent]")
			}
			fmt.Fprintln(w, line)
		}
	}
}
