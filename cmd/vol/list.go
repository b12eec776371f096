// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/pluttan/volumes/internal/app/execute"
	"github.com/pluttan/volumes/internal/expr"
	"github.com/pluttan/volumes/pkg/taskgraph"
)

func newListCommand(app *App, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks, make: targets and scripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, app, flags, nil)
		},
	}
}

func runList(cmd *cobra.Command, app *App, flags *rootFlags, overrides expr.Vars) error {
	docs := app.orchestrator(flags).Discover(cmd.Context(), request(flags, "", overrides))
	renderList(app.stdout, app.stderr, docs)
	return nil
}

// renderList prints one row per runnable task. Documents that failed to
// parse are reported on stderr and skipped.
func renderList(stdout, stderr io.Writer, docs []execute.Document) {
	var rows [][]string
	for _, d := range docs {
		if d.Err != nil {
			fmt.Fprintf(stderr, "%s %s: %s\n", warningIcon, d.Path, d.Err)
			continue
		}
		for _, task := range d.Graph.Tasks() {
			rows = append(rows, []string{
				d.Invocation(task.Name),
				string(d.Kind),
				taskDescription(task),
				strings.Join(task.Depends, ", "),
			})
		}
	}

	if len(rows) == 0 {
		fmt.Fprintln(stdout, SubtitleStyle.Render("No tasks found."))
		fmt.Fprintf(stdout, "Create a %s, a %s or a %s script.\n",
			CmdStyle.Render("vol.toml"), CmdStyle.Render(execute.DefaultRecipePath), CmdStyle.Render(execute.ScriptPattern))
		return
	}

	t := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(listBorderStyle).
		Headers("TASK", "TYPE", "DESCRIPTION", "DEPENDS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == ltable.HeaderRow:
				return listHeaderStyle
			case col == 0:
				return listCellStyle.Foreground(ColorHighlight)
			case col == 1:
				return listCellStyle.Foreground(ColorMuted)
			}
			return listCellStyle
		})
	fmt.Fprintln(stdout, t.Render())
}

// taskDescription hides descriptions that merely repeat the task name.
func taskDescription(task *taskgraph.Task) string {
	if task.Description == task.Name {
		return ""
	}
	return task.Description
}
