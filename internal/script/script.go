// SPDX-License-Identifier: MPL-2.0

// Package script parses annotated shell scripts into a single-task graph.
//
//	make build # Build the project        fatal on failure
//	make lint ## Lint (best effort)       failure is ignored
//	{
//	  cd docs
//	  make html
//	} # Build the docs                    multi-line block
//	{ rm -rf tmp }                        block without comment runs silently
//
// Whole-line comments are skipped, which includes the shebang and any inline
// configuration block.
package script

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pluttan/volumes/internal/recipe"
	"github.com/pluttan/volumes/pkg/taskgraph"
)

// maxLabelRunes bounds the label derived from an undocumented command.
const maxLabelRunes = 40

type blockState struct {
	line int
	body strings.Builder
}

// ParseFile reads and parses the script at path.
func ParseFile(path string) (*taskgraph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(path, f)
}

// Parse parses a script. The resulting graph holds one task named after the
// file's base name.
func Parse(path string, src io.Reader) (*taskgraph.Graph, error) {
	task := &taskgraph.Task{Name: filepath.Base(path)}
	task.Description = task.Name

	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var (
		block *blockState
		n     int
	)
	for sc.Scan() {
		n++
		line := strings.TrimSuffix(sc.Text(), "\r")

		if block != nil {
			body, rest, closed := strings.Cut(line, "}")
			block.body.WriteString(body)
			if !closed {
				block.body.WriteByte('\n')
				continue
			}
			task.Steps = append(task.Steps, blockStep(block.body.String(), rest))
			block = nil
			continue
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "", strings.HasPrefix(trimmed, "#"):
			continue
		case strings.HasPrefix(trimmed, "{"):
			body, rest, closed := strings.Cut(trimmed[1:], "}")
			if closed {
				task.Steps = append(task.Steps, blockStep(body, rest))
				continue
			}
			block = &blockState{line: n}
			block.body.WriteString(body)
			block.body.WriteByte('\n')
		default:
			if s, ok := commandStep(trimmed); ok {
				task.Steps = append(task.Steps, s)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if block != nil {
		return nil, &taskgraph.MalformedRecipeError{Path: path, Line: block.line, Reason: "unclosed block in braces"}
	}

	g := taskgraph.NewGraph(path, taskgraph.SourceScript)
	g.Add(task)
	return g, nil
}

// annotation interprets the text after a '#'. A second '#' marks the step as
// tolerant of failure.
func annotation(comment string) (desc string, ignore bool) {
	if rest, ok := strings.CutPrefix(comment, "#"); ok {
		return strings.TrimSpace(rest), true
	}
	return comment, false
}

func commandStep(line string) (taskgraph.Step, bool) {
	cmd, comment, found := recipe.SplitComment(line)
	if cmd == "" {
		return taskgraph.Step{}, false
	}
	if !found {
		return taskgraph.Step{Command: cmd, Description: truncateLabel(cmd), IgnoreErrors: taskgraph.Bool(false)}, true
	}
	desc, ignore := annotation(comment)
	if desc == "" {
		desc = truncateLabel(cmd)
	}
	return taskgraph.Step{Command: cmd, Description: desc, IgnoreErrors: taskgraph.Bool(ignore)}, true
}

// blockStep builds the step for a {...} block. rest is the text after the
// closing brace on its line.
func blockStep(body, rest string) taskgraph.Step {
	s := taskgraph.Step{Command: strings.TrimSpace(body), IgnoreErrors: taskgraph.Bool(false)}
	rest = strings.TrimSpace(rest)
	comment, ok := strings.CutPrefix(rest, "#")
	if !ok {
		s.Silent = true
		return s
	}
	desc, ignore := annotation(strings.TrimSpace(comment))
	s.Description = desc
	s.IgnoreErrors = taskgraph.Bool(ignore)
	return s
}

func truncateLabel(cmd string) string {
	runes := []rune(cmd)
	if len(runes) <= maxLabelRunes {
		return cmd
	}
	return string(runes[:maxLabelRunes]) + "..."
}
