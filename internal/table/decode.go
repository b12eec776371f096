// SPDX-License-Identifier: MPL-2.0

package table

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pluttan/volumes/pkg/taskgraph"
)

var errMustBeStrings = errors.New("must be a list of strings")

type (
	// entry is one top-level table in document order.
	entry struct {
		name  string
		value any
	}

	// fieldError is a decode problem inside a task, reported with the task name.
	fieldError struct {
		task   string
		field  string
		reason string
	}
)

func (e *fieldError) Error() string {
	if e.field == "" {
		return fmt.Sprintf("task %q: %s", e.task, e.reason)
	}
	return fmt.Sprintf("task %q: %s: %s", e.task, e.field, e.reason)
}

// buildDocument turns decoded top-level entries into a Document. Entries that
// are not tables are ignored, matching how a task table mixes tasks with
// scalar metadata.
func buildDocument(path string, format Format, entries []entry) (*Document, error) {
	doc := &Document{
		Graph:  taskgraph.NewGraph(path, taskgraph.SourceTable),
		Format: format,
	}
	sections := make(map[string]map[string]any)

	for _, e := range entries {
		table, ok := asTable(e.value)
		if !ok {
			continue
		}
		if isConfigSection(e.name) {
			sections[e.name] = table
			continue
		}
		task, err := decodeTask(e.name, table)
		if err != nil {
			return nil, &taskgraph.MalformedRecipeError{Path: path, Reason: err.Error()}
		}
		doc.Graph.Add(task)
	}
	doc.Config = pickConfig(sections)
	return doc, nil
}

func decodeTask(name string, raw map[string]any) (*taskgraph.Task, error) {
	task := &taskgraph.Task{Name: name, Description: name}

	if v, ok := raw["description"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, &fieldError{task: name, field: "description", reason: "must be a string"}
		}
		if s != "" {
			task.Description = s
		}
	}

	if v, ok := raw["depends"]; ok {
		deps, err := asStringList(v)
		if err != nil {
			return nil, &fieldError{task: name, field: "depends", reason: err.Error()}
		}
		task.Depends = deps
	}

	var err error
	if task.IgnoreErrors, err = optionalBool(raw, "ignore_errors"); err != nil {
		return nil, &fieldError{task: name, field: "ignore_errors", reason: err.Error()}
	}
	silent, err := optionalBool(raw, "silent")
	if err != nil {
		return nil, &fieldError{task: name, field: "silent", reason: err.Error()}
	}

	v, ok := raw["commands"]
	if !ok {
		return task, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, &fieldError{task: name, field: "commands", reason: "must be a list"}
	}
	for i, item := range items {
		step, keep, err := decodeStep(task, item, silent)
		if err != nil {
			return nil, &fieldError{task: name, field: fmt.Sprintf("commands[%d]", i), reason: err.Error()}
		}
		if keep {
			task.Steps = append(task.Steps, step)
		}
	}
	return task, nil
}

// decodeStep converts a command item, either a string or a table with cmd,
// desc, ignore_errors and silent. Empty commands are dropped.
func decodeStep(task *taskgraph.Task, item any, taskSilent bool) (taskgraph.Step, bool, error) {
	switch v := item.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return taskgraph.Step{}, false, nil
		}
		return taskgraph.Step{Command: v, Description: task.Description, Silent: taskSilent}, true, nil
	default:
		table, ok := asTable(item)
		if !ok {
			return taskgraph.Step{}, false, fmt.Errorf("must be a string or a table, got %T", item)
		}
		var cmd string
		if v, present := table["cmd"]; present {
			s, ok := v.(string)
			if !ok {
				return taskgraph.Step{}, false, errors.New("cmd must be a string")
			}
			cmd = s
		}
		if strings.TrimSpace(cmd) == "" {
			return taskgraph.Step{}, false, nil
		}
		step := taskgraph.Step{Command: cmd, Description: cmd, Silent: taskSilent}
		if desc, ok := table["desc"].(string); ok && desc != "" {
			step.Description = desc
		}
		if v, ok := table["ignore_errors"]; ok {
			b, ok := v.(bool)
			if !ok {
				return taskgraph.Step{}, false, errors.New("ignore_errors must be a boolean")
			}
			step.IgnoreErrors = taskgraph.Bool(b)
		}
		if v, ok := table["silent"]; ok {
			b, ok := v.(bool)
			if !ok {
				return taskgraph.Step{}, false, errors.New("silent must be a boolean")
			}
			step.Silent = b
		}
		return step, true, nil
	}
}

func asTable(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func asStringList(v any) ([]string, error) {
	switch t := v.(type) {
	case string:
		return strings.Fields(t), nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, errMustBeStrings
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, errMustBeStrings
	}
}

func optionalBool(raw map[string]any, key string) (bool, error) {
	v, ok := raw[key]
	if !ok {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, errors.New("must be a boolean")
	}
	return b, nil
}
