// SPDX-License-Identifier: MPL-2.0

package table

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/pluttan/volumes/pkg/taskgraph"
)

type (
	hclFile struct {
		Config *hclConfig `hcl:"config,block"`
		Tasks  []hclTask  `hcl:"task,block"`
	}

	hclConfig struct {
		Body hcl.Body `hcl:",remain"`
	}

	hclTask struct {
		Name         string    `hcl:"name,label"`
		Description  *string   `hcl:"description,optional"`
		Depends      []string  `hcl:"depends,optional"`
		IgnoreErrors *bool     `hcl:"ignore_errors,optional"`
		Silent       *bool     `hcl:"silent,optional"`
		Commands     []string  `hcl:"commands,optional"`
		Steps        []hclStep `hcl:"step,block"`
	}

	hclStep struct {
		Cmd          string  `hcl:"cmd"`
		Desc         *string `hcl:"desc,optional"`
		IgnoreErrors *bool   `hcl:"ignore_errors,optional"`
		Silent       *bool   `hcl:"silent,optional"`
	}
)

// parseHCL decodes an HCL task table. Expressions may read environment
// variables through the env object.
func parseHCL(path string, data []byte, env []string) (*Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, diagError(path, diags)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": envObject(env)},
	}

	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, evalCtx, &parsed); diags.HasErrors() {
		return nil, diagError(path, diags)
	}

	doc := &Document{
		Graph:  taskgraph.NewGraph(path, taskgraph.SourceTable),
		Format: FormatHCL,
	}

	if parsed.Config != nil {
		cfg, diags := decodeConfigBody(parsed.Config.Body, evalCtx)
		if diags.HasErrors() {
			return nil, diagError(path, diags)
		}
		doc.Config = cfg
	}

	for _, t := range parsed.Tasks {
		doc.Graph.Add(t.toTask())
	}
	return doc, nil
}

func (t hclTask) toTask() *taskgraph.Task {
	task := &taskgraph.Task{
		Name:        t.Name,
		Description: t.Name,
		Depends:     t.Depends,
	}
	if t.Description != nil && *t.Description != "" {
		task.Description = *t.Description
	}
	if t.IgnoreErrors != nil {
		task.IgnoreErrors = *t.IgnoreErrors
	}
	silent := t.Silent != nil && *t.Silent

	for _, cmd := range t.Commands {
		if strings.TrimSpace(cmd) == "" {
			continue
		}
		task.Steps = append(task.Steps, taskgraph.Step{Command: cmd, Description: task.Description, Silent: silent})
	}
	for _, s := range t.Steps {
		if strings.TrimSpace(s.Cmd) == "" {
			continue
		}
		step := taskgraph.Step{Command: s.Cmd, Description: s.Cmd, Silent: silent, IgnoreErrors: s.IgnoreErrors}
		if s.Desc != nil && *s.Desc != "" {
			step.Description = *s.Desc
		}
		if s.Silent != nil {
			step.Silent = *s.Silent
		}
		task.Steps = append(task.Steps, step)
	}
	return task
}

// decodeConfigBody evaluates the free-form attributes of a config block.
func decodeConfigBody(body hcl.Body, evalCtx *hcl.EvalContext) (map[string]any, hcl.Diagnostics) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	out := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, valDiags := attr.Expr.Value(evalCtx)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		out[name] = ctyToGo(val)
	}
	return out, diags
}

// envObject exposes KEY=value pairs as a cty object.
func envObject(env []string) cty.Value {
	vals := make(map[string]cty.Value, len(env))
	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vals[k] = cty.StringVal(v)
	}
	return cty.ObjectVal(vals)
}

// ctyToGo converts a known cty value into plain Go values suitable for the
// configuration loader.
func ctyToGo(v cty.Value) any {
	if v.IsNull() || !v.IsKnown() {
		return nil
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString()
	case ty == cty.Bool:
		return v.True()
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i
			}
		}
		f, _ := bf.Float64()
		return f
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			out[k.AsString()] = ctyToGo(ev)
		}
		return out
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		var out []any
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			out = append(out, ctyToGo(ev))
		}
		return out
	default:
		return nil
	}
}

// diagError converts HCL diagnostics into a MalformedRecipeError pointing at
// the first error.
func diagError(path string, diags hcl.Diagnostics) error {
	perr := &taskgraph.MalformedRecipeError{Path: path, Reason: diags.Error()}
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		perr.Reason = d.Summary
		if d.Detail != "" {
			perr.Reason = fmt.Sprintf("%s: %s", d.Summary, d.Detail)
		}
		if d.Subject != nil {
			perr.Line = d.Subject.Start.Line
		}
		break
	}
	return perr
}
