// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"context"
	"path/filepath"
	"slices"

	"github.com/pluttan/volumes/internal/expr"
	"github.com/pluttan/volumes/internal/recipe"
	"github.com/pluttan/volumes/internal/script"
	"github.com/pluttan/volumes/internal/table"
	"github.com/pluttan/volumes/pkg/taskgraph"
)

// ScriptPattern matches the scripts offered by Discover.
const ScriptPattern = "*.sh"

// Document is one parsed (or unparsable) task document.
type Document struct {
	Kind  Kind
	Path  string
	Graph *taskgraph.Graph
	// Err is the parse error. Graph is nil when it is set.
	Err error
}

// Discover parses every document available to req: the task table, the
// recipe and the scripts in req.Dir. Missing documents are skipped. Recipe
// variables are expanded without a shell, so $(shell ...) reads as empty.
func (o *Orchestrator) Discover(ctx context.Context, req Request) []Document {
	var docs []Document

	if path := tablePath(req); isRegularFile(path) {
		d := Document{Kind: KindTable, Path: path}
		if doc, err := table.ParseFile(path, table.WithEnv(o.opts.Env)); err != nil {
			d.Err = err
		} else {
			d.Graph = doc.Graph
		}
		docs = append(docs, d)
	}

	if path := recipePath(req); isRegularFile(path) {
		d := Document{Kind: KindRecipe, Path: path}
		graph, _, err := recipe.ParseFile(ctx, path,
			recipe.WithEvaluator(expr.New(expr.WithLogger(o.opts.Logger))),
			recipe.WithOverrides(req.Overrides),
			recipe.WithLogger(o.opts.Logger),
		)
		if err != nil {
			d.Err = err
		} else {
			d.Graph = graph
		}
		docs = append(docs, d)
	}

	dir := req.Dir
	if dir == "" {
		dir = "."
	}
	matches, err := filepath.Glob(filepath.Join(dir, ScriptPattern))
	if err != nil {
		o.warn("listing scripts", "dir", dir, "err", err)
	}
	slices.Sort(matches)
	for _, path := range matches {
		if !isRegularFile(path) {
			continue
		}
		d := Document{Kind: KindScript, Path: path}
		if graph, err := script.ParseFile(path); err != nil {
			d.Err = err
		} else {
			d.Graph = graph
		}
		docs = append(docs, d)
	}

	o.debug("discovered documents", "count", len(docs))
	return docs
}

// Invocation returns the argument that runs task name from d.
func (d Document) Invocation(name string) string {
	switch d.Kind {
	case KindRecipe:
		return RecipePrefix + name
	case KindScript:
		return d.Path
	default:
		return name
	}
}
