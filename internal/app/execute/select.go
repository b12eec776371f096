// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pluttan/volumes/internal/expr"
	"github.com/pluttan/volumes/internal/table"
)

const (
	KindTable  Kind = "task"
	KindRecipe Kind = "make"
	KindScript Kind = "script"

	// RecipePrefix selects a recipe target: vol make:<target>.
	RecipePrefix = "make:"
	// DefaultRecipePath is the recipe used when none is selected.
	DefaultRecipePath = "Makefile"
)

type (
	// Kind names the front-end that handles a request.
	Kind string

	// Request is one vol invocation.
	Request struct {
		// Target is the raw task argument: a table task, make:<target> or
		// the path of a script.
		Target string
		// Overrides are the KEY=value arguments.
		Overrides expr.Vars
		// TablePath is the task table. Empty means table.DefaultPath.
		TablePath string
		// RecipePath is the recipe. Empty means DefaultRecipePath.
		RecipePath string
		// Dir is the working directory of every step. Empty means the
		// current directory.
		Dir string
	}

	// Selection is the front-end, document and target chosen for a Request.
	Selection struct {
		Kind Kind
		// Path is the document to parse.
		Path string
		// Target is the task name inside the document. For recipes an empty
		// target selects the first declared target.
		Target string
	}
)

// Select chooses the front-end for req. A make: prefix selects the recipe,
// an argument naming an existing regular file selects the script front-end,
// and anything else is a task table task.
func Select(req Request) Selection {
	switch {
	case strings.HasPrefix(req.Target, RecipePrefix):
		return Selection{
			Kind:   KindRecipe,
			Path:   recipePath(req),
			Target: strings.TrimPrefix(req.Target, RecipePrefix),
		}
	case req.Target != "" && isRegularFile(req.Target):
		return Selection{
			Kind:   KindScript,
			Path:   req.Target,
			Target: filepath.Base(req.Target),
		}
	default:
		return Selection{Kind: KindTable, Path: tablePath(req), Target: req.Target}
	}
}

func tablePath(req Request) string {
	if req.TablePath != "" {
		return req.TablePath
	}
	return table.DefaultPath
}

func recipePath(req Request) string {
	if req.RecipePath != "" {
		return req.RecipePath
	}
	return DefaultRecipePath
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
