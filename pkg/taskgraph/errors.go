// SPDX-License-Identifier: MPL-2.0

package taskgraph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedRecipe is the sentinel error wrapped by MalformedRecipeError.
	ErrMalformedRecipe = errors.New("malformed recipe")
	// ErrUnknownTarget is the sentinel error wrapped by UnknownTargetError.
	ErrUnknownTarget = errors.New("unknown target")
)

type (
	// MalformedRecipeError is returned for structural errors a parser cannot
	// recover from, such as an unterminated multi-line block.
	MalformedRecipeError struct {
		// Path is the document being parsed.
		Path string
		// Line is the 1-based line where the offending construct starts.
		Line int
		// Reason describes the problem.
		Reason string
	}

	// UnknownTargetError is returned when a requested target is absent from the graph.
	UnknownTargetError struct {
		Name      string
		Source    string
		Available []string
	}
)

// Error implements the error interface.
func (e *MalformedRecipeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Unwrap returns ErrMalformedRecipe for errors.Is() compatibility.
func (e *MalformedRecipeError) Unwrap() error { return ErrMalformedRecipe }

// Error implements the error interface.
func (e *UnknownTargetError) Error() string {
	msg := fmt.Sprintf("target %q not found", e.Name)
	if e.Source != "" {
		msg += " in " + e.Source
	}
	if len(e.Available) > 0 {
		msg += " (available: " + strings.Join(e.Available, ", ") + ")"
	}
	return msg
}

// Unwrap returns ErrUnknownTarget for errors.Is() compatibility.
func (e *UnknownTargetError) Unwrap() error { return ErrUnknownTarget }
