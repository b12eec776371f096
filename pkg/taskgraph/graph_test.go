// SPDX-License-Identifier: MPL-2.0

package taskgraph

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestGraph_PreservesDeclarationOrder(t *testing.T) {
	t.Parallel()

	g := NewGraph("Makefile", SourceRecipe)
	g.Add(&Task{Name: "build"})
	g.Add(&Task{Name: "test"})
	g.Add(&Task{Name: "all"})

	if got := g.Names(); !slices.Equal(got, []string{"build", "test", "all"}) {
		t.Errorf("Names() = %v", got)
	}
	if g.Len() != 3 {
		t.Errorf("Len() = %d, want 3", g.Len())
	}
}

func TestGraph_AddReplacesInPlace(t *testing.T) {
	t.Parallel()

	g := NewGraph("Makefile", SourceRecipe)
	g.Add(&Task{Name: "build", Description: "first"})
	g.Add(&Task{Name: "test"})
	g.Add(&Task{Name: "build", Description: "second"})

	if got := g.Names(); !slices.Equal(got, []string{"build", "test"}) {
		t.Errorf("Names() = %v", got)
	}
	task, ok := g.Get("build")
	if !ok || task.Description != "second" {
		t.Errorf("Get(build) = %+v, %v", task, ok)
	}
}

func TestGraph_LookupUnknown(t *testing.T) {
	t.Parallel()

	g := NewGraph("vol.toml", SourceTable)
	g.Add(&Task{Name: "build"})

	_, err := g.Lookup("deploy")
	if !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("expected ErrUnknownTarget, got %v", err)
	}
	var ute *UnknownTargetError
	if !errors.As(err, &ute) {
		t.Fatalf("expected *UnknownTargetError, got %T", err)
	}
	if !strings.Contains(err.Error(), "available: build") {
		t.Errorf("error should list available targets: %v", err)
	}
}

func TestStep_EffectiveIgnoreErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		step        Step
		taskDefault bool
		want        bool
	}{
		{"inherit false", Step{}, false, false},
		{"inherit true", Step{}, true, true},
		{"override on", Step{IgnoreErrors: Bool(true)}, false, true},
		{"override off", Step{IgnoreErrors: Bool(false)}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.step.EffectiveIgnoreErrors(tt.taskDefault); got != tt.want {
				t.Errorf("EffectiveIgnoreErrors(%v) = %v, want %v", tt.taskDefault, got, tt.want)
			}
		})
	}
}

func TestMalformedRecipeError(t *testing.T) {
	t.Parallel()

	err := error(&MalformedRecipeError{Path: "Makefile", Line: 12, Reason: "unterminated block"})
	if !errors.Is(err, ErrMalformedRecipe) {
		t.Error("expected errors.Is(err, ErrMalformedRecipe)")
	}
	if got := err.Error(); got != "Makefile:12: unterminated block" {
		t.Errorf("Error() = %q", got)
	}
}
