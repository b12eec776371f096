// SPDX-License-Identifier: MPL-2.0

package expr

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// builtin evaluates a function over its already-substituted argument text.
type builtin func(ctx context.Context, e *Evaluator, args string) string

var functions = map[string]builtin{
	"shell":      fnShell,
	"word":       fnWord,
	"words":      fnWords,
	"firstword":  fnFirstWord,
	"lastword":   fnLastWord,
	"subst":      fnSubst,
	"patsubst":   fnPatsubst,
	"strip":      fnStrip,
	"sort":       fnSort,
	"dir":        mapWords(dirOf),
	"notdir":     mapWords(notdirOf),
	"suffix":     mapWords(suffixOf),
	"basename":   mapWords(basenameOf),
	"addsuffix":  fnAddSuffix,
	"addprefix":  fnAddPrefix,
	"wildcard":   fnWildcard,
	"filter":     fnFilter,
	"filter-out": fnFilterOut,
	"findstring": fnFindString,
}

// Functions returns the names of the built-in functions, sorted.
func Functions() []string {
	return slices.Sorted(maps.Keys(functions))
}

// splitArgs splits function arguments on top-level commas into at most n
// parts. Commas nested inside parentheses or braces do not split.
func splitArgs(args string, n int) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(args) && len(parts) < n-1; i++ {
		switch args[i] {
		case '(', '{':
			depth++
		case ')', '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, args[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, args[start:])
}

// argsN returns exactly n arguments, or false when fewer were supplied.
func argsN(args string, n int) ([]string, bool) {
	parts := splitArgs(args, n)
	return parts, len(parts) == n
}

func fnShell(ctx context.Context, e *Evaluator, args string) string {
	if e.shell == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, e.shellTimeout)
	defer cancel()

	out, err := e.shell.Capture(ctx, strings.ReplaceAll(args, escapedDollar, "$"))
	if err != nil {
		if e.logger != nil {
			e.logger.Debug("shell substitution failed", "cmd", args, "err", err)
		}
		return ""
	}
	return strings.TrimRight(out, " \t\r\n")
}

func fnWord(_ context.Context, _ *Evaluator, args string) string {
	parts, ok := argsN(args, 2)
	if !ok {
		return ""
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || n < 1 {
		return ""
	}
	words := strings.Fields(parts[1])
	if n > len(words) {
		return ""
	}
	return words[n-1]
}

func fnWords(_ context.Context, _ *Evaluator, args string) string {
	return strconv.Itoa(len(strings.Fields(args)))
}

func fnFirstWord(_ context.Context, _ *Evaluator, args string) string {
	words := strings.Fields(args)
	if len(words) == 0 {
		return ""
	}
	return words[0]
}

func fnLastWord(_ context.Context, _ *Evaluator, args string) string {
	words := strings.Fields(args)
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}

func fnSubst(_ context.Context, _ *Evaluator, args string) string {
	parts, ok := argsN(args, 3)
	if !ok {
		return ""
	}
	if parts[0] == "" {
		return parts[2]
	}
	return strings.ReplaceAll(parts[2], parts[0], parts[1])
}

func fnPatsubst(_ context.Context, _ *Evaluator, args string) string {
	parts, ok := argsN(args, 3)
	if !ok {
		return ""
	}
	pattern := strings.TrimSpace(parts[0])
	replacement := strings.TrimSpace(parts[1])
	words := strings.Fields(parts[2])
	for i, w := range words {
		words[i] = PatternReplace(pattern, replacement, w)
	}
	return strings.Join(words, " ")
}

func fnStrip(_ context.Context, _ *Evaluator, args string) string {
	return strings.Join(strings.Fields(args), " ")
}

func fnSort(_ context.Context, _ *Evaluator, args string) string {
	words := strings.Fields(args)
	slices.Sort(words)
	return strings.Join(slices.Compact(words), " ")
}

func fnAddSuffix(_ context.Context, _ *Evaluator, args string) string {
	parts, ok := argsN(args, 2)
	if !ok {
		return ""
	}
	words := strings.Fields(parts[1])
	for i, w := range words {
		words[i] = w + parts[0]
	}
	return strings.Join(words, " ")
}

func fnAddPrefix(_ context.Context, _ *Evaluator, args string) string {
	parts, ok := argsN(args, 2)
	if !ok {
		return ""
	}
	words := strings.Fields(parts[1])
	for i, w := range words {
		words[i] = parts[0] + w
	}
	return strings.Join(words, " ")
}

func fnWildcard(_ context.Context, e *Evaluator, args string) string {
	var matches []string
	for _, pattern := range strings.Fields(args) {
		found, err := e.glob(pattern)
		if err != nil {
			continue
		}
		matches = append(matches, found...)
	}
	return strings.Join(matches, " ")
}

func fnFilter(_ context.Context, _ *Evaluator, args string) string {
	return filterWords(args, true)
}

func fnFilterOut(_ context.Context, _ *Evaluator, args string) string {
	return filterWords(args, false)
}

func filterWords(args string, keep bool) string {
	parts, ok := argsN(args, 2)
	if !ok {
		return ""
	}
	patterns := strings.Fields(parts[0])
	var out []string
	for _, w := range strings.Fields(parts[1]) {
		matched := slices.ContainsFunc(patterns, func(p string) bool {
			_, ok := MatchPattern(p, w)
			return ok
		})
		if matched == keep {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}

func fnFindString(_ context.Context, _ *Evaluator, args string) string {
	parts, ok := argsN(args, 2)
	if !ok || !strings.Contains(parts[1], parts[0]) {
		return ""
	}
	return parts[0]
}

// mapWords lifts a per-word transform to a whitespace-separated list.
// Words transformed to "" are dropped.
func mapWords(fn func(string) string) builtin {
	return func(_ context.Context, _ *Evaluator, args string) string {
		var out []string
		for _, w := range strings.Fields(args) {
			if r := fn(w); r != "" {
				out = append(out, r)
			}
		}
		return strings.Join(out, " ")
	}
}

func dirOf(w string) string {
	if i := strings.LastIndexByte(w, '/'); i >= 0 {
		return w[:i+1]
	}
	return "./"
}

func notdirOf(w string) string {
	if i := strings.LastIndexByte(w, '/'); i >= 0 {
		return w[i+1:]
	}
	return w
}

func suffixOf(w string) string {
	base := notdirOf(w)
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		return base[i:]
	}
	return ""
}

func basenameOf(w string) string {
	slash := strings.LastIndexByte(w, '/')
	if dot := strings.LastIndexByte(w, '.'); dot > slash {
		return w[:dot]
	}
	return w
}
