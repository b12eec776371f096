// SPDX-License-Identifier: MPL-2.0

package expr

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultShellTimeout bounds $(shell ...) invocations.
	DefaultShellTimeout = 10 * time.Second
	// DefaultMaxCalls bounds the number of function calls evaluated per Expand.
	DefaultMaxCalls = 1000
	// DefaultMaxPasses bounds recursive re-expansion of substituted values.
	DefaultMaxPasses = 16

	// escapedDollar stands in for "$$" while expansion runs.
	escapedDollar = "\x00"
)

// varRefPattern matches $(NAME) and ${NAME}.
var varRefPattern = regexp.MustCompile(`\$\(([A-Za-z_][A-Za-z0-9_]*)\)|\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

type (
	// Capturer runs a command through a shell and returns its standard output.
	Capturer interface {
		Capture(ctx context.Context, command string) (string, error)
	}

	// GlobFunc expands a filesystem pattern.
	GlobFunc func(pattern string) ([]string, error)

	// Evaluator expands variables and built-in functions.
	// An Evaluator is stateless between calls and safe to reuse.
	Evaluator struct {
		shell        Capturer
		shellTimeout time.Duration
		glob         GlobFunc
		maxCalls     int
		maxPasses    int
		logger       *log.Logger
	}

	// Option configures an Evaluator.
	Option func(*Evaluator)

	// call is a located function call inside a string.
	call struct {
		start, end int
		name       string
		args       string
	}
)

// WithShell sets the shell used by $(shell ...). Without one, shell calls expand to "".
func WithShell(c Capturer) Option {
	return func(e *Evaluator) { e.shell = c }
}

// WithShellTimeout bounds each $(shell ...) invocation.
func WithShellTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		if d > 0 {
			e.shellTimeout = d
		}
	}
}

// WithGlob replaces the filesystem glob used by $(wildcard ...).
func WithGlob(fn GlobFunc) Option {
	return func(e *Evaluator) { e.glob = fn }
}

// WithMaxCalls sets the function-call budget for a single expansion.
func WithMaxCalls(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.maxCalls = n
		}
	}
}

// WithLogger sets the logger used to report degraded expansions.
func WithLogger(l *log.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		shellTimeout: DefaultShellTimeout,
		glob:         filepath.Glob,
		maxCalls:     DefaultMaxCalls,
		maxPasses:    DefaultMaxPasses,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand expands text against vars. It never fails.
func (e *Evaluator) Expand(text string, vars Vars) string {
	return e.ExpandContext(context.Background(), text, vars)
}

// ExpandContext is Expand with a context bounding any shell invocations.
func (e *Evaluator) ExpandContext(ctx context.Context, text string, vars Vars) string {
	if !strings.Contains(text, "$") {
		return text
	}

	s := strings.ReplaceAll(text, "$$", escapedDollar)
	budget := e.maxCalls
	for pass := 0; ; pass++ {
		if pass == e.maxPasses {
			e.degraded("expansion pass limit reached", text)
			break
		}
		next := e.substitute(e.expandCalls(ctx, s, vars, &budget), vars)
		if next == s {
			break
		}
		s = next
	}
	return strings.ReplaceAll(s, escapedDollar, "$")
}

// expandCalls evaluates function calls innermost-first until none remain or
// the call budget is spent.
func (e *Evaluator) expandCalls(ctx context.Context, s string, vars Vars, budget *int) string {
	for {
		c, ok := findInnermostCall(s)
		if !ok {
			return s
		}
		if *budget <= 0 {
			e.degraded("function call limit reached", s)
			return s
		}
		*budget--

		args := e.substitute(c.args, vars)
		result := functions[c.name](ctx, e, args)
		s = s[:c.start] + result + s[c.end:]
	}
}

// substitute replaces bound variable references. Unbound references stay literal.
func (e *Evaluator) substitute(s string, vars Vars) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return varRefPattern.ReplaceAllStringFunc(s, func(ref string) string {
		m := varRefPattern.FindStringSubmatch(ref)
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if val, ok := vars[name]; ok {
			return val
		}
		return ref
	})
}

func (e *Evaluator) degraded(reason, text string) {
	if e.logger != nil {
		e.logger.Warn(reason, "text", text)
	}
}

// findInnermostCall locates the last recognised function call in s. Because
// no call starts after it, its arguments contain no further calls.
func findInnermostCall(s string) (call, bool) {
	for i := strings.LastIndexByte(s, '$'); i >= 0; i = strings.LastIndexByte(s[:i], '$') {
		if c, ok := callAt(s, i); ok {
			return c, true
		}
	}
	return call{}, false
}

// callAt parses a function call starting at s[i] == '$'.
func callAt(s string, i int) (call, bool) {
	if i+1 >= len(s) {
		return call{}, false
	}
	var open, closing byte
	switch s[i+1] {
	case '(':
		open, closing = '(', ')'
	case '{':
		open, closing = '{', '}'
	default:
		return call{}, false
	}

	nameStart := i + 2
	nameEnd := nameStart
	for nameEnd < len(s) && isFuncNameByte(s[nameEnd]) {
		nameEnd++
	}
	if nameEnd == nameStart || nameEnd >= len(s) || (s[nameEnd] != ' ' && s[nameEnd] != '\t') {
		return call{}, false
	}
	name := s[nameStart:nameEnd]
	if _, ok := functions[name]; !ok {
		return call{}, false
	}

	depth := 1
	for j := i + 2; j < len(s); j++ {
		switch s[j] {
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return call{
					start: i,
					end:   j + 1,
					name:  name,
					args:  strings.TrimLeft(s[nameEnd:j], " \t"),
				}, true
			}
		}
	}
	return call{}, false
}

func isFuncNameByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b == '-'
}
