// SPDX-License-Identifier: MPL-2.0

package recipe

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/pluttan/volumes/internal/expr"
	"github.com/pluttan/volumes/pkg/taskgraph"
)

const (
	stateIdle state = iota
	statePendingDescription
	stateInTarget
)

const (
	// inlineConfigStart opens an embedded configuration block.
	inlineConfigStart = "#--config:"
	// inlineConfigEnd closes an embedded configuration block.
	inlineConfigEnd = "#--end"
)

var (
	assignmentPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*(:=|\?=|\+=|=)\s*(.*)$`)
	targetPattern     = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_./-]*)\s*:\s*(.*)$`)
	definePattern     = regexp.MustCompile(`^define\s+([A-Za-z_][A-Za-z0-9_]*)\s*=?\s*$`)
)

type (
	state int

	// Option configures a parse.
	Option func(*Parser)

	// Parser holds the state of a single recipe parse. Use [Parse] or
	// [ParseFile] rather than driving it directly.
	Parser struct {
		ctx       context.Context
		path      string
		eval      *expr.Evaluator
		overrides expr.Vars
		logger    *log.Logger

		graph   *taskgraph.Graph
		vars    expr.Vars
		state   state
		pending string
		current *taskgraph.Task

		group    *openGroup
		define   *openDefine
		inConfig bool
	}

	openGroup struct {
		line   int
		prefix stepPrefix
		desc   string
		body   []string
	}

	openDefine struct {
		line int
		name string
		body []string
	}
)

// WithEvaluator sets the evaluator used for assignments and dependency lists.
func WithEvaluator(e *expr.Evaluator) Option {
	return func(p *Parser) { p.eval = e }
}

// WithOverrides seeds the variable table with invocation overrides.
// Assignments in the document never rebind an overridden name.
func WithOverrides(v expr.Vars) Option {
	return func(p *Parser) { p.overrides = v }
}

// WithLogger sets the logger used to report skipped lines.
func WithLogger(l *log.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// ParseFile reads and parses the recipe at path.
func ParseFile(ctx context.Context, path string, opts ...Option) (*taskgraph.Graph, expr.Vars, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return Parse(ctx, path, f, opts...)
}

// Parse parses a recipe document. path is used for error messages and as the
// graph's source.
func Parse(ctx context.Context, path string, src io.Reader, opts ...Option) (*taskgraph.Graph, expr.Vars, error) {
	p := &Parser{
		ctx:   ctx,
		path:  path,
		graph: taskgraph.NewGraph(path, taskgraph.SourceRecipe),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.eval == nil {
		p.eval = expr.New()
	}
	p.vars = p.overrides.Clone()

	lines, err := readLogicalLines(src)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	for _, l := range lines {
		if err := p.feed(l); err != nil {
			return nil, nil, err
		}
	}
	if err := p.finish(); err != nil {
		return nil, nil, err
	}
	return p.graph, p.vars, nil
}

func (p *Parser) feed(l logicalLine) error {
	text := l.Text
	trimmed := strings.TrimSpace(text)
	indented := strings.HasPrefix(text, "\t")

	switch {
	case p.define != nil:
		p.feedDefine(trimmed, text)
		return nil
	case p.group != nil:
		return p.feedGroup(l, trimmed, indented)
	case p.inConfig:
		if strings.HasPrefix(trimmed, inlineConfigEnd) {
			p.inConfig = false
		}
		return nil
	}

	switch {
	case trimmed == "":
		if p.state != stateInTarget {
			p.setIdle()
		}
	case indented:
		if p.state == stateInTarget {
			p.addStep(l, strings.TrimRight(text[1:], " \t"))
		}
	case strings.HasPrefix(trimmed, inlineConfigStart):
		p.inConfig = true
	case strings.HasPrefix(trimmed, "#"):
		p.comment(strings.TrimSpace(trimmed[1:]))
	case definePattern.MatchString(trimmed):
		m := definePattern.FindStringSubmatch(trimmed)
		p.define = &openDefine{line: l.Number, name: m[1]}
	case assignmentPattern.MatchString(trimmed):
		m := assignmentPattern.FindStringSubmatch(trimmed)
		p.assign(m[1], m[2], stripTrailingComment(m[3]))
	case targetPattern.MatchString(strings.TrimRight(text, " \t")):
		m := targetPattern.FindStringSubmatch(strings.TrimRight(text, " \t"))
		p.startTarget(m[1], m[2])
	default:
		p.closeTarget()
		if p.logger != nil {
			p.logger.Debug("skipping line", "file", p.path, "line", l.Number, "text", trimmed)
		}
	}
	return nil
}

func (p *Parser) finish() error {
	switch {
	case p.group != nil:
		return p.malformed(p.group.line, "unterminated block")
	case p.define != nil:
		return p.malformed(p.define.line, fmt.Sprintf("unterminated define %q", p.define.name))
	}
	return nil
}

// comment records a non-indented comment as the pending description for the
// next target. Directive-like comments (#!, #-) are ignored.
func (p *Parser) comment(text string) {
	if text == "" || strings.HasPrefix(text, "!") || strings.HasPrefix(text, "-") {
		return
	}
	p.pending = text
	if p.state != stateInTarget {
		p.state = statePendingDescription
	}
}

func (p *Parser) assign(name, op, value string) {
	if _, overridden := p.overrides[name]; overridden {
		return
	}
	switch op {
	case "?=":
		if _, bound := p.vars[name]; bound {
			return
		}
	case "+=":
		expanded := p.eval.ExpandContext(p.ctx, value, p.vars)
		if old, bound := p.vars[name]; bound && old != "" {
			p.vars[name] = old + " " + expanded
			return
		}
		p.vars[name] = expanded
		return
	}
	p.vars[name] = p.eval.ExpandContext(p.ctx, value, p.vars)
}

func (p *Parser) startTarget(name, rest string) {
	var desc string
	deps, inline, hasInline := strings.Cut(rest, "##")
	if hasInline {
		desc = strings.TrimSpace(inline)
	} else {
		deps = stripTrailingComment(deps)
	}
	if desc == "" {
		desc = p.pending
	}
	if desc == "" {
		desc = name
	}

	task := &taskgraph.Task{
		Name:        name,
		Depends:     strings.Fields(p.eval.ExpandContext(p.ctx, deps, p.vars)),
		Description: desc,
	}
	p.graph.Add(task)
	p.current = task
	p.pending = ""
	p.state = stateInTarget
}

func (p *Parser) addStep(l logicalLine, text string) {
	if text == "" {
		return
	}
	text, prefix := stripPrefixes(text)
	cmd, desc, hasComment := SplitComment(text)

	if cmd == "{" {
		p.group = &openGroup{line: l.Number, prefix: prefix, desc: desc}
		return
	}
	if cmd == "" {
		if desc == "" {
			return
		}
		p.appendStep(taskgraph.Step{Description: desc, Silent: prefix.silent, InfoOnly: true}, prefix)
		return
	}
	if !hasComment || desc == "" {
		desc = cmd
	}
	p.appendStep(taskgraph.Step{Command: cmd, Description: desc, Silent: prefix.silent}, prefix)
}

func (p *Parser) appendStep(s taskgraph.Step, prefix stepPrefix) {
	if prefix.ignore {
		s.IgnoreErrors = taskgraph.Bool(true)
	}
	p.current.Steps = append(p.current.Steps, s)
}

func (p *Parser) feedGroup(l logicalLine, trimmed string, indented bool) error {
	if trimmed != "" && !indented {
		return p.malformed(p.group.line, "unterminated block")
	}
	if !strings.HasPrefix(trimmed, "}") {
		if trimmed != "" {
			p.group.body = append(p.group.body, trimmed)
		}
		return nil
	}

	g := p.group
	p.group = nil
	if _, desc, ok := SplitComment(strings.TrimPrefix(trimmed, "}")); ok && desc != "" {
		g.desc = desc
	}
	if len(g.body) == 0 {
		return nil
	}
	if g.desc == "" {
		g.desc = g.body[0]
	}
	p.appendStep(taskgraph.Step{
		Command:     strings.Join(g.body, "\n"),
		Description: g.desc,
		Silent:      g.prefix.silent,
	}, g.prefix)
	return nil
}

func (p *Parser) feedDefine(trimmed, text string) {
	if trimmed == "endef" {
		name := p.define.name
		body := strings.Join(p.define.body, "\n")
		p.define = nil
		if _, overridden := p.overrides[name]; !overridden {
			p.vars[name] = body
		}
		return
	}
	p.define.body = append(p.define.body, text)
}

func (p *Parser) closeTarget() {
	p.current = nil
	if p.pending != "" {
		p.state = statePendingDescription
		return
	}
	p.state = stateIdle
}

func (p *Parser) setIdle() {
	p.pending = ""
	p.current = nil
	p.state = stateIdle
}

func (p *Parser) malformed(line int, reason string) error {
	return &taskgraph.MalformedRecipeError{Path: p.path, Line: line, Reason: reason}
}

// stripTrailingComment drops a " # comment" suffix from an assignment value or
// dependency list.
func stripTrailingComment(s string) string {
	if i := strings.Index(s, " #"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
