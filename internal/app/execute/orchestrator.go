// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/pluttan/volumes/internal/config"
	"github.com/pluttan/volumes/internal/dag"
	"github.com/pluttan/volumes/internal/expr"
	"github.com/pluttan/volumes/internal/issue"
	"github.com/pluttan/volumes/internal/recipe"
	"github.com/pluttan/volumes/internal/runlog"
	"github.com/pluttan/volumes/internal/runtime"
	"github.com/pluttan/volumes/internal/script"
	"github.com/pluttan/volumes/internal/table"
	"github.com/pluttan/volumes/pkg/taskgraph"
)

type (
	// PresenterFactory builds the presenter for a run's configuration.
	PresenterFactory func(cfg *config.Config) runtime.Presenter

	// Options configures an Orchestrator. Zero values select defaults.
	Options struct {
		// Provider loads the layered configuration. Defaults to config.NewProvider().
		Provider config.Provider
		// Config holds the user config location and the flag overrides.
		// Document layers are appended to it.
		Config config.LoadOptions
		// Logger receives diagnostics. Nil disables them.
		Logger *log.Logger
		// Presenter builds the run's presenter. Nil discards events.
		Presenter PresenterFactory
		// Clock is passed to the engine.
		Clock runtime.Clock
		// Env is the base environment of steps and table expressions. Nil
		// means the host environment.
		Env []string
		// Shell replaces the configured shell.
		Shell runtime.Shell
	}

	// Orchestrator prepares and runs requests.
	Orchestrator struct {
		opts Options
	}

	// Prepared is a resolved run that has not started.
	Prepared struct {
		Selection
		Config    *config.Config
		Graph     *taskgraph.Graph
		Order     []string
		Vars      expr.Vars
		Overrides expr.Vars
		Shell     runtime.Shell
		Expander  runtime.Expander
		Dir       string
	}

	shellResolver interface {
		Resolve() (string, error)
	}

	bufferSizer interface {
		BufferWidth() int
	}
)

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Provider == nil {
		opts.Provider = config.NewProvider()
	}
	return &Orchestrator{opts: opts}
}

// Run prepares and executes req. A step failure is returned as a
// *StepFailedError alongside the report.
func (o *Orchestrator) Run(ctx context.Context, req Request) (runtime.Report, error) {
	p, err := o.Prepare(ctx, req)
	if err != nil {
		return runtime.Report{}, err
	}
	return o.Execute(ctx, p)
}

// Prepare parses the selected document, loads the configuration with the
// document's settings layered in and resolves the execution order. Nothing
// is executed, apart from $(shell ...) calls made while expanding recipe
// variables.
func (o *Orchestrator) Prepare(ctx context.Context, req Request) (*Prepared, error) {
	sel := Select(req)
	o.debug("selected front-end", "kind", sel.Kind, "path", sel.Path, "target", sel.Target)

	doc, err := o.loadTable(sel, req)
	if err != nil {
		return nil, err
	}

	loadOpts := o.opts.Config
	if doc != nil && len(doc.Config) > 0 {
		loadOpts = loadOpts.WithLayer(doc.Graph.Path+" [config]", doc.Config)
	}
	if sel.Kind != KindTable {
		if !isRegularFile(sel.Path) {
			return nil, recipeNotFoundError(sel.Path)
		}
		values, found, err := config.ReadInlineBlock(sel.Path)
		switch {
		case err != nil:
			o.warn("ignoring inline config block", "path", sel.Path, "err", err)
		case found:
			loadOpts = loadOpts.WithLayer(sel.Path+" inline config", values)
		}
	}

	cfg, err := o.opts.Provider.Load(ctx, loadOpts)
	if err != nil {
		return nil, err
	}
	shell, err := o.shell(cfg, req.Dir)
	if err != nil {
		return nil, err
	}

	p := &Prepared{
		Selection: sel,
		Config:    cfg,
		Overrides: req.Overrides,
		Shell:     shell,
		Dir:       req.Dir,
	}

	switch sel.Kind {
	case KindRecipe:
		ev := expr.New(
			expr.WithShell(shell),
			expr.WithShellTimeout(cfg.ShellTimeout),
			expr.WithLogger(o.opts.Logger),
		)
		graph, vars, err := recipe.ParseFile(ctx, sel.Path,
			recipe.WithEvaluator(ev),
			recipe.WithOverrides(req.Overrides),
			recipe.WithLogger(o.opts.Logger),
		)
		if err != nil {
			return nil, parseError(sel.Path, err)
		}
		p.Graph, p.Vars, p.Expander = graph, vars, ev
		if p.Target == "" {
			if names := graph.Names(); len(names) > 0 {
				p.Target = names[0]
			}
		}
	case KindScript:
		graph, err := script.ParseFile(sel.Path)
		if err != nil {
			return nil, parseError(sel.Path, err)
		}
		p.Graph, p.Expander = graph, o.envExpander()
	default:
		p.Graph, p.Expander = doc.Graph, o.envExpander()
	}

	order, err := dag.Resolve(p.Graph, p.Target)
	if err != nil {
		return nil, resolveError(p.Selection, err)
	}
	p.Order = order
	o.debug("resolved", "target", p.Target, "tasks", len(order), "steps", dag.CountSteps(p.Graph, order))
	return p, nil
}

// Execute runs a prepared plan.
func (o *Orchestrator) Execute(ctx context.Context, p *Prepared) (runtime.Report, error) {
	rl, err := runlog.Open(p.Config.LogFile, runlog.Format(p.Config.LogFormat))
	if err != nil {
		return runtime.Report{}, issue.NewErrorContext().
			WithOperation("open run log").
			WithResource(p.Config.LogFile).
			WithSuggestion("Set log_file to a writable path").
			Wrap(err).
			BuildError()
	}
	defer func() {
		if cerr := rl.Close(); cerr != nil {
			o.warn("closing run log", "path", rl.Path(), "err", cerr)
		}
	}()

	var presenter runtime.Presenter
	if o.opts.Presenter != nil {
		presenter = o.opts.Presenter(p.Config)
	}
	width := p.Config.PanelWidth
	if bs, ok := presenter.(bufferSizer); ok {
		width = bs.BufferWidth()
	}

	engine := runtime.New(runtime.Options{
		Shell:           p.Shell,
		Presenter:       presenter,
		RunLog:          rl,
		Clock:           o.opts.Clock,
		Logger:          o.opts.Logger,
		Expander:        p.Expander,
		GraceDelay:      p.Config.GraceDelay(),
		RefreshInterval: p.Config.RefreshInterval(),
		BufferLines:     p.Config.PanelHeight,
		BufferWidth:     width,
		WrapLines:       p.Config.WrapLines,
		Env:             o.opts.Env,
		Dir:             p.Dir,
	})
	report := engine.Run(ctx, runtime.Plan{
		Target:    p.Target,
		Graph:     p.Graph,
		Order:     p.Order,
		Vars:      p.Vars,
		Overrides: p.Overrides,
	})

	switch {
	case report.Failed != nil:
		return report, &StepFailedError{Outcome: *report.Failed}
	case report.Err != nil:
		return report, fmt.Errorf("run interrupted: %w", report.Err)
	}
	return report, nil
}

// loadTable parses the task table. For table requests it must exist; for
// the other front-ends it only contributes settings and is skipped when
// absent or broken.
func (o *Orchestrator) loadTable(sel Selection, req Request) (*table.Document, error) {
	path := tablePath(req)
	if sel.Kind == KindTable {
		if !isRegularFile(path) {
			return nil, tableNotFoundError(path)
		}
		doc, err := table.ParseFile(path, table.WithEnv(o.opts.Env))
		if err != nil {
			return nil, parseError(path, err)
		}
		return doc, nil
	}

	if !isRegularFile(path) {
		return nil, nil
	}
	doc, err := table.ParseFile(path, table.WithEnv(o.opts.Env))
	if err != nil {
		o.warn("ignoring task table settings", "path", path, "err", err)
		return nil, nil
	}
	return doc, nil
}

// shell selects the step shell: an explicit Options.Shell, then the
// configured mode (pty upgrades the native shell).
func (o *Orchestrator) shell(cfg *config.Config, dir string) (runtime.Shell, error) {
	if o.opts.Shell != nil {
		return o.opts.Shell, nil
	}
	mode := runtime.ShellMode(cfg.Shell)
	if cfg.Pty && mode == runtime.ShellModeNative {
		mode = runtime.ShellModePty
	}
	sh, err := runtime.NewShell(mode, runtime.ShellOptions{Path: cfg.ShellPath, Dir: dir, Env: o.opts.Env})
	if err != nil {
		return nil, err
	}
	if r, ok := sh.(shellResolver); ok {
		path, err := r.Resolve()
		if err != nil {
			return nil, shellNotFoundError(err)
		}
		o.debug("shell", "mode", mode, "path", path)
	}
	return sh, nil
}

// envExpander expands $VAR references against overrides and the step
// environment.
func (o *Orchestrator) envExpander() runtime.EnvExpander {
	if o.opts.Env == nil {
		return runtime.EnvExpander{}
	}
	vals := make(map[string]string, len(o.opts.Env))
	for _, kv := range o.opts.Env {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vals[k] = v
		}
	}
	return runtime.EnvExpander{LookupEnv: func(name string) (string, bool) {
		v, ok := vals[name]
		return v, ok
	}}
}

func (o *Orchestrator) debug(msg string, keyvals ...any) {
	if o.opts.Logger != nil {
		o.opts.Logger.Debug(msg, keyvals...)
	}
}

func (o *Orchestrator) warn(msg string, keyvals ...any) {
	if o.opts.Logger != nil {
		o.opts.Logger.Warn(msg, keyvals...)
	}
}
