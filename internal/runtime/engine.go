// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pluttan/volumes/internal/dag"
	"github.com/pluttan/volumes/internal/expr"
	"github.com/pluttan/volumes/pkg/taskgraph"
)

const (
	// DefaultGraceDelay is how long a step may run before the live view opens.
	DefaultGraceDelay = 100 * time.Millisecond
	// DefaultRefreshInterval caps live view redraws at 15 per second.
	DefaultRefreshInterval = time.Second / 15
	// DefaultBufferLines is the height of the trailing output window.
	DefaultBufferLines = 10

	// drainTimeout bounds how long output is still read after the process has
	// exited, for background grandchildren that keep the pipe open.
	drainTimeout = 500 * time.Millisecond
	// lineQueue is the capacity of the reader-to-control-loop channel.
	lineQueue = 64
)

type (
	// Clock supplies timestamps and elapsed time.
	Clock interface {
		Now() time.Time
		Since(t time.Time) time.Duration
	}

	// Options configures an Engine. Zero values select defaults.
	Options struct {
		// Shell spawns steps. Defaults to a NativeShell.
		Shell Shell
		// Presenter receives events. Defaults to discarding them.
		Presenter Presenter
		// RunLog receives every step outcome. Defaults to discarding them.
		RunLog Recorder
		// Clock defaults to the system clock.
		Clock Clock
		// Logger receives diagnostics. Nil disables them.
		Logger *log.Logger
		// Expander expands step text at run time. Defaults to a plain expr.Evaluator.
		Expander Expander
		// GraceDelay is how long a step may run before the live view opens.
		GraceDelay time.Duration
		// RefreshInterval is the minimum time between live snapshots.
		RefreshInterval time.Duration
		// BufferLines is the height of the trailing output window.
		BufferLines int
		// BufferWidth wraps or truncates buffered lines. Zero disables it.
		BufferWidth int
		// WrapLines wraps wide lines instead of truncating them.
		WrapLines bool
		// Env is the base child environment. Nil means the host environment.
		Env []string
		// Dir is the working directory of every step.
		Dir string
	}

	// Plan is a resolved run.
	Plan struct {
		// Target is the requested target, for display.
		Target string
		// Graph holds the tasks.
		Graph *taskgraph.Graph
		// Order is the resolved execution order.
		Order []string
		// Vars is the document's variable table.
		Vars expr.Vars
		// Overrides are invocation KEY=value arguments. They win over Vars
		// and are exported into the child environment.
		Overrides expr.Vars
	}

	// Engine runs plans one step at a time.
	Engine struct {
		opts Options
	}

	systemClock struct{}

	exitResult struct {
		code ExitCode
		err  error
	}

	// stepRun is the control-loop state of one spawned step.
	stepRun struct {
		task    string
		header  string
		silent  bool
		started time.Time

		buf    *TrailingBuffer
		output strings.Builder
		live   bool
		dirty  bool
	}
)

func (systemClock) Now() time.Time                  { return time.Now() }
func (systemClock) Since(t time.Time) time.Duration { return time.Since(t) }

// New creates an Engine.
func New(opts Options) *Engine {
	if opts.Shell == nil {
		opts.Shell = &NativeShell{}
	}
	if opts.Presenter == nil {
		opts.Presenter = nopPresenter{}
	}
	if opts.RunLog == nil {
		opts.RunLog = nopRecorder{}
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.Expander == nil {
		opts.Expander = expr.New()
	}
	if opts.GraceDelay <= 0 {
		opts.GraceDelay = DefaultGraceDelay
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.BufferLines <= 0 {
		opts.BufferLines = DefaultBufferLines
	}
	return &Engine{opts: opts}
}

// Run executes plan. It stops at the first step failure that is not covered
// by ignore-errors, or before the next step once ctx is canceled. A step that
// is already running is never interrupted.
func (e *Engine) Run(ctx context.Context, plan Plan) Report {
	vars := plan.Vars.With(plan.Overrides)
	env := buildStepEnv(e.opts.Env, plan.Overrides)
	total := dag.CountSteps(plan.Graph, plan.Order)

	e.opts.Presenter.Present(RunStarted{Target: plan.Target, Tasks: plan.Order, Total: total})
	e.debug("run started", "target", plan.Target, "tasks", len(plan.Order), "steps", total, "shell", e.opts.Shell.Name())

	report := Report{Success: true}
run:
	for _, name := range plan.Order {
		task, ok := plan.Graph.Get(name)
		if !ok {
			continue
		}
		e.opts.Presenter.Present(TaskStarted{Task: name, Steps: len(task.Steps)})

		for i, step := range task.Steps {
			if err := ctx.Err(); err != nil {
				report.Success = false
				report.Err = err
				e.opts.Presenter.Present(TaskFinished{Task: name, OK: false})
				break run
			}

			outcome, ran := e.runStep(ctx, task, step, vars, env)
			report.Steps++
			if ran {
				switch outcome.Kind {
				case OutcomeIgnored:
					report.Ignored++
				case OutcomeFailure:
					report.Success = false
					report.Failed = &outcome
					e.opts.Presenter.Present(TaskFinished{Task: name, OK: false})
					break run
				}
			}
			e.opts.Presenter.Present(Progress{
				Task:      name,
				Done:      report.Steps,
				Total:     total,
				TaskDone:  i + 1,
				TaskTotal: len(task.Steps),
			})
		}
		e.opts.Presenter.Present(TaskFinished{Task: name, OK: true})
	}

	e.opts.Presenter.Present(RunFinished{OK: report.Success})
	e.debug("run finished", "ok", report.Success, "steps", report.Steps, "ignored", report.Ignored)
	return report
}

// runStep executes one step. ran is false for steps that spawn nothing.
func (e *Engine) runStep(ctx context.Context, task *taskgraph.Task, step taskgraph.Step, vars expr.Vars, env []string) (StepOutcome, bool) {
	desc := e.opts.Expander.ExpandContext(ctx, step.Description, vars)
	if !step.Runnable() {
		if step.InfoOnly && !step.Silent && desc != "" {
			e.opts.Presenter.Present(Info{Task: task.Name, Message: desc})
		}
		return StepOutcome{}, false
	}

	command := e.opts.Expander.ExpandContext(ctx, step.Command, vars)
	if desc == "" {
		desc = command
	}
	out := StepOutcome{
		Task:        task.Name,
		Command:     command,
		Description: desc,
		Started:     e.opts.Clock.Now(),
		Silent:      step.Silent,
	}
	if !step.Silent {
		e.opts.Presenter.Present(StepStarted{Task: task.Name, Label: desc, Command: command, Time: out.Started})
	}

	proc, err := e.opts.Shell.Start(ctx, Command{Text: command, Dir: e.opts.Dir, Env: env})
	if err != nil {
		e.debug("spawn failed", "task", task.Name, "cmd", command, "err", err)
		out.Kind = OutcomeFailure
		out.ExitCode = 1
		out.Description = fmt.Sprintf("%s (%v)", desc, err)
		out.Err = err
		return e.finish(out), true
	}

	run := &stepRun{
		task:    task.Name,
		header:  desc,
		silent:  step.Silent,
		started: out.Started,
		buf:     NewTrailingBuffer(e.opts.BufferLines, e.opts.BufferWidth, e.opts.WrapLines),
	}
	res := e.stream(run, proc)

	out.Output = run.output.String()
	out.Elapsed = e.opts.Clock.Since(out.Started)
	out.ExitCode = res.code
	if res.err != nil {
		out.Kind = OutcomeFailure
		out.Description = fmt.Sprintf("%s (%v)", desc, res.err)
		out.Err = res.err
		return e.finish(out), true
	}
	out.Kind = classify(res.code, step, task.IgnoreErrors)
	return e.finish(out), true
}

// stream is the control loop of a running step. It returns once the process
// has exited and its output has been drained.
func (e *Engine) stream(run *stepRun, proc Process) exitResult {
	lines := make(chan string, lineQueue)
	stop := make(chan struct{})
	defer close(stop)
	go readLines(proc.Output(), lines, stop)

	exited := make(chan exitResult, 1)
	go func() {
		code, err := proc.Wait()
		exited <- exitResult{code: code, err: err}
	}()

	grace := time.NewTimer(e.opts.GraceDelay)
	defer grace.Stop()

	var (
		res     exitResult
		done    bool
		tick    <-chan time.Time
		drain   <-chan time.Time
		ticker  *time.Ticker
		drainer *time.Timer
	)
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
		if drainer != nil {
			drainer.Stop()
		}
		_ = proc.Close()
	}()

	for lines != nil || !done {
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			run.output.WriteString(line)
			run.output.WriteByte('\n')
			run.buf.Append(line)
			if run.live {
				e.opts.Presenter.Present(StepOutput{Task: run.task, Line: line})
				run.dirty = true
			}

		case res = <-exited:
			done = true
			exited = nil
			grace.Stop()
			drainer = time.NewTimer(drainTimeout)
			drain = drainer.C

		case <-grace.C:
			if run.silent {
				continue
			}
			run.live = true
			ticker = time.NewTicker(e.opts.RefreshInterval)
			tick = ticker.C
			e.snapshot(run)

		case <-tick:
			if run.dirty {
				e.snapshot(run)
			}

		case <-drain:
			e.debug("output still open after exit, closing", "task", run.task)
			lines = nil
		}
	}
	return res
}

func (e *Engine) snapshot(run *stepRun) {
	run.dirty = false
	e.opts.Presenter.Present(Snapshot{
		Task:    run.task,
		Header:  run.header,
		Lines:   run.buf.Lines(),
		Elapsed: e.opts.Clock.Since(run.started),
	})
}

// finish records the outcome and reports it unless the step is silent.
func (e *Engine) finish(out StepOutcome) StepOutcome {
	e.opts.RunLog.Record(out)
	if !out.Silent {
		e.opts.Presenter.Present(StepFinished{Outcome: out})
	}
	e.debug("step finished", "task", out.Task, "cmd", out.Command, "kind", out.Kind, "exit", out.ExitCode)
	return out
}

func (e *Engine) debug(msg string, keyvals ...any) {
	if e.opts.Logger != nil {
		e.opts.Logger.Debug(msg, keyvals...)
	}
}

// readLines sends each line of r to lines and closes it at EOF or on the
// first read error. Terminal output uses CRLF; the CR is dropped.
func readLines(r io.Reader, lines chan<- string, stop <-chan struct{}) {
	defer close(lines)
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			select {
			case lines <- strings.TrimRight(line, "\r\n"):
			case <-stop:
				return
			}
		}
		if err != nil {
			return
		}
	}
}
