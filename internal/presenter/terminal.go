// SPDX-License-Identifier: MPL-2.0

package presenter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"github.com/pluttan/volumes/internal/config"
	"github.com/pluttan/volumes/internal/runtime"
)

// panelChrome is the horizontal space taken by the panel border and padding.
const panelChrome = 4

type (
	// Clock supplies status line timestamps.
	Clock interface {
		Now() time.Time
	}

	// Option configures a Terminal.
	Option func(*Terminal)

	// Terminal is a runtime.Presenter writing to a terminal or a plain stream.
	// Present must not be called concurrently.
	Terminal struct {
		out    io.Writer
		cfg    *config.Config
		clock  Clock
		styles styles

		fd    int
		hasFd bool
		tty   bool
		live  bool

		taskWidth int
		done      int
		total     int
		taskDone  int
		taskTotal int

		// current is the running step, valid while running is true.
		current runtime.StepStarted
		running bool
		// drawn is the height of the live region currently on screen.
		drawn int
	}

	fdWriter interface {
		Fd() uintptr
	}

	systemClock struct{}
)

func (systemClock) Now() time.Time { return time.Now() }

// WithTerminal overrides terminal detection of the output.
func WithTerminal(tty bool) Option {
	return func(t *Terminal) { t.tty = tty }
}

// WithLive enables or disables the live view. It only takes effect on a terminal.
func WithLive(enabled bool) Option {
	return func(t *Terminal) { t.live = enabled }
}

// WithClock sets the clock used for info line timestamps.
func WithClock(c Clock) Option {
	return func(t *Terminal) { t.clock = c }
}

// New creates a Terminal rendering to out with cfg's display settings.
func New(out io.Writer, cfg *config.Config, opts ...Option) *Terminal {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	t := &Terminal{
		out:       out,
		cfg:       cfg,
		clock:     systemClock{},
		live:      true,
		taskWidth: minTaskWidth,
	}
	if f, ok := out.(fdWriter); ok {
		t.fd, t.hasFd = int(f.Fd()), true
		t.tty = term.IsTerminal(t.fd)
	}
	for _, opt := range opts {
		opt(t)
	}
	t.live = t.live && t.tty
	t.styles = newStyles(lipgloss.NewRenderer(out), cfg.Palette(), cfg.PanelWidth)
	return t
}

// Live reports whether the live view is active.
func (t *Terminal) Live() bool { return t.live }

// BufferWidth is the line width that fits inside the live panel.
func (t *Terminal) BufferWidth() int {
	return max(t.cfg.PanelWidth-panelChrome, 1)
}

// Present implements runtime.Presenter.
func (t *Terminal) Present(ev runtime.Event) {
	switch e := ev.(type) {
	case runtime.RunStarted:
		t.runStarted(e)
	case runtime.TaskStarted:
		t.taskDone, t.taskTotal = 0, e.Steps
	case runtime.StepStarted:
		// The live block appears with the first snapshot, which the engine
		// sends only once the grace delay has passed.
		t.current, t.running = e, true
	case runtime.Snapshot:
		if t.live && t.running {
			t.redraw(t.waitBlock(t.current.Time, e.Elapsed, e.Lines))
		}
	case runtime.StepFinished:
		t.running = false
		t.clearLive()
		t.stepFinished(e.Outcome)
	case runtime.Info:
		t.clearLive()
		t.println(t.statusLine(LabelInfo, t.clock.Now(), e.Task, e.Message))
	case runtime.Progress:
		t.done, t.total = e.Done, e.Total
		t.taskDone, t.taskTotal = e.TaskDone, e.TaskTotal
		if t.live {
			t.redraw(t.bars())
		}
	case runtime.RunFinished:
		t.clearLive()
		if !e.OK && t.cfg.ShowErrorFooter() && t.cfg.ErrorMessage != "" {
			t.println(t.styles.footer.Render(t.cfg.ErrorMessage))
		}
	}
}

func (t *Terminal) runStarted(e runtime.RunStarted) {
	t.taskWidth = taskColumnWidth(e.Tasks)
	t.done, t.total = 0, e.Total
	if t.tty {
		t.prepareScreen()
	}
	if t.cfg.ShowHeader && t.cfg.HeaderText != "" {
		t.println(t.styles.header.Render(t.cfg.HeaderText))
	}
}

// prepareScreen clears the screen and, in bottom-up mode, moves the cursor to
// the last row so output scrolls up from the bottom.
func (t *Terminal) prepareScreen() {
	if t.cfg.ClearScreen {
		fmt.Fprint(t.out, ansi.EraseEntireScreen+ansi.CursorHomePosition)
	}
	if !t.cfg.BottomUp || !t.hasFd {
		return
	}
	if _, height, err := term.GetSize(t.fd); err == nil && height > 1 {
		fmt.Fprint(t.out, strings.Repeat("\n", height-1))
	}
}

func (t *Terminal) stepFinished(o runtime.StepOutcome) {
	label := labelFor(o.Kind)
	msg := t.message(o.Description, o.Command)
	switch o.Kind {
	case runtime.OutcomeSuccess:
		msg += " " + t.styles.muted.Render(fmt.Sprintf("(%s)", o.ElapsedLabel()))
	default:
		msg += " " + t.styles.muted.Render(fmt.Sprintf("(exit %d, %s)", int(o.ExitCode), o.ElapsedLabel()))
	}
	t.println(t.statusLine(label, o.Started, o.Task, msg))

	if o.Kind == runtime.OutcomeFailure {
		if lines := t.trailing(o.Output); len(lines) > 0 {
			t.println(t.styles.panel.Render(strings.Join(lines, "\n")))
		}
	}
}

// trailing fits the last panel_height lines of output into the panel.
func (t *Terminal) trailing(output string) []string {
	if strings.TrimSpace(output) == "" {
		return nil
	}
	buf := runtime.NewTrailingBuffer(t.cfg.PanelHeight, t.BufferWidth(), t.cfg.WrapLines)
	for line := range strings.SplitSeq(strings.TrimRight(output, "\n"), "\n") {
		buf.Append(line)
	}
	return buf.Lines()
}

// message returns a step label, highlighted when it is the command itself.
func (t *Terminal) message(label, command string) string {
	if t.tty && label == command {
		return highlightShell(label, t.cfg.SyntaxTheme)
	}
	return label
}

func (t *Terminal) statusLine(label Label, at time.Time, task, msg string) string {
	parts := make([]string, 0, 4)
	if t.cfg.ShowStatusLabel {
		parts = append(parts, t.styles.label(label).Render("["+padRight(string(label), labelWidth)+"]"))
	}
	if t.cfg.ShowTime {
		parts = append(parts, t.styles.muted.Render("["+at.Format(time.TimeOnly)+"]"))
	}
	if t.cfg.ShowTaskName {
		parts = append(parts, "["+padRight(task, t.taskWidth)+"]")
	}
	parts = append(parts, msg)
	return strings.Join(parts, " ")
}

// waitBlock renders the live view of the running step.
func (t *Terminal) waitBlock(started time.Time, elapsed time.Duration, lines []string) string {
	var b strings.Builder
	msg := t.message(t.current.Label, t.current.Command)
	if elapsed > 0 {
		msg += " " + t.styles.muted.Render(fmt.Sprintf("(%s)", runtime.FormatElapsed(elapsed)))
	}
	b.WriteString(t.statusLine(LabelWait, started, t.current.Task, msg))
	b.WriteByte('\n')
	if len(lines) > 0 {
		b.WriteString(t.styles.panel.Render(strings.Join(lines, "\n")))
		b.WriteByte('\n')
	}
	b.WriteString(t.bars())
	return b.String()
}

// bars renders the enabled progress bars, one per line.
func (t *Terminal) bars() string {
	var b strings.Builder
	if t.cfg.ShowMainProgress && t.total > 0 {
		b.WriteString(renderBar(t.styles.mainBar, t.styles.barTrack, t.done, t.total))
		b.WriteByte('\n')
	}
	if t.cfg.ShowSubProgress && t.taskTotal > 0 {
		b.WriteString(renderBar(t.styles.subBar, t.styles.barTrack, t.taskDone, t.taskTotal))
		b.WriteByte('\n')
	}
	return b.String()
}

// redraw replaces the live region with block.
func (t *Terminal) redraw(block string) {
	t.clearLive()
	if block == "" {
		return
	}
	if !strings.HasSuffix(block, "\n") {
		block += "\n"
	}
	fmt.Fprint(t.out, block)
	t.drawn = strings.Count(block, "\n")
}

// clearLive erases the live region.
func (t *Terminal) clearLive() {
	if t.drawn == 0 {
		return
	}
	fmt.Fprint(t.out, "\r"+ansi.CursorUp(t.drawn)+ansi.EraseScreenBelow)
	t.drawn = 0
}

func (t *Terminal) println(s string) {
	fmt.Fprintln(t.out, s)
}
