// SPDX-License-Identifier: MPL-2.0

package runtime

import "time"

type (
	// Event is a notification from the engine to a Presenter.
	Event interface {
		isEvent()
	}

	// Presenter consumes engine events. Present is only ever called from the
	// engine's control goroutine.
	Presenter interface {
		Present(Event)
	}

	// PresenterFunc adapts a function to Presenter.
	PresenterFunc func(Event)

	// Recorder persists step outcomes. Every executed step is recorded,
	// silent ones included.
	Recorder interface {
		Record(StepOutcome)
	}

	// RunStarted opens a run.
	RunStarted struct {
		Target string
		Tasks  []string
		// Total is the number of steps in the plan.
		Total int
	}

	// RunFinished closes a run.
	RunFinished struct {
		OK bool
	}

	// TaskStarted announces a task and its step count.
	TaskStarted struct {
		Task  string
		Steps int
	}

	// TaskFinished closes a task.
	TaskFinished struct {
		Task string
		OK   bool
	}

	// StepStarted announces a non-silent step.
	StepStarted struct {
		Task    string
		Label   string
		Command string
		Time    time.Time
	}

	// StepOutput carries one live output line of a running step.
	StepOutput struct {
		Task string
		Line string
	}

	// Snapshot is the live view of a running step, published at most once per
	// refresh interval and only after the grace delay.
	Snapshot struct {
		Task    string
		Header  string
		Lines   []string
		Elapsed time.Duration
	}

	// StepFinished carries the outcome of a non-silent step.
	StepFinished struct {
		Outcome StepOutcome
	}

	// Info is an informational line from an info-only step.
	Info struct {
		Task    string
		Message string
	}

	// Progress advances after every processed step.
	Progress struct {
		Task      string
		Done      int
		Total     int
		TaskDone  int
		TaskTotal int
	}
)

// Present calls f(e).
func (f PresenterFunc) Present(e Event) { f(e) }

func (RunStarted) isEvent()   {}
func (RunFinished) isEvent()  {}
func (TaskStarted) isEvent()  {}
func (TaskFinished) isEvent() {}
func (StepStarted) isEvent()  {}
func (StepOutput) isEvent()   {}
func (Snapshot) isEvent()     {}
func (StepFinished) isEvent() {}
func (Info) isEvent()         {}
func (Progress) isEvent()     {}

type (
	nopPresenter struct{}
	nopRecorder  struct{}
)

func (nopPresenter) Present(Event)      {}
func (nopRecorder) Record(StepOutcome) {}
