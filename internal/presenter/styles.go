// SPDX-License-Identifier: MPL-2.0

package presenter

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pluttan/volumes/internal/config"
	"github.com/pluttan/volumes/internal/runtime"
)

// Status labels.
const (
	LabelWait  Label = "WAIT"
	LabelOK    Label = "OK"
	LabelWarn  Label = "WARN"
	LabelError Label = "ERROR"
	LabelInfo  Label = "INFO"
)

// mutedColor is used for timestamps, elapsed labels and empty bar cells.
const mutedColor = lipgloss.Color("8")

type (
	// Label is the status shown in the first column of a status line.
	Label string

	styles struct {
		wait, ok, warn, err, info lipgloss.Style

		header   lipgloss.Style
		footer   lipgloss.Style
		muted    lipgloss.Style
		mainBar  lipgloss.Style
		subBar   lipgloss.Style
		barTrack lipgloss.Style
		panel    lipgloss.Style
	}
)

// labelFor maps an outcome to its status label.
func labelFor(kind runtime.OutcomeKind) Label {
	switch kind {
	case runtime.OutcomeSuccess:
		return LabelOK
	case runtime.OutcomeIgnored:
		return LabelWarn
	default:
		return LabelError
	}
}

func newStyles(r *lipgloss.Renderer, theme config.Theme, panelWidth int) styles {
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}
	return styles{
		wait: fg(theme.Wait).Bold(true),
		ok:   fg(theme.OK).Bold(true),
		warn: fg(theme.Warn).Bold(true),
		err:  fg(theme.Error).Bold(true),
		info: fg(theme.Info).Bold(true),

		header:   fg(theme.Header).Bold(true),
		footer:   fg(theme.Error).Bold(true),
		muted:    r.NewStyle().Foreground(mutedColor),
		mainBar:  fg(theme.MainBar),
		subBar:   fg(theme.SubBar),
		barTrack: r.NewStyle().Foreground(mutedColor),
		panel: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(theme.PanelBorder)).
			Padding(0, 1).
			Width(max(panelWidth-2, 1)),
	}
}

func (s styles) label(l Label) lipgloss.Style {
	switch l {
	case LabelOK:
		return s.ok
	case LabelWarn:
		return s.warn
	case LabelError:
		return s.err
	case LabelInfo:
		return s.info
	default:
		return s.wait
	}
}
