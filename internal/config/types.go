// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	// ShellNative runs steps through the host shell.
	// Defined locally to avoid coupling config to internal/runtime.
	ShellNative ShellMode = "native"
	// ShellVirtual runs steps in the embedded mvdan/sh interpreter.
	ShellVirtual ShellMode = "virtual"

	// LogFormatText writes logfmt-style run log records.
	LogFormatText LogFormat = "text"
	// LogFormatJSON writes one JSON object per run log record.
	LogFormatJSON LogFormat = "json"

	// minPanelWidth is the narrowest live output panel that still renders a border.
	minPanelWidth = 10
)

var (
	// ErrInvalidShellMode is returned when a ShellMode value is not recognized.
	ErrInvalidShellMode = errors.New("invalid shell mode")
	// ErrInvalidLogFormat is returned when a LogFormat value is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format")
	// ErrInvalidColorTheme is returned when a ColorTheme is not a known preset.
	ErrInvalidColorTheme = errors.New("invalid color theme")
	// ErrInvalidSetting is the sentinel error wrapped by InvalidSettingError.
	ErrInvalidSetting = errors.New("invalid setting")
	// ErrInvalidUIConfig is the sentinel error wrapped by InvalidUIConfigError.
	ErrInvalidUIConfig = errors.New("invalid UI config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ShellMode selects the shell that runs steps.
	ShellMode string

	// InvalidShellModeError is returned when a ShellMode value is not recognized.
	// It wraps ErrInvalidShellMode for errors.Is() compatibility.
	InvalidShellModeError struct {
		Value ShellMode
	}

	// LogFormat selects the run log encoding.
	LogFormat string

	// InvalidLogFormatError is returned when a LogFormat value is not recognized.
	InvalidLogFormatError struct {
		Value LogFormat
	}

	// ColorTheme names a built-in color preset.
	ColorTheme string

	// InvalidColorThemeError is returned when a ColorTheme is not a known preset.
	// It wraps ErrInvalidColorTheme for errors.Is() compatibility.
	InvalidColorThemeError struct {
		Value ColorTheme
	}

	// InvalidSettingError reports a single out-of-range setting.
	InvalidSettingError struct {
		Key    string
		Value  any
		Reason string
	}

	// InvalidUIConfigError collects field-level errors of the display settings.
	// It wraps ErrInvalidUIConfig for errors.Is() compatibility.
	InvalidUIConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Theme holds the colors used by the terminal presenter. Values are
	// lipgloss colors: ANSI indices ("4") or hex strings ("#89b4fa").
	// Empty entries fall back to the selected preset.
	Theme struct {
		Wait        string `json:"wait" mapstructure:"wait"`
		OK          string `json:"ok" mapstructure:"ok"`
		Warn        string `json:"warn" mapstructure:"warn"`
		Error       string `json:"error" mapstructure:"error"`
		Info        string `json:"info" mapstructure:"info"`
		Header      string `json:"header" mapstructure:"header"`
		MainBar     string `json:"main_bar" mapstructure:"main_bar"`
		SubBar      string `json:"sub_bar" mapstructure:"sub_bar"`
		PanelBorder string `json:"panel_border" mapstructure:"panel_border"`
	}

	// Config holds the effective vol configuration.
	Config struct {
		// ClearScreen clears the terminal before a run.
		ClearScreen bool `json:"clear_screen" mapstructure:"clear_screen"`
		// BottomUp pads the screen so output grows from the bottom.
		BottomUp bool `json:"bottom_up" mapstructure:"bottom_up"`

		ShowHeader       bool   `json:"show_header" mapstructure:"show_header"`
		ShowFooter       bool   `json:"show_footer" mapstructure:"show_footer"`
		HeaderText       string `json:"header_text" mapstructure:"header_text"`
		ErrorMessage     string `json:"error_message" mapstructure:"error_message"`
		ShowErrorMessage bool   `json:"show_error_message" mapstructure:"show_error_message"`

		ShowMainProgress bool `json:"show_main_progress" mapstructure:"show_main_progress"`
		ShowSubProgress  bool `json:"show_sub_progress" mapstructure:"show_sub_progress"`
		ShowStatusLabel  bool `json:"show_status_label" mapstructure:"show_status_label"`
		ShowTime         bool `json:"show_time" mapstructure:"show_time"`
		ShowTaskName     bool `json:"show_task_name" mapstructure:"show_task_name"`

		// SyntaxTheme is a chroma style name used to highlight commands.
		SyntaxTheme string `json:"syntax_theme" mapstructure:"syntax_theme"`

		PanelWidth       int  `json:"panel_width" mapstructure:"panel_width"`
		PanelHeight      int  `json:"panel_height" mapstructure:"panel_height"`
		WrapLines        bool `json:"wrap_lines" mapstructure:"wrap_lines"`
		DelayMS          int  `json:"delay_ms" mapstructure:"delay_ms"`
		RefreshPerSecond int  `json:"refresh_per_second" mapstructure:"refresh_per_second"`

		LogFile   string    `json:"log_file" mapstructure:"log_file"`
		LogFormat LogFormat `json:"log_format" mapstructure:"log_format"`
		Verbose   bool      `json:"verbose" mapstructure:"verbose"`

		ColorTheme ColorTheme `json:"color_theme" mapstructure:"color_theme"`
		Theme      Theme      `json:"theme" mapstructure:"theme"`

		Shell        ShellMode     `json:"shell" mapstructure:"shell"`
		ShellPath    string        `json:"shell_path" mapstructure:"shell_path"`
		Pty          bool          `json:"pty" mapstructure:"pty"`
		ShellTimeout time.Duration `json:"shell_timeout" mapstructure:"shell_timeout"`
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		ClearScreen:      true,
		BottomUp:         true,
		ShowHeader:       true,
		ShowFooter:       true,
		HeaderText:       "Volumes",
		ErrorMessage:     "Execution stopped because of an error",
		ShowErrorMessage: true,
		ShowMainProgress: true,
		ShowSubProgress:  true,
		ShowStatusLabel:  true,
		ShowTime:         true,
		ShowTaskName:     true,
		SyntaxTheme:      "monokai",
		PanelWidth:       60,
		PanelHeight:      10,
		WrapLines:        true,
		DelayMS:          100,
		RefreshPerSecond: 15,
		LogFile:          "./vol.log",
		LogFormat:        LogFormatText,
		ColorTheme:       ThemeDefault,
		Shell:            ShellNative,
		ShellTimeout:     10 * time.Second,
	}
}

// GraceDelay is how long a step may run before the live panel opens.
func (c *Config) GraceDelay() time.Duration {
	return time.Duration(c.DelayMS) * time.Millisecond
}

// RefreshInterval is the live panel redraw period.
func (c *Config) RefreshInterval() time.Duration {
	if c.RefreshPerSecond <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(c.RefreshPerSecond)
}

// Palette resolves the color theme: the selected preset overlaid with any
// explicitly configured colors.
func (c *Config) Palette() Theme {
	base, ok := PresetTheme(c.ColorTheme)
	if !ok {
		base, _ = PresetTheme(ThemeDefault)
	}
	return base.Overlay(c.Theme)
}

// ShowErrorFooter reports whether the error footer is printed after a failed run.
func (c *Config) ShowErrorFooter() bool {
	return c.ShowFooter && c.ShowErrorMessage
}

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ColorTheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Shell.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.LogFormat.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.validateUI(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.ShellTimeout <= 0 {
		errs = append(errs, &InvalidSettingError{Key: "shell_timeout", Value: c.ShellTimeout, Reason: "must be positive"})
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// validateUI checks the numeric display settings.
func (c Config) validateUI() (bool, []error) {
	var errs []error
	if c.PanelWidth < minPanelWidth {
		errs = append(errs, &InvalidSettingError{Key: "panel_width", Value: c.PanelWidth, Reason: fmt.Sprintf("must be at least %d", minPanelWidth)})
	}
	if c.PanelHeight < 1 {
		errs = append(errs, &InvalidSettingError{Key: "panel_height", Value: c.PanelHeight, Reason: "must be at least 1"})
	}
	if c.DelayMS < 0 {
		errs = append(errs, &InvalidSettingError{Key: "delay_ms", Value: c.DelayMS, Reason: "must not be negative"})
	}
	if c.RefreshPerSecond < 1 {
		errs = append(errs, &InvalidSettingError{Key: "refresh_per_second", Value: c.RefreshPerSecond, Reason: "must be at least 1"})
	}
	if len(errs) > 0 {
		return false, []error{&InvalidUIConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Error implements the error interface for InvalidUIConfigError.
func (e *InvalidUIConfigError) Error() string {
	return fmt.Sprintf("invalid UI config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidUIConfig for errors.Is() compatibility.
func (e *InvalidUIConfigError) Unwrap() error { return ErrInvalidUIConfig }

func (e *InvalidSettingError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Key, e.Value, e.Reason)
}

// Unwrap returns ErrInvalidSetting for errors.Is() compatibility.
func (e *InvalidSettingError) Unwrap() error { return ErrInvalidSetting }

// String returns the string representation of the ShellMode.
func (m ShellMode) String() string { return string(m) }

// IsValid returns whether the ShellMode is one of the defined modes.
func (m ShellMode) IsValid() (bool, []error) {
	switch m {
	case ShellNative, ShellVirtual:
		return true, nil
	default:
		return false, []error{&InvalidShellModeError{Value: m}}
	}
}

// Error implements the error interface for InvalidShellModeError.
func (e *InvalidShellModeError) Error() string {
	return fmt.Sprintf("invalid shell mode %q (valid: native, virtual)", e.Value)
}

// Unwrap returns ErrInvalidShellMode for errors.Is() compatibility.
func (e *InvalidShellModeError) Unwrap() error { return ErrInvalidShellMode }

// String returns the string representation of the LogFormat.
func (f LogFormat) String() string { return string(f) }

// IsValid returns whether the LogFormat is one of the defined formats.
func (f LogFormat) IsValid() (bool, []error) {
	switch f {
	case LogFormatText, LogFormatJSON:
		return true, nil
	default:
		return false, []error{&InvalidLogFormatError{Value: f}}
	}
}

// Error implements the error interface for InvalidLogFormatError.
func (e *InvalidLogFormatError) Error() string {
	return fmt.Sprintf("invalid log format %q (valid: text, json)", e.Value)
}

// Unwrap returns ErrInvalidLogFormat for errors.Is() compatibility.
func (e *InvalidLogFormatError) Unwrap() error { return ErrInvalidLogFormat }

// String returns the string representation of the ColorTheme.
func (t ColorTheme) String() string { return string(t) }

// IsValid returns whether the ColorTheme names a known preset.
func (t ColorTheme) IsValid() (bool, []error) {
	if _, ok := presets[t]; ok {
		return true, nil
	}
	return false, []error{&InvalidColorThemeError{Value: t}}
}

// Error implements the error interface for InvalidColorThemeError.
func (e *InvalidColorThemeError) Error() string {
	return fmt.Sprintf("invalid color theme %q (valid: %s)", e.Value, joinThemes())
}

// Unwrap returns ErrInvalidColorTheme for errors.Is() compatibility.
func (e *InvalidColorThemeError) Unwrap() error { return ErrInvalidColorTheme }
