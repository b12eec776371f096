// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pluttan/volumes/internal/issue"
	"github.com/pluttan/volumes/pkg/cueutil"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "vol"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment variables that override settings.
	EnvPrefix = "VOL"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the vol configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// UserConfigPath returns the config.cue location honoring opts.
func UserConfigPath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, nil
	}
	dir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// setDefaults registers every key so that environment variables bind to it.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("clear_screen", d.ClearScreen)
	v.SetDefault("bottom_up", d.BottomUp)
	v.SetDefault("show_header", d.ShowHeader)
	v.SetDefault("show_footer", d.ShowFooter)
	v.SetDefault("header_text", d.HeaderText)
	v.SetDefault("error_message", d.ErrorMessage)
	v.SetDefault("show_error_message", d.ShowErrorMessage)
	v.SetDefault("show_main_progress", d.ShowMainProgress)
	v.SetDefault("show_sub_progress", d.ShowSubProgress)
	v.SetDefault("show_status_label", d.ShowStatusLabel)
	v.SetDefault("show_time", d.ShowTime)
	v.SetDefault("show_task_name", d.ShowTaskName)
	v.SetDefault("syntax_theme", d.SyntaxTheme)
	v.SetDefault("panel_width", d.PanelWidth)
	v.SetDefault("panel_height", d.PanelHeight)
	v.SetDefault("wrap_lines", d.WrapLines)
	v.SetDefault("delay_ms", d.DelayMS)
	v.SetDefault("refresh_per_second", d.RefreshPerSecond)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("log_format", string(d.LogFormat))
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("color_theme", string(d.ColorTheme))
	v.SetDefault("theme.wait", "")
	v.SetDefault("theme.ok", "")
	v.SetDefault("theme.warn", "")
	v.SetDefault("theme.error", "")
	v.SetDefault("theme.info", "")
	v.SetDefault("theme.header", "")
	v.SetDefault("theme.main_bar", "")
	v.SetDefault("theme.sub_bar", "")
	v.SetDefault("theme.panel_border", "")
	v.SetDefault("shell", string(d.Shell))
	v.SetDefault("shell_path", d.ShellPath)
	v.SetDefault("pty", d.Pty)
	v.SetDefault("shell_timeout", d.ShellTimeout.String())
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state. It returns the config and the user config file that
// was read, if any.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	// If a custom config file path is set via --config-file, use it exclusively.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithIssue(issue.ConfigLoadFailedId).
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'vol config init' to write a default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", cueLoadError(opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(cuePath) {
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, "", cueLoadError(cuePath, err)
			}
			resolvedPath = cuePath
		}
		// If no config file found, use defaults (no error)
	}

	for _, layer := range opts.Layers {
		if len(layer.Values) == 0 {
			continue
		}
		if err := v.MergeConfigMap(layer.Values); err != nil {
			return nil, "", fmt.Errorf("failed to merge %s settings: %w", layer.Source, err)
		}
	}

	for key, val := range opts.Overrides {
		v.Set(key, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("decode configuration").
			WithIssue(issue.ConfigLoadFailedId).
			WithResource(describeSources(resolvedPath, opts.Layers)).
			WithSuggestion("Check the types of the configured values (booleans, integers, durations like \"10s\")").
			Wrap(err).
			BuildError()
	}
	cfg.LogFile = os.ExpandEnv(cfg.LogFile)

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithIssue(issue.ConfigLoadFailedId).
			WithResource(describeSources(resolvedPath, opts.Layers)).
			WithSuggestion("Run 'vol config themes' to list the available color themes").
			WithSuggestion("Run 'vol config show' to inspect the effective configuration").
			Wrap(flattenErrors(errs)).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func cueLoadError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithIssue(issue.ConfigLoadFailedId).
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithSuggestion("See 'vol config --help' for configuration options").
		Wrap(err).
		BuildError()
}

// flattenErrors joins a validation result, keeping the nested field errors
// reachable through errors.As.
func flattenErrors(errs []error) error {
	var out []error
	for _, err := range errs {
		out = append(out, err)
		var cfgErr *InvalidConfigError
		if errors.As(err, &cfgErr) {
			for _, fe := range cfgErr.FieldErrors {
				var uiErr *InvalidUIConfigError
				if errors.As(fe, &uiErr) {
					out = append(out, uiErr.FieldErrors...)
					continue
				}
				out = append(out, fe)
			}
		}
	}
	return errors.Join(out...)
}

func describeSources(path string, layers []Layer) string {
	var parts []string
	if path != "" {
		parts = append(parts, path)
	}
	for _, l := range layers {
		if len(l.Values) > 0 {
			parts = append(parts, l.Source)
		}
	}
	if len(parts) == 0 {
		return "defaults"
	}
	return strings.Join(parts, ", ")
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.DecodeMap(configSchema, data, "#Config", cueutil.WithFilename(path), cueutil.WithConcrete())
	if err != nil {
		return err
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default config file to path unless one exists.
// It reports whether a file was written.
func CreateDefaultConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}

	return true, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// vol configuration file\n")
	sb.WriteString("// Keys may also be set in the [config] section of vol.toml,\n")
	sb.WriteString("// in a #--config: block, or with VOL_<KEY> environment variables.\n\n")

	fmt.Fprintf(&sb, "clear_screen: %v\n", cfg.ClearScreen)
	fmt.Fprintf(&sb, "bottom_up:    %v\n", cfg.BottomUp)

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "show_header:        %v\n", cfg.ShowHeader)
	fmt.Fprintf(&sb, "show_footer:        %v\n", cfg.ShowFooter)
	fmt.Fprintf(&sb, "header_text:        %q\n", cfg.HeaderText)
	fmt.Fprintf(&sb, "error_message:      %q\n", cfg.ErrorMessage)
	fmt.Fprintf(&sb, "show_error_message: %v\n", cfg.ShowErrorMessage)

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "show_main_progress: %v\n", cfg.ShowMainProgress)
	fmt.Fprintf(&sb, "show_sub_progress:  %v\n", cfg.ShowSubProgress)
	fmt.Fprintf(&sb, "show_status_label:  %v\n", cfg.ShowStatusLabel)
	fmt.Fprintf(&sb, "show_time:          %v\n", cfg.ShowTime)
	fmt.Fprintf(&sb, "show_task_name:     %v\n", cfg.ShowTaskName)

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "syntax_theme:       %q\n", cfg.SyntaxTheme)
	fmt.Fprintf(&sb, "panel_width:        %d\n", cfg.PanelWidth)
	fmt.Fprintf(&sb, "panel_height:       %d\n", cfg.PanelHeight)
	fmt.Fprintf(&sb, "wrap_lines:         %v\n", cfg.WrapLines)
	fmt.Fprintf(&sb, "delay_ms:           %d\n", cfg.DelayMS)
	fmt.Fprintf(&sb, "refresh_per_second: %d\n", cfg.RefreshPerSecond)

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "log_file:   %q\n", cfg.LogFile)
	fmt.Fprintf(&sb, "log_format: %q\n", cfg.LogFormat)
	fmt.Fprintf(&sb, "verbose:    %v\n", cfg.Verbose)

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "color_theme: %q\n", cfg.ColorTheme)
	if theme := themeEntries(cfg.Theme); len(theme) > 0 {
		sb.WriteString("theme: {\n")
		for _, kv := range theme {
			fmt.Fprintf(&sb, "\t%s: %q\n", kv[0], kv[1])
		}
		sb.WriteString("}\n")
	}

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "shell: %q\n", cfg.Shell)
	if cfg.ShellPath != "" {
		fmt.Fprintf(&sb, "shell_path: %q\n", cfg.ShellPath)
	}
	fmt.Fprintf(&sb, "pty: %v\n", cfg.Pty)
	fmt.Fprintf(&sb, "shell_timeout: %q\n", cfg.ShellTimeout.String())

	return sb.String()
}

// themeEntries lists the explicitly set theme colors in schema order.
func themeEntries(t Theme) [][2]string {
	all := [][2]string{
		{"wait", t.Wait}, {"ok", t.OK}, {"warn", t.Warn}, {"error", t.Error}, {"info", t.Info},
		{"header", t.Header}, {"main_bar", t.MainBar}, {"sub_bar", t.SubBar}, {"panel_border", t.PanelBorder},
	}
	var out [][2]string
	for _, kv := range all {
		if kv[1] != "" {
			out = append(out, kv)
		}
	}
	return out
}
