// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pluttan/volumes/internal/config"
)

const swatch = "■"

func newConfigCommand(app *App, flags *rootFlags) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize the user configuration",
		Long: `Inspect and initialize the user configuration.

Settings are merged from the built-in defaults, the user config file, the
[config] section of the task table, a #--config: block at the top of a
Makefile or script, VOL_<KEY> environment variables and the command line.`,
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration as CUE",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runConfigShow(cmd, app, flags)
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the user config file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := config.UserConfigPath(app.loadOptions(flags))
				if err != nil {
					return app.fail(cmd, err, flags.verbose)
				}
				fmt.Fprintln(app.stdout, path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write a default config file unless one exists",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runConfigInit(cmd, app, flags)
			},
		},
		&cobra.Command{
			Use:   "themes",
			Short: "List the built-in color themes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runConfigThemes(cmd, app, flags)
			},
		},
	)

	return configCmd
}

func runConfigShow(cmd *cobra.Command, app *App, flags *rootFlags) error {
	cfg, err := app.Config.Load(cmd.Context(), app.loadOptions(flags))
	if err != nil {
		return app.fail(cmd, err, flags.verbose)
	}

	source := SubtitleStyle.Render("(using defaults)")
	if path := app.Config.Path(); path != "" {
		source = path
	}
	fmt.Fprintf(app.stdout, "// %s: %s\n\n", CmdStyle.Render("Config file"), source)
	fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
	return nil
}

func runConfigInit(cmd *cobra.Command, app *App, flags *rootFlags) error {
	path, err := config.UserConfigPath(app.loadOptions(flags))
	if err != nil {
		return app.fail(cmd, err, flags.verbose)
	}
	created, err := config.CreateDefaultConfig(path)
	if err != nil {
		return app.fail(cmd, err, flags.verbose)
	}
	if !created {
		fmt.Fprintf(app.stdout, "%s Configuration already exists at %s\n", warningIcon, path)
		return nil
	}
	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", successIcon, path)
	return nil
}

// runConfigThemes prints every preset with a swatch of its colors. The
// configured theme is marked; a configuration that fails to load only
// loses the marker.
func runConfigThemes(cmd *cobra.Command, app *App, flags *rootFlags) error {
	current := config.ThemeDefault
	if cfg, err := app.Config.Load(cmd.Context(), app.loadOptions(flags)); err == nil {
		current = cfg.ColorTheme
	} else {
		app.logger.Debug("config not loaded", "err", err)
	}

	for _, name := range config.Presets() {
		theme, _ := config.PresetTheme(name)
		marker := " "
		if name == current {
			marker = SuccessStyle.Render("*")
		}
		fmt.Fprintf(app.stdout, "%s %-12s %s\n", marker, name, themeSwatch(theme))
	}
	return nil
}

func themeSwatch(t config.Theme) string {
	colors := []string{t.Wait, t.OK, t.Warn, t.Error, t.Info, t.Header, t.PanelBorder}
	var b strings.Builder
	for _, c := range colors {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render(swatch))
	}
	return b.String()
}
